package backendfake

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/internal/utils"
)

// AddApplication stores form as a new application and returns it.
func (b *Backend) AddApplication(form applications.Form) applications.Application {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.addApplicationLocked(form)
}

// Applications returns the stored applications ordered by id.
func (b *Backend) Applications() []applications.Application {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.sortedLocked()
}

func (b *Backend) addApplicationLocked(form applications.Form) applications.Application {
	id := b.nextAppID
	b.nextAppID++
	app := applications.Application{
		ID:                 id,
		RegistrationNumber: fmt.Sprintf("BAFCC-%04d", id),
		CreatedAt:          now(),
		Form:               form,
	}
	b.apps[id] = app
	return app
}

func (b *Backend) sortedLocked() []applications.Application {
	out := make([]applications.Application, 0, len(b.apps))
	for _, a := range b.apps {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y applications.Application) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

func (b *Backend) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var form applications.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if form.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	writeJSON(w, http.StatusCreated, b.AddApplication(form))
}

func (b *Backend) handleListApplications(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", applications.DefaultPage)
	size := queryInt(r, "size", applications.DefaultPageSize)

	all := b.Applications()
	start := min((page-1)*size, len(all))
	end := min(start+size, len(all))
	writeJSON(w, http.StatusOK, applications.Page{
		Applications: all[start:end],
		Total:        len(all),
		Page:         page,
		Size:         size,
		Pages:        (len(all) + size - 1) / size,
	})
}

func (b *Backend) handleApplicationNames(w http.ResponseWriter, r *http.Request) {
	all := b.Applications()
	names := make([]applications.PlayerName, 0, len(all))
	for _, a := range all {
		names = append(names, applications.PlayerName{ID: a.ID, Name: a.Name, RegistrationNumber: a.RegistrationNumber})
	}
	writeJSON(w, http.StatusOK, names)
}

func (b *Backend) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := b.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (b *Backend) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := b.lookup(w, r)
	if !ok {
		return
	}
	var in applications.Application
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	app.Form = in.Form

	b.lock.Lock()
	b.apps[app.ID] = app
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, app)
}

func (b *Backend) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := b.lookup(w, r)
	if !ok {
		return
	}
	b.lock.Lock()
	delete(b.apps, app.ID)
	b.lock.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleApplicationImages(w http.ResponseWriter, r *http.Request) {
	app, ok := b.lookup(w, r)
	if !ok {
		return
	}
	var photo *string
	if app.ImageURL != "" {
		photo = utils.Ptr(app.ImageURL)
	}
	writeJSON(w, http.StatusOK, applications.WithImages{
		Application: app,
		Images:      applications.Images{Photo: photo},
	})
}

func (b *Backend) lookup(w http.ResponseWriter, r *http.Request) (applications.Application, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return applications.Application{}, false
	}
	b.lock.Lock()
	app, ok := b.apps[id]
	b.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Application not found")
		return applications.Application{}, false
	}
	return app, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
