package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/bafcc/camp-admin/internal/utils"
	"github.com/bafcc/camp-admin/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"imageSrc": imageSrc,
	"money":    formatMoney,
	"add":      func(a, b int) int { return a + b },
	"field":    func(f ledgerField, value string) fieldValue { return fieldValue{ledgerField: f, Value: value} },
}

// imageSrc passes through inline images only.
func imageSrc(v *string) template.URL {
	src := utils.Value(v)
	if !strings.HasPrefix(src, "data:image/") {
		return ""
	}
	return template.URL(src)
}

// ParseTemplate parses a page together with the shared layout and form
// fragments from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), "layout.html", "form_fields.html", name)
}

type pages struct {
	index       *template.Template
	login       *template.Template
	dashboard   *template.Template
	application *template.Template
	edit        *template.Template
	financials  *template.Template
	print       *template.Template
	report      *template.Template
	error       *template.Template
}

func parsePages() (*pages, error) {
	p := &pages{}
	for name, dst := range map[string]**template.Template{
		"index.html":             &p.index,
		"login.html":             &p.login,
		"dashboard.html":         &p.dashboard,
		"application.html":       &p.application,
		"application_edit.html":  &p.edit,
		"application_print.html": &p.print,
		"financials.html":        &p.financials,
		"financial_report.html":  &p.report,
		"error.html":             &p.error,
	} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = tmpl
	}
	return p, nil
}

// layoutData is handed to every page. Page carries the page specific data.
type layoutData struct {
	AppName string
	Title   string
	User    *users.Profile
	Page    any
}

// render executes into a buffer first so a template failure never leaves a
// half written page behind.
func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, title string, page any) {
	data := layoutData{
		AppName: s.config.GetAppName(),
		Title:   title,
		User:    s.session.State().Snapshot().User,
		Page:    page,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPageData struct {
	Status  int
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if r.Header.Get("HX-Request") == "true" {
		http.Error(w, message, status)
		return
	}
	s.render(w, status, s.pages.error, http.StatusText(status), errorPageData{Status: status, Message: message})
}
