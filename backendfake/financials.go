package backendfake

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/bafcc/camp-admin/financials"
)

const timestampLayout = "2006-01-02T15:04:05"

// fakeLedger is one id-keyed collection. All access happens under the
// backend lock.
type fakeLedger[T any] struct {
	nextID int
	items  map[int]T
}

func newFakeLedger[T any]() *fakeLedger[T] {
	return &fakeLedger[T]{nextID: 1, items: make(map[int]T)}
}

func (l *fakeLedger[T]) sorted() []T {
	out := make([]T, 0, len(l.items))
	for _, id := range slices.Sorted(maps.Keys(l.items)) {
		out = append(out, l.items[id])
	}
	return out
}

// ledgerRoutes describes how one collection is served. build runs with the
// backend lock held and returns an error for invalid input.
type ledgerRoutes[T, In any] struct {
	name   string
	ledger *fakeLedger[T]
	build  func(id int, in In) (T, error)
	keep   func(item T, q url.Values) bool
	amount func(T) float64
}

func mountLedger[T, In any](b *Backend, lr ledgerRoutes[T, In]) {
	base := "/api/v1/financials/" + lr.name + "/"
	b.mux.HandleFunc("GET "+base+"{$}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := queryInt(r, "page", 1)
		size := queryInt(r, "size", financials.DefaultPageSize)

		b.lock.Lock()
		all := lr.ledger.sorted()
		b.lock.Unlock()

		var kept []T
		var total float64
		for _, item := range all {
			if lr.keep(item, q) {
				kept = append(kept, item)
				total += lr.amount(item)
			}
		}
		start := min((page-1)*size, len(kept))
		end := min(start+size, len(kept))
		items := append([]T{}, kept[start:end]...)
		writeJSON(w, http.StatusOK, financials.Page[T]{
			Items:       items,
			Total:       len(kept),
			Page:        page,
			Size:        size,
			Pages:       (len(kept) + size - 1) / size,
			TotalAmount: &total,
		})
	}))
	b.mux.HandleFunc("POST "+base+"{$}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
			return
		}
		b.lock.Lock()
		id := lr.ledger.nextID
		item, err := lr.build(id, in)
		if err == nil {
			lr.ledger.nextID++
			lr.ledger.items[id] = item
		}
		b.lock.Unlock()
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}))
	b.mux.HandleFunc("PUT "+base+"{id}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
			return
		}
		b.lock.Lock()
		_, ok := lr.ledger.items[id]
		var item T
		var err error
		if ok {
			item, err = lr.build(id, in)
			if err == nil {
				lr.ledger.items[id] = item
			}
		}
		b.lock.Unlock()
		switch {
		case !ok:
			writeDetail(w, http.StatusNotFound, "Entry not found")
		case err != nil:
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeJSON(w, http.StatusOK, item)
		}
	}))
	b.mux.HandleFunc("DELETE "+base+"{id}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		b.lock.Lock()
		_, ok := lr.ledger.items[id]
		delete(lr.ledger.items, id)
		b.lock.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, "Entry not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func (b *Backend) financialRoutes() {
	b.mux.HandleFunc("GET /api/v1/financials/members/{$}", b.authorized(b.handleListMembers))
	b.mux.HandleFunc("POST /api/v1/financials/members/{$}", b.authorized(b.handleSaveMember))
	b.mux.HandleFunc("GET /api/v1/financials/members/names/{$}", b.authorized(b.handleMemberNames))
	b.mux.HandleFunc("PUT /api/v1/financials/members/{id}", b.authorized(b.handleSaveMember))
	b.mux.HandleFunc("DELETE /api/v1/financials/members/{id}", b.authorized(b.handleDeleteMember))
	b.mux.HandleFunc("GET /api/v1/financials/report/{$}", b.authorized(b.handleReport))

	mountLedger(b, ledgerRoutes[financials.PlayerDeposit, financials.PlayerDepositInput]{
		name:   "player_deposits",
		ledger: b.playerDeposits,
		build: func(id int, in financials.PlayerDepositInput) (financials.PlayerDeposit, error) {
			app, ok := b.apps[in.PlayerID]
			if !ok {
				return financials.PlayerDeposit{}, errors.New("player not found")
			}
			return financials.PlayerDeposit{
				ID: id, PlayerID: in.PlayerID, PlayerName: app.Name, PlayerRegistrationNumber: app.RegistrationNumber,
				Month: in.Month, Year: in.Year, Amount: in.Amount, Description: in.Description,
				DepositDate: in.DepositDate, CreatedAt: now(),
			}, checkEntry(in.Month, in.Year, in.Amount)
		},
		keep: func(d financials.PlayerDeposit, q url.Values) bool {
			return inPeriod(q, d.Month, d.Year) && matchesEntity(q, "player_id", d.PlayerID) && matchesSearch(q, d.PlayerName, d.Description)
		},
		amount: func(d financials.PlayerDeposit) float64 { return d.Amount },
	})
	mountLedger(b, ledgerRoutes[financials.MemberDeposit, financials.MemberDepositInput]{
		name:   "member_deposits",
		ledger: b.memberDeposits,
		build: func(id int, in financials.MemberDepositInput) (financials.MemberDeposit, error) {
			member, ok := b.members.items[in.MemberID]
			if !ok {
				return financials.MemberDeposit{}, errors.New("member not found")
			}
			return financials.MemberDeposit{
				ID: id, MemberID: in.MemberID, MemberName: member.Name,
				Month: in.Month, Year: in.Year, Amount: in.Amount, Description: in.Description, CreatedAt: now(),
			}, checkEntry(in.Month, in.Year, in.Amount)
		},
		keep: func(d financials.MemberDeposit, q url.Values) bool {
			return inPeriod(q, d.Month, d.Year) && matchesEntity(q, "member_id", d.MemberID) && matchesSearch(q, d.MemberName, d.Description)
		},
		amount: func(d financials.MemberDeposit) float64 { return d.Amount },
	})
	mountLedger(b, ledgerRoutes[financials.Donation, financials.DonationInput]{
		name:   "donations",
		ledger: b.donations,
		build: func(id int, in financials.DonationInput) (financials.Donation, error) {
			if strings.TrimSpace(in.DonorName) == "" {
				return financials.Donation{}, errors.New("donor_name is required")
			}
			return financials.Donation{
				ID: id, DonorName: in.DonorName,
				Month: in.Month, Year: in.Year, Amount: in.Amount, Description: in.Description, CreatedAt: now(),
			}, checkEntry(in.Month, in.Year, in.Amount)
		},
		keep: func(d financials.Donation, q url.Values) bool {
			return inPeriod(q, d.Month, d.Year) && matchesSearch(q, d.DonorName, d.Description)
		},
		amount: func(d financials.Donation) float64 { return d.Amount },
	})
	mountLedger(b, ledgerRoutes[financials.Expense, financials.ExpenseInput]{
		name:   "expenses",
		ledger: b.expenses,
		build: func(id int, in financials.ExpenseInput) (financials.Expense, error) {
			if strings.TrimSpace(in.Category) == "" {
				return financials.Expense{}, errors.New("category is required")
			}
			return financials.Expense{
				ID: id, Category: in.Category,
				Month: in.Month, Year: in.Year, Amount: in.Amount, Description: in.Description, CreatedAt: now(),
			}, checkEntry(in.Month, in.Year, in.Amount)
		},
		keep: func(e financials.Expense, q url.Values) bool {
			return inPeriod(q, e.Month, e.Year) && matchesSearch(q, e.Category, e.Description)
		},
		amount: func(e financials.Expense) float64 { return e.Amount },
	})
}

func (b *Backend) handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b.lock.Lock()
	all := b.members.sorted()
	b.lock.Unlock()

	out := make([]financials.Member, 0, len(all))
	for _, m := range all {
		if matchesSearch(q, m.Name) {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleMemberNames(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	all := b.members.sorted()
	b.lock.Unlock()

	out := make([]financials.MemberName, 0, len(all))
	for _, m := range all {
		out = append(out, financials.MemberName{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSaveMember creates a member, or renames one when the path has an id.
func (b *Backend) handleSaveMember(w http.ResponseWriter, r *http.Request) {
	var in financials.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if raw := r.PathValue("id"); raw != "" {
		id, _ := strconv.Atoi(raw)
		member, ok := b.members.items[id]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Member not found")
			return
		}
		member.Name = in.Name
		member.UpdatedAt = now()
		b.members.items[id] = member
		writeJSON(w, http.StatusOK, member)
		return
	}
	member := financials.Member{ID: b.members.nextID, Name: in.Name, CreatedAt: now()}
	b.members.nextID++
	b.members.items[member.ID] = member
	writeJSON(w, http.StatusCreated, member)
}

func (b *Backend) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	b.lock.Lock()
	_, ok := b.members.items[id]
	delete(b.members.items, id)
	b.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Member not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport sums the ledgers for the requested month and year.
func (b *Backend) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	report := financials.Report{Month: q.Get("month"), Year: year}

	b.lock.Lock()
	for _, d := range b.playerDeposits.items {
		if inPeriod(q, d.Month, d.Year) {
			report.TotalPlayerDeposits += d.Amount
		}
	}
	for _, d := range b.memberDeposits.items {
		if inPeriod(q, d.Month, d.Year) {
			report.TotalMemberDeposits += d.Amount
		}
	}
	for _, d := range b.donations.items {
		if inPeriod(q, d.Month, d.Year) {
			report.TotalDonations += d.Amount
		}
	}
	byCategory := map[string]float64{}
	for _, e := range b.expenses.items {
		if inPeriod(q, e.Month, e.Year) {
			byCategory[e.Category] += e.Amount
			report.TotalExpenses += e.Amount
		}
	}
	b.lock.Unlock()

	report.ExpensesByCategory = []financials.CategoryTotal{}
	for category, amount := range byCategory {
		report.ExpensesByCategory = append(report.ExpensesByCategory, financials.CategoryTotal{Category: category, Amount: amount})
	}
	slices.SortFunc(report.ExpensesByCategory, func(x, y financials.CategoryTotal) int { return cmp.Compare(x.Category, y.Category) })
	report.TotalIncome = report.TotalPlayerDeposits + report.TotalMemberDeposits + report.TotalDonations
	report.MonthlyBalance = report.TotalIncome - report.TotalExpenses
	writeJSON(w, http.StatusOK, report)
}

func checkEntry(month string, year int, amount float64) error {
	switch {
	case month == "":
		return errors.New("month is required")
	case year <= 0:
		return fmt.Errorf("invalid year %d", year)
	case amount <= 0:
		return errors.New("amount must be positive")
	}
	return nil
}

func inPeriod(q url.Values, month string, year int) bool {
	if m := q.Get("month"); m != "" && !strings.EqualFold(m, month) {
		return false
	}
	if y, err := strconv.Atoi(q.Get("year")); err == nil && y != year {
		return false
	}
	return true
}

func matchesEntity(q url.Values, param string, id int) bool {
	want, err := strconv.Atoi(q.Get(param))
	return err != nil || want == id
}

func matchesSearch(q url.Values, fields ...string) bool {
	term := strings.ToLower(strings.TrimSpace(q.Get("search")))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func now() string {
	return NowTimeFunc().UTC().Format(timestampLayout)
}
