package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bafcc/camp-admin/financials"
	"github.com/bafcc/camp-admin/guard"
	"github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/restclient"
	"github.com/rs/zerolog/log"
)

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var expenseCategories = []string{
	"Ground Rent/Maintenance",
	"Equipment Purchase",
	"Transportation Cost",
	"Referee Fees",
	"Tournament Fees",
	"Medical Expenses",
	"Others",
}

type fieldOption struct {
	Value string
	Label string
}

// ledgerField is one input of a ledger entry form. Type is an input type,
// "select" or "textarea".
type ledgerField struct {
	Name     string
	Label    string
	Type     string
	Options  []fieldOption
	Required bool
}

// fieldValue is a field rendered with its current value.
type fieldValue struct {
	ledgerField
	Value string
}

type ledgerRow struct {
	ID    int
	Cells []string
	// Values prefill the row's edit form, keyed by field name.
	Values map[string]string
}

type ledgerListing struct {
	Rows        []ledgerRow
	Total       int
	Page        int
	Pages       int
	TotalAmount *float64
}

// inputError is a form value the console refused before calling the backend.
type inputError string

func (e inputError) Error() string { return string(e) }

// ledgerScreen is one financial collection as the console shows it.
type ledgerScreen struct {
	Name     string
	Title    string
	Columns  []string
	Periodic bool

	fields func(ctx context.Context) ([]ledgerField, error)
	list   func(ctx context.Context, f financials.Filter) (*ledgerListing, error)
	// save creates an entry when id is 0 and updates it otherwise.
	save   func(ctx context.Context, id int, form url.Values) error
	remove func(ctx context.Context, id int) error
}

func ledgerScreenFor[T, In any](
	name, title string,
	columns []string,
	ledger *financials.Ledger[T, In],
	fields func(ctx context.Context) ([]ledgerField, error),
	row func(T) ledgerRow,
	parse func(url.Values) (In, error),
) *ledgerScreen {
	return &ledgerScreen{
		Name:     name,
		Title:    title,
		Columns:  columns,
		Periodic: true,
		fields:   fields,
		list: func(ctx context.Context, f financials.Filter) (*ledgerListing, error) {
			page, err := ledger.List(ctx, f)
			if err != nil {
				return nil, err
			}
			out := &ledgerListing{Total: page.Total, Page: page.Page, Pages: page.Pages, TotalAmount: page.TotalAmount}
			for _, item := range page.Items {
				out.Rows = append(out.Rows, row(item))
			}
			return out, nil
		},
		save: func(ctx context.Context, id int, form url.Values) error {
			in, err := parse(form)
			if err != nil {
				return err
			}
			if id == 0 {
				_, err = ledger.Create(ctx, in)
			} else {
				_, err = ledger.Update(ctx, id, in)
			}
			return err
		},
		remove: ledger.Delete,
	}
}

func (s *Server) newLedgerScreens() []*ledgerScreen {
	fin := s.financials
	static := func(fields ...ledgerField) func(context.Context) ([]ledgerField, error) {
		return func(context.Context) ([]ledgerField, error) { return fields, nil }
	}

	playerDeposits := ledgerScreenFor("player_deposits", "Player deposits",
		[]string{"Player", "Registration", "Month", "Year", "Amount", "Deposit date", "Description"},
		fin.PlayerDeposits,
		func(ctx context.Context) ([]ledgerField, error) {
			names, err := s.applications.Names(ctx)
			if err != nil {
				return nil, err
			}
			players := make([]fieldOption, 0, len(names))
			for _, n := range names {
				players = append(players, fieldOption{Value: strconv.Itoa(n.ID), Label: n.Name + " (" + n.RegistrationNumber + ")"})
			}
			fields := []ledgerField{{Name: "player_id", Label: "Player", Type: "select", Options: players, Required: true}}
			fields = append(fields, periodFields()...)
			return append(fields, ledgerField{Name: "deposit_date", Label: "Deposit date", Type: "date"}, descriptionField()), nil
		},
		func(d financials.PlayerDeposit) ledgerRow {
			return ledgerRow{
				ID:    d.ID,
				Cells: []string{d.PlayerName, d.PlayerRegistrationNumber, d.Month, strconv.Itoa(d.Year), formatMoney(d.Amount), d.DepositDate, d.Description},
				Values: periodValues(d.Month, d.Year, d.Amount, d.Description, map[string]string{
					"player_id":    strconv.Itoa(d.PlayerID),
					"deposit_date": d.DepositDate,
				}),
			}
		},
		func(form url.Values) (financials.PlayerDepositInput, error) {
			month, year, amount, err := parsePeriod(form)
			if err != nil {
				return financials.PlayerDepositInput{}, err
			}
			id, err := parseID(form, "player_id", "player")
			return financials.PlayerDepositInput{
				PlayerID:    id,
				Month:       month,
				Year:        year,
				Amount:      amount,
				DepositDate: strings.TrimSpace(form.Get("deposit_date")),
				Description: strings.TrimSpace(form.Get("description")),
			}, err
		},
	)

	memberDeposits := ledgerScreenFor("member_deposits", "Member deposits",
		[]string{"Member", "Month", "Year", "Amount", "Description"},
		fin.MemberDeposits,
		func(ctx context.Context) ([]ledgerField, error) {
			names, err := fin.MemberNames(ctx)
			if err != nil {
				return nil, err
			}
			members := make([]fieldOption, 0, len(names))
			for _, n := range names {
				members = append(members, fieldOption{Value: strconv.Itoa(n.ID), Label: n.Name})
			}
			fields := []ledgerField{{Name: "member_id", Label: "Member", Type: "select", Options: members, Required: true}}
			fields = append(fields, periodFields()...)
			return append(fields, descriptionField()), nil
		},
		func(d financials.MemberDeposit) ledgerRow {
			return ledgerRow{
				ID:     d.ID,
				Cells:  []string{d.MemberName, d.Month, strconv.Itoa(d.Year), formatMoney(d.Amount), d.Description},
				Values: periodValues(d.Month, d.Year, d.Amount, d.Description, map[string]string{"member_id": strconv.Itoa(d.MemberID)}),
			}
		},
		func(form url.Values) (financials.MemberDepositInput, error) {
			month, year, amount, err := parsePeriod(form)
			if err != nil {
				return financials.MemberDepositInput{}, err
			}
			id, err := parseID(form, "member_id", "member")
			return financials.MemberDepositInput{
				MemberID:    id,
				Month:       month,
				Year:        year,
				Amount:      amount,
				Description: strings.TrimSpace(form.Get("description")),
			}, err
		},
	)

	donations := ledgerScreenFor("donations", "Donations",
		[]string{"Donor", "Month", "Year", "Amount", "Description"},
		fin.Donations,
		static(append(append([]ledgerField{{Name: "donor_name", Label: "Donor", Type: "text", Required: true}}, periodFields()...), descriptionField())...),
		func(d financials.Donation) ledgerRow {
			return ledgerRow{
				ID:     d.ID,
				Cells:  []string{d.DonorName, d.Month, strconv.Itoa(d.Year), formatMoney(d.Amount), d.Description},
				Values: periodValues(d.Month, d.Year, d.Amount, d.Description, map[string]string{"donor_name": d.DonorName}),
			}
		},
		func(form url.Values) (financials.DonationInput, error) {
			month, year, amount, err := parsePeriod(form)
			if err != nil {
				return financials.DonationInput{}, err
			}
			donor := strings.TrimSpace(form.Get("donor_name"))
			if donor == "" {
				return financials.DonationInput{}, inputError("Donor name is required")
			}
			return financials.DonationInput{
				DonorName:   donor,
				Month:       month,
				Year:        year,
				Amount:      amount,
				Description: strings.TrimSpace(form.Get("description")),
			}, nil
		},
	)

	categories := make([]fieldOption, 0, len(expenseCategories))
	for _, c := range expenseCategories {
		categories = append(categories, fieldOption{Value: c, Label: c})
	}
	expenses := ledgerScreenFor("expenses", "Expenses",
		[]string{"Category", "Month", "Year", "Amount", "Description"},
		fin.Expenses,
		static(append(append([]ledgerField{{Name: "category", Label: "Category", Type: "select", Options: categories, Required: true}}, periodFields()...), descriptionField())...),
		func(e financials.Expense) ledgerRow {
			return ledgerRow{
				ID:     e.ID,
				Cells:  []string{e.Category, e.Month, strconv.Itoa(e.Year), formatMoney(e.Amount), e.Description},
				Values: periodValues(e.Month, e.Year, e.Amount, e.Description, map[string]string{"category": e.Category}),
			}
		},
		func(form url.Values) (financials.ExpenseInput, error) {
			month, year, amount, err := parsePeriod(form)
			if err != nil {
				return financials.ExpenseInput{}, err
			}
			category := form.Get("category")
			if !slices.Contains(expenseCategories, category) {
				return financials.ExpenseInput{}, inputError("Choose an expense category")
			}
			return financials.ExpenseInput{
				Category:    category,
				Month:       month,
				Year:        year,
				Amount:      amount,
				Description: strings.TrimSpace(form.Get("description")),
			}, nil
		},
	)

	members := &ledgerScreen{
		Name:    "members",
		Title:   "Members",
		Columns: []string{"Name", "Joined"},
		fields:  static(ledgerField{Name: "name", Label: "Name", Type: "text", Required: true}),
		list: func(ctx context.Context, f financials.Filter) (*ledgerListing, error) {
			list, err := fin.Members(ctx, f.Page, f.Size, f.Search)
			if err != nil {
				return nil, err
			}
			out := &ledgerListing{Total: len(list), Page: 1, Pages: 1}
			for _, m := range list {
				out.Rows = append(out.Rows, ledgerRow{ID: m.ID, Cells: []string{m.Name, m.CreatedAt}, Values: map[string]string{"name": m.Name}})
			}
			return out, nil
		},
		save: func(ctx context.Context, id int, form url.Values) error {
			name := strings.TrimSpace(form.Get("name"))
			if name == "" {
				return inputError("Name is required")
			}
			var err error
			if id == 0 {
				_, err = fin.CreateMember(ctx, financials.MemberInput{Name: name})
			} else {
				_, err = fin.UpdateMember(ctx, id, financials.MemberInput{Name: name})
			}
			return err
		},
		remove: fin.DeleteMember,
	}

	return []*ledgerScreen{playerDeposits, memberDeposits, donations, expenses, members}
}

func periodFields() []ledgerField {
	monthOptions := make([]fieldOption, 0, len(months))
	for _, m := range months {
		monthOptions = append(monthOptions, fieldOption{Value: m, Label: m})
	}
	return []ledgerField{
		{Name: "month", Label: "Month", Type: "select", Options: monthOptions, Required: true},
		{Name: "year", Label: "Year", Type: "number", Required: true},
		{Name: "amount", Label: "Amount", Type: "number", Required: true},
	}
}

func descriptionField() ledgerField {
	return ledgerField{Name: "description", Label: "Description", Type: "textarea"}
}

func periodValues(month string, year int, amount float64, description string, extra map[string]string) map[string]string {
	extra["month"] = month
	extra["year"] = strconv.Itoa(year)
	extra["amount"] = strconv.FormatFloat(amount, 'f', -1, 64)
	extra["description"] = description
	return extra
}

func parsePeriod(form url.Values) (string, int, float64, error) {
	month := form.Get("month")
	if !slices.Contains(months, month) {
		return "", 0, 0, inputError("Choose a month")
	}
	year, err := strconv.Atoi(strings.TrimSpace(form.Get("year")))
	if err != nil || year < 2000 || year > 2100 {
		return "", 0, 0, inputError("Enter a valid year")
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(form.Get("amount")), 64)
	if err != nil || amount <= 0 {
		return "", 0, 0, inputError("Enter an amount greater than zero")
	}
	return month, year, amount, nil
}

func parseID(form url.Values, key, label string) (int, error) {
	id, err := strconv.Atoi(form.Get(key))
	if err != nil || id <= 0 {
		return 0, inputError("Choose a " + label)
	}
	return id, nil
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

type financialsPageData struct {
	Screens  []*ledgerScreen
	Screen   *ledgerScreen
	Fields   []ledgerField
	Listing  *ledgerListing
	Filter   financials.Filter
	Months   []string
	Defaults map[string]string
	Error    string
	Periodic bool
}

func (s *Server) ledgerFromPath(w http.ResponseWriter, r *http.Request) (*ledgerScreen, bool) {
	screen, ok := s.ledgers[r.PathValue("ledger")]
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Not found")
	}
	return screen, ok
}

// AdminFinancialsHandler lists one financial collection with its entry forms
func (s *Server) AdminFinancialsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := s.ledgerFromPath(w, r)
		if !ok {
			return
		}
		s.renderLedger(w, r, http.StatusOK, screen, "")
	}
}

func (s *Server) renderLedger(w http.ResponseWriter, r *http.Request, status int, screen *ledgerScreen, message string) {
	q := r.URL.Query()
	filter := financials.Filter{
		Page:   queryInt(r, "page", 1),
		Month:  q.Get("month"),
		Year:   queryInt(r, "year", 0),
		Search: strings.TrimSpace(q.Get("search")),
	}

	fields, err := screen.fields(r.Context())
	if err != nil {
		s.handleBackendError(w, r, err)
		return
	}
	listing, err := screen.list(r.Context(), filter)
	if err != nil {
		s.handleBackendError(w, r, err)
		return
	}

	now := time.Now()
	s.render(w, status, s.pages.financials, screen.Title, financialsPageData{
		Screens:  s.ledgerOrder,
		Screen:   screen,
		Fields:   fields,
		Listing:  listing,
		Filter:   filter,
		Months:   months,
		Defaults: map[string]string{"month": now.Month().String(), "year": strconv.Itoa(now.Year())},
		Error:    message,
		Periodic: screen.Periodic,
	})
}

// AdminLedgerSaveHandler creates an entry, or updates one when the path
// carries an id
func (s *Server) AdminLedgerSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := s.ledgerFromPath(w, r)
		if !ok {
			return
		}
		id := 0
		if r.PathValue("id") != "" {
			if id, ok = s.pathID(w, r); !ok {
				return
			}
		}
		if err := r.ParseForm(); err != nil {
			s.renderLedger(w, r, http.StatusBadRequest, screen, "Invalid form submission")
			return
		}

		if err := screen.save(r.Context(), id, r.PostForm); err != nil {
			var invalid inputError
			var se *restclient.StatusError
			switch {
			case errors.As(err, &invalid):
				s.renderLedger(w, r, http.StatusBadRequest, screen, invalid.Error())
			case errors.Is(err, errors.ErrBadRequest) && errors.As(err, &se):
				s.renderLedger(w, r, http.StatusBadRequest, screen, se.Detail)
			default:
				s.handleBackendError(w, r, err)
			}
			return
		}
		log.Info().Str("ledger", screen.Name).Int("id", id).Msg("Financial entry saved")
		guard.Redirect(w, r, RouteAdminFinancials+screen.Name)
	}
}

func (s *Server) AdminLedgerDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := s.ledgerFromPath(w, r)
		if !ok {
			return
		}
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		if err := screen.remove(r.Context(), id); err != nil {
			s.handleBackendError(w, r, err)
			return
		}
		log.Info().Str("ledger", screen.Name).Int("id", id).Msg("Financial entry deleted")
		guard.Redirect(w, r, RouteAdminFinancials+screen.Name)
	}
}

func (s *Server) AdminFinancialsIndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guard.Redirect(w, r, RouteAdminFinancials+s.ledgerOrder[0].Name)
	}
}
