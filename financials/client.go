package financials

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bafcc/camp-admin/internal/restclient"
)

const basePath = "/api/v1/financials/"

// Client covers the club's money: members, their deposits, player fees,
// donations, expenses and the monthly report.
type Client struct {
	rest *restclient.Client

	PlayerDeposits *Ledger[PlayerDeposit, PlayerDepositInput]
	MemberDeposits *Ledger[MemberDeposit, MemberDepositInput]
	Donations      *Ledger[Donation, DonationInput]
	Expenses       *Ledger[Expense, ExpenseInput]
}

func NewClient(httpClient *http.Client, apiURL string) *Client {
	rest := restclient.New(httpClient, apiURL)
	return &Client{
		rest:           rest,
		PlayerDeposits: newLedger[PlayerDeposit, PlayerDepositInput](rest, "player_deposits", "player_id"),
		MemberDeposits: newLedger[MemberDeposit, MemberDepositInput](rest, "member_deposits", "member_id"),
		Donations:      newLedger[Donation, DonationInput](rest, "donations", ""),
		Expenses:       newLedger[Expense, ExpenseInput](rest, "expenses", ""),
	}
}

// Members returns a plain list; the backend does not wrap it in a page.
func (c *Client) Members(ctx context.Context, page, size int, search string) ([]Member, error) {
	q := Filter{Page: page, Size: size, Search: search}.values("")
	var out []Member
	if err := c.rest.Get(ctx, basePath+"members/", q, &out); err != nil {
		return nil, fmt.Errorf("financials: list members: %w", err)
	}
	return out, nil
}

func (c *Client) MemberNames(ctx context.Context) ([]MemberName, error) {
	var out []MemberName
	if err := c.rest.Get(ctx, basePath+"members/names/", nil, &out); err != nil {
		return nil, fmt.Errorf("financials: member names: %w", err)
	}
	return out, nil
}

func (c *Client) CreateMember(ctx context.Context, in MemberInput) (*Member, error) {
	var out Member
	if err := c.rest.Post(ctx, basePath+"members/", in, &out); err != nil {
		return nil, fmt.Errorf("financials: create member: %w", err)
	}
	return &out, nil
}

func (c *Client) UpdateMember(ctx context.Context, id int, in MemberInput) (*Member, error) {
	var out Member
	if err := c.rest.Put(ctx, basePath+"members/"+strconv.Itoa(id), in, &out); err != nil {
		return nil, fmt.Errorf("financials: update member %d: %w", id, err)
	}
	return &out, nil
}

func (c *Client) DeleteMember(ctx context.Context, id int) error {
	if err := c.rest.Delete(ctx, basePath+"members/"+strconv.Itoa(id)); err != nil {
		return fmt.Errorf("financials: delete member %d: %w", id, err)
	}
	return nil
}

// Report returns the summary for month/year. Empty values ask the backend
// for the current month.
func (c *Client) Report(ctx context.Context, month string, year int) (*Report, error) {
	q := url.Values{}
	if month != "" {
		q.Set("month", month)
	}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var out Report
	if err := c.rest.Get(ctx, basePath+"report/", q, &out); err != nil {
		return nil, fmt.Errorf("financials: report: %w", err)
	}
	return &out, nil
}
