package financials

type Member struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type MemberInput struct {
	Name string `json:"name"`
}

type MemberName struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type PlayerDeposit struct {
	ID                       int     `json:"id"`
	PlayerID                 int     `json:"player_id"`
	PlayerName               string  `json:"player_name,omitempty"`
	PlayerRegistrationNumber string  `json:"player_registration_number,omitempty"`
	Month                    string  `json:"month"`
	Year                     int     `json:"year"`
	Amount                   float64 `json:"amount"`
	Description              string  `json:"description,omitempty"`
	DepositDate              string  `json:"deposit_date,omitempty"`
	CreatedAt                string  `json:"created_at"`
	UpdatedAt                string  `json:"updated_at,omitempty"`
}

type PlayerDepositInput struct {
	PlayerID    int     `json:"player_id"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	DepositDate string  `json:"deposit_date,omitempty"`
}

type MemberDeposit struct {
	ID          int     `json:"id"`
	MemberID    int     `json:"member_id"`
	MemberName  string  `json:"member_name,omitempty"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type MemberDepositInput struct {
	MemberID    int     `json:"member_id"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

type Donation struct {
	ID          int     `json:"id"`
	DonorName   string  `json:"donor_name"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type DonationInput struct {
	DonorName   string  `json:"donor_name"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

type Expense struct {
	ID          int     `json:"id"`
	Category    string  `json:"category"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type ExpenseInput struct {
	Category    string  `json:"category"`
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Report is the monthly income and expense summary.
type Report struct {
	Month               string          `json:"month"`
	Year                int             `json:"year"`
	ExpensesByCategory  []CategoryTotal `json:"expenses_by_category"`
	TotalMemberDeposits float64         `json:"total_member_deposits"`
	TotalPlayerDeposits float64         `json:"total_player_deposits"`
	TotalDonations      float64         `json:"total_donations"`
	TotalIncome         float64         `json:"total_income"`
	TotalExpenses       float64         `json:"total_expenses"`
	MonthlyBalance      float64         `json:"monthly_balance"`
}

// Page is one page of a ledger. TotalAmount sums the filtered entries when
// the backend reports it.
type Page[T any] struct {
	Items       []T      `json:"items"`
	Total       int      `json:"total"`
	Page        int      `json:"page"`
	Size        int      `json:"size"`
	Pages       int      `json:"pages"`
	TotalAmount *float64 `json:"total_amount,omitempty"`
}
