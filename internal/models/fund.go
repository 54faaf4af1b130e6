package models

// FundInfo is a user-authored ledger entry. The sign of Amount is
// authoritative: negative is an expense, positive is income.
type FundInfo struct {
	ID        uint32  `json:"id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Class     string  `json:"class"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source"`
}

// DebtInfo tracks an outstanding debt and its monthly repayment.
type DebtInfo struct {
	ID            uint32  `json:"id"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Repayment     float64 `json:"repayment"`
	LastTimestamp int64   `json:"last_timestamp"`
}

// PropertyInfo is an account balance. The reported amount is the base
// amount plus the sum of all fund entries booked against the account.
type PropertyInfo struct {
	ID     uint32  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// SumInfo is one row of the per-class expense grouping.
type SumInfo struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PageResponse is the combined paginated listing + aggregates returned
// by GET /fund.
type PageResponse struct {
	Total    int        `json:"total"`
	Data     []FundInfo `json:"data"`
	Sum      []SumInfo  `json:"sum"`
	Income   float64    `json:"income"`
	Expenses float64    `json:"expenses"`
}
