package statement

import "time"

// Direction distinguishes money flowing into the account from money leaving
// it. Rent reconciliation only acts on credits; debits are carried for
// reporting.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Row is one settled movement from a bank or M-Pesa statement export.
type Row struct {
	Date        time.Time
	Description string

	// Reference is the bank's or gateway's receipt identifier for the
	// movement. Empty when the export format carries none.
	Reference string

	// Amount in whole Kenyan shillings, always positive; Direction carries
	// the sign.
	Amount    int64
	Direction Direction
}
