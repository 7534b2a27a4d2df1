package statement

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column (e.g. "Amount" with value "-5,000.00").
	amountSingle amountMode = iota
	// amountSplit means separate money-in and money-out columns
	// (e.g. "Paid In"/"Withdrawn").
	amountSplit
)

// Profile describes the column layout of a statement export format.
// Supporting another bank is just adding a Profile to the profiles slice.
type Profile struct {
	Name        string
	DateCol     string
	DateFormats []string
	DescCol     string
	RefCol      string // optional; not every format carries a reference
	AmountMode  amountMode
	AmountCol   string // used when AmountMode == amountSingle
	DebitCol    string // used when AmountMode == amountSplit
	CreditCol   string // used when AmountMode == amountSplit
}

// requiredCols returns the column names that must be present for this profile
// to match. The reference column is deliberately not required.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles is the ordered list of export formats to try during auto-detection.
// More specific profiles come first to avoid false matches.
var profiles = []Profile{
	{
		Name:        "mpesa",
		DateCol:     "Completion Time",
		DateFormats: []string{"2006-01-02 15:04:05", "02-01-2006 15:04:05"},
		DescCol:     "Details",
		RefCol:      "Receipt No.",
		AmountMode:  amountSplit,
		DebitCol:    "Withdrawn",
		CreditCol:   "Paid In",
	},
	{
		Name:        "equity",
		DateCol:     "Transaction Date",
		DateFormats: []string{"02/01/2006", "02-01-2006"},
		DescCol:     "Narrative",
		RefCol:      "Transaction Ref",
		AmountMode:  amountSplit,
		DebitCol:    "Debit",
		CreditCol:   "Credit",
	},
	{
		Name:        "kcb",
		DateCol:     "Date",
		DateFormats: []string{"02/01/2006", "2006-01-02"},
		DescCol:     "Description",
		RefCol:      "Reference",
		AmountMode:  amountSingle,
		AmountCol:   "Amount",
	},
}
