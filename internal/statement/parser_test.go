package statement_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/kodipay/kodipay/internal/statement"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Mpesa(t *testing.T) {
	csv := `M-PESA Statement for 174379
Period,01-06-2025 to 30-06-2025

Receipt No.,Completion Time,Details,Transaction Status,Paid In,Withdrawn
NLJ7RT61SV,2025-06-02 14:32:11,Pay Bill from 254712345678 - JOHN DOE,Completed,"5,000.00",
NLJ8AB12CD,2025-06-03 09:15:40,Business Payment to Supplier,Completed,,"-2,500.00"
`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2025, 6, 2, 14, 32, 11, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Pay Bill from 254712345678 - JOHN DOE", rows[0].Description)
	assert.Equal(t, "NLJ7RT61SV", rows[0].Reference)
	assert.Equal(t, int64(5000), rows[0].Amount)
	assert.Equal(t, statement.DirectionCredit, rows[0].Direction)

	assert.Equal(t, "NLJ8AB12CD", rows[1].Reference)
	assert.Equal(t, int64(2500), rows[1].Amount)
	assert.Equal(t, statement.DirectionDebit, rows[1].Direction)
}

func TestParser_Equity(t *testing.T) {
	csv := `Account Statement,0123456789
Currency,KES

Transaction Date,Value Date,Narrative,Transaction Ref,Debit,Credit
02/06/2025,02/06/2025,MOBILE TRANSFER JOHN DOE RENT A4,FT25153ABC,,"12,000.00"
05/06/2025,05/06/2025,CHEQUE DEPOSIT,FT25156DEF,"3,000.00",
`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 6, 2), rows[0].Date)
	assert.Equal(t, "MOBILE TRANSFER JOHN DOE RENT A4", rows[0].Description)
	assert.Equal(t, "FT25153ABC", rows[0].Reference)
	assert.Equal(t, int64(12000), rows[0].Amount)
	assert.Equal(t, statement.DirectionCredit, rows[0].Direction)

	assert.Equal(t, statement.DirectionDebit, rows[1].Direction)
}

func TestParser_Kcb(t *testing.T) {
	csv := `Date,Description,Reference,Amount
02/06/2025,RENT TRANSFER B12,KCB123456,"8,000.00"
03/06/2025,LEDGER FEE,KCB123457,"-50.00"
`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 6, 2), rows[0].Date)
	assert.Equal(t, int64(8000), rows[0].Amount)
	assert.Equal(t, statement.DirectionCredit, rows[0].Direction)

	assert.Equal(t, int64(50), rows[1].Amount)
	assert.Equal(t, statement.DirectionDebit, rows[1].Direction)
}

func TestParser_Windows1252Encoding(t *testing.T) {
	utf8CSV := "Date,Description,Reference,Amount\n02/06/2025,CAFÉ PLAZA RENT,KCB1,\"8,000.00\"\n"

	encoder := charmap.Windows1252.NewEncoder()
	rawBytes, err := encoder.Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := statement.NewParser()
	rows, err := p.Parse(bytes.NewReader(rawBytes))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "CAFÉ PLAZA RENT", rows[0].Description)
}

func TestParser_SkipsFooterRows(t *testing.T) {
	csv := `Date,Description,Reference,Amount
02/06/2025,RENT TRANSFER,KCB1,"8,000.00"
Totals,,,"8,000.00"
`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestParser_MissingDescription(t *testing.T) {
	csv := `Date,Description,Reference,Amount
02/06/2025,,KCB1,"8,000.00"
`

	p := statement.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "description")
}

func TestParser_UnknownFormat(t *testing.T) {
	p := statement.NewParser()
	_, err := p.Parse(strings.NewReader("Foo,Bar\n1,2\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no matching statement format")
}

func TestParser_HeaderOnly(t *testing.T) {
	csv := `Date,Description,Reference,Amount`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParser_RoundsCentsToShillings(t *testing.T) {
	csv := `Date,Description,Reference,Amount
02/06/2025,RENT PLUS CENTS,KCB1,"8,000.60"
`

	p := statement.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, int64(8001), rows[0].Amount)
}
