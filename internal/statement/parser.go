package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/kodipay/kodipay/internal/encoding"
)

// Parser reads bank and M-Pesa statement CSV exports and produces rows.
// It auto-detects which format is being used by matching column headers
// against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching statement format found: expected columns for mpesa, equity, or kcb")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts statement rows from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for
// error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]Row, error) {
	dateIdx := cols[p.DateCol]
	descIdx := cols[p.DescCol]

	refIdx := -1
	if p.RefCol != "" {
		if i, ok := cols[p.RefCol]; ok {
			refIdx = i
		}
	}

	var out []Row

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(p, row, dateIdx)
		if !ok {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, direction, ok := parseRowAmount(p, cols, row)
		if !ok {
			continue
		}

		out = append(out, Row{
			Date:        date,
			Description: desc,
			Reference:   cellValue(row, refIdx),
			Amount:      amount,
			Direction:   direction,
		})
	}

	return out, nil
}

// parseDate tries the profile's date formats against the given cell.
// Returns false for empty cells or unparseable values (footer rows, etc).
func parseDate(p *Profile, row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, format := range p.DateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseRowAmount extracts the amount and direction from a row based on the
// profile's amount mode.
func parseRowAmount(p *Profile, cols colIndex, row []string) (int64, Direction, bool) {
	switch p.AmountMode {
	case amountSingle:
		return parseSingleAmount(row, cols[p.AmountCol])
	case amountSplit:
		return parseSplitAmount(row, cols[p.DebitCol], cols[p.CreditCol])
	}

	return 0, "", false
}

// parseSingleAmount handles a single signed amount column.
func parseSingleAmount(row []string, idx int) (int64, Direction, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return 0, "", false
	}

	amount, err := parseAmountKES(s)
	if err != nil {
		return 0, "", false
	}

	if amount == 0 {
		return 0, "", false
	}

	if amount < 0 {
		return -amount, DirectionDebit, true
	}

	return amount, DirectionCredit, true
}

// parseSplitAmount handles separate money-out/money-in columns.
func parseSplitAmount(row []string, debitIdx, creditIdx int) (int64, Direction, bool) {
	if s := cellValue(row, creditIdx); s != "" {
		amount, err := parseAmountKES(s)
		if err == nil && amount != 0 {
			return abs(amount), DirectionCredit, true
		}
	}

	if s := cellValue(row, debitIdx); s != "" {
		amount, err := parseAmountKES(s)
		if err == nil && amount != 0 {
			return abs(amount), DirectionDebit, true
		}
	}

	return 0, "", false
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
