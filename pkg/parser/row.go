package parser

import (
	"strings"
	"time"
)

const usedAtLayout = "2006/01/02"

type rowKind int

const (
	rowMarker rowKind = iota
	rowSkip
	rowData
)

// classify tags a raw row as a card-number marker, noise to skip, or a
// data row. Marker detection runs first: marker rows are narrower than
// data rows and carry no date, so the length and date checks would
// otherwise swallow them. The date parse is eager and its result rides
// along with the data classification.
func classify(row []string) (rowKind, time.Time) {
	if len(row) >= 2 && row[1] != "" &&
		strings.Contains(row[1], "-") && strings.Contains(row[1], "*") {
		return rowMarker, time.Time{}
	}
	if len(row) < 6 {
		return rowSkip, time.Time{}
	}
	cell := strings.TrimSpace(row[0])
	if cell == "" {
		return rowSkip, time.Time{}
	}
	usedAt, err := time.Parse(usedAtLayout, cell)
	if err != nil {
		return rowSkip, time.Time{}
	}
	return rowData, usedAt
}

// fields is the fixed logical shape of a data row. paymentCount and
// installmentCount are carried for completeness; nothing downstream
// reads them.
type fields struct {
	store            string
	price            string
	paymentCount     string
	installmentCount string
	paymentAmount    string
	note             string
}

// extract maps a data row onto the canonical seven slots. Store names may
// contain the delimiter, so rows wider than seven cells are right-anchored:
// the trailing five cells keep their roles and everything between the date
// and them is rejoined as the store name. This assumes the delimiter never
// appears inside the trailing amount and note fields.
func extract(row []string) fields {
	w := len(row)
	if w <= 7 {
		f := fields{
			store:            strings.TrimSpace(row[1]),
			price:            row[2],
			paymentCount:     row[3],
			installmentCount: row[4],
			paymentAmount:    row[5],
		}
		if w == 7 {
			f.note = row[6]
		}
		return f
	}

	parts := make([]string, 0, w-6)
	for _, cell := range row[1 : w-5] {
		parts = append(parts, strings.TrimSpace(cell))
	}
	return fields{
		store:            strings.Join(parts, ", "),
		price:            row[w-5],
		paymentCount:     row[w-4],
		installmentCount: row[w-3],
		paymentAmount:    row[w-2],
		note:             row[w-1],
	}
}
