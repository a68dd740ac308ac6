package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Record represents one normalized statement line ready for persistence.
// Records are immutable once built.
type Record struct {
	usedAt     time.Time
	store      string
	price      int
	payment    int
	note       string
	service    string
	cardNumber string
	file       string
}

func (r *Record) UsedAt() time.Time  { return r.usedAt }
func (r *Record) Store() string      { return r.store }
func (r *Record) Price() int         { return r.price }
func (r *Record) Payment() int       { return r.payment }
func (r *Record) Note() string       { return r.note }
func (r *Record) HasNote() bool      { return r.note != "" }
func (r *Record) Service() string    { return r.service }
func (r *Record) CardNumber() string { return r.cardNumber }
func (r *Record) File() string       { return r.file }

// RecordBuilder assembles a Record from raw statement cells. Amount cells
// stay raw until Build so the payment fallback can see the resolved price.
type RecordBuilder struct {
	service     string
	file        string
	usedAt      time.Time
	store       string
	priceCell   string
	paymentCell string
	noteCell    string
	cardNumber  string
}

// NewRecord starts a builder tagged with the statement source and the
// base name of the file it came from.
func NewRecord(service, file string) *RecordBuilder {
	return &RecordBuilder{service: service, file: file}
}

func (b *RecordBuilder) SetUsedAt(t time.Time) *RecordBuilder {
	b.usedAt = t
	return b
}

func (b *RecordBuilder) SetStore(raw string) *RecordBuilder {
	b.store = raw
	return b
}

func (b *RecordBuilder) SetPrice(cell string) *RecordBuilder {
	b.priceCell = cell
	return b
}

func (b *RecordBuilder) SetPayment(cell string) *RecordBuilder {
	b.paymentCell = cell
	return b
}

func (b *RecordBuilder) SetNote(cell string) *RecordBuilder {
	b.noteCell = cell
	return b
}

func (b *RecordBuilder) SetCardNumber(n string) *RecordBuilder {
	b.cardNumber = n
	return b
}

// Build resolves amounts and folds free text. Exports mix full-width and
// half-width forms of the same merchant name, so store and note get NFKC
// normalization; amounts and dates never do. An empty note stays absent
// rather than becoming an empty string. Price resolves before payment
// because payment falls back to it.
func (b *RecordBuilder) Build() (*Record, error) {
	if b.usedAt.IsZero() {
		return nil, fmt.Errorf("record has no usage date")
	}

	price := parseYen(b.priceCell, 0)
	payment := parseYen(b.paymentCell, price)

	note := ""
	if trimmed := strings.TrimSpace(b.noteCell); trimmed != "" {
		note = norm.NFKC.String(trimmed)
	}

	return &Record{
		usedAt:     b.usedAt,
		store:      norm.NFKC.String(strings.TrimSpace(b.store)),
		price:      price,
		payment:    payment,
		note:       note,
		service:    b.service,
		cardNumber: b.cardNumber,
		file:       b.file,
	}, nil
}

// parseYen parses an integer yen amount, tolerating thousands separators.
// Empty cells and anything that does not parse as a non-negative integer
// resolve to the fallback; statement exports are too noisy for amount
// defects to be errors.
func parseYen(cell string, fallback int) int {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
