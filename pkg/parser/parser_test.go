package parser

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestParser() *Parser {
	return New(log.New(io.Discard))
}

func TestParseBytesCardNumberCarryOver(t *testing.T) {
	content := []byte(`date,store,price,count,installments,payment,note
,1234-****-****-5678
2024/02/01,Store A,500,1,1,,
2024/02/02,Store B,1200,1,1,1200,memo
,Total,1700,,,,
`)

	records, err := newTestParser().ParseBytes(content, "202402.csv", "vpass")
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	for i, r := range records {
		if r.CardNumber() != "1234-****-****-5678" {
			t.Errorf("record %d: expected carried card number, got %q", i, r.CardNumber())
		}
		if r.Service() != "vpass" || r.File() != "202402.csv" {
			t.Errorf("record %d: unexpected identity %q/%q", i, r.Service(), r.File())
		}
	}

	// Empty payment-amount cell falls back to the resolved price.
	if records[0].Payment() != 500 {
		t.Errorf("expected payment fallback 500, got %d", records[0].Payment())
	}
	if records[0].Store() != "Store A" {
		t.Errorf("expected store %q, got %q", "Store A", records[0].Store())
	}
	if records[1].Payment() != 1200 || records[1].Note() != "memo" {
		t.Errorf("unexpected second record: payment=%d note=%q", records[1].Payment(), records[1].Note())
	}
}

func TestParseBytesNoMarkerYieldsEmptyCardNumber(t *testing.T) {
	content := []byte("2024/02/01,Store A,500,1,1,500,\n")

	records, err := newTestParser().ParseBytes(content, "202402.csv", "vpass")
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].CardNumber() != "" {
		t.Errorf("expected empty card number before any marker, got %q", records[0].CardNumber())
	}
}

func TestParseBytesHeaderAndTotalOnly(t *testing.T) {
	content := []byte(`date,store,price,count,installments,payment,note
,Total,10000,,,,
`)

	records, err := newTestParser().ParseBytes(content, "empty.csv", "vpass")
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}

func TestParseBytesStoreNameWithDelimiters(t *testing.T) {
	content := []byte(`2024/01/15,Coffee Shop, Main St, Annex,"1,200",1,1,"1,200",tip
`)

	records, err := newTestParser().ParseBytes(content, "wide.csv", "vpass")
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Store() != "Coffee Shop, Main St, Annex" {
		t.Errorf("expected rejoined store, got %q", r.Store())
	}
	if r.Price() != 1200 {
		t.Errorf("expected price 1200, got %d", r.Price())
	}
	if r.Payment() != 1200 {
		t.Errorf("expected payment 1200, got %d", r.Payment())
	}
	if r.Note() != "tip" {
		t.Errorf("expected note %q, got %q", "tip", r.Note())
	}
}

func TestParseBytesShiftJIS(t *testing.T) {
	// Full-width ＡＢＣ１２３ in Shift_JIS; NFKC folds it to half-width.
	store := []byte{0x82, 0x60, 0x82, 0x61, 0x82, 0x62, 0x82, 0x50, 0x82, 0x51, 0x82, 0x52}

	var content []byte
	content = append(content, []byte("2024/03/05,")...)
	content = append(content, store...)
	content = append(content, []byte(",1000,1,1,1000,\n")...)

	records, err := newTestParser().ParseBytes(content, "sjis.csv", "vpass")
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Store() != "ABC123" {
		t.Errorf("expected folded store %q, got %q", "ABC123", records[0].Store())
	}
}

func TestParseFile(t *testing.T) {
	content := []byte(`,1234-****-****-5678
2024/02/01,Store A,500,1,1,,
`)

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "202402.csv")
	if err := os.WriteFile(tmpFile, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	records, err := newTestParser().ParseFile(tmpFile, "vpass")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].File() != "202402.csv" {
		t.Errorf("expected file base name %q, got %q", "202402.csv", records[0].File())
	}
	if records[0].UsedAt().Format("2006-01-02") != "2024-02-01" {
		t.Errorf("unexpected usage date %v", records[0].UsedAt())
	}
}
