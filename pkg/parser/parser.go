package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/extrame/xls"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/meisai-dev/meisai/pkg/models"
)

// Parser turns raw statement exports into records. One instance can be
// reused across files; the card-number state lives in the per-file scan.
type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile reads a statement export and returns the records it yields.
// CSV exports are Shift_JIS encoded; XLS exports feed the same row
// pipeline.
func (p *Parser) ParseFile(path, service string) ([]*models.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return p.parseXLS(path, service)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	return p.parseCSV(file, filepath.Base(path), service)
}

// ParseBytes parses an in-memory Shift_JIS CSV export.
func (p *Parser) ParseBytes(data []byte, filename, service string) ([]*models.Record, error) {
	return p.parseCSV(bytes.NewReader(data), filename, service)
}

func (p *Parser) parseCSV(r io.Reader, filename, service string) ([]*models.Record, error) {
	reader := csv.NewReader(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	reader.FieldsPerRecord = -1 // store names may split across extra cells
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}
		rows = append(rows, row)
	}

	return p.buildRecords(rows, filename, service), nil
}

func (p *Parser) parseXLS(path, service string) ([]*models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	workbook, err := xls.OpenReader(file, "shift_jis")
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}

	rows := workbook.ReadAllCells(10000)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}

	return p.buildRecords(rows, filepath.Base(path), service), nil
}

// buildRecords runs the classify/extract pipeline over raw rows, threading
// the card number announced by marker rows through the rest of the file.
// The carry starts empty and never resets within a file.
func (p *Parser) buildRecords(rows [][]string, filename, service string) []*models.Record {
	var records []*models.Record
	cardNumber := ""

	for i, row := range rows {
		kind, usedAt := classify(row)
		switch kind {
		case rowMarker:
			cardNumber = strings.TrimSpace(row[1])
			p.logger.Debug("card number marker", "file", filename, "line", i+1, "card", cardNumber)
		case rowSkip:
			p.logger.Debug("skipping row", "file", filename, "line", i+1, "cells", len(row))
		case rowData:
			f := extract(row)
			record, err := models.NewRecord(service, filename).
				SetUsedAt(usedAt).
				SetStore(f.store).
				SetPrice(f.price).
				SetPayment(f.paymentAmount).
				SetNote(f.note).
				SetCardNumber(cardNumber).
				Build()
			if err != nil {
				p.logger.Debug("failed to build record", "file", filename, "line", i+1, "err", err)
				continue
			}
			records = append(records, record)
		}
	}

	return records
}
