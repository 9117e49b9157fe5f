package services

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestParseCSVCommaDefault(t *testing.T) {
	in := "name,price,sku\nWidget,149.50,W-1\nGadget,99,G-2\n"
	rows, err := parseCSV(strings.NewReader(in), CSVOptions{})
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if rows[0].first("name") != "Widget" || rows[0].first("price") != "149.50" {
		t.Fatalf("row 0: %v", rows[0])
	}
	if rows[1].first("sku") != "G-2" {
		t.Fatalf("row 1: %v", rows[1])
	}
}

func TestParseCSVSemicolonAndBOM(t *testing.T) {
	in := "\ufeffName;Competitor_Price\nWidget;1299,00\n"
	rows, err := parseCSV(strings.NewReader(in), CSVOptions{Delimiter: ';'})
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(rows))
	}
	// Headers are case-folded and the BOM is stripped.
	if rows[0].first("price", "competitor_price") != "1299,00" {
		t.Fatalf("competitor_price header: %v", rows[0])
	}
	if rows[0].first("name") != "Widget" {
		t.Fatalf("name: %v", rows[0])
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	in := "name,price,brand\nWidget,10\nGadget,20,Acme,extra\n"
	rows, err := parseCSV(strings.NewReader(in), CSVOptions{})
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if rows[0].first("brand") != "" {
		t.Fatalf("short row should leave brand empty: %v", rows[0])
	}
	if rows[1].first("brand") != "Acme" {
		t.Fatalf("long row should keep known columns: %v", rows[1])
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	if _, err := parseCSV(strings.NewReader(""), CSVOptions{}); err == nil {
		t.Fatalf("empty file must error")
	}
}

func TestDecodeReaderWindows1252(t *testing.T) {
	// "Skruvmejsel på rea" encoded in Windows-1252.
	encoded, err := charmap.Windows1252.NewEncoder().String("Skruvmejsel på rea")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	in := "name,price\n" + encoded + ",10\n"
	rows, err := parseCSV(strings.NewReader(in), CSVOptions{Encoding: "windows-1252"})
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if rows[0].first("name") != "Skruvmejsel på rea" {
		t.Fatalf("decoded name: %q", rows[0].first("name"))
	}
}

func TestDecodeReaderUnknownEncoding(t *testing.T) {
	if _, err := decodeReader(strings.NewReader("x"), "ebcdic"); err == nil {
		t.Fatalf("unknown encoding must error")
	}
}
