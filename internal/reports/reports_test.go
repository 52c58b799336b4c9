package reports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"inventaris/internal/models"
)

func TestWriteBorrowingsCSV(t *testing.T) {
	rows := []models.Borrowing{
		{UserName: "Budi Santoso", ItemName: "Laptop Acer Aspire 5", Quantity: 2, BorrowDate: "2025-03-02", ReturnDate: "2025-03-09", Purpose: "Praktikum, kelas XII", Status: models.StatusApproved},
		{UserName: "Unknown", ItemName: "Kursi \"Siswa\"", Quantity: 10, BorrowDate: "2025-03-01", ReturnDate: "2025-03-03", Purpose: "Acara", Status: models.StatusPending},
	}

	var buf bytes.Buffer
	if err := WriteBorrowingsCSV(&buf, rows); err != nil {
		t.Fatal("Failed to write CSV:", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, utf8BOM) {
		t.Fatal("Expected output to start with a UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatal("Output is not valid CSV:", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "No" || records[0][7] != "Status" {
		t.Errorf("Unexpected header %v", records[0])
	}
	if records[1][0] != "1" || records[1][6] != "Praktikum, kelas XII" || records[1][7] != "Approved" {
		t.Errorf("Unexpected first row %v", records[1])
	}
	if records[2][0] != "2" || records[2][2] != "Kursi \"Siswa\"" {
		t.Errorf("Unexpected second row %v", records[2])
	}
}

func TestParseRange(t *testing.T) {
	now := time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)

	r, err := ParseRange("", "", now)
	if err != nil {
		t.Fatal(err)
	}
	if r.Start != "2025-03-01" || r.End != "2025-03-17" {
		t.Errorf("Expected current month to date, got %+v", r)
	}
	if r.FileName() != "borrowing-report-2025-03-01-to-2025-03-17.csv" {
		t.Errorf("Unexpected file name %s", r.FileName())
	}

	r, err = ParseRange("2025-01-05", "2025-01-05", now)
	if err != nil || r.Start != "2025-01-05" || r.End != "2025-01-05" {
		t.Errorf("Expected single-day range, got %+v %v", r, err)
	}

	if _, err := ParseRange("2025-02-10", "2025-02-01", now); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if _, err := ParseRange("10/02/2025", "", now); err == nil {
		t.Error("Expected malformed date to be rejected")
	}
}
