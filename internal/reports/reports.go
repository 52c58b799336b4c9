package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"inventaris/internal/models"
)

const dateLayout = "2006-01-02"

// utf8BOM makes spreadsheet apps open the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"No", "Borrower", "Item", "Quantity", "Borrow Date", "Return Date", "Purpose", "Status"}

var ErrInvalidRange = errors.New("end date must not be before start date")

// Range is an inclusive span of borrow dates.
type Range struct {
	Start string
	End   string
}

// ParseRange fills missing bounds with the first day of the current month
// and today, and validates the result.
func ParseRange(start, end string, now time.Time) (Range, error) {
	r := Range{
		Start: now.AddDate(0, 0, 1-now.Day()).Format(dateLayout),
		End:   now.Format(dateLayout),
	}

	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return Range{}, fmt.Errorf("invalid start date %q", start)
		}
		r.Start = t.Format(dateLayout)
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return Range{}, fmt.Errorf("invalid end date %q", end)
		}
		r.End = t.Format(dateLayout)
	}

	if r.End < r.Start {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

func (r Range) FileName() string {
	return fmt.Sprintf("borrowing-report-%s-to-%s.csv", r.Start, r.End)
}

// WriteBorrowingsCSV writes rows as a numbered CSV with a UTF-8 BOM.
func WriteBorrowingsCSV(w io.Writer, rows []models.Borrowing) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, b := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			b.UserName,
			b.ItemName,
			strconv.Itoa(b.Quantity),
			b.BorrowDate,
			b.ReturnDate,
			b.Purpose,
			string(b.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
