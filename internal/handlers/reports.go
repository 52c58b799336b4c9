package handlers

import (
	"bytes"
	"net/http"
	"time"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"
	"inventaris/internal/reports"

	"github.com/gin-gonic/gin"
)

// reportRows loads the borrowings whose borrow date falls in the requested
// range. It writes a 400 and returns false on a bad range.
func reportRows(c *gin.Context) (reports.Range, []models.Borrowing, bool) {
	r, err := reports.ParseRange(c.Query("start"), c.Query("end"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return reports.Range{}, nil, false
	}

	rows, err := database.GetBorrowings(getDB(c), database.BorrowingFilter{
		From:         r.Start,
		To:           r.End,
		ByBorrowDate: true,
	})
	if err != nil {
		respondError(c, err, "Report not available")
		return reports.Range{}, nil, false
	}

	return r, rows, true
}

func handleReport(c *gin.Context) {
	r, rows, ok := reportRows(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start":      r.Start,
		"end":        r.End,
		"summary":    database.GetReportSummary(rows),
		"borrowings": rows,
	})
}

// handleExportReport downloads the range as CSV. An empty range still yields
// the header row so the download never fails.
func handleExportReport(c *gin.Context) {
	r, rows, ok := reportRows(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteBorrowingsCSV(&buf, rows); err != nil {
		logger.Error("Failed to write report CSV", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+r.FileName()+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
