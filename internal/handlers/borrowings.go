package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"

	"github.com/gin-gonic/gin"
)

type borrowingRequest struct {
	ItemID     string `json:"itemId" binding:"notblank"`
	Quantity   *int   `json:"quantity" binding:"required,min=1"`
	BorrowDate string `json:"borrowDate" binding:"omitempty,datetime=2006-01-02"`
	ReturnDate string `json:"returnDate" binding:"omitempty,datetime=2006-01-02"`
	Purpose    string `json:"purpose" binding:"notblank,max=500"`
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func statusFilter(c *gin.Context) (models.BorrowingStatus, bool) {
	status := models.BorrowingStatus(c.Query("status"))
	if status == "" || status.Valid() {
		return status, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown borrowing status"})
	return "", false
}

func handleAdminBorrowings(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}

	borrowings, err := database.GetBorrowings(getDB(c), database.BorrowingFilter{Status: status})
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	c.JSON(http.StatusOK, paginate(borrowings, queryPage(c)))
}

func handleUserBorrowings(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}

	borrowings, err := database.GetBorrowings(getDB(c), database.BorrowingFilter{
		UserID: currentUser(c).ID,
		Status: status,
	})
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	c.JSON(http.StatusOK, paginate(borrowings, queryPage(c)))
}

// handleItemBorrowings lists the borrowing history of one item, newest first.
func handleItemBorrowings(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}

	db := getDB(c)
	item, err := database.GetItem(db, c.Param("id"))
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	borrowings, err := database.GetBorrowings(db, database.BorrowingFilter{
		ItemID: item.ID,
		Status: status,
	})
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	c.JSON(http.StatusOK, paginate(borrowings, queryPage(c)))
}

// handleCreateBorrowing files a Pending request for the signed-in user.
// Stock is only checked here; it is reserved when an admin approves.
func handleCreateBorrowing(c *gin.Context) {
	db := getDB(c)
	user := currentUser(c)

	var req borrowingRequest
	if !bindJSON(c, &req) {
		return
	}

	fields := fieldErrors{}

	item, err := database.GetItem(db, strings.TrimSpace(req.ItemID))
	if errors.Is(err, database.ErrNotFound) {
		fields.add("itemId", "Item not found")
		fields.respond(c)
		return
	}
	if err != nil {
		respondError(c, err, "Item not found")
		return
	}

	if *req.Quantity > item.AvailableQuantity {
		fields.add("quantity", fmt.Sprintf("Only %d unit(s) available", item.AvailableQuantity))
	}

	settings, err := database.GetSettings(db)
	if err != nil {
		respondError(c, err, "Settings not found")
		return
	}

	borrowDate := req.BorrowDate
	if borrowDate == "" {
		borrowDate = database.Today(time.Now())
	}
	returnDate := req.ReturnDate
	if returnDate == "" {
		start, _ := time.Parse(database.DateLayout, borrowDate)
		returnDate = start.AddDate(0, 0, settings.DefaultBorrowDuration).Format(database.DateLayout)
	}
	if returnDate <= borrowDate {
		fields.add("returnDate", "Return date must be after the borrow date")
	}

	if len(fields) > 0 {
		fields.respond(c)
		return
	}

	created, err := database.CreateBorrowing(db, models.Borrowing{
		UserID:     user.ID,
		ItemID:     item.ID,
		Quantity:   *req.Quantity,
		BorrowDate: borrowDate,
		ReturnDate: returnDate,
		Purpose:    strings.TrimSpace(req.Purpose),
	})
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}

	logger.Info("Borrowing requested", "borrowing_id", created.ID, "user_id", user.ID, "item_id", item.ID,
		"quantity", created.Quantity)

	if notifier := getNotifier(c); notifier != nil {
		admins, err := database.GetAdmins(db)
		if err != nil {
			logger.Warn("Failed to load admins for notification", "error", err)
		} else {
			err = notifier.NotifyBorrowingRequested(c.Request.Context(), settings.AppName, admins, created)
			notifyWarn(err, "borrowing request email", "borrowing_id", created.ID)
		}
	}

	c.JSON(http.StatusCreated, created)
}

func handleApproveBorrowing(c *gin.Context) {
	b, err := database.ApproveBorrowing(getDB(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	decided(c, b)
}

func handleRejectBorrowing(c *gin.Context) {
	var req rejectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	b, err := database.RejectBorrowing(getDB(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	decided(c, b)
}

func handleReturnBorrowing(c *gin.Context) {
	b, err := database.ReturnBorrowing(getDB(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Borrowing not found")
		return
	}
	decided(c, b)
}

// decided logs a status change, tells the borrower and writes the updated
// borrowing.
func decided(c *gin.Context, b *models.Borrowing) {
	logger.Info("Borrowing status changed", "borrowing_id", b.ID, "status", b.Status, "admin_id", currentUser(c).ID)
	notifyBorrower(c.Request.Context(), getDB(c), getNotifier(c), b)
	c.JSON(http.StatusOK, b)
}

func notifyBorrower(ctx context.Context, db *sql.DB, notifier Notifier, b *models.Borrowing) {
	if notifier == nil {
		return
	}

	borrower, err := database.GetUserByID(db, b.UserID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logger.Warn("Failed to load borrower for notification", "borrowing_id", b.ID, "error", err)
		}
		return
	}

	settings, err := database.GetSettings(db)
	if err != nil {
		logger.Warn("Failed to load settings for notification", "error", err)
		return
	}

	err = notifier.NotifyBorrowingDecision(ctx, settings.AppName, borrower, b)
	notifyWarn(err, "borrowing decision email", "borrowing_id", b.ID)
}
