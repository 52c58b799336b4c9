package database

import (
	"database/sql"
	"fmt"

	"inventaris/internal/models"
)

const recentLimit = 5

// StatusCounts tallies borrowings per status.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Returned int `json:"returned"`
	Total    int `json:"total"`
}

func (s *StatusCounts) add(status models.BorrowingStatus, n int) {
	switch status {
	case models.StatusPending:
		s.Pending += n
	case models.StatusApproved:
		s.Approved += n
	case models.StatusRejected:
		s.Rejected += n
	case models.StatusReturned:
		s.Returned += n
	}
	s.Total += n
}

type AdminStats struct {
	ItemKinds        int                `json:"itemKinds"`
	UnitsAvailable   int                `json:"unitsAvailable"`
	UnitsBorrowed    int                `json:"unitsBorrowed"`
	RegularUsers     int                `json:"regularUsers"`
	Borrowings       StatusCounts       `json:"borrowings"`
	RecentBorrowings []models.Borrowing `json:"recentBorrowings"`
}

type UserStats struct {
	Active           int                `json:"active"`
	Pending          int                `json:"pending"`
	Total            int                `json:"total"`
	ActiveBorrowings []models.Borrowing `json:"activeBorrowings"`
	RecentBorrowings []models.Borrowing `json:"recentBorrowings"`
}

func GetAdminStats(db *sql.DB) (*AdminStats, error) {
	stats := &AdminStats{}

	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(available_quantity), 0), COALESCE(SUM(total_quantity - available_quantity), 0)
		FROM items
	`).Scan(&stats.ItemKinds, &stats.UnitsAvailable, &stats.UnitsBorrowed)
	if err != nil {
		return nil, fmt.Errorf("failed to get item totals: %w", err)
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, models.RoleUser).Scan(&stats.RegularUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get user count: %w", err)
	}

	counts, err := countByStatus(db, "")
	if err != nil {
		return nil, err
	}
	stats.Borrowings = *counts

	stats.RecentBorrowings, err = GetBorrowings(db, BorrowingFilter{Limit: recentLimit})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func GetUserStats(db *sql.DB, userID string) (*UserStats, error) {
	stats := &UserStats{}

	counts, err := countByStatus(db, userID)
	if err != nil {
		return nil, err
	}
	stats.Active = counts.Approved
	stats.Pending = counts.Pending
	stats.Total = counts.Total

	stats.ActiveBorrowings, err = GetBorrowings(db, BorrowingFilter{UserID: userID, Status: models.StatusApproved})
	if err != nil {
		return nil, err
	}

	stats.RecentBorrowings, err = GetBorrowings(db, BorrowingFilter{UserID: userID, Limit: recentLimit})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func countByStatus(db *sql.DB, userID string) (*StatusCounts, error) {
	query := `SELECT status, COUNT(*) FROM borrowings`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY status`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count borrowings: %w", err)
	}
	defer rows.Close()

	counts := &StatusCounts{}
	for rows.Next() {
		var (
			status models.BorrowingStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan borrowing count: %w", err)
		}
		counts.add(status, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating borrowing counts: %w", err)
	}

	return counts, nil
}

// GetReportSummary tallies an already filtered set of borrowings.
func GetReportSummary(borrowings []models.Borrowing) StatusCounts {
	var counts StatusCounts
	for _, b := range borrowings {
		counts.add(b.Status, 1)
	}
	return counts
}
