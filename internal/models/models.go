package models

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// HomePath is where a session of this role lands after login.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}

type Condition string

const (
	ConditionGood        Condition = "Good"
	ConditionMinorDamage Condition = "MinorDamage"
	ConditionMajorDamage Condition = "MajorDamage"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionGood, ConditionMinorDamage, ConditionMajorDamage:
		return true
	}
	return false
}

type BorrowingStatus string

const (
	StatusPending  BorrowingStatus = "Pending"
	StatusApproved BorrowingStatus = "Approved"
	StatusRejected BorrowingStatus = "Rejected"
	StatusReturned BorrowingStatus = "Returned"
)

// BorrowingStatuses lists every status in workflow order.
var BorrowingStatuses = []BorrowingStatus{StatusPending, StatusApproved, StatusRejected, StatusReturned}

func (s BorrowingStatus) Valid() bool {
	for _, status := range BorrowingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether the workflow allows moving from s to next.
func (s BorrowingStatus) CanTransition(next BorrowingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusReturned
	}
	return false
}

type Item struct {
	ID                string    `json:"id" db:"id"`
	Code              string    `json:"code" db:"code"`
	Name              string    `json:"name" db:"name"`
	Category          string    `json:"category" db:"category"`
	TotalQuantity     int       `json:"totalQuantity" db:"total_quantity"`
	AvailableQuantity int       `json:"availableQuantity" db:"available_quantity"`
	Condition         Condition `json:"condition" db:"condition"`
	Location          string    `json:"location" db:"location"`
	Description       string    `json:"description" db:"description"`
	PhotoURL          string    `json:"photoUrl,omitempty" db:"photo_url"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

type User struct {
	ID              string    `json:"id" db:"id"`
	FullName        string    `json:"fullName" db:"full_name"`
	Username        string    `json:"username" db:"username"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Role            Role      `json:"role" db:"role"`
	ClassOrPosition string    `json:"classOrPosition" db:"class_or_position"`
	IDNumber        string    `json:"idNumber" db:"id_number"`
	Email           string    `json:"email,omitempty" db:"email"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// AuthUser is the session marker handed to clients.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

func (u *User) AuthUser() AuthUser {
	return AuthUser{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

type Borrowing struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"userId" db:"user_id"`
	ItemID          string          `json:"itemId" db:"item_id"`
	Quantity        int             `json:"quantity" db:"quantity"`
	BorrowDate      string          `json:"borrowDate" db:"borrow_date"`
	ReturnDate      string          `json:"returnDate" db:"return_date"`
	Purpose         string          `json:"purpose" db:"purpose"`
	Status          BorrowingStatus `json:"status" db:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty" db:"approved_at"`
	ReturnedAt      *time.Time      `json:"returnedAt,omitempty" db:"returned_at"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	UserName string `json:"userName,omitempty"`
	ItemName string `json:"itemName,omitempty"`
}

type Settings struct {
	SchoolName            string `json:"schoolName"`
	Address               string `json:"address"`
	PrincipalName         string `json:"principalName"`
	AppName               string `json:"appName"`
	DefaultBorrowDuration int    `json:"defaultBorrowDuration"`
	SchoolLogo            string `json:"schoolLogo,omitempty"`
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
