package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"inventaris/internal/config"
	"inventaris/internal/models"
)

func testBorrowing(status models.BorrowingStatus) *models.Borrowing {
	return &models.Borrowing{
		ID:         "borrow-001",
		Quantity:   2,
		BorrowDate: "2025-03-01",
		ReturnDate: "2025-03-08",
		Purpose:    "Praktikum <web>",
		Status:     status,
		UserName:   "Budi Santoso",
		ItemName:   "Laptop Acer Aspire 5",
	}
}

func TestDisabledWithoutCredentials(t *testing.T) {
	s := NewService(&config.Config{})
	if s.IsEnabled() {
		t.Fatal("Expected service to be disabled without Mailgun credentials")
	}

	admins := []models.User{{Email: "admin@example.com"}}
	if err := s.NotifyBorrowingRequested(context.Background(), "Inventaris", admins, testBorrowing(models.StatusPending)); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestDecisionSkipsUsersWithoutEmail(t *testing.T) {
	s := NewService(&config.Config{})
	if err := s.NotifyBorrowingDecision(context.Background(), "Inventaris", &models.User{FullName: "Budi"}, testBorrowing(models.StatusApproved)); err != nil {
		t.Errorf("Expected no error for a user without email, got %v", err)
	}
}

func TestBorrowingRequestedMessage(t *testing.T) {
	msg := borrowingRequested("Inventaris", testBorrowing(models.StatusPending))

	if msg.subject != "[Inventaris] New borrowing request: Laptop Acer Aspire 5" {
		t.Errorf("Unexpected subject %q", msg.subject)
	}
	if !strings.Contains(msg.text, "Budi Santoso asked to borrow 2 x Laptop Acer Aspire 5") {
		t.Errorf("Unexpected text body %q", msg.text)
	}
	if !strings.Contains(msg.html, "Praktikum &lt;web&gt;") {
		t.Error("Expected purpose to be escaped in the HTML body")
	}
}

func TestDecisionMessages(t *testing.T) {
	borrower := &models.User{FullName: "Budi Santoso"}

	approved := borrowingDecision("Inventaris", borrower, testBorrowing(models.StatusApproved))
	if !strings.Contains(approved.subject, "approved") || !strings.Contains(approved.text, "return it by 2025-03-08") {
		t.Errorf("Unexpected approval message %+v", approved)
	}

	b := testBorrowing(models.StatusRejected)
	b.RejectionReason = "Barang sedang dalam perbaikan"
	rejected := borrowingDecision("Inventaris", borrower, b)
	if !strings.Contains(rejected.subject, "rejected") || !strings.Contains(rejected.text, "Reason: Barang sedang dalam perbaikan") {
		t.Errorf("Unexpected rejection message %+v", rejected)
	}

	returned := borrowingDecision("Inventaris", borrower, testBorrowing(models.StatusReturned))
	if !strings.Contains(returned.subject, "Return recorded") {
		t.Errorf("Unexpected return message %+v", returned)
	}
}

func TestOverdueReminderMessage(t *testing.T) {
	msg := overdueReminder("Inventaris", &models.User{FullName: "Budi Santoso"}, testBorrowing(models.StatusApproved))
	if !strings.Contains(msg.text, "was due back on 2025-03-08") {
		t.Errorf("Unexpected reminder text %q", msg.text)
	}
}

func TestBorrowingRequestedSendsInBackground(t *testing.T) {
	release := make(chan struct{})
	unblock := sync.OnceFunc(func() { close(release) })

	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/mg.example.com/messages" {
			http.NotFound(w, r)
			return
		}
		<-release
		mu.Lock()
		sent = append(sent, r.FormValue("to"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"<1@mg.example.com>","message":"Queued. Thank you."}`)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(unblock)

	s := NewService(&config.Config{
		MailgunDomain:      "mg.example.com",
		MailgunAPIKey:      "key-test",
		MailgunSenderEmail: "noreply@example.com",
		MailgunSenderName:  "Inventaris",
		MailgunAPIBase:     srv.URL,
	})
	admins := []models.User{{Email: "kepala@example.com"}, {FullName: "No Email"}, {Email: "tu@example.com"}}

	reqCtx, cancelReq := context.WithCancel(context.Background())
	start := time.Now()
	if err := s.NotifyBorrowingRequested(reqCtx, "Inventaris", admins, testBorrowing(models.StatusPending)); err != nil {
		t.Fatal("Expected request notification to be accepted:", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected notification to return immediately, took %v", elapsed)
	}
	cancelReq()

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected Wait to time out while sends are blocked, got %v", err)
	}

	unblock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatal("Expected pending sends to finish:", err)
	}

	mu.Lock()
	defer mu.Unlock()
	slices.Sort(sent)
	if !slices.Equal(sent, []string{"kepala@example.com", "tu@example.com"}) {
		t.Errorf("Expected both admins emailed after the request ended, got %v", sent)
	}
}
