package email

import (
	"fmt"
	"html"

	"inventaris/internal/models"
)

type message struct {
	subject string
	text    string
	html    string
}

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%[1]s</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f7fa;
        }
        .container {
            background-color: white;
            padding: 32px;
            border-radius: 10px;
        }
        .app { font-size: 14px; color: #1e40af; font-weight: bold; }
        h1 { font-size: 22px; color: #1e3a8a; }
        table { border-collapse: collapse; width: 100%%; margin: 16px 0; }
        td { padding: 6px 8px; border-bottom: 1px solid #e5e7eb; }
        td.label { color: #6b7280; width: 40%%; }
        .footer { margin-top: 32px; font-size: 12px; color: #6b7280; }
    </style>
</head>
<body>
    <div class="container">
        <div class="app">%[2]s</div>
        <h1>%[1]s</h1>
        <p>%[3]s</p>
        %[4]s
        <div class="footer">This is an automatic message from %[2]s.</div>
    </div>
</body>
</html>`

func render(appName, title, intro string, b *models.Borrowing) string {
	details := fmt.Sprintf(`<table>
            <tr><td class="label">Item</td><td>%s</td></tr>
            <tr><td class="label">Borrower</td><td>%s</td></tr>
            <tr><td class="label">Quantity</td><td>%d</td></tr>
            <tr><td class="label">Borrow date</td><td>%s</td></tr>
            <tr><td class="label">Return date</td><td>%s</td></tr>
            <tr><td class="label">Purpose</td><td>%s</td></tr>
        </table>`,
		html.EscapeString(b.ItemName),
		html.EscapeString(b.UserName),
		b.Quantity,
		b.BorrowDate,
		b.ReturnDate,
		html.EscapeString(b.Purpose),
	)
	return fmt.Sprintf(layout, html.EscapeString(title), html.EscapeString(appName), html.EscapeString(intro), details)
}

func detailsText(b *models.Borrowing) string {
	return fmt.Sprintf(`Item:        %s
Borrower:    %s
Quantity:    %d
Borrow date: %s
Return date: %s
Purpose:     %s`, b.ItemName, b.UserName, b.Quantity, b.BorrowDate, b.ReturnDate, b.Purpose)
}

func borrowingRequested(appName string, b *models.Borrowing) message {
	title := "New borrowing request"
	intro := fmt.Sprintf("%s asked to borrow %d x %s and is waiting for approval.", b.UserName, b.Quantity, b.ItemName)

	return message{
		subject: fmt.Sprintf("[%s] %s: %s", appName, title, b.ItemName),
		text:    fmt.Sprintf("%s\n\n%s\n\n%s\n", title, intro, detailsText(b)),
		html:    render(appName, title, intro, b),
	}
}

func borrowingDecision(appName string, borrower *models.User, b *models.Borrowing) message {
	var title, intro string
	switch b.Status {
	case models.StatusApproved:
		title = "Borrowing request approved"
		intro = fmt.Sprintf("Hi %s, your request for %s was approved. Please return it by %s.", borrower.FullName, b.ItemName, b.ReturnDate)
	case models.StatusRejected:
		title = "Borrowing request rejected"
		intro = fmt.Sprintf("Hi %s, your request for %s was rejected.", borrower.FullName, b.ItemName)
		if b.RejectionReason != "" {
			intro += " Reason: " + b.RejectionReason
		}
	default:
		title = "Return recorded"
		intro = fmt.Sprintf("Hi %s, the return of %s has been recorded. Thank you.", borrower.FullName, b.ItemName)
	}

	return message{
		subject: fmt.Sprintf("[%s] %s", appName, title),
		text:    fmt.Sprintf("%s\n\n%s\n\n%s\n", title, intro, detailsText(b)),
		html:    render(appName, title, intro, b),
	}
}

func overdueReminder(appName string, borrower *models.User, b *models.Borrowing) message {
	title := "Borrowed item overdue"
	intro := fmt.Sprintf("Hi %s, %s was due back on %s. Please return it as soon as possible.", borrower.FullName, b.ItemName, b.ReturnDate)

	return message{
		subject: fmt.Sprintf("[%s] %s: %s", appName, title, b.ItemName),
		text:    fmt.Sprintf("%s\n\n%s\n\n%s\n", title, intro, detailsText(b)),
		html:    render(appName, title, intro, b),
	}
}
