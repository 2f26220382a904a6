// Package notify delivers per-account completion messages and run failure summaries.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"github.com/jonesrussell/sitelink-report/internal/domain"
)

// Notifier delivers a message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Kind distinguishes message types.
type Kind string

const (
	// KindReport announces that an account's rows were exported.
	KindReport Kind = "report"
	// KindFailureSummary lists the accounts that failed during a run.
	KindFailureSummary Kind = "failure_summary"
)

// Failure is one failed account in a summary message.
type Failure struct {
	Account domain.Account
	Err     string
}

// Message is a rendered notification.
type Message struct {
	ID        string
	Kind      Kind
	RunID     string
	Recipient string
	Subject   string
	HTMLBody  string

	Account  domain.Account
	Locator  string
	Rows     int
	Failures []Failure
}

var reportBody = template.Must(template.New("report").Parse(
	`Hi!<br>
The sitelink report was created for account {{.Account.Name}} ({{.Account.ID}}) with {{.Rows}} row(s).<br>
<br>
More information you may find in the report:<br>
{{.Locator}}
`))

var failureBody = template.Must(template.New("failure").Parse(
	`Hi!<br>
The sitelink report run {{.RunID}} could not process {{len .Failures}} account(s):<br>
<ul>
{{range .Failures}}<li>{{.Account.Name}} ({{.Account.ID}}): {{.Err}}</li>
{{end}}</ul>
Report: {{.Locator}}
`))

// NewReportMessage composes the completion message for one account.
func NewReportMessage(runID, recipient string, account domain.Account, locator string, rows int) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      KindReport,
		RunID:     runID,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Report for Sitelinks Extension is ready for %s (%s)", account.Name, account.ID),
		Account:   account,
		Locator:   locator,
		Rows:      rows,
	}
	return render(msg, reportBody)
}

// NewFailureSummaryMessage composes the end-of-run message listing failed accounts.
func NewFailureSummaryMessage(runID, recipient, locator string, failures []Failure) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      KindFailureSummary,
		RunID:     runID,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Sitelinks report: %d account(s) failed", len(failures)),
		Locator:   locator,
		Failures:  failures,
	}
	return render(msg, failureBody)
}

func render(msg Message, tmpl *template.Template) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return Message{}, fmt.Errorf("render %s message: %w", msg.Kind, err)
	}
	msg.HTMLBody = buf.String()
	return msg, nil
}
