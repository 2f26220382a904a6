package domain

import "time"

// RunStatus is the state of a report run. RunPartial means some accounts failed and
// the rest were exported.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// AccountStatus is the outcome of one account iteration.
type AccountStatus string

const (
	AccountExported AccountStatus = "exported"
	AccountFailed   AccountStatus = "failed"
)

// AccountResult records what happened to one account during a run.
type AccountResult struct {
	Account       Account
	Status        AccountStatus
	Rows          int
	HeaderWritten bool
	Notified      bool
	Err           error
	Duration      time.Duration
}

// ErrorText returns the failure message, or "" for a successful account.
func (r AccountResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary aggregates the results of one run.
type RunSummary struct {
	RunID       string
	Destination string
	StartedAt   time.Time
	FinishedAt  time.Time
	Accounts    []AccountResult
}

// Failed returns the failed accounts in processing order.
func (s *RunSummary) Failed() []AccountResult {
	var failed []AccountResult
	for _, r := range s.Accounts {
		if r.Status == AccountFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Succeeded counts exported accounts.
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Accounts {
		if r.Status == AccountExported {
			n++
		}
	}
	return n
}

// TotalRows sums exported data rows.
func (s *RunSummary) TotalRows() int {
	n := 0
	for _, r := range s.Accounts {
		n += r.Rows
	}
	return n
}

// Status derives the run status from its account results.
func (s *RunSummary) Status() RunStatus {
	failed := len(s.Failed())
	switch {
	case failed == 0:
		return RunSucceeded
	case failed < len(s.Accounts):
		return RunPartial
	default:
		return RunFailed
	}
}

// RunRecord is a persisted run as listed by run history.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      RunStatus
	Destination string
	Succeeded   int
	Failed      int
	Rows        int
}
