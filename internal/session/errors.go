package session

import (
	"errors"
	"fmt"

	"github.com/sadopc/roster/internal/api"
)

var (
	ErrOutOfRange        = errors.New("date outside loaded range")
	ErrNotApprovable     = errors.New("day is not approvable")
	ErrUnknownAllocation = errors.New("allocation not in this project's snapshot")
	ErrInvalidRange      = errors.New("invalid date range")
)

// FetchError wraps a failed weekly snapshot load. The session keeps its
// previous snapshot when one is returned.
type FetchError struct {
	ProjectID int64
	From, To  string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load project %d %s..%s: %v", e.ProjectID, e.From, e.To, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CommitError is a rejected apply-batch request. Status is 0 when the
// request never produced a response. Payload is the server's body verbatim.
type CommitError struct {
	Status  int
	Payload string
	Err     error
}

func (e *CommitError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("commit: %v", e.Err)
	}
	return fmt.Sprintf("commit rejected (%d): %s", e.Status, e.Message())
}

func (e *CommitError) Unwrap() error { return e.Err }

// Message is the server's detail text, or the raw payload when there is none.
func (e *CommitError) Message() string {
	var apiErr *api.Error
	if errors.As(e.Err, &apiErr) {
		if d := apiErr.Detail(); d != "" {
			return d
		}
	}
	if e.Payload != "" {
		return e.Payload
	}
	return e.Err.Error()
}

func newCommitError(err error) *CommitError {
	ce := &CommitError{Err: err}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		ce.Status = apiErr.StatusCode
		ce.Payload = string(apiErr.Body)
	}
	return ce
}

// EditLockedError rejects a draft change on an approved day that has not
// been reopened.
type EditLockedError struct {
	Date string
}

func (e *EditLockedError) Error() string {
	return fmt.Sprintf("%s is approved; reopen it before editing", e.Date)
}
