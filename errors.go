package tsprint

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client. Wrapped errors carry detail;
// match with errors.Is.
var (
	// ErrAuthFailed indicates the portal rejected the credentials or the
	// login flow could not be completed.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNoSession indicates an operation was attempted before a
	// successful Login.
	ErrNoSession = errors.New("not logged in")

	// ErrJobNotFound indicates no pending job matched the given name.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoPrinterAvailable indicates no release-station printer was
	// available for the job (or none matched the printer filter).
	ErrNoPrinterAvailable = errors.New("no printer available")
)

// ValidationError reports a locally detected problem with an upload
// request. It is returned before any request is sent to the portal.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid upload %q: %s", e.Path, e.Reason)
	}
	return "invalid upload: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PartialPrintError reports an auto-print flow that uploaded the document
// but failed before the job was released. The job remains pending on the
// portal and can still be released manually.
type PartialPrintError struct {
	Title string
	Err   error
}

func (e *PartialPrintError) Error() string {
	return fmt.Sprintf("job %q uploaded but not released: %v", e.Title, e.Err)
}

func (e *PartialPrintError) Unwrap() error {
	return e.Err
}
