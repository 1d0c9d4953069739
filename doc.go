// Package tsprint provides a client for the FollowMe print portal of
// Télécom SudParis (a PaperCut web interface).
//
// The portal exposes no documented API; the client drives the same HTML
// pages a browser would: it authenticates with the login form, walks the
// Web Print wizard to submit a document, and scrapes the release queue to
// list and release pending jobs.
//
// Basic usage:
//
//	client := tsprint.New(user, pass)
//
//	if err := client.Login(ctx); err != nil {
//		// errors.Is(err, tsprint.ErrAuthFailed) on bad credentials
//	}
//
//	// Upload a PDF to the Web Print queue
//	err := client.UploadFile(ctx, "/path/to/document.pdf", nil)
//
//	// List and release pending jobs
//	jobs, err := client.PendingJobs(ctx)
//	err = client.Release(ctx, jobs[0], "")
//
// All operations except Login require an authenticated session and fail
// with ErrNoSession otherwise. The session lives in an in-memory cookie
// jar and is not persisted across processes.
package tsprint
