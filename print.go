package tsprint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// supportedTypes maps the file extensions Web Print accepts to the
// content type sent with the upload.
var supportedTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// UploadOptions configures a Web Print upload. The zero value means one
// copy on the first printer of the selection form.
type UploadOptions struct {
	Copies       int
	PrinterIndex int
}

// PrintOptions configures the auto-print flow.
type PrintOptions struct {
	Copies       int
	PrinterIndex int

	// PrinterFilter narrows the release-station printer choice, matched
	// case-insensitively against printer names.
	PrinterFilter string
}

// UploadFile submits a local file to the Web Print queue. The path and
// options are validated before any request is made; validation failures
// are reported as *ValidationError.
func (c *Client) UploadFile(ctx context.Context, path string, opts *UploadOptions) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	copies, printerIndex, err := normalizeUpload(opts)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationError{Path: path, Reason: "file not found", Err: err}
		}
		return &ValidationError{Path: path, Reason: "file not readable", Err: err}
	}
	if info.IsDir() {
		return &ValidationError{Path: path, Reason: "is a directory"}
	}

	contentType, err := uploadContentType(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: "file not readable", Err: err}
	}
	defer f.Close()

	return c.upload(ctx, filepath.Base(path), contentType, f, copies, printerIndex)
}

// UploadReader submits a document from a reader under the given file
// name. The name's extension decides the content type.
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader, opts *UploadOptions) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	copies, printerIndex, err := normalizeUpload(opts)
	if err != nil {
		return err
	}

	contentType, err := uploadContentType(name)
	if err != nil {
		return err
	}

	return c.upload(ctx, filepath.Base(name), contentType, r, copies, printerIndex)
}

func normalizeUpload(opts *UploadOptions) (copies, printerIndex int, err error) {
	copies = 1
	if opts != nil {
		if opts.Copies < 0 {
			return 0, 0, &ValidationError{Reason: fmt.Sprintf("copies must be positive, got %d", opts.Copies)}
		}
		if opts.Copies > 0 {
			copies = opts.Copies
		}
		if opts.PrinterIndex < 0 {
			return 0, 0, &ValidationError{Reason: fmt.Sprintf("printer index must not be negative, got %d", opts.PrinterIndex)}
		}
		printerIndex = opts.PrinterIndex
	}
	return copies, printerIndex, nil
}

func uploadContentType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := supportedTypes[ext]
	if !ok {
		return "", &ValidationError{Path: path, Reason: fmt.Sprintf("unsupported file type %q", ext)}
	}
	return contentType, nil
}

// upload walks the Web Print wizard: printer selection, print options,
// the XHR file upload, and the completion form that moves the job into
// the release queue.
func (c *Client) upload(ctx context.Context, filename, contentType string, r io.Reader, copies, printerIndex int) error {
	c.logger.Debug("starting upload", "file", filename, "copies", copies, "printer_index", printerIndex)

	// Step 1: printer selection.
	selection, form, err := c.printerSelectionPage(ctx)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}

	data := formValues(form)
	data.Set("$RadioGroup", strconv.Itoa(printerIndex))
	clearWizardFields(data)
	stripSubmits(data)
	if next := form.Find(`input[name="$Submit$1"]`).First(); next.Length() > 0 {
		data.Set("$Submit$1", next.AttrOr("value", ""))
	} else {
		data.Set("$Submit$1", "2. Options d'impression et sélection de compte >>")
	}

	optionsPage, err := c.postForm(ctx, c.resolveURL(form.AttrOr("action", "")), data, selection.url)
	if err != nil {
		return fmt.Errorf("submitting printer selection: %w", err)
	}

	// Step 2: print options.
	form = optionsPage.doc.Find("form").First()
	if form.Length() == 0 {
		return fmt.Errorf("no form on options page")
	}

	data = formValues(form)
	data.Set("copies", strconv.Itoa(copies))
	stripSubmits(data)
	if name, value, ok := submitMatching(form, optionsNextRe); ok {
		data.Set(name, value)
	} else {
		data.Set("$Submit", "3. Document a envoyer >>")
	}

	uploadPage, err := c.postForm(ctx, c.resolveURL(form.AttrOr("action", "")), data, optionsPage.url)
	if err != nil {
		return fmt.Errorf("submitting print options: %w", err)
	}

	// Step 3: the file itself, posted the way the page's uploader script
	// would.
	uploadPath, ok := findUploadURL(uploadPage.body)
	if !ok {
		return fmt.Errorf("could not find upload URL")
	}

	if err := c.postMultipart(ctx, c.baseURL+uploadPath, filename, contentType, r, uploadPage.url); err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}

	// Step 4: the completion form finalizes the wizard server-side.
	form = uploadPage.doc.Find("form#upload-complete").First()
	if form.Length() == 0 {
		form = uploadPage.doc.Find("form").First()
	}
	if form.Length() > 0 {
		data = formValues(form)
		stripSubmits(data)
		if _, err := c.postForm(ctx, c.resolveURL(form.AttrOr("action", "")), data, uploadPage.url); err != nil {
			return fmt.Errorf("finalizing upload: %w", err)
		}
	}

	c.logger.Info("upload complete", "file", filename)
	return nil
}

func (c *Client) postMultipart(ctx context.Context, url, filename, contentType string, r io.Reader, referer string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("creating multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.baseURL)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return nil
}

// Print uploads a file and releases the resulting job in one flow. The
// two steps are not atomic: once the upload has succeeded, any later
// failure is reported as *PartialPrintError and the job stays pending on
// the portal.
func (c *Client) Print(ctx context.Context, path string, opts *PrintOptions) error {
	var uploadOpts *UploadOptions
	filter := ""
	if opts != nil {
		uploadOpts = &UploadOptions{Copies: opts.Copies, PrinterIndex: opts.PrinterIndex}
		filter = opts.PrinterFilter
	}

	if err := c.UploadFile(ctx, path, uploadOpts); err != nil {
		return err
	}

	title := filepath.Base(path)
	job, err := c.waitForJob(ctx, title)
	if err != nil {
		return &PartialPrintError{Title: title, Err: err}
	}

	if err := c.Release(ctx, *job, filter); err != nil {
		return &PartialPrintError{Title: title, Err: err}
	}

	return nil
}

// waitForJob polls the release queue until a job whose name contains
// name shows up. Web Print can take a few seconds to render a document
// into the queue.
func (c *Client) waitForJob(ctx context.Context, name string) (*Job, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		jobs, err := c.PendingJobs(ctx)
		if err != nil {
			return nil, err
		}
		for i := range jobs {
			if strings.Contains(jobs[i].Name, name) {
				return &jobs[i], nil
			}
		}

		c.logger.Debug("job not yet in release queue", "file", name, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("%w: %q never appeared in the release queue", ErrJobNotFound, name)
}
