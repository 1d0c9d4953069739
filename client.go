package tsprint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultBaseURL = "https://followme.imtbs-tsp.eu"

	loginPath       = "/user"
	summaryPath     = "/app?service=page/UserSummary"
	webPrintPath    = "/app?service=page/UserWebPrint"
	releaseJobsPath = "/app?service=page/UserReleaseJobs"

	defaultPollAttempts = 10
	defaultPollInterval = 3 * time.Second
)

// PaperCut serves different markup to clients it does not recognize as a
// browser, so a browser user agent is the default.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36"

// Client is a session-authenticated client for the FollowMe print portal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	username   string
	password   string
	logger     *slog.Logger

	csrfToken string
	loggedIn  bool

	pollAttempts int
	pollInterval time.Duration
}

// Option is a function that configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached if
// the client has none, since the portal session lives in cookies.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL for the portal.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header sent to the portal.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a new portal client for the given credentials.
func New(username, password string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultBaseURL,
		userAgent:    defaultUserAgent,
		username:     username,
		password:     password,
		logger:       slog.Default(),
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}

	return c
}

// Login authenticates with the portal and establishes the session.
//
// Failures, including an unreachable portal, wrap ErrAuthFailed. If the
// session cookie is still valid from an earlier exchange, Login detects
// the logged-in state and returns without re-submitting credentials.
func (c *Client) Login(ctx context.Context) error {
	c.logger.Debug("attempting login", "user", c.username)

	pg, err := c.getPage(ctx, c.baseURL+loginPath, "login page")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if strings.Contains(pg.body, "Déconnexion") || strings.Contains(pg.body, "D&#233;connexion") {
		c.logger.Debug("already logged in")
		c.loggedIn = true
		return nil
	}

	form := pg.doc.Find("form").First()
	if form.Length() == 0 {
		return fmt.Errorf("%w: no login form found", ErrAuthFailed)
	}

	data := formValues(form)
	data.Set("inputUsername", c.username)
	data.Set("inputPassword", c.password)

	if name, value, ok := firstSubmit(form); ok {
		data.Set(name, value)
	} else {
		data.Set("$Submit$0", "Connexion")
	}

	res, err := c.postForm(ctx, c.resolveURL(form.AttrOr("action", "")), data, pg.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if loginFormPresent(res.body) {
		msg := "unknown error"
		if errText := cleanText(res.doc.Find(".error, .errorMessage").First()); errText != "" {
			msg = errText
		}
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}

	check, err := c.getPage(ctx, c.baseURL+summaryPath, "session check")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if loginFormPresent(check.body) {
		return fmt.Errorf("%w: session check failed after login", ErrAuthFailed)
	}

	c.loggedIn = true
	c.logger.Debug("login successful", "user", c.username)
	return nil
}

// loginFormPresent reports whether the page still shows the portal's
// login form. The check is case sensitive on purpose: the logged-in
// pages contain "Déconnexion" but never a capitalized "Connexion".
func loginFormPresent(body string) bool {
	return strings.Contains(body, "Connexion") && strings.Contains(body, "inputPassword")
}

func (c *Client) requireSession() error {
	if !c.loggedIn {
		return ErrNoSession
	}
	return nil
}

// page is a fetched portal page: the parsed document, the raw body for
// the bits that live in inline scripts, and the final URL for Referer
// chaining through the wizard.
type page struct {
	doc  *goquery.Document
	body string
	url  string
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	return req, nil
}

func (c *Client) getPage(ctx context.Context, url, desc string) (*page, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", desc, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", desc, err)
	}

	return c.parsePage(resp, desc)
}

func (c *Client) postForm(ctx context.Context, action string, data url.Values, referer string) (*page, error) {
	req, err := c.newRequest(ctx, http.MethodPost, action, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating form request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.baseURL)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if c.csrfToken != "" {
		req.Header.Set("X-Csrf-Token", c.csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting form: %w", err)
	}

	return c.parsePage(resp, "form response")
}

func (c *Client) parsePage(resp *http.Response, desc string) (*page, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loading %s: unexpected status %d", desc, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", desc, err)
	}

	body := string(raw)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", desc, err)
	}

	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &page{doc: doc, body: body, url: finalURL}, nil
}

// resolveURL turns portal-relative hrefs into absolute URLs.
func (c *Client) resolveURL(path string) string {
	switch {
	case path == "":
		return c.baseURL
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return c.baseURL + path
	default:
		return c.baseURL + "/" + path
	}
}
