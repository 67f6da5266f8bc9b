// Package github collects public activity metrics for a GitHub profile.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

const (
	defaultTimeout   = 10 * time.Second
	recencyWindow    = 365 * 24 * time.Hour
	recencyRepoCount = 5
	topRepoCount     = 3
	maxErrorBody     = 512
)

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithBaseURL points the collector at another API root, e.g. GitHub Enterprise.
func WithBaseURL(u string) Option {
	return func(c *Collector) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Collector) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock injects the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultToken sets the token used when a call does not supply one.
func WithDefaultToken(token string) Option {
	return func(c *Collector) {
		c.defaultToken = token
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// Collector fetches profile, repository and event data. Calls for one
// identity are sequential and never retried.
type Collector struct {
	baseURL      string
	http         *http.Client
	timeout      time.Duration
	now          func() time.Time
	defaultToken string
	logger       logger.Logger
}

// New creates a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
		now:     time.Now,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

type userResponse struct {
	Login       string `json:"login"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
}

type repoResponse struct {
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	PushedAt    string `json:"pushed_at"`
}

type eventResponse struct {
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
}

// Collect gathers the metric tuple for identity. token may be empty.
func (c *Collector) Collect(ctx context.Context, identity, token string) (model.Metrics, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return model.Metrics{}, ErrEmptyIdentity
	}
	if token == "" {
		token = c.defaultToken
	}
	escaped := url.PathEscape(identity)

	var user userResponse
	if err := c.get(ctx, "user", "/users/"+escaped, token, &user); err != nil {
		return model.Metrics{}, err
	}

	var repos []repoResponse
	if err := c.get(ctx, "repos", "/users/"+escaped+"/repos?type=owner&sort=pushed&per_page=100", token, &repos); err != nil {
		return model.Metrics{}, err
	}

	login := user.Login
	if login == "" {
		login = identity
	}

	m := model.Metrics{
		Identity:    login,
		Followers:   user.Followers,
		PublicRepos: user.PublicRepos,
	}

	now := c.now()
	languages := make(map[string]struct{})
	var recency float64
	recencyN := 0
	for i, r := range repos {
		m.TotalStars += r.Stars
		if i < recencyRepoCount {
			recency += Recency(r.PushedAt, now)
			recencyN++
		}
		if r.Language != "" {
			languages[r.Language] = struct{}{}
		}
	}
	if recencyN > 0 {
		m.AvgRecentActivity = recency / float64(recencyN)
	}
	m.LanguageDiversity = len(languages)
	m.TopRepos = topRepos(repos, login)

	// Events are best-effort and always unauthenticated.
	var events []eventResponse
	if err := c.get(ctx, "events", "/users/"+escaped+"/events/public?per_page=100", "", &events); err != nil {
		c.logger.Debug(ctx, "events unavailable; collaboration diversity is 0",
			logger.String("identity", identity), logger.Error(err))
	} else if collaboratesOutside(events, identity) {
		m.CollaborationDiversity = 1
	}

	return m, nil
}

// Recency maps a push timestamp to [0,1]: 1 for now, 0 at a year or older.
// Unparseable timestamps count as 0.
func Recency(pushedAt string, now time.Time) float64 {
	t, err := time.Parse(time.RFC3339, pushedAt)
	if err != nil {
		return 0
	}
	v := 1 - float64(now.Sub(t))/float64(recencyWindow)
	if v < 0 {
		return 0
	}
	return v
}

// collaboratesOutside reports whether any pull request or issue event targets
// a repository owned by someone other than identity.
func collaboratesOutside(events []eventResponse, identity string) bool {
	for _, e := range events {
		if e.Type != "PullRequestEvent" && e.Type != "IssuesEvent" {
			continue
		}
		owner, _, _ := strings.Cut(e.Repo.Name, "/")
		if !model.SameIdentity(owner, identity) {
			return true
		}
	}
	return false
}

func topRepos(repos []repoResponse, owner string) []model.Repo {
	sorted := make([]repoResponse, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Stars > sorted[j].Stars })
	if len(sorted) > topRepoCount {
		sorted = sorted[:topRepoCount]
	}
	out := make([]model.Repo, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, model.Repo{
			Name:        r.Name,
			Owner:       owner,
			Stars:       r.Stars,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
		})
	}
	return out
}

func (c *Collector) get(ctx context.Context, endpoint, path, token string, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "gscore")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", float64(time.Since(start).Milliseconds()))
		return &UpstreamError{Endpoint: endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, statusClass(resp.StatusCode), float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  upstreamMessage(endpoint, resp.StatusCode, body),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Message: "decode " + endpoint + " response", Err: err}
	}
	return nil
}

func upstreamMessage(endpoint string, status int, body []byte) string {
	text := http.StatusText(status)
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		text = payload.Message
	}
	if endpoint == "user" {
		return fmt.Sprintf("GitHub API Error: %s (%d)", text, status)
	}
	return fmt.Sprintf("GitHub API Error (%s): %s (%d)", endpoint, text, status)
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
