// Package github wraps the GitHub REST API operations the bot performs:
// branch lookup, pull request creation, and issue comment creation.
package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client provides bot-facing GitHub API operations on top of go-github
type Client struct {
	gh *github.Client
}

type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client
type Option func(*clientOptions)

// WithBaseURL overrides the API base URL (for GitHub Enterprise or tests)
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithTimeout overrides the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithHTTPClient supplies a custom HTTP client, replacing token transport
// and timeout settings
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// NewClient creates a GitHub API client authenticated with the given token.
// An empty token yields an unauthenticated client, useful against mock
// servers in tests.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := clientOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
		if token != "" {
			hc.Transport = &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			}
		}
	}

	gh := github.NewClient(hc)
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", o.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	return &Client{gh: gh}, nil
}
