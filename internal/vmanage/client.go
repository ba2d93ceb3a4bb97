// Package vmanage is a minimal client for the Cisco vManage dataservice API,
// covering session authentication, device inventory and BFD state queries.
package vmanage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const httpTimeout = 5 * time.Second

var (
	ErrAuthFailed        = errors.New("vmanage authentication failed")
	errUnexpectedStatus  = errors.New("unexpected status code")
	errMissingSessionKey = errors.New("no JSESSIONID cookie in auth response")
)

// Client holds an authenticated vManage session.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	token      string
	log        zerolog.Logger
}

// NewClient builds an unauthenticated client. vManage lab deployments run
// with self-signed certificates, so TLS verification is disabled just like
// every other client that talks to them.
func NewClient(baseURL, username, password string, log zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: httpTimeout,
			Jar:     jar,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
		log: log.With().Str("component", "vmanage").Logger(),
	}, nil
}

// Authenticate performs the j_security_check login and fetches the CSRF
// token. vManage answers a failed login with HTTP 200 and an HTML login
// page, so the session cookie is the real success signal.
func (c *Client) Authenticate(ctx context.Context) error {
	c.log.Info().Str("url", c.baseURL).Msg("authenticating to vManage")

	form := url.Values{}
	form.Set("j_username", c.username)
	form.Set("j_password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/j_security_check", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w: %d", ErrAuthFailed, errUnexpectedStatus, resp.StatusCode)
	}
	if !c.hasSessionCookie() {
		return fmt.Errorf("%w: %w", ErrAuthFailed, errMissingSessionKey)
	}

	if err := c.fetchToken(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	c.log.Info().Msg("got vManage session")
	return nil
}

func (c *Client) hasSessionCookie() bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	for _, cookie := range c.httpClient.Jar.Cookies(base) {
		if cookie.Name == "JSESSIONID" {
			return true
		}
	}
	return false
}

func (c *Client) fetchToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/dataservice/client/token", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.token = strings.TrimSpace(string(body))
	return nil
}

// get issues an authenticated GET against a dataservice path.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-XSRF-TOKEN", c.token)
	}
	return c.httpClient.Do(req)
}
