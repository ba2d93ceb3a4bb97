// Package ups is a client for the Eaton network card REST API, covering the
// oauth2 password-grant handshake and outlet state/switch operations.
package ups

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const httpTimeout = 5 * time.Second

var (
	ErrNotAuthenticated = errors.New("no valid UPS session")
	errUnexpectedStatus = errors.New("unexpected status code")
)

// SwitchOp selects the direction of a switch command.
type SwitchOp string

const (
	SwitchOn  SwitchOp = "On"
	SwitchOff SwitchOp = "Off"
)

// Client holds one authenticated session against a single UPS network card.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	authHeader string
	log        zerolog.Logger
}

// NewClient builds an unauthenticated client for the UPS at address. The
// network cards ship with self-signed certificates, so verification is off.
func NewClient(address, username, password string, log zerolog.Logger) *Client {
	baseURL := address
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + "/rest/mbdetnrs/1.0",
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
		log: log.With().Str("component", "ups").Str("ups", address).Logger(),
	}
}

type tokenRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	GrantType string `json:"grant_type"`
	Scope     string `json:"scope"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate obtains a bearer token. Failure leaves the client without a
// session; callers must check Authenticated before issuing outlet commands.
func (c *Client) Authenticate(ctx context.Context) error {
	c.log.Info().Msg("connecting to UPS")

	payload, err := json.Marshal(tokenRequest{
		Username:  c.username,
		Password:  c.password,
		GrantType: "password",
		Scope:     "GUIAccess",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth2/token", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w: %d", ErrNotAuthenticated, errUnexpectedStatus, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrNotAuthenticated)
	}

	c.authHeader = "Bearer " + token.AccessToken
	c.log.Info().Msg("got UPS auth token")
	return nil
}

// Authenticated reports whether a usable session exists.
func (c *Client) Authenticated() bool {
	return c.authHeader != ""
}

type outletStatus struct {
	Status struct {
		SwitchedOn bool `json:"switchedOn"`
	} `json:"status"`
}

// OutletState queries whether the outlet is currently switched on.
func (c *Client) OutletState(ctx context.Context, outlet int) (bool, error) {
	if !c.Authenticated() {
		return false, ErrNotAuthenticated
	}

	path := fmt.Sprintf("%s/powerDistributions/1/outlets/%d", c.baseURL, outlet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var status outletStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, err
	}

	c.log.Debug().Int("outlet", outlet).Bool("on", status.Status.SwitchedOn).Msg("outlet state")
	return status.Status.SwitchedOn, nil
}

// SwitchOutlet commands the outlet on or off.
func (c *Client) SwitchOutlet(ctx context.Context, outlet int, op SwitchOp) error {
	if !c.Authenticated() {
		return ErrNotAuthenticated
	}

	c.log.Info().Int("outlet", outlet).Str("op", string(op)).Msg("switching outlet")

	path := fmt.Sprintf("%s/powerDistributions/1/outlets/%d/actions/switch%s", c.baseURL, outlet, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
