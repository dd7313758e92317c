// Package directory fetches denormalised display data (name, email) for users
// from the account service.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotFound = errors.New("directory entry not found")

// Entry is the display data kept on roster and waitlist entries.
type Entry struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client looks users up over HTTP. When a token URL is configured requests
// carry a client-credentials bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       []string{"users:read"},
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// Lookup returns the display entry for userID.
func (c *Client) Lookup(ctx context.Context, userID string) (Entry, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Entry{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Entry{}, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var e Entry
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("decode directory entry: %w", err)
	}
	return e, nil
}
