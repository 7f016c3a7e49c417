package identityadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dealerdesk/contexts/identity-access/account-admin-service/domain/entities"
	domainerrors "dealerdesk/contexts/identity-access/account-admin-service/domain/errors"
)

// Client implements ports.IdentityStore against the hosted identity
// provider's admin API. Claim writes go through the merge endpoint so claims
// owned by the session system survive.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type accountPayload struct {
	UID         string         `json:"uid"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Disabled    bool           `json:"disabled"`
	Claims      map[string]any `json:"claims"`
}

func (c *Client) GetUser(ctx context.Context, uid string) (entities.IdentityUser, error) {
	var payload accountPayload
	err := c.do(ctx, http.MethodGet, c.accountPath(uid), nil, &payload)
	if err != nil {
		return entities.IdentityUser{}, err
	}
	claims := payload.Claims
	if claims == nil {
		claims = make(map[string]any)
	}
	return entities.IdentityUser{
		UID:         payload.UID,
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Disabled:    payload.Disabled,
		Claims:      claims,
	}, nil
}

func (c *Client) MergeClaims(ctx context.Context, uid string, claims map[string]any) error {
	body := map[string]any{"claims": claims}
	return c.do(ctx, http.MethodPatch, c.accountPath(uid)+"/claims", body, nil)
}

func (c *Client) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	body := map[string]any{"disabled": disabled}
	return c.do(ctx, http.MethodPut, c.accountPath(uid)+"/status", body, nil)
}

func (c *Client) accountPath(uid string) string {
	return c.baseURL + "/admin/v1/accounts/" + url.PathEscape(uid)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domainerrors.ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("identity provider call failed",
			"event", "identity_provider_call_failed",
			"module", "identity-access/account-admin-service",
			"layer", "adapter",
			"method", method,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("identity provider %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
