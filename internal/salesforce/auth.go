package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

const (
	tokenTimeout    = 30 * time.Second
	identityTimeout = 20 * time.Second
)

// OAuthConfig carries the credentials for one tenant's token exchange.
type OAuthConfig struct {
	LoginURL     string
	GrantType    models.GrantType
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Authenticator exchanges client credentials for an access token, instance
// URL and org id against the tenant's login endpoint.
type Authenticator struct {
	cfg        OAuthConfig
	clientName string
	httpClient *http.Client
	logger     logging.Logger

	AccessToken string
	InstanceURL string
	OrgID       string
}

func NewAuthenticator(cfg OAuthConfig, clientName string, logger logging.Logger) *Authenticator {
	return &Authenticator{
		cfg:        cfg,
		clientName: clientName,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	ID          string `json:"id"`
}

type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Authenticate runs the token exchange and resolves the org id from the
// identity endpoint. Misconfiguration surfaces as FatalConfigError; network
// and server-side failures are transient.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {string(a.cfg.GrantType)},
		"client_id":     {a.cfg.ClientID},
		"client_secret": {a.cfg.ClientSecret},
		"username":      {a.cfg.Username},
		"password":      {a.cfg.Password},
	}
	if a.cfg.GrantType == models.GrantClientCredentials {
		// The broker's client_credentials flow rejects requests without an
		// explicit response_type.
		form.Set("response_type", "code")
	}

	tokenURL := strings.TrimRight(a.cfg.LoginURL, "/") + "/services/oauth2/token"
	a.logger.WithFields(logging.Fields{
		"client": a.clientName,
		"grant":  a.cfg.GrantType,
		"url":    tokenURL,
	}).Info("Authenticating")

	reqCtx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden:
		var oe oauthError
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &oe) == nil && oe.Error != "" {
			detail = fmt.Sprintf("%s:%s", oe.Error, oe.ErrorDescription)
		}
		if a.cfg.GrantType == models.GrantClientCredentials && strings.Contains(strings.ToLower(detail), "not supported") {
			detail += " (client_credentials usually requires the org's My-Domain login URL)"
		}
		return fatalf("OAuth failed (%d): %s", resp.StatusCode, detail)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fatalf("OAuth succeeded but no access_token returned")
	}
	a.AccessToken = tok.AccessToken
	a.InstanceURL = tok.InstanceURL

	if tok.ID == "" {
		a.logger.WithField("client", a.clientName).Warn("No identity URL in token response; ensure tenant_id is configured")
		return nil
	}
	return a.resolveOrgID(ctx, tok.ID)
}

func (a *Authenticator) resolveOrgID(ctx context.Context, identityURL string) error {
	reqCtx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, identityURL, nil)
	if err != nil {
		return fatalf("identity call failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fatalf("identity call failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return fatalf("identity call failed (%d): %s", resp.StatusCode, snippet)
	}

	var identity struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(body, &identity); err != nil {
		return fatalf("identity call returned unparseable body: %v", err)
	}
	a.OrgID = identity.OrganizationID
	a.logger.WithFields(logging.Fields{
		"client": a.clientName,
		"org_id": a.OrgID,
	}).Info("Org (tenant) id resolved")
	return nil
}
