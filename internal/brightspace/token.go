package brightspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// expiryMargin is subtracted from the saved expiry before trusting a stored
// access token, so a token about to lapse mid-run gets refreshed up front.
const expiryMargin = 5 * time.Minute

const expiryLayout = time.RFC3339

// TokenProvider supplies a valid bearer token for upstream requests.
// forceRefresh bypasses any cached token and goes straight to the refresh
// grant; the client uses it after a 401.
type TokenProvider interface {
	GetToken(ctx context.Context, forceRefresh bool) (string, error)
}

// SettingStore is the persistence the token provider needs: the settings
// table holding the access token, refresh token and expiry.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// OAuthTokenProvider keeps Brightspace OAuth tokens in the settings store and
// renews them with the refresh-token grant. The initial refresh token is
// seeded manually (SetManualToken); there is no interactive flow here.
type OAuthTokenProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	settings     SettingStore
	http         *http.Client
	log          zerolog.Logger

	mu sync.Mutex
}

// NewOAuthTokenProvider builds a provider against the given token endpoint.
func NewOAuthTokenProvider(tokenURL, clientID, clientSecret string, settings SettingStore, log zerolog.Logger) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		settings:     settings,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          log.With().Str("component", "oauth_token_provider").Logger(),
	}
}

// GetToken returns a bearer token, refreshing it when expired or when
// forceRefresh is set. Failing to obtain one is an AuthError.
func (p *OAuthTokenProvider) GetToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !forceRefresh {
		if token, ok := p.savedToken(ctx); ok {
			return token, nil
		}
	}

	refresh, err := p.settings.Get(ctx, model.SettingOAuthRefresh)
	if err != nil || refresh == "" {
		return "", &AuthError{Err: fmt.Errorf("no refresh token available: %w", err)}
	}

	token, err := p.refreshAccessToken(ctx, refresh)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	return token, nil
}

// HasValidToken reports whether a non-expired access token is stored.
func (p *OAuthTokenProvider) HasValidToken(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.savedToken(ctx)
	return ok
}

// SetManualToken seeds tokens obtained out of band (e.g. a one-time
// authorization-code exchange done from an HTTP client).
func (p *OAuthTokenProvider) SetManualToken(ctx context.Context, accessToken, refreshToken string, expiresIn int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveTokens(ctx, accessToken, refreshToken, expiresIn)
}

func (p *OAuthTokenProvider) savedToken(ctx context.Context) (string, bool) {
	token, err := p.settings.Get(ctx, model.SettingOAuthToken)
	if err != nil || token == "" {
		return "", false
	}
	rawExpiry, err := p.settings.Get(ctx, model.SettingOAuthExpiry)
	if err != nil || rawExpiry == "" {
		return "", false
	}
	expiry, err := time.Parse(expiryLayout, rawExpiry)
	if err != nil {
		return "", false
	}
	if time.Now().Add(expiryMargin).After(expiry) {
		return "", false
	}
	return token, true
}

func (p *OAuthTokenProvider) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	p.log.Info().Msg("refreshing access token")

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// Client credentials go in the Authorization header, not the form body.
	req.SetBasicAuth(p.clientID, p.clientSecret)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &oauthErr)
		msg := oauthErr.Description
		if msg == "" {
			msg = oauthErr.Error
		}
		return "", fmt.Errorf("token endpoint HTTP %d: %s", resp.StatusCode, msg)
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	if tr.RefreshToken == "" {
		tr.RefreshToken = refreshToken
	}
	if tr.ExpiresIn == 0 {
		tr.ExpiresIn = 3600
	}
	if err := p.saveTokens(ctx, tr.AccessToken, tr.RefreshToken, tr.ExpiresIn); err != nil {
		p.log.Warn().Err(err).Msg("failed to persist refreshed tokens")
	}

	return tr.AccessToken, nil
}

func (p *OAuthTokenProvider) saveTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int) error {
	expiry := time.Now().Add(time.Duration(expiresIn) * time.Second).Format(expiryLayout)

	if err := p.settings.Set(ctx, model.SettingOAuthToken, accessToken); err != nil {
		return err
	}
	if err := p.settings.Set(ctx, model.SettingOAuthExpiry, expiry); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := p.settings.Set(ctx, model.SettingOAuthRefresh, refreshToken); err != nil {
			return err
		}
	}

	p.log.Info().Str("expires_at", expiry).Msg("tokens saved")
	return nil
}
