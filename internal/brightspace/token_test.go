package brightspace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

type memSettings struct {
	values map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func TestGetTokenUsesStoredTokenWhileFresh(t *testing.T) {
	settings := newMemSettings()
	settings.values[model.SettingOAuthToken] = "stored"
	settings.values[model.SettingOAuthExpiry] = time.Now().Add(1 * time.Hour).Format(time.RFC3339)

	provider := NewOAuthTokenProvider("http://unused.invalid", "id", "secret", settings, zerolog.Nop())

	token, err := provider.GetToken(context.Background(), false)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if token != "stored" {
		t.Errorf("token = %q, want %q", token, "stored")
	}
}

func TestGetTokenRefreshesExpiredToken(t *testing.T) {
	var grantType, refreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		grantType = r.PostFormValue("grant_type")
		refreshToken = r.PostFormValue("refresh_token")
		user, pass, _ := r.BasicAuth()
		if user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "renewed",
			"refresh_token": "next-refresh",
			"expires_in":    7200,
		})
	}))
	defer srv.Close()

	settings := newMemSettings()
	settings.values[model.SettingOAuthToken] = "stale"
	// Inside the safety margin, so the stored token must not be used.
	settings.values[model.SettingOAuthExpiry] = time.Now().Add(1 * time.Minute).Format(time.RFC3339)
	settings.values[model.SettingOAuthRefresh] = "old-refresh"

	provider := NewOAuthTokenProvider(srv.URL, "id", "secret", settings, zerolog.Nop())

	token, err := provider.GetToken(context.Background(), false)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if token != "renewed" {
		t.Errorf("token = %q, want %q", token, "renewed")
	}
	if grantType != "refresh_token" || refreshToken != "old-refresh" {
		t.Errorf("grant = (%q, %q), want refresh_token grant with old-refresh", grantType, refreshToken)
	}

	// The rotated pair must be persisted for the next run.
	if settings.values[model.SettingOAuthToken] != "renewed" {
		t.Errorf("stored access token = %q, want %q", settings.values[model.SettingOAuthToken], "renewed")
	}
	if settings.values[model.SettingOAuthRefresh] != "next-refresh" {
		t.Errorf("stored refresh token = %q, want %q", settings.values[model.SettingOAuthRefresh], "next-refresh")
	}
}

func TestGetTokenForceRefreshBypassesStoredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "forced"})
	}))
	defer srv.Close()

	settings := newMemSettings()
	settings.values[model.SettingOAuthToken] = "fresh-but-rejected"
	settings.values[model.SettingOAuthExpiry] = time.Now().Add(1 * time.Hour).Format(time.RFC3339)
	settings.values[model.SettingOAuthRefresh] = "refresh"

	provider := NewOAuthTokenProvider(srv.URL, "id", "secret", settings, zerolog.Nop())

	token, err := provider.GetToken(context.Background(), true)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if token != "forced" {
		t.Errorf("token = %q, want %q", token, "forced")
	}
}

func TestGetTokenWithoutRefreshTokenIsAuthError(t *testing.T) {
	provider := NewOAuthTokenProvider("http://unused.invalid", "id", "secret", newMemSettings(), zerolog.Nop())

	_, err := provider.GetToken(context.Background(), false)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

func TestGetTokenEndpointRejectionIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer srv.Close()

	settings := newMemSettings()
	settings.values[model.SettingOAuthRefresh] = "revoked"

	provider := NewOAuthTokenProvider(srv.URL, "id", "secret", settings, zerolog.Nop())

	_, err := provider.GetToken(context.Background(), false)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}
