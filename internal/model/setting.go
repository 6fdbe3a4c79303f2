package model

import "time"

// Setting keys owned by the sync engine and token provider.
const (
	SettingLastSync     = "ultima_sincronizacion"
	SettingOAuthToken   = "oauth_access_token"
	SettingOAuthRefresh = "oauth_refresh_token"
	SettingOAuthExpiry  = "oauth_token_expiry"
)

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
