package auth

import (
	"strings"
	"testing"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Mode != ModeDisabled {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, ModeDisabled)
	}
	if cfg.SessionCookieName != "tessera_session" {
		t.Fatalf("SessionCookieName = %q", cfg.SessionCookieName)
	}
	if len(cfg.OIDCScopes) != 3 || cfg.OIDCScopes[0] != "openid" {
		t.Fatalf("OIDCScopes = %v", cfg.OIDCScopes)
	}
}

func TestConfigFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("TESSERA_AUTH_MODE", "basic")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for unknown auth mode")
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Mode:                "disabled",
			SessionCookieName:   "tessera_session",
			SessionCookieMaxAge: 3600e9,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "disabled mode ok",
			mutate: func(c *Config) {},
		},
		{
			name: "oidc requires issuer",
			mutate: func(c *Config) {
				c.Mode = ModeOIDC
				c.OIDCClientID = "tessera"
			},
			wantErr: "TESSERA_OIDC_ISSUER_URL",
		},
		{
			name: "oidc requires client id",
			mutate: func(c *Config) {
				c.Mode = ModeOIDC
				c.OIDCIssuerURL = "https://issuer.example.com"
			},
			wantErr: "TESSERA_OIDC_CLIENT_ID",
		},
		{
			name: "dev requires subject",
			mutate: func(c *Config) {
				c.Mode = ModeDev
			},
			wantErr: "TESSERA_DEV_AUTH_SUBJECT",
		},
		{
			name: "session cookie required",
			mutate: func(c *Config) {
				c.SessionCookieName = " "
			},
			wantErr: "TESSERA_AUTH_SESSION_COOKIE_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForLogin(t *testing.T) {
	cfg := Config{
		Mode:                ModeOIDC,
		SessionCookieName:   "tessera_session",
		SessionCookieMaxAge: 3600e9,
		OIDCIssuerURL:       "https://issuer.example.com",
		OIDCClientID:        "tessera",
	}
	if err := cfg.ValidateForLogin(); err == nil {
		t.Fatal("expected error without client secret and redirect URL")
	}
	cfg.OIDCClientSecret = "secret"
	cfg.OIDCRedirectURL = "https://tessera.example.com/v1/auth/callback"
	if err := cfg.ValidateForLogin(); err != nil {
		t.Fatalf("ValidateForLogin() error = %v", err)
	}
}

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/runs", "/runs"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com", "/"},
		{"relative/path", "/"},
	}
	for _, tt := range tests {
		if got := safeReturnTo(tt.in); got != tt.want {
			t.Fatalf("safeReturnTo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
