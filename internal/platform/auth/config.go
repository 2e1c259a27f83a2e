package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tessera-ml/tessera-go/internal/platform/env"
)

type Mode string

const (
	ModeOIDC     Mode = "oidc"
	ModeDev      Mode = "dev"
	ModeDisabled Mode = "disabled"
)

type Config struct {
	Mode Mode

	RolesClaim string
	EmailClaim string

	SessionCookieName     string
	SessionCookieSecure   bool
	SessionCookieMaxAge   time.Duration
	SessionCookieSameSite string

	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCScopes       []string

	DevSubject string
	DevEmail   string
	DevRoles   []string
}

func ConfigFromEnv() (Config, error) {
	modeRaw := strings.ToLower(strings.TrimSpace(env.String("TESSERA_AUTH_MODE", string(ModeDisabled))))
	var mode Mode
	switch modeRaw {
	case string(ModeOIDC):
		mode = ModeOIDC
	case string(ModeDev):
		mode = ModeDev
	case string(ModeDisabled):
		mode = ModeDisabled
	default:
		return Config{}, fmt.Errorf("TESSERA_AUTH_MODE must be one of: oidc, dev, disabled (got %q)", modeRaw)
	}

	sessionCookieSecure, err := env.Bool("TESSERA_AUTH_SESSION_COOKIE_SECURE", true)
	if err != nil {
		return Config{}, err
	}
	maxAgeSeconds, err := env.Int("TESSERA_AUTH_SESSION_MAX_AGE_SECONDS", 3600)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:                  mode,
		RolesClaim:            env.String("TESSERA_AUTH_ROLES_CLAIM", "roles"),
		EmailClaim:            env.String("TESSERA_AUTH_EMAIL_CLAIM", "email"),
		SessionCookieName:     env.String("TESSERA_AUTH_SESSION_COOKIE_NAME", "tessera_session"),
		SessionCookieSecure:   sessionCookieSecure,
		SessionCookieMaxAge:   time.Duration(maxAgeSeconds) * time.Second,
		SessionCookieSameSite: env.String("TESSERA_AUTH_SESSION_COOKIE_SAMESITE", "Lax"),
		OIDCIssuerURL:         env.String("TESSERA_OIDC_ISSUER_URL", ""),
		OIDCClientID:          env.String("TESSERA_OIDC_CLIENT_ID", ""),
		OIDCClientSecret:      env.String("TESSERA_OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:       env.String("TESSERA_OIDC_REDIRECT_URL", ""),
		OIDCScopes:            env.StringList("TESSERA_OIDC_SCOPES", []string{"openid", "profile", "email"}),
		DevSubject:            env.String("TESSERA_DEV_AUTH_SUBJECT", "dev-user"),
		DevEmail:              env.String("TESSERA_DEV_AUTH_EMAIL", "dev-user@example.local"),
		DevRoles:              env.StringList("TESSERA_DEV_AUTH_ROLES", []string{"admin"}),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(string(c.Mode)) == "" {
		return errors.New("TESSERA_AUTH_MODE is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return errors.New("TESSERA_AUTH_SESSION_COOKIE_NAME is required")
	}
	if c.SessionCookieMaxAge <= 0 {
		return errors.New("TESSERA_AUTH_SESSION_MAX_AGE_SECONDS must be positive")
	}

	switch c.Mode {
	case ModeOIDC:
		if strings.TrimSpace(c.OIDCIssuerURL) == "" {
			return errors.New("TESSERA_OIDC_ISSUER_URL is required when TESSERA_AUTH_MODE=oidc")
		}
		if strings.TrimSpace(c.OIDCClientID) == "" {
			return errors.New("TESSERA_OIDC_CLIENT_ID is required when TESSERA_AUTH_MODE=oidc")
		}
	case ModeDev:
		if strings.TrimSpace(c.DevSubject) == "" {
			return errors.New("TESSERA_DEV_AUTH_SUBJECT is required when TESSERA_AUTH_MODE=dev")
		}
	case ModeDisabled:
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Mode)
	}

	return nil
}

func (c Config) ValidateForLogin() error {
	if c.Mode != ModeOIDC {
		return fmt.Errorf("login requires TESSERA_AUTH_MODE=oidc (got %q)", c.Mode)
	}
	if strings.TrimSpace(c.OIDCClientSecret) == "" {
		return errors.New("TESSERA_OIDC_CLIENT_SECRET is required for login endpoints")
	}
	if strings.TrimSpace(c.OIDCRedirectURL) == "" {
		return errors.New("TESSERA_OIDC_REDIRECT_URL is required for login endpoints")
	}
	return nil
}
