package payments

import (
	"strings"

	"github.com/snegopad/snowpay/internal/pkg/env"
)

// Credentials holds per-application secret material, loaded once at
// startup and immutable afterwards.
type Credentials struct {
	vkSecrets    map[string]string
	vkDefault    string
	okSecret     string
	serviceToken string
}

// NewCredentialsFromEnv loads secrets from the environment. When
// VK_APP_ID is set the VK secret is keyed by it; otherwise the secret
// acts as the default for any app id the provider sends.
func NewCredentialsFromEnv() *Credentials {
	c := &Credentials{vkSecrets: make(map[string]string)}

	secret := strings.TrimSpace(env.GetEnv("VK_APP_SECRET", ""))
	if appID := strings.TrimSpace(env.GetEnv("VK_APP_ID", "")); appID != "" && secret != "" {
		c.vkSecrets[appID] = secret
	} else {
		c.vkDefault = secret
	}

	c.okSecret = strings.TrimSpace(env.GetEnv("OK_SECRET_KEY", ""))
	c.serviceToken = strings.TrimSpace(env.GetEnv("VK_SERVICE_TOKEN", ""))
	return c
}

// VKSecret resolves the payments secret for the given application id.
// A missing entry is a configuration error, not a signature failure.
func (c *Credentials) VKSecret(appID string) (string, error) {
	if s, ok := c.vkSecrets[strings.TrimSpace(appID)]; ok {
		return s, nil
	}
	if c.vkDefault != "" {
		return c.vkDefault, nil
	}
	return "", ErrNoCredential
}

// OKSecret resolves the OK application secret key.
func (c *Credentials) OKSecret() (string, error) {
	if c.okSecret == "" {
		return "", ErrNoCredential
	}
	return c.okSecret, nil
}

// ServiceToken is the application's own token for server-to-server VK
// API calls. Client-supplied tokens are never used for those.
func (c *Credentials) ServiceToken() string {
	return c.serviceToken
}
