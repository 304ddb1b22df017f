package secrets

import (
	"fmt"
	"os"
)

// Environment variables holding the access token signing keys.
const (
	JWTSecret         = "PROPDESK_JWT_SECRET"
	JWTSecretPrevious = "PROPDESK_JWT_SECRET_PREVIOUS"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are silently omitted from the result map.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// SigningKeyLoader reads both signing keys from the environment. When
// PROPDESK_JWT_SECRET is unset the configured fallback is used. Keys shorter
// than minLen are rejected, so a bad reload keeps the old keys.
func SigningKeyLoader(fallback string, minLen int) Loader {
	env := EnvLoader(JWTSecret, JWTSecretPrevious)
	return func() (map[string]string, error) {
		vals, err := env()
		if err != nil {
			return nil, err
		}
		if vals[JWTSecret] == "" {
			vals[JWTSecret] = fallback
		}
		for _, k := range []string{JWTSecret, JWTSecretPrevious} {
			if v, ok := vals[k]; ok && len(v) < minLen {
				return nil, fmt.Errorf("%s must be at least %d characters", k, minLen)
			}
		}
		return vals, nil
	}
}
