package config

import (
	"errors"
	"fmt"
)

const devJWTSecret = "dev_secret"

// Validate reports every setting that would leave the service unusable or
// unsafe. Production refuses the development JWT secret.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	} else if c.Env == EnvProduction && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be changed in production"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.Idempotency.PendingTTL <= 0 || c.Idempotency.PendingTTL > c.Idempotency.TTL {
		errs = append(errs, errors.New("IDEMPOTENCY_PENDING_TTL must be positive and not exceed IDEMPOTENCY_TTL"))
	}
	if c.Progress.CacheEnabled && c.Progress.CacheTTL <= 0 {
		errs = append(errs, errors.New("PROGRESS_CACHE_TTL must be positive when the progress cache is enabled"))
	}

	return errors.Join(errs...)
}
