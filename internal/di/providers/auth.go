package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfapp/shelf/internal/auth"
	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/ratelimit"
)

// ProvideHasher provides the password hasher.
func ProvideHasher(_ do.Injector) (*auth.Hasher, error) {
	return auth.NewHasher(auth.DefaultParams)
}

// LoginLimiterHandle stops the limiter's sweeper on shutdown.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdowner.
func (h *LoginLimiterHandle) Shutdown() {
	h.Stop()
}

// ProvideLoginLimiter provides the per-username login throttle.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &LoginLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Auth.LoginAttempts, cfg.Auth.LoginWindow),
	}, nil
}
