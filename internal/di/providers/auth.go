package providers

import (
	"github.com/samber/do/v2"

	"github.com/hiveapp/hive-server/internal/auth"
	"github.com/hiveapp/hive-server/internal/config"
)

// AuthKey is the hex-encoded PASETO v4 key.
type AuthKey string

// ProvideAuthKey uses the configured key or loads (generating on first run)
// the key stored in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if cfg.Auth.AccessTokenKey != "" {
		log.Info("Authentication key loaded", "source", "config")
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded", "source", "data directory")
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	authKey := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService(string(authKey))
}
