package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	v.SetDefault("storage.driver", StorageDriverCloudinary)
	v.SetDefault("results.cache_ttl", "5m")
	v.SetDefault("grading.rate_window", "1m")
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViperAppliesDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{
		"jwt.secret": "secret",
		"app.port":   "9090",
	}))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 5*time.Minute, cfg.ResultsCacheTTL)
	require.Equal(t, time.Minute, cfg.GradingRateWindow)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.Equal(t, 30, cfg.GradingRateLimit)
}

func TestFromViperRequiresJWTSecret(t *testing.T) {
	_, err := fromViper(newTestViper(nil))
	require.Error(t, err)
}

func TestFromViperRejectsUnknownStorageDriver(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{
		"jwt.secret":     "secret",
		"storage.driver": "ftp",
	}))
	require.Error(t, err)
}

func TestFromViperRequiresSeedToken(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{
		"jwt.secret":   "secret",
		"seed.enabled": true,
	}))
	require.Error(t, err)
}

func TestFromViperRejectsInvalidDuration(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{
		"jwt.secret":        "secret",
		"results.cache_ttl": "soon",
	}))
	require.Error(t, err)
}
