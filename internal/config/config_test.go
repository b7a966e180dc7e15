package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads; viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "MONGO_URI", "DB_NAME", "REDIS_URL", "LEADERBOARD_TTL",
		"KEY_DATA", "CORS_ORIGINS", "BEANS_PER_IDEA", "TOP_SUBMITTERS_LIMIT",
		"RECONCILE_INTERVAL", "REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "idea_central", cfg.DBName)
	assert.Equal(t, 60*time.Second, cfg.LeaderboardTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.BeansPerIdea)
	assert.Equal(t, 5, cfg.TopSubmitters)
	assert.Zero(t, cfg.ReconcileInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.FirebaseKey)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("BEANS_PER_IDEA", "250")
	t.Setenv("RECONCILE_INTERVAL", "2m")
	t.Setenv("REQUEST_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 250, cfg.BeansPerIdea)
	assert.Equal(t, 2*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "mongo without uri", env: map[string]string{"STORE_DRIVER": "mongo"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "negative beans", env: map[string]string{"STORE_DRIVER": "memory", "BEANS_PER_IDEA": "-1"}},
		{name: "zero top limit", env: map[string]string{"STORE_DRIVER": "memory", "TOP_SUBMITTERS_LIMIT": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
