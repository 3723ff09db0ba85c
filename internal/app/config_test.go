package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPlatformDefaults(t *testing.T) {
	t.Run("DATABASE_URL fallback", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform/db")

		cfg := Config{Addr: "0.0.0.0:8080"}
		cfg.applyPlatformDefaults()
		assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	})

	t.Run("explicit URL wins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform/db")

		cfg := Config{Addr: "0.0.0.0:8080", DatabaseURL: "postgres://explicit/db"}
		cfg.applyPlatformDefaults()
		assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	})

	t.Run("PORT overrides the default address only", func(t *testing.T) {
		t.Setenv("PORT", "9000")

		cfg := Config{Addr: "0.0.0.0:8080"}
		cfg.applyPlatformDefaults()
		assert.Equal(t, "0.0.0.0:9000", cfg.Addr)

		custom := Config{Addr: "127.0.0.1:3000"}
		custom.applyPlatformDefaults()
		assert.Equal(t, "127.0.0.1:3000", custom.Addr)
	})
}
