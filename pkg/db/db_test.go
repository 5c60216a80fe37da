package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestConnect_RequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Connect(Config{})
	assert.EqualError(t, err, "DATABASE_URL environment variable is required")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want logger.LogLevel
	}{
		{"", logger.Silent},
		{"info", logger.Silent},
		{"warn", logger.Warn},
		{"debug", logger.Info},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("WBL_LOG_LEVEL", tt.env)
			assert.Equal(t, tt.want, LogLevel())
		})
	}
}
