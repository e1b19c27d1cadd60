package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "datapro", cfg.DB.DBName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "datapro_test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("DB_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "datapro_test", cfg.DB.DBName)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.DB.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Error, cfg.DB.LogLevel)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "soon")
	t.Setenv("DB_LOG_LEVEL", "chatty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DB.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "datapro",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=datapro sslmode=disable",
		db.GetDSN())
}
