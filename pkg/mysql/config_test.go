package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaultsAndDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "root", Password: "pw", DBName: "office"}
	cfg.ApplyDefaults()

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.ConnectRetries)
	assert.Equal(t, "root:pw@tcp(db:3306)/office?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DSN())
}

func TestGormConfig(t *testing.T) {
	gc := GormConfig("silent")
	assert.True(t, gc.TranslateError)
	assert.True(t, gc.SkipDefaultTransaction)
	assert.NotNil(t, gc.Logger)
}
