package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER",
		"MYSQL_PASS", "MYSQL_DB", "MYSQL_READONLY_CHECK",
	} {
		// viper ignores empty values, so this acts as unset.
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "", cfg.Password)
	assert.Equal(t, "", cfg.Database)
	assert.Equal(t, CheckGrants, cfg.ReadOnlyCheck)
	assert.Equal(t, "127.0.0.1:3306", cfg.Addr())
}

func TestLoadConfig_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MYSQL_USER", "reader")
	t.Setenv("MYSQL_PASS", "hunter2")
	t.Setenv("MYSQL_DB", "app")
	t.Setenv("MYSQL_READONLY_CHECK", "probe")

	cfg := LoadConfig()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "reader", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "app", cfg.Database)
	assert.Equal(t, CheckProbe, cfg.ReadOnlyCheck)
	assert.Equal(t, "db.internal:3307", cfg.Addr())
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{Host: "db.internal", Port: 3307, User: "reader", Password: "hunter2", Database: "app"}
	assert.Contains(t, cfg.DSN(), "reader:hunter2@tcp(db.internal:3307)/app")
}

func TestConfig_DSNWithoutDatabase(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 3306, User: "root"}
	assert.Contains(t, cfg.DSN(), "root@tcp(127.0.0.1:3306)/")
}
