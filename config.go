package main

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Verification strategy names accepted in MYSQL_READONLY_CHECK.
const (
	CheckGrants = "grants"
	CheckProbe  = "probe"
)

// Config holds the database endpoint settings, read once at startup.
type Config struct {
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	ReadOnlyCheck string
}

// LoadConfig reads configuration from MYSQL_* environment variables,
// falling back to local-development defaults. The database is optional;
// the catalog spans every non-system schema regardless.
func LoadConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("mysql")
	v.AutomaticEnv()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 3306)
	v.SetDefault("user", "root")
	v.SetDefault("pass", "")
	v.SetDefault("db", "")
	v.SetDefault("readonly_check", CheckGrants)

	return &Config{
		Host:          v.GetString("host"),
		Port:          v.GetInt("port"),
		User:          v.GetString("user"),
		Password:      v.GetString("pass"),
		Database:      v.GetString("db"),
		ReadOnlyCheck: v.GetString("readonly_check"),
	}
}

// Addr returns the host:port endpoint, as used in diagnostics.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN builds the driver connection string.
func (c *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = c.Addr()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	return mc.FormatDSN()
}
