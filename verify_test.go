package main

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAllowsWrite_WriteGrants(t *testing.T) {
	grants := []struct {
		grant   string
		keyword string
	}{
		{"GRANT ALL PRIVILEGES ON *.* TO 'root'@'localhost' WITH GRANT OPTION", "ALL PRIVILEGES"},
		{"GRANT INSERT ON app.* TO 'writer'@'%'", "INSERT"},
		{"GRANT SELECT, UPDATE ON app.users TO 'writer'@'%'", "UPDATE"},
		{"GRANT DELETE ON `app`.* TO 'writer'@'%'", "DELETE"},
		{"grant create on app.* to 'writer'@'%'", "CREATE"},
		{"GRANT CREATE TEMPORARY TABLES ON app.* TO 'writer'@'%'", "CREATE"},
		{"GRANT DROP ON app.* TO 'writer'@'%'", "DROP"},
		{"GRANT ALTER ON app.* TO 'writer'@'%'", "ALTER"},
		{"GRANT INDEX ON app.* TO 'writer'@'%'", "INDEX"},
		{"GRANT SELECT, GRANT OPTION ON app.* TO 'writer'@'%'", "GRANT"},
	}

	for _, tc := range grants {
		t.Run(tc.grant, func(t *testing.T) {
			kw, writable := grantAllowsWrite(tc.grant)
			require.True(t, writable)
			assert.Equal(t, tc.keyword, kw)
		})
	}
}

func TestGrantAllowsWrite_ReadOnlyGrants(t *testing.T) {
	grants := []string{
		"GRANT USAGE ON *.* TO 'reader'@'%'",
		"GRANT SELECT ON app.* TO 'reader'@'%'",
		"GRANT SELECT ON `app`.`users` TO 'reader'@'%'",
		"grant select on *.* to 'reader'@'localhost'",
		"GRANT SELECT, SHOW VIEW ON app.* TO 'reader'@'%'",
		// WITH GRANT OPTION sits after the ON clause and is not a write privilege here
		"GRANT SELECT ON app.* TO 'reader'@'%' WITH GRANT OPTION",
		// role grant, no ON clause
		"GRANT `app_read`@`%` TO `reader`@`%`",
	}

	for _, grant := range grants {
		t.Run(grant, func(t *testing.T) {
			kw, writable := grantAllowsWrite(grant)
			assert.False(t, writable, "unexpectedly matched %s", kw)
		})
	}
}

func TestGrantVerifier_CheckGrants(t *testing.T) {
	v := &GrantVerifier{cfg: &Config{User: "reader"}}

	err := v.checkGrants([]string{
		"GRANT USAGE ON *.* TO 'reader'@'%'",
		"GRANT SELECT ON app.* TO 'reader'@'%'",
	})
	require.NoError(t, err)

	err = v.checkGrants([]string{
		"GRANT SELECT ON app.* TO 'reader'@'%'",
		"GRANT INSERT, UPDATE ON app.* TO 'reader'@'%'",
	})
	require.Error(t, err)

	var fault *StartupError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, FaultPolicy, fault.Kind)
	assert.Contains(t, fault.Message, "INSERT")
	assert.Contains(t, fault.Message, "reader")
}

func TestGrantVerifier_NoGrantsIsReadOnly(t *testing.T) {
	v := &GrantVerifier{cfg: &Config{User: "reader"}}
	require.NoError(t, v.checkGrants(nil))
}

func TestProbeVerifier_WritableAccount(t *testing.T) {
	pool := newTestPool(t)
	v := &ProbeVerifier{pool: pool, cfg: &Config{User: "root"}}

	err := v.VerifyReadOnly(context.Background())
	var fault *StartupError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, FaultPolicy, fault.Kind)

	// The transient probe table must not be left behind.
	rows, _, qerr := pool.Execute(context.Background(),
		`SELECT name FROM sqlite_master WHERE name LIKE 'readonly_probe_%'`)
	require.NoError(t, qerr)
	assert.Empty(t, rows)
}

func TestIsPermissionDenied(t *testing.T) {
	assert.True(t, isPermissionDenied(&mysql.MySQLError{Number: errTableAccessDenied, Message: "CREATE command denied to user"}))
	assert.True(t, isPermissionDenied(&mysql.MySQLError{Number: errDBAccessDenied, Message: "Access denied for user to database"}))
	assert.True(t, isPermissionDenied(&mysql.MySQLError{Number: errSpecificAccessDenied, Message: "Access denied; you need some privilege"}))
	assert.False(t, isPermissionDenied(&mysql.MySQLError{Number: errBadDB, Message: "Unknown database 'app'"}))
	assert.False(t, isPermissionDenied(syscall.ECONNREFUSED))
	assert.False(t, isPermissionDenied(errors.New("driver: bad connection")))
}

func TestNewVerifier_Selection(t *testing.T) {
	pool := &Pool{}

	_, probe := NewVerifier(pool, &Config{ReadOnlyCheck: CheckProbe}).(*ProbeVerifier)
	assert.True(t, probe)

	_, grants := NewVerifier(pool, &Config{ReadOnlyCheck: CheckGrants}).(*GrantVerifier)
	assert.True(t, grants)

	// Unrecognized values fall back to grant inspection.
	_, grants = NewVerifier(pool, &Config{ReadOnlyCheck: "something-else"}).(*GrantVerifier)
	assert.True(t, grants)
}

func TestClassifyStartup(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 3306, User: "root", Database: "app"}

	tests := []struct {
		name string
		err  error
		kind FaultKind
		want string
	}{
		{
			name: "access denied",
			err:  &mysql.MySQLError{Number: errAccessDenied, Message: "Access denied for user 'root'@'localhost'"},
			kind: FaultAuth,
			want: "MYSQL_USER",
		},
		{
			name: "unknown database",
			err:  &mysql.MySQLError{Number: errBadDB, Message: "Unknown database 'app'"},
			kind: FaultSchema,
			want: "MYSQL_DB",
		},
		{
			name: "database access denied",
			err:  &mysql.MySQLError{Number: errDBAccessDenied, Message: "Access denied for user 'root'@'%' to database 'app'"},
			kind: FaultSchema,
			want: "app",
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			kind: FaultConnectivity,
			want: "127.0.0.1:3306",
		},
		{
			name: "unclassified driver fault",
			err:  errors.New("driver: bad connection"),
			kind: FaultConnectivity,
			want: "127.0.0.1:3306",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fault := classifyStartup(tc.err, cfg)
			assert.Equal(t, tc.kind, fault.Kind)
			assert.Contains(t, fault.Message, tc.want)
		})
	}
}

func TestStartupError_Unwrap(t *testing.T) {
	cause := &mysql.MySQLError{Number: errAccessDenied, Message: "Access denied"}
	fault := classifyStartup(cause, &Config{User: "root"})

	var myErr *mysql.MySQLError
	require.ErrorAs(t, fault, &myErr)
	assert.Equal(t, uint16(errAccessDenied), myErr.Number)
	assert.Equal(t, uint16(errAccessDenied), fault.Code)
}
