package main

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// ReadOnlyVerifier gates startup: it either confirms the configured account
// cannot mutate data or returns a fatal StartupError. No protocol request is
// served until it has run.
type ReadOnlyVerifier interface {
	VerifyReadOnly(ctx context.Context) error
}

// NewVerifier selects the strategy configured in MYSQL_READONLY_CHECK.
// Grant inspection is the default; the write probe is kept for deployments
// where SHOW GRANTS output is unavailable or unreliable.
func NewVerifier(pool *Pool, cfg *Config) ReadOnlyVerifier {
	if cfg.ReadOnlyCheck == CheckProbe {
		return &ProbeVerifier{pool: pool, cfg: cfg}
	}
	return &GrantVerifier{pool: pool, cfg: cfg}
}

// writePrivileges are the grant keywords that convey mutation capability
// when they appear in the privilege list of a GRANT ... ON ... statement.
var writePrivileges = []string{
	"INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER", "INDEX", "GRANT",
}

var privilegeWord = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(writePrivileges))
	for _, kw := range writePrivileges {
		m[kw] = regexp.MustCompile(`(?:^|[^A-Z_])` + kw + `(?:[^A-Z_]|$)`)
	}
	return m
}()

// grantAllowsWrite reports whether one SHOW GRANTS line conveys any write
// capability, and which keyword matched.
func grantAllowsWrite(grant string) (string, bool) {
	g := strings.ToUpper(grant)
	if strings.Contains(g, "ALL PRIVILEGES") {
		return "ALL PRIVILEGES", true
	}

	on := strings.Index(g, " ON ")
	if on < 0 {
		return "", false
	}

	// The privilege list sits between the leading GRANT and the ON clause.
	// WITH GRANT OPTION suffixes stay out of scope this way.
	privs := strings.TrimPrefix(g[:on], "GRANT ")
	for _, kw := range writePrivileges {
		if privilegeWord[kw].MatchString(privs) {
			return kw, true
		}
	}
	return "", false
}

// GrantVerifier inspects SHOW GRANTS output for the current account.
type GrantVerifier struct {
	pool *Pool
	cfg  *Config
}

func (v *GrantVerifier) VerifyReadOnly(ctx context.Context) error {
	rows, _, err := v.pool.Execute(ctx, "SHOW GRANTS FOR CURRENT_USER()")
	if err != nil {
		return classifyStartup(err, v.cfg)
	}

	grants := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, val := range row {
			if s, ok := val.(string); ok {
				grants = append(grants, s)
			}
		}
	}

	return v.checkGrants(grants)
}

func (v *GrantVerifier) checkGrants(grants []string) error {
	for _, grant := range grants {
		kw, writable := grantAllowsWrite(grant)
		if !writable {
			continue
		}
		logError("account %q is not read-only, grants are:", v.cfg.User)
		for _, g := range grants {
			logError("  %s", g)
		}
		return &StartupError{
			Kind:    FaultPolicy,
			Message: fmt.Sprintf("user %q holds write privilege %s; connect with a SELECT-only account", v.cfg.User, kw),
		}
	}
	return nil
}

// ProbeVerifier attempts a harmless CREATE TABLE. Only a permission-denied
// refusal confirms the account is read-only; any other failure is a distinct
// startup fault, never mistaken for confirmation.
type ProbeVerifier struct {
	pool *Pool
	cfg  *Config
}

func (v *ProbeVerifier) VerifyReadOnly(ctx context.Context) error {
	table := fmt.Sprintf("readonly_probe_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))

	err := v.pool.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (probe INT)", table))
	if err == nil {
		// The probe landed: clean it up, then refuse to start.
		if dropErr := v.pool.Exec(ctx, fmt.Sprintf("DROP TABLE %s", table)); dropErr != nil {
			logError("failed to drop probe table %s: %v", table, dropErr)
		}
		return &StartupError{
			Kind:    FaultPolicy,
			Message: fmt.Sprintf("user %q was able to create table %s; connect with a SELECT-only account", v.cfg.User, table),
		}
	}

	if isPermissionDenied(err) {
		return nil
	}
	return classifyStartup(err, v.cfg)
}

// isPermissionDenied matches the MySQL error numbers a read-only account
// produces when refused DDL, rather than substring-matching "denied".
func isPermissionDenied(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	switch myErr.Number {
	case errDBAccessDenied, errTableAccessDenied, errSpecificAccessDenied:
		return true
	}
	return false
}
