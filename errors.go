package main

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// FaultKind classifies fatal startup faults. A fault of any kind terminates
// the process before protocol traffic is served.
type FaultKind int

const (
	// FaultConnectivity: the database endpoint refused or dropped the connection.
	FaultConnectivity FaultKind = iota
	// FaultAuth: the server rejected the configured credentials.
	FaultAuth
	// FaultSchema: the configured default database does not exist or is off limits.
	FaultSchema
	// FaultPolicy: the account holds write privileges.
	FaultPolicy
)

// MySQL server error numbers used for classification.
const (
	errAccessDenied         = 1045 // ER_ACCESS_DENIED_ERROR
	errDBAccessDenied       = 1044 // ER_DBACCESS_DENIED_ERROR
	errBadDB                = 1049 // ER_BAD_DB_ERROR
	errTableAccessDenied    = 1142 // ER_TABLEACCESS_DENIED_ERROR
	errSpecificAccessDenied = 1227 // ER_SPECIFIC_ACCESS_DENIED_ERROR
)

// StartupError is a classified fatal startup fault.
type StartupError struct {
	Kind    FaultKind
	Message string
	Code    uint16 // upstream MySQL error number, 0 if none
	cause   error
}

func (e *StartupError) Error() string { return e.Message }
func (e *StartupError) Unwrap() error { return e.cause }

// classifyStartup maps a driver error observed during startup onto the
// startup fault taxonomy. Each message names the configuration value the
// operator has to fix.
func classifyStartup(err error, cfg *Config) *StartupError {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errAccessDenied:
			return &StartupError{
				Kind:    FaultAuth,
				Code:    myErr.Number,
				Message: fmt.Sprintf("access denied for user %q (check MYSQL_USER/MYSQL_PASS): %v", cfg.User, myErr),
				cause:   err,
			}
		case errBadDB, errDBAccessDenied:
			return &StartupError{
				Kind:    FaultSchema,
				Code:    myErr.Number,
				Message: fmt.Sprintf("cannot use database %q (check MYSQL_DB): %v", cfg.Database, myErr),
				cause:   err,
			}
		}
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return &StartupError{
			Kind:    FaultConnectivity,
			Message: fmt.Sprintf("cannot reach MySQL at %s (check MYSQL_HOST/MYSQL_PORT): %v", cfg.Addr(), err),
			cause:   err,
		}
	}

	// Anything unclassified during startup is still fatal.
	return &StartupError{
		Kind:    FaultConnectivity,
		Message: fmt.Sprintf("startup check against %s failed: %v", cfg.Addr(), err),
		cause:   err,
	}
}
