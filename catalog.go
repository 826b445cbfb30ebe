package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/georgysavva/scany/sqlscan"
)

// System schemas are never surfaced as catalog entries.
const listTablesSQL = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_schema NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
	ORDER BY table_schema, table_name`

const describeTableSQL = `
	SELECT column_name, data_type, is_nullable, column_key, column_default, extra
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ?
	ORDER BY ordinal_position`

// ErrInvalidLocator marks a resource URI that does not name a catalog entry.
var ErrInvalidLocator = errors.New("invalid resource URI")

// catalogRow is one information_schema.tables row.
type catalogRow struct {
	TableSchema string `db:"table_schema"`
	TableName   string `db:"table_name"`
}

// ColumnDescriptor describes one column of a catalog entry, in
// information_schema terms. Absent defaults and extras are omitted from the
// serialized form.
type ColumnDescriptor struct {
	Name     string  `db:"column_name" json:"column_name"`
	DataType string  `db:"data_type" json:"data_type"`
	Nullable string  `db:"is_nullable" json:"is_nullable"`
	Key      string  `db:"column_key" json:"column_key"`
	Default  *string `db:"column_default" json:"column_default,omitempty"`
	Extra    *string `db:"extra" json:"extra,omitempty"`
}

// Catalog browses user-visible tables through the pool.
type Catalog struct {
	pool *Pool
}

func NewCatalog(pool *Pool) *Catalog { return &Catalog{pool: pool} }

// ListEntries enumerates every user table as an MCP resource, ordered by
// schema then table name. Nothing is cached; each call sees the live
// catalog.
func (c *Catalog) ListEntries(ctx context.Context) ([]Resource, error) {
	var tables []catalogRow
	if err := sqlscan.Select(ctx, c.pool.db, &tables, listTablesSQL); err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(tables))
	for _, t := range tables {
		resources = append(resources, Resource{
			URI:      fmt.Sprintf("%s://%s/%s", URIScheme, t.TableSchema, t.TableName),
			Name:     fmt.Sprintf("%s.%s", t.TableSchema, t.TableName),
			MimeType: "application/json",
		})
	}
	return resources, nil
}

// DescribeEntry returns the column descriptors for the table a locator
// points at, ordered by ordinal position. A locator naming a missing table
// yields an empty slice, matching how the catalog query behaves on no rows.
func (c *Catalog) DescribeEntry(ctx context.Context, locator string) ([]ColumnDescriptor, error) {
	schema, table, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}

	var columns []ColumnDescriptor
	if err := sqlscan.Select(ctx, c.pool.db, &columns, describeTableSQL, schema, table); err != nil {
		return nil, err
	}
	if columns == nil {
		columns = []ColumnDescriptor{}
	}
	return columns, nil
}

// ParseLocator splits a mysql://<schema>/<table> locator into its parts:
// the authority component is the schema, the path component the table.
func ParseLocator(locator string) (schema, table string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", fmt.Errorf("%w %q: %v", ErrInvalidLocator, locator, err)
	}
	if u.Scheme != URIScheme {
		return "", "", fmt.Errorf("%w %q: expected %s://<schema>/<table>", ErrInvalidLocator, locator, URIScheme)
	}

	schema = u.Host
	table = strings.TrimPrefix(u.Path, "/")
	if schema == "" || table == "" || strings.Contains(table, "/") {
		return "", "", fmt.Errorf("%w %q: expected %s://<schema>/<table>", ErrInvalidLocator, locator, URIScheme)
	}
	return schema, table, nil
}
