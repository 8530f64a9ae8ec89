// Package catalog lists the lecture media to caption.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mgpai22/lecsub/internal/fetch"
)

// ErrNoQuery is returned when the catalog has no query configured.
var ErrNoQuery = errors.New("catalog query is empty")

// Item is one unit of work: a display name and the media locator.
type Item struct {
	Name     string
	Locator  string
	Position int
}

// SQLCatalog reads items from a relational database. The query must return
// two columns, name and locator, in the desired processing order.
type SQLCatalog struct {
	db      *sql.DB
	query   string
	baseURL string
}

// Open connects using a database/sql driver name ("pgx" or "sqlite").
func Open(ctx context.Context, driver, dsn, query, baseURL string) (*SQLCatalog, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNoQuery
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s catalog: %w", driver, err)
	}
	return &SQLCatalog{db: db, query: query, baseURL: baseURL}, nil
}

// Items runs the query with args and returns the rows in query order.
func (c *SQLCatalog) Items(ctx context.Context, args ...any) ([]Item, error) {
	rows, err := c.db.QueryContext(ctx, c.query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var name, locator sql.NullString
		if err := rows.Scan(&name, &locator); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		position := len(items) + 1
		if !locator.Valid || strings.TrimSpace(locator.String) == "" {
			return nil, fmt.Errorf("catalog row %d has no media locator", position)
		}
		resolved, err := fetch.Resolve(c.baseURL, locator.String)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", position, err)
		}
		itemName := strings.TrimSpace(name.String)
		if itemName == "" {
			itemName = nameFromLocator(locator.String)
		}
		items = append(items, Item{Name: itemName, Locator: resolved, Position: position})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}
	return items, nil
}

// Close closes the underlying database connection.
func (c *SQLCatalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// FromPaths builds items for media given directly on the command line or
// discovered by the watcher.
func FromPaths(locators ...string) []Item {
	items := make([]Item, 0, len(locators))
	for i, loc := range locators {
		items = append(items, Item{Name: nameFromLocator(loc), Locator: loc, Position: i + 1})
	}
	return items
}

func nameFromLocator(locator string) string {
	base := path.Base(filepath.ToSlash(locator))
	return strings.TrimSuffix(base, path.Ext(base))
}
