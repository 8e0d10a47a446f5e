package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// SortField selects the ordering of List results.
type SortField string

// Sort fields.
const (
	SortName     SortField = "name"
	SortQuantity SortField = "quantity"
	SortPrice    SortField = "price"
	SortUpdated  SortField = "updated"
)

var sortColumns = map[SortField]string{
	SortName:     "name COLLATE NOCASE",
	SortQuantity: "quantity",
	SortPrice:    "price",
	SortUpdated:  updatedMillis,
}

// updatedMillis orders by updatedAt as epoch milliseconds. Rows written before
// the text column held ISO-8601 may carry epoch millis as digits.
const updatedMillis = `CASE
		WHEN updatedAt IS NULL THEN NULL
		WHEN typeof(updatedAt) IN ('integer', 'real') OR updatedAt NOT GLOB '*[^0-9]*' THEN CAST(updatedAt AS INTEGER)
		ELSE CAST(ROUND((julianday(updatedAt) - 2440587.5) * 86400000.0) AS INTEGER)
	END`

// ParseSort turns user input into a SortField. Empty input means SortName.
func ParseSort(s string) (SortField, error) {
	if s == "" {
		return SortName, nil
	}
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidArgument, s)
	}
	return f, nil
}

// Query filters and orders List results. The zero value lists everything by name.
type Query struct {
	// Search matches name or description, case-insensitively.
	Search string
	// Warehouse keeps only items with exactly this warehouse label.
	Warehouse  string
	Sort       SortField
	Descending bool
}

// List returns items matching q.
func (s *Store) List(ctx context.Context, q Query) ([]model.Item, error) {
	order, ok := sortColumns[q.Sort]
	if q.Sort == "" {
		order, ok = sortColumns[SortName], true
	}
	if !ok {
		return nil, fmt.Errorf("listing items: %w: unknown sort field %q", ErrInvalidArgument, q.Sort)
	}
	if q.Descending {
		order += " DESC"
	}

	var where []string
	var args []any
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if warehouse := strings.TrimSpace(q.Warehouse); warehouse != "" {
		where = append(where, `warehouse = ?`)
		args = append(args, warehouse)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + order + `, id`

	database, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Warehouses returns the distinct warehouse labels in use, sorted case-insensitively.
func (s *Store) Warehouses(ctx context.Context) ([]string, error) {
	database, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := database.QueryContext(ctx,
		`SELECT DISTINCT warehouse FROM items ORDER BY warehouse COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scanning warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
