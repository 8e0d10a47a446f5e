package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

const itemColumns = `id, name, quantity, price, warehouse, description, updatedAt`

// Create inserts a new item and returns the assigned id. Any id on the input
// is ignored. An invalid item is rejected with a *model.ValidationError
// before anything is written.
func (s *Store) Create(ctx context.Context, item model.Item) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	database, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}

	row := item.ToLocalRow()
	result, err := database.ExecContext(ctx,
		`INSERT INTO items (name, quantity, price, warehouse, description, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row[model.FieldName], row[model.FieldQuantity], row[model.FieldPrice],
		row[model.FieldWarehouse], row[model.FieldDescription], model.FormatTime(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// GetAll returns every item ordered by name, case-insensitively.
func (s *Store) GetAll(ctx context.Context) ([]model.Item, error) {
	return s.List(ctx, Query{})
}

// GetByID returns an item by ID, or nil when there is none.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	database, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := database.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Update overwrites the item with the same id and returns the number of rows
// changed. A missing row is not an error. The item is validated as in Create.
func (s *Store) Update(ctx context.Context, item model.Item) (int64, error) {
	if item.ID == nil {
		return 0, fmt.Errorf("updating item: %w: id required", ErrInvalidArgument)
	}
	if err := item.Validate(); err != nil {
		return 0, err
	}

	database, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}

	row := item.ToLocalRow()
	result, err := database.ExecContext(ctx,
		`UPDATE items SET name = ?, quantity = ?, price = ?, warehouse = ?, description = ?, updatedAt = ?
		 WHERE id = ?`,
		row[model.FieldName], row[model.FieldQuantity], row[model.FieldPrice],
		row[model.FieldWarehouse], row[model.FieldDescription], model.FormatTime(s.now()),
		*item.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating item: %w", err)
	}
	return affected(result)
}

// Delete removes one item.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	database, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}

	result, err := database.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting item: %w", err)
	}
	return affected(result)
}

// DeleteAll removes every item.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	database, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}

	result, err := database.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("deleting all items: %w", err)
	}
	return affected(result)
}

func affected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting affected rows: %w", err)
	}
	return n, nil
}

// scanItems decodes rows selected with itemColumns.
func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var id, name, quantity, price, warehouse, description, updatedAt any
		if err := rows.Scan(&id, &name, &quantity, &price, &warehouse, &description, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		item, err := model.FromLocalRow(model.Row{
			model.FieldID:          id,
			model.FieldName:        name,
			model.FieldQuantity:    quantity,
			model.FieldPrice:       price,
			model.FieldWarehouse:   warehouse,
			model.FieldDescription: description,
			model.FieldUpdatedAt:   updatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("reading item %v: %w", id, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
