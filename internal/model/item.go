package model

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Item is a single inventory entry. The local store owns the authoritative copy.
type Item struct {
	ID          *int64     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Quantity    int64      `json:"quantity"`
	Price       float64    `json:"price"`
	Warehouse   string     `json:"warehouse"`
	Description string     `json:"description"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Field bounds.
const (
	MaxNameLen        = 80
	MaxWarehouseLen   = 80
	MaxDescriptionLen = 2000
	MaxQuantity       = 1_000_000
	MaxPrice          = 1_000_000
)

// DefaultWarehouse is the warehouse assigned to rows created before
// warehouses existed.
const DefaultWarehouse = "Main"

// WarehouseSuggestions are offered by clients; any label is accepted.
var WarehouseSuggestions = []string{"Main", "North", "South", "East", "West"}

// ValidationError reports the first field that violates its bound.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Round2 rounds x to two decimal places, half away from zero. Rounding is
// done on the shortest decimal representation of x, so 1.005 becomes 1.01.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Price2 is the canonical price: Price rounded to cents.
func (i Item) Price2() float64 {
	return Round2(i.Price)
}

// HasID reports whether the item has been persisted.
func (i Item) HasID() bool {
	return i.ID != nil
}

// WithID returns a copy of the item carrying id.
func (i Item) WithID(id int64) Item {
	i.ID = &id
	return i
}

// Validate checks field bounds in the order name, warehouse, description,
// quantity, price and returns the first violation.
func (i Item) Validate() error {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("name must be at most %d characters", MaxNameLen)}
	}

	warehouse := strings.TrimSpace(i.Warehouse)
	if warehouse == "" {
		return &ValidationError{Field: "warehouse", Reason: "warehouse is required"}
	}
	if utf8.RuneCountInString(warehouse) > MaxWarehouseLen {
		return &ValidationError{Field: "warehouse", Reason: fmt.Sprintf("warehouse must be at most %d characters", MaxWarehouseLen)}
	}

	if utf8.RuneCountInString(strings.TrimSpace(i.Description)) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen)}
	}

	if i.Quantity < 0 || i.Quantity > MaxQuantity {
		return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("quantity must be between 0 and %d", MaxQuantity)}
	}

	price := i.Price2()
	if math.IsNaN(price) || i.Price < 0 || price < 0 || price > MaxPrice {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("price must be between 0 and %d", MaxPrice)}
	}

	return nil
}

// Equal compares all fields, using Price2 for the price.
func (i Item) Equal(o Item) bool {
	if (i.ID == nil) != (o.ID == nil) || (i.ID != nil && *i.ID != *o.ID) {
		return false
	}
	if (i.UpdatedAt == nil) != (o.UpdatedAt == nil) || (i.UpdatedAt != nil && !i.UpdatedAt.Equal(*o.UpdatedAt)) {
		return false
	}
	return i.Name == o.Name &&
		i.Quantity == o.Quantity &&
		i.Price2() == o.Price2() &&
		i.Warehouse == o.Warehouse &&
		i.Description == o.Description
}

// trimmed returns a copy with string fields trimmed and the price rounded.
func (i Item) trimmed() Item {
	i.Name = strings.TrimSpace(i.Name)
	i.Warehouse = strings.TrimSpace(i.Warehouse)
	i.Description = strings.TrimSpace(i.Description)
	i.Price = i.Price2()
	return i
}
