package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Column and document field names.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldQuantity    = "quantity"
	FieldPrice       = "price"
	FieldWarehouse   = "warehouse"
	FieldDescription = "description"
	FieldUpdatedAt   = "updatedAt"
)

// Row is the local-store shape of an item, keyed by column name.
type Row map[string]any

// Document is the cloud shape of an item, keyed by field name. The document
// id is not part of the map.
type Document map[string]any

type serverTimestamp struct{}

// ServerTimestamp is stored under FieldUpdatedAt in a Document when the cloud
// store must stamp its own clock. The cloud boundary resolves it.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// DecodeError reports a stored row or document that cannot be turned into an Item.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding item field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToLocalRow maps the item to local-store columns. The id is omitted when
// absent so the store assigns one.
func (i Item) ToLocalRow() Row {
	t := i.trimmed()
	row := Row{
		FieldName:        t.Name,
		FieldQuantity:    t.Quantity,
		FieldPrice:       t.Price,
		FieldWarehouse:   t.Warehouse,
		FieldDescription: t.Description,
	}
	if t.ID != nil {
		row[FieldID] = *t.ID
	}
	if t.UpdatedAt != nil {
		row[FieldUpdatedAt] = FormatTime(*t.UpdatedAt)
	}
	return row
}

// FromLocalRow is the inverse of ToLocalRow. updatedAt may be ISO-8601 text or
// epoch milliseconds.
func FromLocalRow(row Row) (Item, error) {
	item, err := decodeFields(row)
	if err != nil {
		return Item{}, err
	}

	if v, ok := row[FieldID]; ok && v != nil {
		id, err := asInt(v)
		if err != nil {
			return Item{}, &DecodeError{Field: FieldID, Err: err}
		}
		item.ID = &id
	}
	return item, nil
}

// ToCloudDocument maps the item to cloud document fields. With
// useServerTimestamp, updatedAt is the ServerTimestamp sentinel; otherwise it
// is the item's own timestamp, omitted when the item has none.
func (i Item) ToCloudDocument(useServerTimestamp bool) Document {
	t := i.trimmed()
	doc := Document{
		FieldName:        t.Name,
		FieldQuantity:    t.Quantity,
		FieldPrice:       t.Price,
		FieldWarehouse:   t.Warehouse,
		FieldDescription: t.Description,
	}
	switch {
	case useServerTimestamp:
		doc[FieldUpdatedAt] = ServerTimestamp
	case t.UpdatedAt != nil:
		doc[FieldUpdatedAt] = t.UpdatedAt.UTC()
	}
	return doc
}

// FromCloudDocument is the inverse of ToCloudDocument. The id is parsed from
// docID when it is an integer.
func FromCloudDocument(doc Document, docID string) (Item, error) {
	item, err := decodeFields(doc)
	if err != nil {
		return Item{}, err
	}
	if id, err := strconv.ParseInt(docID, 10, 64); err == nil {
		item.ID = &id
	}
	return item, nil
}

// TimeLayout is the fixed-width ISO-8601 form updatedAt is written in, so that
// stored values compare in time order as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t the way updatedAt is written to the local store.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts the ISO-8601 forms updatedAt has been written in.
func ParseTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func decodeFields(m map[string]any) (Item, error) {
	var item Item
	var err error

	if item.Name, err = requiredText(m, FieldName, MaxNameLen); err != nil {
		return Item{}, err
	}
	if item.Warehouse, err = requiredText(m, FieldWarehouse, MaxWarehouseLen); err != nil {
		return Item{}, err
	}
	if s, ok := m[FieldDescription].(string); ok {
		item.Description = strings.TrimSpace(s)
	}

	q, ok := m[FieldQuantity]
	if !ok || q == nil {
		return Item{}, &DecodeError{Field: FieldQuantity, Err: fmt.Errorf("missing")}
	}
	if item.Quantity, err = asInt(q); err != nil {
		return Item{}, &DecodeError{Field: FieldQuantity, Err: err}
	}
	if item.Quantity < 0 || item.Quantity > MaxQuantity {
		return Item{}, &DecodeError{Field: FieldQuantity, Err: fmt.Errorf("%d out of range", item.Quantity)}
	}

	p, ok := m[FieldPrice]
	if !ok || p == nil {
		return Item{}, &DecodeError{Field: FieldPrice, Err: fmt.Errorf("missing")}
	}
	price, err := asFloat(p)
	if err != nil {
		return Item{}, &DecodeError{Field: FieldPrice, Err: err}
	}
	item.Price = Round2(price)
	if math.IsNaN(item.Price) || item.Price < 0 || item.Price > MaxPrice {
		return Item{}, &DecodeError{Field: FieldPrice, Err: fmt.Errorf("%v out of range", price)}
	}

	item.UpdatedAt = decodeTime(m[FieldUpdatedAt])
	return item, nil
}

func requiredText(m map[string]any, field string, maxLen int) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", &DecodeError{Field: field, Err: fmt.Errorf("missing")}
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return "", &DecodeError{Field: field, Err: fmt.Errorf("expected text, got %T", v)}
	}
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxLen {
		return "", &DecodeError{Field: field, Err: fmt.Errorf("length must be 1-%d", maxLen)}
	}
	return s, nil
}

// decodeTime never fails: anything unrecognized is treated as absent.
func decodeTime(v any) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val.UTC()
	case *time.Time:
		if val == nil {
			return nil
		}
		t = val.UTC()
	case string:
		// A TEXT column stores epoch milliseconds as digits.
		if ms, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			t = time.UnixMilli(ms).UTC()
			break
		}
		parsed, err := ParseTime(val)
		if err != nil {
			return nil
		}
		t = parsed
	case []byte:
		return decodeTime(string(val))
	case int64:
		t = time.UnixMilli(val).UTC()
	case int:
		t = time.UnixMilli(int64(val)).UTC()
	default:
		return nil
	}
	return &t
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
