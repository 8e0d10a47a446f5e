package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLocalRowRoundTrip(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 8, 7, 6, 123456789, time.UTC)
	item := Item{
		Name:        "Hex nut",
		Quantity:    42,
		Price:       0.335,
		Warehouse:   "North",
		Description: "M8, zinc plated",
		UpdatedAt:   &stamp,
	}.WithID(7)

	got, err := FromLocalRow(item.ToLocalRow())
	if err != nil {
		t.Fatalf("FromLocalRow: %v", err)
	}
	if !got.Equal(item) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, item)
	}
	if got.Price != 0.34 {
		t.Errorf("expected stored price 0.34, got %v", got.Price)
	}
}

func TestToLocalRow(t *testing.T) {
	row := Item{Name: " Bolt ", Quantity: 500, Price: 1.005, Warehouse: "Main"}.ToLocalRow()

	want := Row{
		FieldName:        "Bolt",
		FieldQuantity:    int64(500),
		FieldPrice:       1.01,
		FieldWarehouse:   "Main",
		FieldDescription: "",
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("ToLocalRow mismatch (-want +got):\n%s", diff)
	}
	if _, ok := row[FieldID]; ok {
		t.Error("expected id to be omitted for a new item")
	}
	if _, ok := row[FieldUpdatedAt]; ok {
		t.Error("expected updatedAt to be omitted when absent")
	}
}

func TestFormatTimeFixedWidth(t *testing.T) {
	base := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(500 * time.Millisecond),
		base.Add(time.Nanosecond),
		base.Add(time.Second),
	}

	for _, a := range times {
		fa := FormatTime(a)
		if len(fa) != len("2024-04-01T09:30:00.000000000Z") {
			t.Errorf("FormatTime(%v) = %q, want fixed width", a, fa)
		}
		if parsed, err := ParseTime(fa); err != nil || !parsed.Equal(a) {
			t.Errorf("ParseTime(%q) = %v, %v; want %v", fa, parsed, err, a)
		}
		for _, b := range times {
			if fb := FormatTime(b); (fa < fb) != a.Before(b) {
				t.Errorf("text order of %q and %q disagrees with time order", fa, fb)
			}
		}
	}

	zoned := base.In(time.FixedZone("CEST", 2*60*60))
	if got := FormatTime(zoned); got != "2024-04-01T09:30:00.000000000Z" {
		t.Errorf("expected UTC rendering, got %q", got)
	}
}

func TestFromLocalRowTimestampForms(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	base := func() Row {
		return Row{FieldID: int64(1), FieldName: "A", FieldQuantity: int64(1), FieldPrice: 1.0, FieldWarehouse: "Main"}
	}

	tests := []struct {
		name  string
		value any
		want  *time.Time
	}{
		{"iso text", "2024-01-02T03:04:05Z", &want},
		{"iso text without zone", "2024-01-02T03:04:05.000", &want},
		{"epoch millis", want.UnixMilli(), &want},
		{"epoch millis as text", "1704164645000", &want},
		{"iso bytes", []byte("2024-01-02 03:04:05"), &want},
		{"null", nil, nil},
		{"garbage", "yesterday", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base()
			row[FieldUpdatedAt] = tt.value
			item, err := FromLocalRow(row)
			if err != nil {
				t.Fatalf("FromLocalRow: %v", err)
			}
			switch {
			case tt.want == nil && item.UpdatedAt != nil:
				t.Errorf("expected no timestamp, got %v", item.UpdatedAt)
			case tt.want != nil && (item.UpdatedAt == nil || !item.UpdatedAt.Equal(*tt.want)):
				t.Errorf("updatedAt = %v, want %v", item.UpdatedAt, tt.want)
			}
		})
	}
}

func TestFromLocalRowTrimsAndDegrades(t *testing.T) {
	item, err := FromLocalRow(Row{
		FieldID:          int64(3),
		FieldName:        "  Washer ",
		FieldQuantity:    int64(10),
		FieldPrice:       int64(2),
		FieldWarehouse:   " South\t",
		FieldDescription: 17,
	})
	if err != nil {
		t.Fatalf("FromLocalRow: %v", err)
	}
	if item.Name != "Washer" || item.Warehouse != "South" {
		t.Errorf("expected trimmed strings, got %q / %q", item.Name, item.Warehouse)
	}
	if item.Description != "" {
		t.Errorf("expected malformed description to degrade to empty, got %q", item.Description)
	}
	if item.Price != 2 {
		t.Errorf("expected integer price to decode, got %v", item.Price)
	}
}

func TestFromLocalRowRejectsBadRequiredFields(t *testing.T) {
	base := func() Row {
		return Row{FieldName: "A", FieldQuantity: int64(1), FieldPrice: 1.0, FieldWarehouse: "Main"}
	}

	tests := []struct {
		name   string
		field  string
		value  any
		delete bool
	}{
		{"missing name", FieldName, nil, true},
		{"blank name", FieldName, "   ", false},
		{"numeric name", FieldName, 12, false},
		{"missing warehouse", FieldWarehouse, nil, true},
		{"quantity out of range", FieldQuantity, int64(2_000_000), false},
		{"fractional quantity", FieldQuantity, 1.5, false},
		{"text quantity", FieldQuantity, "many", false},
		{"negative price", FieldPrice, -3.0, false},
		{"missing price", FieldPrice, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base()
			if tt.delete {
				delete(row, tt.field)
			} else {
				row[tt.field] = tt.value
			}

			_, err := FromLocalRow(row)
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if derr.Field != tt.field {
				t.Errorf("field = %q, want %q", derr.Field, tt.field)
			}
		})
	}
}

func TestToCloudDocument(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	item := Item{Name: " Bolt ", Quantity: 5, Price: 1.005, Warehouse: " Main ", Description: " x ", UpdatedAt: &stamp}.WithID(9)

	doc := item.ToCloudDocument(true)
	if !IsServerTimestamp(doc[FieldUpdatedAt]) {
		t.Errorf("expected server timestamp sentinel, got %v", doc[FieldUpdatedAt])
	}
	if doc[FieldName] != "Bolt" || doc[FieldWarehouse] != "Main" || doc[FieldDescription] != "x" {
		t.Errorf("expected trimmed strings, got %v", doc)
	}
	if doc[FieldPrice] != 1.01 {
		t.Errorf("expected rounded price, got %v", doc[FieldPrice])
	}
	if _, ok := doc[FieldID]; ok {
		t.Error("document fields must not carry the id")
	}

	doc = item.ToCloudDocument(false)
	if got, ok := doc[FieldUpdatedAt].(time.Time); !ok || !got.Equal(stamp) {
		t.Errorf("expected client timestamp, got %v", doc[FieldUpdatedAt])
	}

	item.UpdatedAt = nil
	if _, ok := item.ToCloudDocument(false)[FieldUpdatedAt]; ok {
		t.Error("expected updatedAt to be omitted without a client timestamp")
	}
}

func TestFromCloudDocument(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	doc := Document{
		FieldName:        "Bolt",
		FieldQuantity:    int64(5),
		FieldPrice:       1.01,
		FieldWarehouse:   "Main",
		FieldDescription: "",
		FieldUpdatedAt:   stamp,
	}

	item, err := FromCloudDocument(doc, "12")
	if err != nil {
		t.Fatalf("FromCloudDocument: %v", err)
	}
	if item.ID == nil || *item.ID != 12 {
		t.Errorf("expected id 12, got %v", item.ID)
	}
	if item.UpdatedAt == nil || !item.UpdatedAt.Equal(stamp) {
		t.Errorf("expected timestamp %v, got %v", stamp, item.UpdatedAt)
	}

	doc[FieldUpdatedAt] = "2024-06-01T10:30:00Z"
	item, err = FromCloudDocument(doc, "abc")
	if err != nil {
		t.Fatalf("FromCloudDocument: %v", err)
	}
	if item.ID != nil {
		t.Errorf("expected no id for non-numeric doc id, got %d", *item.ID)
	}
	if item.UpdatedAt == nil || !item.UpdatedAt.Equal(stamp) {
		t.Errorf("expected text timestamp to parse, got %v", item.UpdatedAt)
	}
}

func TestCloudDocumentRoundTrip(t *testing.T) {
	stamp := time.Date(2023, 11, 5, 9, 0, 0, 0, time.UTC)
	item := Item{Name: "Gear", Quantity: 3, Price: 12.5, Warehouse: "East", Description: "spare", UpdatedAt: &stamp}.WithID(4)

	got, err := FromCloudDocument(item.ToCloudDocument(false), "4")
	if err != nil {
		t.Fatalf("FromCloudDocument: %v", err)
	}
	if !got.Equal(item) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, item)
	}
}
