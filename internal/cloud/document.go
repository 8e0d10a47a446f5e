package cloud

import (
	"fmt"
	"path"
	"sort"
	"time"

	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"

	"github.com/erazemk/zaloga/internal/model"
)

// requestTime is Firestore's server-clock transform value.
const requestTime = "REQUEST_TIME"

// DocumentName returns the resource name of an item's mirror document.
func DocumentName(database, userID string, itemID int64) string {
	return fmt.Sprintf("%s/documents/users/%s/items/%d", database, userID, itemID)
}

// upsert builds a merge write for doc: fields present in doc overwrite,
// other fields of an existing document are preserved.
func upsert(name string, doc model.Document) (*firestore.Write, error) {
	fields := make(map[string]firestore.Value, len(doc))
	var transforms []*firestore.FieldTransform

	for key, v := range doc {
		if model.IsServerTimestamp(v) {
			transforms = append(transforms, &firestore.FieldTransform{
				FieldPath:        key,
				SetToServerValue: requestTime,
			})
			continue
		}
		value, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", key, err)
		}
		fields[key] = value
	}

	mask := make([]string, 0, len(fields))
	for key := range fields {
		mask = append(mask, key)
	}
	sort.Strings(mask)
	sort.Slice(transforms, func(i, j int) bool { return transforms[i].FieldPath < transforms[j].FieldPath })

	return &firestore.Write{
		Update:           &firestore.Document{Name: name, Fields: fields},
		UpdateMask:       &firestore.DocumentMask{FieldPaths: mask},
		UpdateTransforms: transforms,
	}, nil
}

func encodeValue(v any) (firestore.Value, error) {
	switch val := v.(type) {
	case nil:
		return firestore.Value{NullValue: "NULL_VALUE"}, nil
	case string:
		return firestore.Value{StringValue: googleapi.String(val)}, nil
	case int64:
		return firestore.Value{IntegerValue: googleapi.Int64(val)}, nil
	case int:
		return firestore.Value{IntegerValue: googleapi.Int64(int64(val))}, nil
	case float64:
		return firestore.Value{DoubleValue: googleapi.Float64(val)}, nil
	case time.Time:
		return firestore.Value{TimestampValue: val.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return firestore.Value{}, fmt.Errorf("unsupported type %T", v)
	}
}

func decodeValue(v firestore.Value) any {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		return *v.IntegerValue
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.TimestampValue != "":
		if t, err := time.Parse(time.RFC3339Nano, v.TimestampValue); err == nil {
			return t
		}
		return v.TimestampValue
	default:
		return nil
	}
}

// DecodeDocument turns a mirror document back into an Item. The id comes from
// the last segment of the document name.
func DecodeDocument(doc *firestore.Document) (model.Item, error) {
	fields := make(model.Document, len(doc.Fields))
	for key, v := range doc.Fields {
		fields[key] = decodeValue(v)
	}
	return model.FromCloudDocument(fields, path.Base(doc.Name))
}
