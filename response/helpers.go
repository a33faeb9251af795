package response

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

func fieldAsSlice(doc bson.M, key, path string) ([]any, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, newErr(ErrBsonDeserialization, path, "missing field "+key)
	}
	items, ok := asSlice(raw)
	if !ok {
		return nil, newErr(ErrBsonDeserialization, path+"."+key, "expected an array")
	}
	return items, nil
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case bson.A:
		return []any(t), true
	case []any:
		return t, true
	default:
		return nil, false
	}
}

func asDoc(v any) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case bson.D:
		m := make(bson.M, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	default:
		return nil, false
	}
}

func docsToSlice(docs []bson.M) []any {
	out := make([]any, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
