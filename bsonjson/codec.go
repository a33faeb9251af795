// Package bsonjson is the type-directed BSON↔JSON codec (C2). Given a
// [schema.Type] and a BSON value, [ToJSON] produces the JSON representation
// the NDC wire protocol expects; [ToBSON] is its inverse, used to bind
// literal argument values into match queries and native query placeholders.
//
// The value-dispatch switch at the core of this package (handling
// primitive.ObjectID, primitive.DateTime, primitive.Binary's UUID/MD5
// subtypes, primitive.Decimal128, and so on) is adapted from
// jreyesr/steampipe-plugin-mongodb's mongodb/utils.go mongoTransformFunction,
// generalized from "pick a JSON shape per Go value" to "pick a JSON shape
// per declared [schema.Type]", which is what the NDC nullability and
// extended-JSON encoding rules require.
package bsonjson

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ndc-mongo/core/schema"
)

// ToJSON converts a BSON value v, whose declared type is t, into a JSON-ready
// Go value (string, float64, bool, nil, []any, or an [Object] preserving
// declaration order). It is total on well-typed input; a non-nil error
// indicates t and v disagree about shape, which implies a type/plan bug
// rather than a user-facing condition.
func ToJSON(t schema.Type, v any) (any, error) {
	return toJSON(t, v, nil)
}

func toJSON(t schema.Type, v any, path Path) (any, error) {
	switch typ := t.(type) {
	case schema.NullableT:
		if isBsonNullish(v) {
			return nil, nil
		}
		return toJSON(typ.Underlying, v, path)

	case schema.ArrayT:
		arr, ok := toSlice(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: t.String(), Err: errors.Errorf("expected array, got %T", v)}
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			converted, err := toJSON(typ.ElementType, elem, path.child(strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil

	case schema.ObjectT:
		doc, ok := toDoc(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: t.String(), Err: errors.Errorf("expected document, got %T", v)}
		}
		out := make(Object, 0, len(typ.Object.Fields))
		for _, f := range typ.Object.Fields {
			fieldVal, _ := doc.Get(f.Name) // absent → nil, which Nullable(t) below treats as JSON null
			converted, err := toJSON(f.Type, fieldVal, path.child(f.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, Field{Key: f.Name, Value: converted})
		}
		return out, nil

	case schema.ScalarT:
		return scalarToJSON(typ.Scalar, v, path)

	default:
		return nil, &BsonToJsonError{Path: path, Type: t.String(), Err: errors.New("unknown type variant")}
	}
}

func scalarToJSON(s schema.ScalarType, v any, path Path) (any, error) {
	if isBsonNullish(v) {
		// A non-nullable field backed by a missing/null BSON value: the
		// pipeline's $ifNull wrapping is supposed to prevent
		// this for projected columns, but native query results and
		// sub-documents without that normalization may still surface it.
		// Treat it the same as Nullable would, rather than failing: the
		// typed-missing-key invariant covers projected columns, not
		// every possible BSON value.
		return nil, nil
	}

	if s == schema.ScalarExtendedJSON {
		if bin, ok := v.(primitive.Binary); ok {
			switch bin.Subtype {
			case 0x04: // UUID
				str, err := decodeUUID(bin)
				if err != nil {
					return nil, &BsonToJsonError{Path: path, Type: string(s), Err: err}
				}
				return Object{{Key: "$uuid", Value: str}}, nil
			case 0x05: // MD5
				return Object{{Key: "$md5", Value: decodeMD5(bin)}}, nil
			}
		}
		raw, err := bson.MarshalExtJSON(bson.M{"v": v}, true, false)
		if err != nil {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: err}
		}
		var wrapper struct {
			V any `json:"v"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: err}
		}
		return wrapper.V, nil
	}

	switch s {
	case schema.ScalarDecimal:
		d, ok := v.(primitive.Decimal128)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected Decimal128, got %T", v)}
		}
		return d.String(), nil

	case schema.ScalarLong:
		n, ok := asInt64(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected int64-like, got %T", v)}
		}
		return strconv.FormatInt(n, 10), nil

	case schema.ScalarObjectId:
		oid, ok := v.(primitive.ObjectID)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected ObjectID, got %T", v)}
		}
		return oid.Hex(), nil

	case schema.ScalarDate:
		t, ok := asTime(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected DateTime, got %T", v)}
		}
		return t.UTC().Format("2006-01-02T15:04:05.000Z"), nil

	case schema.ScalarDouble:
		f, ok := asFloat64(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected float64-like, got %T", v)}
		}
		return f, nil

	case schema.ScalarInt:
		n, ok := asInt64(v)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected int32-like, got %T", v)}
		}
		return float64(n), nil

	case schema.ScalarBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected bool, got %T", v)}
		}
		return b, nil

	case schema.ScalarString:
		str, ok := v.(string)
		if !ok {
			return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("expected string, got %T", v)}
		}
		return str, nil

	case schema.ScalarNull:
		return nil, nil

	default:
		return nil, &BsonToJsonError{Path: path, Type: string(s), Err: errors.Errorf("scalar type %s has no direct JSON representation outside ExtendedJSON", s)}
	}
}

// ToBSON converts a JSON literal value v, to be bound as type t, into a
// BSON-ready Go value accepted by the mongo driver (e.g. primitive.ObjectID,
// primitive.Decimal128, primitive.DateTime). Used to lower comparison
// literals and native query/mutation arguments.
func ToBSON(t schema.Type, v any) (any, error) {
	return toBSON(t, v, nil)
}

func toBSON(t schema.Type, v any, path Path) (any, error) {
	switch typ := t.(type) {
	case schema.NullableT:
		if v == nil {
			return nil, nil
		}
		return toBSON(typ.Underlying, v, path)

	case schema.ArrayT:
		arr, ok := v.([]any)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: t.String(), Err: errors.Errorf("expected JSON array, got %T", v)}
		}
		out := make(bson.A, len(arr))
		for i, elem := range arr {
			converted, err := toBSON(typ.ElementType, elem, path.child(strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil

	case schema.ObjectT:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: t.String(), Err: errors.Errorf("expected JSON object, got %T", v)}
		}
		out := bson.D{}
		for _, f := range typ.Object.Fields {
			fv, present := obj[f.Name]
			if !present {
				continue
			}
			converted, err := toBSON(f.Type, fv, path.child(f.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, bson.E{Key: f.Name, Value: converted})
		}
		return out, nil

	case schema.ScalarT:
		return scalarToBSON(typ.Scalar, v, path)

	default:
		return nil, &JsonToBsonError{Path: path, Type: t.String(), Err: errors.New("unknown type variant")}
	}
}

func scalarToBSON(s schema.ScalarType, v any, path Path) (any, error) {
	if s == schema.ScalarExtendedJSON {
		wrapped, err := json.Marshal(map[string]any{"v": v})
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		var target bson.M
		if err := bson.UnmarshalExtJSON(wrapped, true, &target); err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return target["v"], nil
	}

	switch s {
	case schema.ScalarDecimal:
		str, ok := v.(string)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("expected JSON string, got %T", v)}
		}
		d, err := primitive.ParseDecimal128(str)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return d, nil

	case schema.ScalarLong:
		n, err := jsonNumberToInt64(v)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return n, nil

	case schema.ScalarObjectId:
		str, ok := v.(string)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("expected JSON string, got %T", v)}
		}
		oid, err := primitive.ObjectIDFromHex(str)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return oid, nil

	case schema.ScalarDate:
		str, ok := v.(string)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("expected JSON string, got %T", v)}
		}
		parsed, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return primitive.NewDateTimeFromTime(parsed), nil

	case schema.ScalarDouble:
		f, err := jsonNumberToFloat64(v)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return f, nil

	case schema.ScalarInt:
		n, err := jsonNumberToInt64(v)
		if err != nil {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: err}
		}
		return int32(n), nil

	case schema.ScalarBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("expected bool, got %T", v)}
		}
		return b, nil

	case schema.ScalarString:
		str, ok := v.(string)
		if !ok {
			return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("expected string, got %T", v)}
		}
		return str, nil

	case schema.ScalarNull:
		return nil, nil

	default:
		return nil, &JsonToBsonError{Path: path, Type: string(s), Err: errors.Errorf("scalar type %s cannot be bound from a JSON literal outside ExtendedJSON", s)}
	}
}

// --- helpers -----------------------------------------------------------

func isBsonNullish(v any) bool {
	if v == nil {
		return true
	}
	_, isUndefined := v.(primitive.Undefined)
	return isUndefined
}

func toSlice(v any) ([]any, bool) {
	switch a := v.(type) {
	case primitive.A:
		return []any(a), true
	case []any:
		return a, true
	default:
		return nil, false
	}
}

// doc is a minimal ordered-document view over the BSON document shapes the
// driver can hand back (bson.M from a loosely-typed Decode, or bson.D when a
// caller preserves field order).
type doc struct {
	m bson.M
	d bson.D
}

func (d doc) Get(name string) (any, bool) {
	if d.m != nil {
		v, ok := d.m[name]
		return v, ok
	}
	for _, e := range d.d {
		if e.Key == name {
			return e.Value, true
		}
	}
	return nil, false
}

func toDoc(v any) (doc, bool) {
	switch m := v.(type) {
	case bson.M:
		return doc{m: m}, true
	case map[string]any:
		return doc{m: bson.M(m)}, true
	case bson.D:
		return doc{d: m}, true
	default:
		return doc{}, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time(), true
	case time.Time:
		return t, true
	default:
		return time.Time{}, false
	}
}

func jsonNumberToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, errors.Errorf("expected a JSON number, got %T", v)
	}
}

func jsonNumberToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, errors.Errorf("expected a JSON number, got %T", v)
	}
}

// decodeUUID mirrors mongoTransformFunction's primitive.Binary UUID subtype
// handling: UUID-tagged BinData is rendered as a canonical UUID string
// rather than raw bytes, so it reads sensibly under ExtendedJSON.
func decodeUUID(b primitive.Binary) (string, error) {
	u, err := uuid.FromBytes(b.Data)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// decodeMD5 mirrors mongoTransformFunction's MD5-subtype BinData handling.
func decodeMD5(b primitive.Binary) string {
	return hex.EncodeToString(b.Data)
}
