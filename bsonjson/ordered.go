package bsonjson

import (
	"bytes"
	"encoding/json"
)

// Field is one key/value pair of an [Object], retaining declaration order.
type Field struct {
	Key   string
	Value any
}

// Object is a JSON object that serializes its fields in the order they were
// appended, rather than Go's unspecified map iteration order. The codec
// uses it to honor "Object(t) → JSON object with exactly the keys
// declared in t, in declaration order".
type Object []Field

// MarshalJSON implements json.Marshaler, writing fields in slice order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value for key and whether it was present.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
