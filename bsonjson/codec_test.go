package bsonjson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ndc-mongo/core/schema"
)

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestDecimalAndExtendedJsonRepresentation(t *testing.T) {
	priceType := schema.ScalarT{Scalar: schema.ScalarDecimal}
	extType := schema.ScalarT{Scalar: schema.ScalarExtendedJSON}

	price, err := ToJSON(priceType, mustDecimal(t, "127.6486654"))
	require.NoError(t, err)
	assert.Equal(t, "127.6486654", price)

	priceExt, err := ToJSON(extType, mustDecimal(t, "-4.9999999999"))
	require.NoError(t, err)
	obj, ok := priceExt.(Object)
	require.True(t, ok)
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$numberDecimal":"-4.9999999999"}`, string(raw))
}

func TestObjectIdRoundTrip(t *testing.T) {
	typ := schema.ScalarT{Scalar: schema.ScalarObjectId}
	oid := primitive.NewObjectID()

	j, err := ToJSON(typ, oid)
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), j)

	b, err := ToBSON(typ, j)
	require.NoError(t, err)
	assert.Equal(t, oid, b)
}

func TestLongRoundTripAsString(t *testing.T) {
	typ := schema.ScalarT{Scalar: schema.ScalarLong}
	j, err := ToJSON(typ, int64(9007199254740993))
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", j)

	b, err := ToBSON(typ, j)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), b)
}

func TestDateRoundTrip(t *testing.T) {
	typ := schema.ScalarT{Scalar: schema.ScalarDate}
	now := primitive.NewDateTimeFromTime(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC))

	j, err := ToJSON(typ, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:30:00.000Z", j)

	b, err := ToBSON(typ, j)
	require.NoError(t, err)
	assert.Equal(t, now, b)
}

func TestNullableMissingFieldBecomesJsonNull(t *testing.T) {
	objType := schema.ObjectT{Object: &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "nickname", Type: schema.Nullable(schema.ScalarT{Scalar: schema.ScalarString})},
	}}}

	out, err := ToJSON(objType, bson.M{})
	require.NoError(t, err)
	obj := out.(Object)
	val, ok := obj.Get("nickname")
	require.True(t, ok)
	assert.Nil(t, val)
}

func TestObjectPreservesDeclarationOrder(t *testing.T) {
	objType := schema.ObjectT{Object: &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "z", Type: schema.ScalarT{Scalar: schema.ScalarInt}},
		{Name: "a", Type: schema.ScalarT{Scalar: schema.ScalarInt}},
	}}}

	out, err := ToJSON(objType, bson.M{"z": int32(1), "a": int32(2)})
	require.NoError(t, err)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, string(raw))
}

func TestArrayOfObjectConversion(t *testing.T) {
	elem := &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "name", Type: schema.ScalarT{Scalar: schema.ScalarString}},
	}}
	arrType := schema.ArrayT{ElementType: schema.ObjectT{Object: elem}}

	out, err := ToJSON(arrType, primitive.A{bson.M{"name": "a"}, bson.M{"name": "b"}})
	require.NoError(t, err)
	list := out.([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].(Object)[0].Value)
}

func TestBsonToJsonErrorReportsPath(t *testing.T) {
	objType := schema.ObjectT{Object: &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "age", Type: schema.ScalarT{Scalar: schema.ScalarInt}},
	}}}
	_, err := ToJSON(objType, bson.M{"age": "not a number"})
	require.Error(t, err)
	var typedErr *BsonToJsonError
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, "$.age", typedErr.Path.String())
}

func TestUUIDBinDataRendersAsUuidObject(t *testing.T) {
	typ := schema.ScalarT{Scalar: schema.ScalarExtendedJSON}
	raw := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	bin := primitive.Binary{Subtype: 0x04, Data: raw[:]}

	out, err := ToJSON(typ, bin)
	require.NoError(t, err)
	obj := out.(Object)
	key, val := obj[0].Key, obj[0].Value
	assert.Equal(t, "$uuid", key)
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", val)
}

func roundTripScalars(t *testing.T) map[schema.ScalarType]any {
	return map[schema.ScalarType]any{
		schema.ScalarDouble:   3.25,
		schema.ScalarInt:      int32(42),
		schema.ScalarBool:     true,
		schema.ScalarString:   "hello",
		schema.ScalarObjectId: primitive.NewObjectID(),
	}
}

func TestRoundTripPropertyForRepresentableScalars(t *testing.T) {
	for scalarType, v := range roundTripScalars(t) {
		t := t
		scalarType, v := scalarType, v
		typ := schema.ScalarT{Scalar: scalarType}
		j, err := ToJSON(typ, v)
		require.NoError(t, err)
		b, err := ToBSON(typ, j)
		require.NoError(t, err)
		assert.EqualValues(t, v, b, "round trip mismatch for %s", scalarType)
	}
}
