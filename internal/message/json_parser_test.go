package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalJSON(t *testing.T) {
	record, err := ParsePositionalJSON([]byte(`[1700000000.25, 10, null, "12"]`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{json.Number("1700000000.25"), json.Number("10"), nil, "12"}, record)

	for _, bad := range []string{`{"timestamp": 1}`, `not json`, `null`} {
		_, err := ParsePositionalJSON([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestParseNamedJSON(t *testing.T) {
	nested, err := ParseNamedJSON([]byte(`{"timestamp": 5, "values": {"voltage": 230.5, "current": null}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), nested.Timestamp)
	assert.Equal(t, map[string]interface{}{"voltage": json.Number("230.5"), "current": nil}, nested.Values)

	flat, err := ParseNamedJSON([]byte(`{"timestamp": 6, "voltage": 231}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"voltage": json.Number("231")}, flat.Values)

	_, err = ParseNamedJSON([]byte(`{"voltage": 231}`))
	assert.ErrorIs(t, err, ErrInvalidSampleShape)

	_, err = ParseNamedJSON([]byte(`{"timestamp": 6, "values": [1, 2]}`))
	assert.ErrorIs(t, err, ErrInvalidSampleShape)

	_, err = ParseNamedJSON([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)

	_, err = ParseNamedJSON([]byte(`null`))
	assert.ErrorIs(t, err, ErrInvalidSampleShape)
}

func TestAverageRecordEncode(t *testing.T) {
	rec := AverageRecord{
		Mode:      "named",
		BinStart:  60,
		BinEnd:    90,
		Timestamp: 71.25,
		Values:    map[string]float64{"voltage": 12.5},
	}
	data, err := rec.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"named","bin_start":60,"bin_end":90,"timestamp":71.25,"values":{"voltage":12.5}}`, string(data))
	assert.Equal(t, "60", string(rec.Key()))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc...", Snippet([]byte("abcdef"), 3))
	assert.Equal(t, "abc", Snippet([]byte("abc"), 10))

	dm := DynamicMessage{"voltage": "a very long value"}
	assert.Equal(t, "a ve...", dm.GetFieldSnippet("voltage", 4))
	assert.Equal(t, "<missing>", dm.GetFieldSnippet("current", 4))
}
