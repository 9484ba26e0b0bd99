package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Marshal(t *testing.T) {
	t.Run("Marshal empty metadata", func(t *testing.T) {
		m := Metadata{}

		bytes, err := m.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), bytes)
	})

	t.Run("Marshal metadata with simple values", func(t *testing.T) {
		m := Metadata{
			"source_file":  "fermentation_handbook.txt",
			"chunk_length": 412,
			"has_ph":       true,
		}

		bytes, err := m.Marshal()

		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(bytes, &result)
		require.NoError(t, err)
		assert.Equal(t, "fermentation_handbook.txt", result["source_file"])
		assert.Equal(t, float64(412), result["chunk_length"]) // JSON numbers become float64
		assert.Equal(t, true, result["has_ph"])
	})

	t.Run("Marshal nil metadata", func(t *testing.T) {
		var m Metadata = nil

		bytes, err := m.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("null"), bytes)
	})
}

func TestMetadata_Unmarshal(t *testing.T) {
	t.Run("Unmarshal valid JSON bytes", func(t *testing.T) {
		jsonBytes := []byte(`{"doc_title":"Essential oils in sauces","chunk_length":287}`)
		var m Metadata

		err := m.Unmarshal(jsonBytes)

		require.NoError(t, err)
		assert.Equal(t, "Essential oils in sauces", m["doc_title"])
		assert.Equal(t, float64(287), m["chunk_length"])
	})

	t.Run("Unmarshal nil value", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})

	t.Run("Unmarshal Metadata directly", func(t *testing.T) {
		source := Metadata{"author": "Example Author"}
		var m Metadata

		err := m.Unmarshal(source)

		require.NoError(t, err)
		assert.Equal(t, "Example Author", m["author"])
	})

	t.Run("Unmarshal invalid JSON", func(t *testing.T) {
		invalidJSON := []byte(`{invalid json}`)
		var m Metadata

		err := m.Unmarshal(invalidJSON)

		require.Error(t, err)
	})

	t.Run("Unmarshal invalid type", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(12345)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})
}

func TestMetadata_ValueAndScan(t *testing.T) {
	t.Run("Value then Scan preserves data", func(t *testing.T) {
		original := Metadata{
			"source_file": "vinegar_stability.txt",
			"has_aw":      true,
		}

		value, err := original.Value()
		require.NoError(t, err)

		var restored Metadata
		err = restored.Scan(value)
		require.NoError(t, err)

		assert.Equal(t, "vinegar_stability.txt", restored["source_file"])
		assert.Equal(t, true, restored["has_aw"])
	})

	t.Run("Scan from nil leaves empty metadata", func(t *testing.T) {
		var m Metadata

		err := m.Scan(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})
}
