package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAcceptsStringsNumbersAndNull(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"19.90","b":123456789012,"c":null,"d":18.5}`), &v)
	require.NoError(t, err)

	assert.Equal(t, Text("19.90"), v.A)
	assert.Equal(t, Text("123456789012"), v.B)
	assert.Equal(t, Text(""), v.C)
	assert.Equal(t, Text("18.5"), v.D)
}

func TestProductDecodeKeepsMissingAvailableNil(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{
		"id": 7, "title": "Cap", "handle": "cap",
		"variants": [
			{"sku": "C-1", "title": "Default Title", "price": "5.00"},
			{"sku": "C-2", "title": "Red", "price": "5.00", "available": false}
		]
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, Text("7"), p.ID)
	require.Len(t, p.Variants, 2)
	assert.Nil(t, p.Variants[0].Available)
	require.NotNil(t, p.Variants[1].Available)
	assert.False(t, *p.Variants[1].Available)
	assert.Empty(t, p.Category)
}
