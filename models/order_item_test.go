package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModifierListScanValue(t *testing.T) {
	mods := ModifierList{{Name: "oat milk", PriceAdjustment: 0.5}}

	v, err := mods.Value()
	require.NoError(t, err)

	var back ModifierList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, mods, back)

	// nil serializes to an empty array, not SQL NULL.
	var empty ModifierList
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, back.Scan(42))
}

func TestItemsPayloadOmitsLocalOnlyFields(t *testing.T) {
	payload, err := ItemsPayload([]OrderItem{{
		ID:         "item-1",
		OrderID:    "ord-1",
		MenuItemID: "m-1",
		Name:       "Latte",
		Price:      4.5,
		Category:   "drinks",
		Quantity:   2,
		ItemStatus: ItemStatusInProgress,
	}})
	require.NoError(t, err)

	var wire []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &wire))
	require.Len(t, wire, 1)
	assert.Equal(t, "item-1", wire[0]["id"])
	assert.Equal(t, float64(2), wire[0]["quantity"])
	assert.NotContains(t, wire[0], "order_id", "the server assigns item ownership itself")
	assert.NotContains(t, wire[0], "category")
}
