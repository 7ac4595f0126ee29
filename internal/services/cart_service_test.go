// internal/services/cart_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCartLinesSumsMatchingLines(t *testing.T) {
	productID := uuid.New()

	existing := []CartLine{{ProductID: productID, Size: "M", Quantity: 2}}
	incoming := []CartLine{{ProductID: productID, Size: "M", Quantity: 3}}

	merged := MergeCartLines(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Quantity)
	assert.Equal(t, "M", merged[0].Size)
}

func TestMergeCartLinesKeepsDistinctSizes(t *testing.T) {
	productID := uuid.New()

	existing := []CartLine{{ProductID: productID, Size: "M", Quantity: 1}}
	incoming := []CartLine{
		{ProductID: productID, Size: "L", Quantity: 1},
		{ProductID: productID, Size: "M", Quantity: 1},
	}

	merged := MergeCartLines(existing, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, "M", merged[0].Size)
	assert.Equal(t, 2, merged[0].Quantity)
	assert.Equal(t, "L", merged[1].Size)
	assert.Equal(t, 1, merged[1].Quantity)
}

func TestMergeCartLinesIsCommutative(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	a := []CartLine{
		{ProductID: p1, Size: "S", Quantity: 1},
		{ProductID: p2, Size: "M", Quantity: 4},
	}
	b := []CartLine{
		{ProductID: p2, Size: "M", Quantity: 2},
		{ProductID: p3, Size: "", Quantity: 7},
	}

	ab := MergeCartLines(a, b)
	ba := MergeCartLines(b, a)

	toMap := func(lines []CartLine) map[lineKey]int {
		m := make(map[lineKey]int, len(lines))
		for _, line := range lines {
			m[lineKey{line.ProductID, line.Size}] = line.Quantity
		}
		return m
	}

	assert.Equal(t, toMap(ab), toMap(ba))
	assert.Len(t, ab, 3)
	assert.Equal(t, 6, toMap(ab)[lineKey{p2, "M"}])
}

func TestMergeCartLinesNeverDuplicates(t *testing.T) {
	productID := uuid.New()

	incoming := []CartLine{
		{ProductID: productID, Size: "M", Quantity: 1},
		{ProductID: productID, Size: "M", Quantity: 1},
		{ProductID: productID, Size: "M", Quantity: 1},
	}

	merged := MergeCartLines(nil, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Quantity)
}

func TestMergeCartLinesEmptyInputs(t *testing.T) {
	productID := uuid.New()
	existing := []CartLine{{ProductID: productID, Size: "XL", Quantity: 2}}

	assert.Equal(t, existing, MergeCartLines(existing, nil))
	assert.Equal(t, existing, MergeCartLines(nil, existing))
	assert.Empty(t, MergeCartLines(nil, nil))
}
