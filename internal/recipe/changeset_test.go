package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v float64) *float64 { return &v }

func TestComputeChangesetRemoved(t *testing.T) {
	diffs := ComputeChangeset([]Ingredient{{Name: "egg"}}, nil)

	require.Len(t, diffs, 1)
	assert.Equal(t, DiffRemoved, diffs[0].Type)
	require.NotNil(t, diffs[0].Ingredient)
	assert.Equal(t, "egg", diffs[0].Ingredient.Name)
}

func TestComputeChangesetAdded(t *testing.T) {
	diffs := ComputeChangeset(nil, []Ingredient{{Name: "egg"}})

	require.Len(t, diffs, 1)
	assert.Equal(t, DiffAdded, diffs[0].Type)
	require.NotNil(t, diffs[0].Ingredient)
	assert.Equal(t, "egg", diffs[0].Ingredient.Name)
}

func TestComputeChangesetModifiedCaseInsensitive(t *testing.T) {
	diffs := ComputeChangeset(
		[]Ingredient{{Name: "Egg", Quantity: qty(2)}},
		[]Ingredient{{Name: "egg", Quantity: qty(3)}},
	)

	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)
	require.NotNil(t, diffs[0].Before)
	require.NotNil(t, diffs[0].After)
	assert.Equal(t, "Egg", diffs[0].Before.Name)
	assert.Equal(t, float64(3), *diffs[0].After.Quantity)
}

func TestComputeChangesetIdenticalListsEmpty(t *testing.T) {
	list := []Ingredient{
		{Name: "flour", Quantity: qty(500), Unit: "g"},
		{Name: "salt", Preparation: "fine"},
	}
	assert.Empty(t, ComputeChangeset(list, list))
}

func TestComputeChangesetCasingOnlyNameChangeIsModified(t *testing.T) {
	// Same slot (normalized names match) but the display name changed.
	diffs := ComputeChangeset(
		[]Ingredient{{Name: "Egg"}},
		[]Ingredient{{Name: "egg"}},
	)

	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)
}

func TestComputeChangesetOrdering(t *testing.T) {
	before := []Ingredient{
		{Name: "flour"},
		{Name: "butter"},
		{Name: "egg", Quantity: qty(2)},
	}
	after := []Ingredient{
		{Name: "egg", Quantity: qty(3)},
		{Name: "milk"},
		{Name: "flour"},
		{Name: "sugar"},
	}

	diffs := ComputeChangeset(before, after)
	require.Len(t, diffs, 4)

	// Removed/modified in before-order, then added in after-order.
	assert.Equal(t, DiffRemoved, diffs[0].Type)
	assert.Equal(t, "butter", diffs[0].Ingredient.Name)
	assert.Equal(t, DiffModified, diffs[1].Type)
	assert.Equal(t, "egg", diffs[1].Before.Name)
	assert.Equal(t, DiffAdded, diffs[2].Type)
	assert.Equal(t, "milk", diffs[2].Ingredient.Name)
	assert.Equal(t, DiffAdded, diffs[3].Type)
	assert.Equal(t, "sugar", diffs[3].Ingredient.Name)
}

func TestComputeChangesetDuplicateNamesLastWriteWins(t *testing.T) {
	// Duplicate normalized names within one list keep the first
	// occurrence's position and the last occurrence's value.
	before := []Ingredient{
		{Name: "egg", Quantity: qty(1)},
		{Name: "Egg", Quantity: qty(4)},
	}
	after := []Ingredient{{Name: "egg", Quantity: qty(4), Unit: "large"}}

	diffs := ComputeChangeset(before, after)
	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)
	assert.Equal(t, "Egg", diffs[0].Before.Name)
	assert.Equal(t, float64(4), *diffs[0].Before.Quantity)
	assert.Equal(t, "large", diffs[0].After.Unit)
}

func TestComputeChangesetQuantityNilVersusSet(t *testing.T) {
	diffs := ComputeChangeset(
		[]Ingredient{{Name: "salt"}},
		[]Ingredient{{Name: "salt", Quantity: qty(1)}},
	)

	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)
}
