package recipe

// nameIndex is an insertion-ordered mapping from normalized ingredient
// name to the ingredient occupying that slot. Duplicate names within
// one list keep the first occurrence's position but the last
// occurrence's value (last write wins).
type nameIndex struct {
	order []string
	byKey map[string]Ingredient
}

func indexByName(list []Ingredient) *nameIndex {
	idx := &nameIndex{byKey: make(map[string]Ingredient, len(list))}
	for _, ing := range list {
		key := ing.NormalizedName()
		if _, seen := idx.byKey[key]; !seen {
			idx.order = append(idx.order, key)
		}
		idx.byKey[key] = ing
	}
	return idx
}

// ComputeChangeset diffs two ingredient lists keyed by normalized name.
//
// An ingredient present in before but not after is removed; present in
// both with any field difference is modified; present only in after is
// added. Output order is removed/modified diffs in before-order,
// followed by added diffs in after-order.
func ComputeChangeset(before, after []Ingredient) []IngredientDiff {
	beforeIdx := indexByName(before)
	afterIdx := indexByName(after)

	var diffs []IngredientDiff

	for _, key := range beforeIdx.order {
		old := beforeIdx.byKey[key]
		cur, ok := afterIdx.byKey[key]
		if !ok {
			ing := old
			diffs = append(diffs, IngredientDiff{Type: DiffRemoved, Ingredient: &ing})
			continue
		}
		if !old.Equal(cur) {
			b, a := old, cur
			diffs = append(diffs, IngredientDiff{Type: DiffModified, Before: &b, After: &a})
		}
	}

	for _, key := range afterIdx.order {
		if _, ok := beforeIdx.byKey[key]; ok {
			continue
		}
		ing := afterIdx.byKey[key]
		diffs = append(diffs, IngredientDiff{Type: DiffAdded, Ingredient: &ing})
	}

	return diffs
}
