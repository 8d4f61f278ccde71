package foundation

import "sort"

// OrderIndex is a bidirectional permutation between a sequence's natural
// order and the order obtained by sorting it under some key.
type OrderIndex struct {
	// OrderedToOriginal[i] is the natural index of the element at sorted
	// position i.
	OrderedToOriginal []int
	// OriginalToOrdered is the inverse permutation: the sorted position of
	// the element at each natural index.
	OriginalToOrdered []int
}

// NewOrderIndex builds an OrderIndex over n elements. less compares two
// natural indices. The sort is stable, so equal elements keep their natural
// relative order.
func NewOrderIndex(n int, less func(i, j int) bool) OrderIndex {
	orderedToOriginal := make([]int, n)
	for i := range orderedToOriginal {
		orderedToOriginal[i] = i
	}
	sort.SliceStable(orderedToOriginal, func(a, b int) bool {
		return less(orderedToOriginal[a], orderedToOriginal[b])
	})

	originalToOrdered := make([]int, n)
	for ordered, original := range orderedToOriginal {
		originalToOrdered[original] = ordered
	}

	return OrderIndex{
		OrderedToOriginal: orderedToOriginal,
		OriginalToOrdered: originalToOrdered,
	}
}
