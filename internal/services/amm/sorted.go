package amm

import "slices"

// SortedInsert inserts add into items, which is sorted by cmp and holds at
// most maxSize elements. It returns the updated slice and the element that
// fell off the end, if any. add itself is returned as evicted when it ranks
// after every element of a full list.
func SortedInsert[T any](items []T, add T, maxSize int, cmp func(a, b T) int) ([]T, T, bool) {
	var none T
	if maxSize <= 0 {
		panic("amm: sorted insert needs a positive max size")
	}
	if len(items) == 0 {
		return append(items, add), none, false
	}
	full := len(items) >= maxSize
	if full && cmp(items[len(items)-1], add) <= 0 {
		return items, add, true
	}

	lo, hi := 0, len(items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cmp(items[mid], add) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	items = slices.Insert(items, lo, add)
	if !full {
		return items, none, false
	}
	evicted := items[len(items)-1]
	return items[:len(items)-1], evicted, true
}
