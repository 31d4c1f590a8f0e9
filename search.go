package zekta

// searchLowerBound returns an index k in [0, n] at which inserting the
// probed key preserves order. cmp(i) reports the sign of item[i] - key.
//
// When one or more items compare equal to the key, the index returned is the
// midpoint at which the search observed the equality, not necessarily the
// first such index. Callers that need the first-equal or last-equal position
// must walk linearly from the returned index.
func searchLowerBound(n int, cmp func(i int) int) int {
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := cmp(mid)
		if c == 0 {
			return mid
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
