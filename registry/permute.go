package registry

// permute implements spec.md §4.4.4's cross-language-compatible seeded
// permutation: initialize the PRNG with seed, then for i in 0..n-1 draw a
// uniform integer in [0, n-i), remove that element from the remaining
// tail, and emit it (Fisher-Yates driven by java.util.Random).
func permute(seed int64, nodes []Endpoint) []Endpoint {
	if len(nodes) == 0 {
		return nil
	}
	remaining := make([]Endpoint, len(nodes))
	copy(remaining, nodes)

	rnd := newJavaRandom(seed)
	result := make([]Endpoint, 0, len(remaining))
	for len(remaining) > 0 {
		idx := rnd.nextInt(int32(len(remaining)))
		result = append(result, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return result
}
