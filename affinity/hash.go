// Package affinity implements component D from spec.md: the key-affinity
// engine. It decides whether a write operation qualifies for key-based
// routing (§4.4.1), extracts and hashes the partition-key value
// (§4.4.2-4.4.3), and resolves table partition-key names on demand
// (§4.4.5), backed by a registry.LiveNodes for the actual node selection.
package affinity

import "github.com/spaolacci/murmur3"

// Hash64 returns the first 64 bits (h1) of MurmurHash3 x64-128 with seed 0,
// per spec.md §4.4.3. Empty input hashes to 0, matching the MurmurHash3
// reference vectors spec.md §8 pins: hash("") = 0, hash("test") =
// 0xac7d28cc74bde19d, hash("hello") = 0xcbd8a7b341bd9b02.
func Hash64(data []byte) uint64 {
	h1, _ := murmur3.Sum128(data)
	return h1
}
