package translate

// remapBiomes translates a biome id array by compressing it to its distinct
// values, translating each distinct value exactly once, and expanding back
// through the inverse index. For low-cardinality arrays this keeps the
// per-value rule cost independent of array size.
func remapBiomes(biomes []uint32, rule func(uint32) uint32) []uint32 {
	if len(biomes) == 0 {
		return biomes
	}

	var distinct []uint32
	position := make(map[uint32]int)
	inverse := make([]int, len(biomes))
	for i, id := range biomes {
		p, ok := position[id]
		if !ok {
			p = len(distinct)
			position[id] = p
			distinct = append(distinct, id)
		}
		inverse[i] = p
	}

	translated := make([]uint32, len(distinct))
	for i, id := range distinct {
		translated[i] = rule(id)
	}

	out := make([]uint32, len(biomes))
	for i, p := range inverse {
		out[i] = translated[p]
	}
	return out
}
