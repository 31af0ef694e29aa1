package assessment

// Similarity returns the Jaccard overlap of the word sets of a and b, counting
// only words longer than three characters.
func Similarity(a, b string) float64 {
	return similarity(a, b, DefaultConfig().SimilarityMinLen)
}

func similarity(a, b string, minLen int) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := tokenSet(tokens(a, minLen, 0))
	setB := tokenSet(tokens(b, minLen, 0))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(toks []string) map[string]struct{} {
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}
