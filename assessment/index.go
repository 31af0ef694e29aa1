package assessment

// KeywordIndex maps lower-cased keywords of reference texts to the reference
// items containing them. It narrows the candidates scored during
// reconciliation.
type KeywordIndex struct {
	minLen  int
	limit   int
	items   []ReferenceItem
	buckets map[string][]int
}

// BuildKeywordIndex indexes the first ten words longer than four characters
// of every reference text.
func BuildKeywordIndex(refs []ReferenceItem) *KeywordIndex {
	cfg := DefaultConfig()
	return newKeywordIndex(refs, cfg.KeywordMinLen, cfg.KeywordLimit)
}

func newKeywordIndex(refs []ReferenceItem, minLen, limit int) *KeywordIndex {
	idx := &KeywordIndex{
		minLen:  minLen,
		limit:   limit,
		items:   make([]ReferenceItem, len(refs)),
		buckets: make(map[string][]int),
	}
	copy(idx.items, refs)
	for i, ref := range idx.items {
		for _, tok := range tokens(ref.Text, minLen, limit) {
			idx.buckets[tok] = append(idx.buckets[tok], i)
		}
	}
	return idx
}

// Size returns the number of indexed reference items.
func (idx *KeywordIndex) Size() int {
	return len(idx.items)
}

// Keywords returns the number of distinct keywords.
func (idx *KeywordIndex) Keywords() int {
	return len(idx.buckets)
}

// Bucket returns the reference items filed under keyword, in index order.
// Items repeating the keyword appear once per occurrence.
func (idx *KeywordIndex) Bucket(keyword string) []ReferenceItem {
	ids := idx.buckets[keyword]
	out := make([]ReferenceItem, len(ids))
	for i, id := range ids {
		out[i] = idx.items[id]
	}
	return out
}

// Candidates returns the distinct reference items sharing at least one
// keyword with text, in order of first discovery.
func (idx *KeywordIndex) Candidates(text string) []ReferenceItem {
	seen := make(map[int]struct{})
	var out []ReferenceItem
	for _, tok := range tokens(text, idx.minLen, idx.limit) {
		for _, id := range idx.buckets[tok] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, idx.items[id])
		}
	}
	return out
}
