package results

// Vocabulary is the ordered set of technique tags seen while scanning
// results. Tags are appended in discovery order and never removed.
type Vocabulary struct {
	tags []string
	seen map[string]bool
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{seen: make(map[string]bool)}
}

// Add appends tag if it is new and reports whether it was.
func (v *Vocabulary) Add(tag string) bool {
	if v.seen[tag] {
		return false
	}
	v.seen[tag] = true
	v.tags = append(v.tags, tag)
	return true
}

// Contains reports whether tag has been seen.
func (v *Vocabulary) Contains(tag string) bool {
	return v.seen[tag]
}

// Len returns the number of tags.
func (v *Vocabulary) Len() int {
	return len(v.tags)
}

// Tags returns the tags in discovery order.
func (v *Vocabulary) Tags() []string {
	out := make([]string, len(v.tags))
	copy(out, v.tags)
	return out
}
