package obj

type Category int

const (
	CategoryUV Category = iota
	CategoryNormal
	CategoryBitangent
	CategoryTangent
	numCategories
)

// Deduplicator assigns per-object local indices to quantized attributes.
// Create one per exported object.
type Deduplicator struct {
	indices [numCategories]map[AttributeKey]int
}

func NewDeduplicator() *Deduplicator {
	d := &Deduplicator{}
	for i := range d.indices {
		d.indices[i] = map[AttributeKey]int{}
	}
	return d
}

// Intern returns the local index for key, allocating the next one when the key is new.
func (d *Deduplicator) Intern(c Category, key AttributeKey) (int, bool) {
	m := d.indices[c]
	if idx, ok := m[key]; ok {
		return idx, false
	}
	idx := len(m)
	m[key] = idx
	return idx, true
}

func (d *Deduplicator) Count(c Category) int {
	return len(d.indices[c])
}
