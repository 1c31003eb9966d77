package obj

// IndexOffsets holds the 1-based global index of the next attribute of each
// kind. Values only grow within a session.
type IndexOffsets struct {
	Vertex    int
	UV        int
	Normal    int
	Bitangent int
	Tangent   int
}

func NewIndexOffsets() IndexOffsets {
	return IndexOffsets{Vertex: 1, UV: 1, Normal: 1, Bitangent: 1, Tangent: 1}
}

// Advance moves past the attributes written by one object.
func (o *IndexOffsets) Advance(vertices int, d *Deduplicator) {
	o.Vertex += vertices
	if d == nil {
		return
	}
	o.UV += d.Count(CategoryUV)
	o.Normal += d.Count(CategoryNormal)
	o.Bitangent += d.Count(CategoryBitangent)
	o.Tangent += d.Count(CategoryTangent)
}

func (o *IndexOffsets) offset(c Category) int {
	switch c {
	case CategoryUV:
		return o.UV
	case CategoryNormal:
		return o.Normal
	case CategoryBitangent:
		return o.Bitangent
	default:
		return o.Tangent
	}
}

// Rebase converts a local attribute index into a global one.
func (o *IndexOffsets) Rebase(c Category, local int) int {
	return o.offset(c) + local
}
