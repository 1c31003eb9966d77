package converter

import (
	"github.com/binzume/mmobj/geom"
	"github.com/binzume/mmobj/obj"
)

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n *geom.Vector3) *geom.Vector3 {
	axis := &geom.Vector3{X: 1}
	if n.X*n.X > 0.5 {
		axis = &geom.Vector3{Y: 1}
	}
	return axis.Reject(n).Normalize()
}

// faceTangent returns the UV aligned tangent and bitangent of the first
// triangle of f. ok is false when the UVs are degenerate.
func faceTangent(m *obj.Mesh, f *obj.Face) (t, b *geom.Vector3, ok bool) {
	if !m.HasUV || len(f.Loops) < 3 {
		return nil, nil, false
	}
	l0, l1, l2 := &m.Loops[f.Loops[0]], &m.Loops[f.Loops[1]], &m.Loops[f.Loops[2]]
	e1 := m.Vertices[l1.Vertex].Sub(&m.Vertices[l0.Vertex])
	e2 := m.Vertices[l2.Vertex].Sub(&m.Vertices[l0.Vertex])
	d1 := l1.UV.Sub(&l0.UV)
	d2 := l2.UV.Sub(&l0.UV)
	det := d1.Cross(d2)
	if det*det < 1e-12 {
		return nil, nil, false
	}
	r := 1 / det
	t = e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
	b = e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)
	return t, b, true
}

// ComputeTangents fills zero normals with the face normal and zero tangent
// frames from UV derivatives. Without usable UVs any vector perpendicular to
// the normal is used.
func ComputeTangents(m *obj.Mesh) {
	for fi := range m.Faces {
		f := &m.Faces[fi]
		poly := make([]*geom.Vector3, len(f.Loops))
		for i, l := range f.Loops {
			poly[i] = &m.Vertices[m.Loops[l].Vertex]
		}
		fn := geom.FaceNormal(poly)
		ft, fb, uvOK := faceTangent(m, f)

		for _, li := range f.Loops {
			l := &m.Loops[li]
			if l.Normal.IsZero() {
				l.Normal = *fn
			}
			if !l.Tangent.IsZero() && !l.Bitangent.IsZero() {
				continue
			}
			n := &l.Normal
			var t *geom.Vector3
			if uvOK {
				t = ft.Reject(n)
			}
			if t == nil || t.LenSqr() < 1e-12 {
				t = perpendicular(n)
			} else {
				t.Normalize()
			}
			b := n.Cross(t)
			if uvOK && b.Dot(fb) < 0 {
				b = b.Scale(-1)
			}
			l.Tangent = *t
			l.Bitangent = *b.Normalize()
		}
	}
}
