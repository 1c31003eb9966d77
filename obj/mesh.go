package obj

import (
	"github.com/binzume/mmobj/geom"
)

func renormalize(v *geom.Vector3) geom.Vector3 {
	if !v.IsZero() {
		return *v.Normalize()
	}
	return *v
}

// transformMesh returns a copy of m in the space given by mat. Normals use
// the inverse transpose, tangents and bitangents the matrix itself.
func transformMesh(m *Mesh, mat *geom.Matrix4) *Mesh {
	dst := *m
	dst.Vertices = make([]geom.Vector3, len(m.Vertices))
	for i := range m.Vertices {
		dst.Vertices[i] = *mat.ApplyTo(&m.Vertices[i])
	}

	nmat := mat.NormalMatrix()
	dst.Loops = make([]Loop, len(m.Loops))
	for i := range m.Loops {
		l := m.Loops[i]
		l.Normal = renormalize(nmat.ApplyToDirection(&l.Normal))
		l.Tangent = renormalize(mat.ApplyToDirection(&l.Tangent))
		l.Bitangent = renormalize(mat.ApplyToDirection(&l.Bitangent))
		dst.Loops[i] = l
	}
	return &dst
}

// triangulateMesh returns a copy of m where every face has three corners.
// Loops are shared with the source faces.
func triangulateMesh(m *Mesh) *Mesh {
	dst := *m
	dst.Faces = make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f.Loops) <= 3 {
			dst.Faces = append(dst.Faces, f)
			continue
		}
		poly := make([]*geom.Vector3, len(f.Loops))
		for i, l := range f.Loops {
			poly[i] = &m.Vertices[m.Loops[l].Vertex]
		}
		for _, t := range geom.Triangulate(poly) {
			tri := f
			tri.Loops = []int{f.Loops[t[0]], f.Loops[t[1]], f.Loops[t[2]]}
			dst.Faces = append(dst.Faces, tri)
		}
	}
	return &dst
}
