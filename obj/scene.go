// Package obj writes scene objects as an extended Wavefront OBJ/MTL pair
// carrying tangent frames and skin-weight annotations.
package obj

import (
	"github.com/binzume/mmobj/geom"
)

// Object is one exportable scene object. The host resolves instancing and
// modifiers beforehand; Mesh and Curve hold ready-to-export data.
type Object struct {
	Name     string
	DataName string
	Matrix   *geom.Matrix4 // world matrix. nil: identity
	Selected bool

	Mesh  *Mesh
	Curve *Curve
}

func (o *Object) dataName() string {
	if o.DataName == "" {
		return o.Name
	}
	return o.DataName
}

// Loop is a face corner.
type Loop struct {
	Vertex    int
	Normal    geom.Vector3
	Tangent   geom.Vector3
	Bitangent geom.Vector3
	UV        geom.Vector2
}

type Face struct {
	Loops    []int
	Material int
	Smooth   bool
	Image    *Image
}

type Edge struct {
	Verts [2]int
	Loose bool
	Sharp bool
}

type GroupWeight struct {
	Group  int
	Weight float32
}

type Mesh struct {
	Vertices []geom.Vector3
	Loops    []Loop
	Faces    []Face
	Edges    []Edge
	HasUV    bool

	// Material slots. nil entries are empty slots.
	Materials []*Material

	// Vertex group names, indexed by GroupWeight.Group.
	Groups []string
	// Per vertex memberships.
	Weights [][]GroupWeight
}

// FaceVerts returns vertex indices of the face corners.
func (m *Mesh) FaceVerts(f *Face) []int {
	verts := make([]int, len(f.Loops))
	for i, l := range f.Loops {
		verts[i] = m.Loops[l].Vertex
	}
	return verts
}

type Image struct {
	Name    string
	Path    string
	Library string
}

type SpecularShader int

const (
	SpecularCookTorr SpecularShader = iota
	SpecularPhong
	SpecularBlinn
	SpecularWardIso
)

type TextureCoords int

const (
	TexCoordUV TextureCoords = iota
	TexCoordOrco
	TexCoordReflection
)

type TextureSlot struct {
	Image  *Image
	Coords TextureCoords

	UseDiffuse       bool
	UseAmbient       bool
	UseSpecularColor bool
	UseHardness      bool
	UseAlpha         bool
	UseTranslucency  bool
	UseNormal        bool
	UseDisplacement  bool
	UseEmit          bool
	UseWarp          bool
}

type Material struct {
	Name string

	DiffuseColor      geom.Vector3
	DiffuseIntensity  float32
	SpecularColor     geom.Vector3
	SpecularIntensity float32
	SpecularShader    SpecularShader
	SpecularHardness  int
	SpecularSlope     float32
	Ambient           float32
	Alpha             float32
	IOR               float32 // 0: unknown
	Shadeless         bool

	// Ordered from top to bottom. nil entries are empty slots.
	TextureSlots []*TextureSlot
}

type SplineType int

const (
	SplinePoly SplineType = iota
	SplineNURBS
	SplineBezier
)

type Spline struct {
	Type        SplineType
	Order       int
	PointCountV int // > 1: surface
	Cyclic      bool
	Endpoint    bool
	Points      []geom.Vector3
}

// Degree returns the polynomial degree written to the curve block.
func (s *Spline) Degree() int {
	if s.Type == SplinePoly {
		return 1
	}
	return s.Order - 1
}

func (s *Spline) isSurface() bool {
	return s.PointCountV > 1
}

type Curve struct {
	Splines []*Spline
}

// NURBSCompatible reports whether at least one spline can be written as a curve block.
func (c *Curve) NURBSCompatible() bool {
	for _, s := range c.Splines {
		if !s.isSurface() && s.Type != SplineBezier {
			return true
		}
	}
	return false
}
