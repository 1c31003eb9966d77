package obj

import (
	"github.com/binzume/mmobj/geom"
	"go.uber.org/zap"
)

type Options struct {
	Triangulate         bool `yaml:"triangulate" toml:"triangulate"`
	Edges               bool `yaml:"edges" toml:"edges"`
	SmoothGroups        bool `yaml:"smooth_groups" toml:"smooth_groups"`
	SmoothGroupBitflags bool `yaml:"smooth_group_bitflags" toml:"smooth_group_bitflags"`
	Normals             bool `yaml:"normals" toml:"normals"`
	TangentSpace        bool `yaml:"tangent_space" toml:"tangent_space"`
	UVs                 bool `yaml:"uvs" toml:"uvs"`
	Materials           bool `yaml:"materials" toml:"materials"`
	ApplyModifiers      bool `yaml:"apply_modifiers" toml:"apply_modifiers"`
	ObjectNames         bool `yaml:"object_names" toml:"object_names"`
	GroupByObject       bool `yaml:"group_by_object" toml:"group_by_object"`
	GroupByMaterial     bool `yaml:"group_by_material" toml:"group_by_material"`
	KeepVertexOrder     bool `yaml:"keep_vertex_order" toml:"keep_vertex_order"`
	VertexGroups        bool `yaml:"vertex_groups" toml:"vertex_groups"`
	CurvesAsNURBS       bool `yaml:"curves_as_nurbs" toml:"curves_as_nurbs"`
	SelectionOnly       bool `yaml:"selection_only" toml:"selection_only"`
	Animation           bool `yaml:"animation" toml:"animation"`

	GlobalMatrix *geom.Matrix4 `yaml:"global_matrix,omitempty" toml:"global_matrix,omitempty"`

	QuantizeDigits int     `yaml:"quantize_digits" toml:"quantize_digits"`
	MaxInfluences  int     `yaml:"max_influences" toml:"max_influences"`
	WeightEpsilon  float32 `yaml:"weight_epsilon" toml:"weight_epsilon"`

	// Set by the caller per export.
	MaterialLibrary string              `yaml:"-" toml:"-"`
	SourceName      string              `yaml:"-" toml:"-"`
	WorldAmbient    geom.Vector3        `yaml:"-" toml:"-"`
	ResolveTexture  func(*Image) string `yaml:"-" toml:"-"`
	Logger          *zap.Logger         `yaml:"-" toml:"-"`
}

func DefaultOptions() *Options {
	return &Options{
		Normals:        true,
		TangentSpace:   true,
		UVs:            true,
		Materials:      true,
		ApplyModifiers: true,
		ObjectNames:    true,
		CurvesAsNURBS:  true,
		QuantizeDigits: DefaultQuantizeDigits,
		MaxInfluences:  DefaultMaxInfluences,
		WeightEpsilon:  DefaultWeightEpsilon,
	}
}

// withDefaults returns a copy with unset fields filled.
func (o *Options) withDefaults() *Options {
	if o == nil {
		o = DefaultOptions()
	}
	opts := *o
	if opts.QuantizeDigits <= 0 {
		opts.QuantizeDigits = DefaultQuantizeDigits
	}
	if opts.MaxInfluences <= 0 {
		opts.MaxInfluences = DefaultMaxInfluences
	}
	if opts.WeightEpsilon <= 0 {
		opts.WeightEpsilon = DefaultWeightEpsilon
	}
	if opts.ResolveTexture == nil {
		opts.ResolveTexture = func(img *Image) string { return img.Path }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &opts
}

// objectMatrix returns GlobalMatrix * world, or nil when both are identity.
func (o *Options) objectMatrix(world *geom.Matrix4) *geom.Matrix4 {
	var m *geom.Matrix4
	if o.GlobalMatrix != nil && !o.GlobalMatrix.IsIdentity() {
		m = o.GlobalMatrix
	}
	if world != nil && !world.IsIdentity() {
		if m == nil {
			return world
		}
		return m.Mul(world)
	}
	return m
}
