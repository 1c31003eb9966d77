package obj

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Reserved vertex group name prefixes.
const (
	BlendGroupPrefix   = "Index."
	PosTransformPrefix = "PosTransform."
	UVTransformPrefix  = "UVTransform."
)

const (
	DefaultMaxInfluences = 4
	DefaultWeightEpsilon = 0.0001
)

type BlendWeight struct {
	Index  int
	Weight float32
}

// WeightRecord has exactly MaxInfluences entries sorted by descending weight.
type WeightRecord []BlendWeight

// ParseBlendIndex extracts the blend index from a group named
// "Index.<n>[.<annotation>]". ok is false for other names.
func ParseBlendIndex(name string) (index int, ok bool, err error) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, BlendGroupPrefix) {
		return 0, false, nil
	}
	s := name[len(BlendGroupPrefix):]
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	index, err = strconv.Atoi(s)
	if err != nil {
		return 0, true, errors.Wrapf(ErrMalformedGroupName, "%q", name)
	}
	return index, true, nil
}

// TransformNames returns suffixes of position and uv transform groups.
func TransformNames(groups []string) (pos, uv []string) {
	for _, name := range groups {
		if strings.HasPrefix(name, PosTransformPrefix) {
			pos = append(pos, strings.TrimPrefix(name, PosTransformPrefix))
		} else if strings.HasPrefix(name, UVTransformPrefix) {
			uv = append(uv, strings.TrimPrefix(name, UVTransformPrefix))
		}
	}
	return
}

type WeightEncoder struct {
	MaxInfluences int
	Epsilon       float32
}

func NewWeightEncoder(maxInfluences int, epsilon float32) *WeightEncoder {
	if maxInfluences <= 0 {
		maxInfluences = DefaultMaxInfluences
	}
	return &WeightEncoder{MaxInfluences: maxInfluences, Epsilon: epsilon}
}

// Encode converts memberships of one vertex into a fixed size record.
// Padding entries reuse the strongest index with zero weight.
func (e *WeightEncoder) Encode(weights []GroupWeight, groups []string) (WeightRecord, error) {
	var ws []BlendWeight
	for _, gw := range weights {
		if gw.Group < 0 || gw.Group >= len(groups) {
			continue
		}
		index, ok, err := ParseBlendIndex(groups[gw.Group])
		if !ok {
			continue
		}
		if gw.Weight < e.Epsilon {
			continue
		}
		if err != nil {
			return nil, err
		}
		ws = append(ws, BlendWeight{Index: index, Weight: gw.Weight})
	}
	slices.SortStableFunc(ws, func(a, b BlendWeight) int {
		if a.Weight > b.Weight {
			return -1
		} else if a.Weight < b.Weight {
			return 1
		}
		return 0
	})

	dummy := BlendWeight{}
	if len(ws) > 0 {
		dummy.Index = ws[0].Index
	}
	if len(ws) > e.MaxInfluences {
		ws = ws[:e.MaxInfluences]
	}
	for len(ws) < e.MaxInfluences {
		ws = append(ws, dummy)
	}
	return ws, nil
}

// VertexGroupData is the per object result written after the faces.
type VertexGroupData struct {
	// Local group ids per vertex. Ungrouped vertices get a single -1.
	GroupIndices  [][]int
	Blend         []WeightRecord
	PosTransforms []string
	UVTransforms  []string
}

// EncodeMesh encodes all vertices of m. It fails on the first malformed
// blend group name without partial results.
func (e *WeightEncoder) EncodeMesh(m *Mesh) (*VertexGroupData, error) {
	data := &VertexGroupData{
		GroupIndices: make([][]int, len(m.Vertices)),
		Blend:        make([]WeightRecord, len(m.Vertices)),
	}
	data.PosTransforms, data.UVTransforms = TransformNames(m.Groups)
	for v := range m.Vertices {
		var weights []GroupWeight
		if v < len(m.Weights) {
			weights = m.Weights[v]
		}
		indices := make([]int, 0, len(weights))
		for _, gw := range weights {
			indices = append(indices, gw.Group)
		}
		if len(indices) == 0 {
			indices = append(indices, -1)
		}
		data.GroupIndices[v] = indices

		rec, err := e.Encode(weights, m.Groups)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", v)
		}
		data.Blend[v] = rec
	}
	return data, nil
}
