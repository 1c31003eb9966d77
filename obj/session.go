package obj

import (
	"bufio"
	"fmt"
	"io"

	"github.com/binzume/mmobj/geom"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Session writes objects into one OBJ stream. Material names, index offsets
// and the vertex group table live here and are discarded with the session.
type Session struct {
	opts      *Options
	w         *bufio.Writer
	log       *zap.Logger
	quantizer Quantizer
	encoder   *WeightEncoder

	offsets    IndexOffsets
	materials  *MaterialRegistry
	groupIndex map[string]int
	groupNames []string

	objects int
	closed  bool
}

func NewSession(w io.Writer, opts *Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		opts:       opts,
		w:          bufio.NewWriter(w),
		log:        opts.Logger.With(zap.String("session", uuid.NewString())),
		quantizer:  NewQuantizer(opts.QuantizeDigits),
		encoder:    NewWeightEncoder(opts.MaxInfluences, opts.WeightEpsilon),
		offsets:    NewIndexOffsets(),
		materials:  NewMaterialRegistry(),
		groupIndex: map[string]int{},
	}
	s.writeHeader()
	return s
}

func (s *Session) writeHeader() {
	fmt.Fprintf(s.w, "# mmobj OBJ File: '%s'\n", s.opts.SourceName)
	s.w.WriteString("# github.com/binzume/mmobj\n")
	if s.opts.Materials && s.opts.MaterialLibrary != "" {
		fmt.Fprintf(s.w, "mtllib %s\n", s.opts.MaterialLibrary)
	}
}

func (s *Session) Offsets() IndexOffsets {
	return s.offsets
}

// Materials returns the material records used so far, sorted by name.
func (s *Session) Materials() []*MaterialRecord {
	return s.materials.Records()
}

// GroupNames returns the session wide vertex group table.
func (s *Session) GroupNames() []string {
	return s.groupNames
}

// WriteObject writes one object. Objects that cannot be exported return an
// error wrapping ErrSkipObject and leave the stream untouched.
func (s *Session) WriteObject(o *Object) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.opts.SelectionOnly && !o.Selected {
		return nil
	}

	if o.Curve != nil && s.opts.CurvesAsNURBS && o.Curve.NURBSCompatible() {
		n := s.writeCurve(o)
		s.offsets.Advance(n, nil)
		s.objects++
		return nil
	}
	if o.Mesh == nil {
		return skip(o.Name + ": mesh conversion unavailable")
	}
	if err := s.writeMesh(o); err != nil {
		return err
	}
	s.objects++
	return nil
}

// Close writes the vertex group table and flushes the stream.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	for _, name := range s.groupNames {
		fmt.Fprintf(s.w, "#vgn %s\n", name)
	}
	s.log.Info("export finished",
		zap.Int("objects", s.objects),
		zap.Int("vertices", s.offsets.Vertex-1),
		zap.Int("materials", s.materials.Len()))
	return errors.Wrap(s.w.Flush(), "flush obj")
}

func (s *Session) objectName(o *Object) string {
	if o.Name == o.dataName() {
		return NameCompat(o.Name)
	}
	return NameCompat(o.Name) + "_" + NameCompat(o.dataName())
}

func (s *Session) registerGroups(groups []string) []int {
	global := make([]int, len(groups))
	for i, name := range groups {
		idx, ok := s.groupIndex[name]
		if !ok {
			idx = len(s.groupNames)
			s.groupNames = append(s.groupNames, name)
			s.groupIndex[name] = idx
			s.log.Debug("vertex group added", zap.String("group", name), zap.Int("index", idx))
		}
		global[i] = idx
	}
	return global
}

// faceMaterial returns the material key and source data of a face.
func faceMaterial(m *Mesh, f *Face, faceUV bool) (MaterialKey, *Material, *Image) {
	var key MaterialKey
	var mat *Material
	if len(m.Materials) == 0 {
		key.Material = NameCompat("")
	} else {
		mi := f.Material
		if mi >= len(m.Materials) {
			mi = len(m.Materials) - 1
		}
		if mi < 0 {
			mi = 0
		}
		mat = m.Materials[mi]
		if mat != nil {
			key.Material = mat.Name
		}
	}
	var img *Image
	if faceUV && f.Image != nil {
		img = f.Image
		key.Image = img.Name
	}
	return key, mat, img
}

// polyGroupName returns the group with the largest summed weight over the face vertices.
func polyGroupName(m *Mesh, f *Face) string {
	sum := map[int]float32{}
	for _, v := range m.FaceVerts(f) {
		if v >= len(m.Weights) {
			continue
		}
		for _, gw := range m.Weights[v] {
			if gw.Group >= 0 && gw.Group < len(m.Groups) {
				sum[gw.Group] += gw.Weight
			}
		}
	}
	best, bestWeight := "", float32(0)
	for g, w := range sum {
		name := m.Groups[g]
		if best == "" || w > bestWeight || w == bestWeight && name > best {
			best, bestWeight = name, w
		}
	}
	if best == "" {
		return NullMaterialName
	}
	return best
}

func (s *Session) writeMesh(o *Object) error {
	opts := s.opts
	m := o.Mesh
	if opts.Triangulate {
		m = triangulateMesh(m)
	}

	nedges := 0
	if opts.Edges {
		nedges = len(m.Edges)
	}
	if len(m.Faces)+nedges+len(m.Vertices) == 0 {
		return skip(o.Name + ": empty mesh")
	}

	// everything that can fail runs before the first line is written
	var groupData *VertexGroupData
	if len(m.Groups) > 0 {
		var err error
		groupData, err = s.encoder.EncodeMesh(m)
		if err != nil {
			return errors.Wrapf(err, "object %s", o.Name)
		}
	}

	if mat := opts.objectMatrix(o.Matrix); mat != nil {
		m = transformMesh(m, mat)
	}

	faceUV := opts.UVs && m.HasUV
	var smoothGroups []int
	if (opts.SmoothGroups || opts.SmoothGroupBitflags) && len(m.Faces) > 0 {
		smoothGroups, _ = ComputeSmoothGroups(m, opts.SmoothGroupBitflags)
	}

	var order []int
	if opts.KeepVertexOrder {
		order = identityOrder(len(m.Faces))
	} else {
		order = SortFaces(m, smoothGroups, faceUV)
	}

	obName := s.objectName(o)
	if opts.ObjectNames {
		fmt.Fprintf(s.w, "o %s\n", obName)
	} else if opts.GroupByObject {
		fmt.Fprintf(s.w, "g %s\n", obName)
	}

	for i := range m.Vertices {
		v := &m.Vertices[i]
		fmt.Fprintf(s.w, "v %.6f %.6f %.6f\n", v.X, v.Y, v.Z)
	}

	dedup := NewDeduplicator()

	var uvMapping [][]int
	if faceUV {
		uvMapping = make([][]int, len(m.Faces))
		for _, fi := range order {
			f := &m.Faces[fi]
			uvs := make([]int, len(f.Loops))
			for i, li := range f.Loops {
				uv := &m.Loops[li].UV
				idx, isNew := dedup.Intern(CategoryUV, s.quantizer.Key2(uv))
				if isNew {
					fmt.Fprintf(s.w, "vt %.6f %.6f\n", uv.X, uv.Y)
				}
				uvs[i] = idx
			}
			uvMapping[fi] = uvs
		}
	}

	var loopNormals, loopBitangents, loopTangents []int
	if opts.Normals && len(m.Faces) > 0 {
		loopNormals = make([]int, len(m.Loops))
		if opts.TangentSpace {
			loopBitangents = make([]int, len(m.Loops))
			loopTangents = make([]int, len(m.Loops))
		}
		for _, fi := range order {
			for _, li := range m.Faces[fi].Loops {
				l := &m.Loops[li]
				loopNormals[li] = s.internVector(dedup, CategoryNormal, "vn", &l.Normal)
				if opts.TangentSpace {
					loopBitangents[li] = s.internVector(dedup, CategoryBitangent, "#bn", &l.Bitangent)
					loopTangents[li] = s.internVector(dedup, CategoryTangent, "#tn", &l.Tangent)
				}
			}
		}
	}
	s.log.Debug("object attributes",
		zap.String("object", o.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("uvs", dedup.Count(CategoryUV)),
		zap.Int("normals", dedup.Count(CategoryNormal)),
		zap.Int("bitangents", dedup.Count(CategoryBitangent)),
		zap.Int("tangents", dedup.Count(CategoryTangent)))

	var (
		contextSet    bool
		contextKey    MaterialKey
		contextSmooth = -1
		contextGroup  string
	)
	polyGroups := opts.VertexGroups && len(m.Groups) > 0
	for _, fi := range order {
		f := &m.Faces[fi]
		fSmooth := 0
		if f.Smooth {
			fSmooth = 1
			if smoothGroups != nil {
				fSmooth = smoothGroups[fi]
			}
		}

		key, mat, img := faceMaterial(m, f, faceUV)

		if polyGroups {
			if g := polyGroupName(m, f); g != contextGroup {
				contextGroup = g
				fmt.Fprintf(s.w, "g %s\n", g)
			}
		}

		if !contextSet || key != contextKey {
			if key.IsNull() {
				if opts.GroupByMaterial {
					fmt.Fprintf(s.w, "g %s_%s\n", NameCompat(o.Name), NameCompat(o.dataName()))
				}
				if opts.Materials {
					fmt.Fprintf(s.w, "usemtl %s\n", NullMaterialName)
				}
			} else {
				rec := s.materials.Resolve(key, mat, img)
				if opts.GroupByMaterial {
					fmt.Fprintf(s.w, "g %s_%s_%s\n", NameCompat(o.Name), NameCompat(o.dataName()), rec.Name)
				}
				if opts.Materials {
					fmt.Fprintf(s.w, "usemtl %s\n", rec.Name)
				}
			}
			contextSet = true
			contextKey = key
		}

		if fSmooth != contextSmooth {
			if fSmooth != 0 {
				fmt.Fprintf(s.w, "s %d\n", fSmooth)
			} else {
				s.w.WriteString("s off\n")
			}
			contextSmooth = fSmooth
		}

		if opts.TangentSpace {
			s.w.WriteString("#fx")
		} else {
			s.w.WriteString("f")
		}
		off := &s.offsets
		for i, li := range f.Loops {
			v := off.Vertex + m.Loops[li].Vertex
			switch {
			case faceUV && loopNormals != nil && opts.TangentSpace:
				fmt.Fprintf(s.w, " %d/%d/%d/%d/%d", v,
					off.Rebase(CategoryUV, uvMapping[fi][i]),
					off.Rebase(CategoryNormal, loopNormals[li]),
					off.Rebase(CategoryBitangent, loopBitangents[li]),
					off.Rebase(CategoryTangent, loopTangents[li]))
			case faceUV && loopNormals != nil:
				fmt.Fprintf(s.w, " %d/%d/%d", v,
					off.Rebase(CategoryUV, uvMapping[fi][i]),
					off.Rebase(CategoryNormal, loopNormals[li]))
			case faceUV:
				fmt.Fprintf(s.w, " %d/%d", v, off.Rebase(CategoryUV, uvMapping[fi][i]))
			case loopNormals != nil:
				fmt.Fprintf(s.w, " %d//%d", v, off.Rebase(CategoryNormal, loopNormals[li]))
			default:
				fmt.Fprintf(s.w, " %d", v)
			}
		}
		s.w.WriteString("\n")
	}

	if groupData != nil {
		s.writeVertexGroups(m, groupData)
	}

	if opts.Edges {
		for _, e := range m.Edges {
			if e.Loose {
				fmt.Fprintf(s.w, "l %d %d\n", s.offsets.Vertex+e.Verts[0], s.offsets.Vertex+e.Verts[1])
			}
		}
	}

	s.offsets.Advance(len(m.Vertices), dedup)
	return nil
}

func (s *Session) internVector(d *Deduplicator, c Category, keyword string, v *geom.Vector3) int {
	idx, isNew := d.Intern(c, s.quantizer.Key3(v))
	if isNew {
		fmt.Fprintf(s.w, "%s %.6f %.6f %.6f\n", keyword, v.X, v.Y, v.Z)
	}
	return idx
}

func (s *Session) writeVertexGroups(m *Mesh, data *VertexGroupData) {
	global := s.registerGroups(m.Groups)
	for _, indices := range data.GroupIndices {
		s.w.WriteString("#vg")
		for _, g := range indices {
			if g >= 0 && g < len(global) {
				g = global[g]
			} else {
				g = -1
			}
			fmt.Fprintf(s.w, " %d", g)
		}
		s.w.WriteString("\n")
	}
	for _, rec := range data.Blend {
		s.w.WriteString("#vbld")
		for _, bw := range rec {
			fmt.Fprintf(s.w, " %d/%.6f", bw.Index, bw.Weight)
		}
		s.w.WriteString("\n")
	}
	if len(data.PosTransforms) > 0 {
		s.writeNameList("#pos_xforms", data.PosTransforms)
	}
	if len(data.UVTransforms) > 0 {
		s.writeNameList("#uv_xforms", data.UVTransforms)
	}
}

func (s *Session) writeNameList(keyword string, names []string) {
	s.w.WriteString(keyword)
	for _, n := range names {
		s.w.WriteString(" " + n)
	}
	s.w.WriteString("\n")
}
