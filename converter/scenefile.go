package converter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/binzume/mmobj/geom"
	"github.com/binzume/mmobj/obj"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v2"
)

// SceneFile is a plain text scene description:
//
//	world_ambient: {x: 0.1, y: 0.1, z: 0.1}
//	images:
//	  - {name: wood, path: tex/wood.png}
//	materials:
//	  - name: Wood
//	    diffuse: {x: 0.8, y: 0.6, z: 0.4}
//	    textures: [{image: wood, use: [diffuse]}]
//	objects:
//	  - name: Box
//	    position: {x: 0, y: 1, z: 0}
//	    mesh:
//	      vertices: [[0, 0, 0], [1, 0, 0], [1, 1, 0]]
//	      materials: [Wood]
//	      faces: [{verts: [0, 1, 2], uvs: [[0, 0], [1, 0], [1, 1]]}]
//	frames: {start: 1, end: 10}
type SceneFile struct {
	WorldAmbient geom.Vector3   `yaml:"world_ambient"`
	Images       []*ImageDef    `yaml:"images"`
	Materials    []*MaterialDef `yaml:"materials"`
	Objects      []*ObjectDef   `yaml:"objects"`
	Frames       *FrameRange    `yaml:"frames"`

	// Directory of the file. Image paths are relative to it.
	Dir string `yaml:"-"`
}

type FrameRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type ImageDef struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Library string `yaml:"library"`
}

type TextureDef struct {
	Image  string   `yaml:"image"`
	Coords string   `yaml:"coords"` // uv, orco, reflection
	Use    []string `yaml:"use"`
}

type MaterialDef struct {
	Name              string        `yaml:"name"`
	Diffuse           *geom.Vector3 `yaml:"diffuse"`
	DiffuseIntensity  *float32      `yaml:"diffuse_intensity"`
	Specular          *geom.Vector3 `yaml:"specular"`
	SpecularIntensity *float32      `yaml:"specular_intensity"`
	SpecularShader    string        `yaml:"specular_shader"` // cooktorr, phong, blinn, wardiso
	Hardness          *int          `yaml:"hardness"`
	Slope             float32       `yaml:"slope"`
	Ambient           *float32      `yaml:"ambient"`
	Alpha             *float32      `yaml:"alpha"`
	IOR               float32       `yaml:"ior"`
	Shadeless         bool          `yaml:"shadeless"`
	Textures          []*TextureDef `yaml:"textures"`
}

type Keyframe struct {
	Frame    int           `yaml:"frame"`
	Position *geom.Vector3 `yaml:"position"`
	Rotation *geom.Vector3 `yaml:"rotation"`
	Scale    *geom.Vector3 `yaml:"scale"`
}

type ObjectDef struct {
	Name     string        `yaml:"name"`
	Data     string        `yaml:"data"`
	Selected *bool         `yaml:"selected"`
	Position *geom.Vector3 `yaml:"position"`
	Rotation *geom.Vector3 `yaml:"rotation"` // euler XYZ, degrees
	Scale    *geom.Vector3 `yaml:"scale"`

	Keyframes []*Keyframe `yaml:"keyframes"`

	Mesh  *MeshDef  `yaml:"mesh"`
	Curve *CurveDef `yaml:"curve"`
}

type WeightDef struct {
	Group  int     `yaml:"group"`
	Weight float32 `yaml:"weight"`
}

type FaceDef struct {
	Verts      []int        `yaml:"verts"`
	UVs        [][2]float32 `yaml:"uvs"`
	Normals    [][3]float32 `yaml:"normals"`
	Tangents   [][3]float32 `yaml:"tangents"`
	Bitangents [][3]float32 `yaml:"bitangents"`
	Material   int          `yaml:"material"`
	Smooth     bool         `yaml:"smooth"`
	Image      string       `yaml:"image"`
}

type MeshDef struct {
	Vertices   [][3]float32  `yaml:"vertices"`
	Faces      []*FaceDef    `yaml:"faces"`
	Edges      [][2]int      `yaml:"edges"` // loose
	SharpEdges [][2]int      `yaml:"sharp_edges"`
	Materials  []string      `yaml:"materials"` // "": empty slot
	Groups     []string      `yaml:"groups"`
	Weights    [][]WeightDef `yaml:"weights"`
}

type SplineDef struct {
	Type     string       `yaml:"type"` // poly, nurbs, bezier
	Order    int          `yaml:"order"`
	PointsV  int          `yaml:"points_v"`
	Cyclic   bool         `yaml:"cyclic"`
	Endpoint bool         `yaml:"endpoint"`
	Points   [][3]float32 `yaml:"points"`
}

type CurveDef struct {
	Splines []*SplineDef `yaml:"splines"`
}

func ParseScene(data []byte) (*SceneFile, error) {
	var scene SceneFile
	if err := yaml.UnmarshalStrict(data, &scene); err != nil {
		return nil, errors.Wrap(err, "parse scene")
	}
	return &scene, nil
}

func LoadScene(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scene, err := ParseScene(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	scene.Dir = filepath.Dir(path)
	return scene, nil
}

// Range returns the animation range. A scene without frames has the
// single frame 0.
func (s *SceneFile) Range() (int, int) {
	if s.Frames == nil {
		return 0, 0
	}
	return s.Frames.Start, s.Frames.End
}

func eulerQuaternion(deg *geom.Vector3) *geom.Quaternion {
	const r = math.Pi / 180
	qx := geom.NewAxisAngleQuaternion(&geom.Vector3{X: 1}, float64(deg.X)*r)
	qy := geom.NewAxisAngleQuaternion(&geom.Vector3{Y: 1}, float64(deg.Y)*r)
	qz := geom.NewAxisAngleQuaternion(&geom.Vector3{Z: 1}, float64(deg.Z)*r)
	return qz.Mul(qy).Mul(qx)
}

func lerp3(a, b *geom.Vector3, t float32) *geom.Vector3 {
	return a.Add(b.Sub(a).Scale(t))
}

func nlerp(a, b *geom.Quaternion, t float32) *geom.Quaternion {
	if a.Dot(b) < 0 {
		b = &geom.Quaternion{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
	}
	q := &geom.Quaternion{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}
	return q.Normalize()
}

type pose struct {
	position *geom.Vector3
	rotation *geom.Quaternion
	scale    *geom.Vector3
}

func orDefault(v *geom.Vector3, def geom.Vector3) *geom.Vector3 {
	if v == nil {
		return &def
	}
	return v
}

// poseAt interpolates keyframes. Missing channels keep the object's rest values.
func (o *ObjectDef) poseAt(frame int) *pose {
	rest := &pose{
		position: orDefault(o.Position, geom.Vector3{}),
		rotation: eulerQuaternion(orDefault(o.Rotation, geom.Vector3{})),
		scale:    orDefault(o.Scale, geom.Vector3{X: 1, Y: 1, Z: 1}),
	}
	if len(o.Keyframes) == 0 {
		return rest
	}
	keys := make([]*Keyframe, len(o.Keyframes))
	copy(keys, o.Keyframes)
	slices.SortStableFunc(keys, func(a, b *Keyframe) int { return a.Frame - b.Frame })

	keyPose := func(k *Keyframe) *pose {
		p := *rest
		if k.Position != nil {
			p.position = k.Position
		}
		if k.Rotation != nil {
			p.rotation = eulerQuaternion(k.Rotation)
		}
		if k.Scale != nil {
			p.scale = k.Scale
		}
		return &p
	}
	if frame <= keys[0].Frame {
		return keyPose(keys[0])
	}
	for i := 1; i < len(keys); i++ {
		if frame > keys[i].Frame {
			continue
		}
		a, b := keyPose(keys[i-1]), keyPose(keys[i])
		t := float32(frame-keys[i-1].Frame) / float32(keys[i].Frame-keys[i-1].Frame)
		return &pose{
			position: lerp3(a.position, b.position, t),
			rotation: nlerp(a.rotation, b.rotation, t),
			scale:    lerp3(a.scale, b.scale, t),
		}
	}
	return keyPose(keys[len(keys)-1])
}

var specularShaders = map[string]obj.SpecularShader{
	"":         obj.SpecularCookTorr,
	"cooktorr": obj.SpecularCookTorr,
	"phong":    obj.SpecularPhong,
	"blinn":    obj.SpecularBlinn,
	"wardiso":  obj.SpecularWardIso,
}

var textureCoords = map[string]obj.TextureCoords{
	"":           obj.TexCoordUV,
	"uv":         obj.TexCoordUV,
	"orco":       obj.TexCoordOrco,
	"reflection": obj.TexCoordReflection,
}

func setTextureUse(slot *obj.TextureSlot, use string) error {
	switch use {
	case "diffuse":
		slot.UseDiffuse = true
	case "ambient":
		slot.UseAmbient = true
	case "specular":
		slot.UseSpecularColor = true
	case "hardness":
		slot.UseHardness = true
	case "alpha":
		slot.UseAlpha = true
	case "translucency":
		slot.UseTranslucency = true
	case "normal":
		slot.UseNormal = true
	case "displacement":
		slot.UseDisplacement = true
	case "emit":
		slot.UseEmit = true
	case "warp":
		slot.UseWarp = true
	default:
		return errors.Errorf("unknown texture use %q", use)
	}
	return nil
}

func float32OrDefault(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

func (s *SceneFile) convertMaterial(def *MaterialDef, images map[string]*obj.Image) (*obj.Material, error) {
	mat := &obj.Material{
		Name:              def.Name,
		DiffuseColor:      *orDefault(def.Diffuse, geom.Vector3{X: 0.8, Y: 0.8, Z: 0.8}),
		DiffuseIntensity:  float32OrDefault(def.DiffuseIntensity, 0.8),
		SpecularColor:     *orDefault(def.Specular, geom.Vector3{X: 1, Y: 1, Z: 1}),
		SpecularIntensity: float32OrDefault(def.SpecularIntensity, 0.5),
		SpecularHardness:  50,
		SpecularSlope:     def.Slope,
		Ambient:           float32OrDefault(def.Ambient, 1),
		Alpha:             float32OrDefault(def.Alpha, 1),
		IOR:               def.IOR,
		Shadeless:         def.Shadeless,
	}
	if def.Hardness != nil {
		mat.SpecularHardness = *def.Hardness
	}
	shader, ok := specularShaders[def.SpecularShader]
	if !ok {
		return nil, errors.Errorf("unknown specular shader %q", def.SpecularShader)
	}
	mat.SpecularShader = shader

	for _, t := range def.Textures {
		if t == nil {
			mat.TextureSlots = append(mat.TextureSlots, nil)
			continue
		}
		img, ok := images[t.Image]
		if !ok {
			return nil, errors.Errorf("unknown image %q", t.Image)
		}
		coords, ok := textureCoords[t.Coords]
		if !ok {
			return nil, errors.Errorf("unknown texture coords %q", t.Coords)
		}
		slot := &obj.TextureSlot{Image: img, Coords: coords}
		for _, use := range t.Use {
			if err := setTextureUse(slot, use); err != nil {
				return nil, err
			}
		}
		mat.TextureSlots = append(mat.TextureSlots, slot)
	}
	return mat, nil
}

func vec3(a [3]float32) geom.Vector3 {
	return geom.Vector3{X: a[0], Y: a[1], Z: a[2]}
}

func (s *SceneFile) convertMesh(def *MeshDef, materials map[string]*obj.Material, images map[string]*obj.Image) (*obj.Mesh, error) {
	m := &obj.Mesh{Groups: def.Groups}
	for _, v := range def.Vertices {
		m.Vertices = append(m.Vertices, vec3(v))
	}
	for _, name := range def.Materials {
		if name == "" {
			m.Materials = append(m.Materials, nil)
			continue
		}
		mat, ok := materials[name]
		if !ok {
			return nil, errors.Errorf("unknown material %q", name)
		}
		m.Materials = append(m.Materials, mat)
	}

	checkVert := func(v int) error {
		if v < 0 || v >= len(m.Vertices) {
			return errors.Errorf("vertex index %d out of range", v)
		}
		return nil
	}
	for fi, fd := range def.Faces {
		if len(fd.Verts) < 3 {
			return nil, errors.Errorf("face %d: less than 3 vertices", fi)
		}
		if fd.Material < 0 || fd.Material >= len(m.Materials) && len(m.Materials) > 0 {
			return nil, errors.Errorf("face %d: material index %d out of range", fi, fd.Material)
		}
		f := obj.Face{Material: fd.Material, Smooth: fd.Smooth}
		if fd.Image != "" {
			img, ok := images[fd.Image]
			if !ok {
				return nil, errors.Errorf("face %d: unknown image %q", fi, fd.Image)
			}
			f.Image = img
		}
		for i, v := range fd.Verts {
			if err := checkVert(v); err != nil {
				return nil, errors.Wrapf(err, "face %d", fi)
			}
			l := obj.Loop{Vertex: v}
			if i < len(fd.UVs) {
				l.UV = geom.Vector2{X: fd.UVs[i][0], Y: fd.UVs[i][1]}
				m.HasUV = true
			}
			if i < len(fd.Normals) {
				l.Normal = vec3(fd.Normals[i])
			}
			if i < len(fd.Tangents) {
				l.Tangent = vec3(fd.Tangents[i])
			}
			if i < len(fd.Bitangents) {
				l.Bitangent = vec3(fd.Bitangents[i])
			}
			f.Loops = append(f.Loops, len(m.Loops))
			m.Loops = append(m.Loops, l)
		}
		m.Faces = append(m.Faces, f)
	}

	for _, e := range def.Edges {
		if err := checkVert(e[0]); err != nil {
			return nil, errors.Wrap(err, "edge")
		}
		if err := checkVert(e[1]); err != nil {
			return nil, errors.Wrap(err, "edge")
		}
		m.Edges = append(m.Edges, obj.Edge{Verts: e, Loose: true})
	}
	for _, e := range def.SharpEdges {
		m.Edges = append(m.Edges, obj.Edge{Verts: e, Sharp: true})
	}

	if len(def.Weights) > 0 {
		m.Weights = make([][]obj.GroupWeight, len(m.Vertices))
		for v, ws := range def.Weights {
			if v >= len(m.Vertices) {
				return nil, errors.Errorf("weights for vertex %d out of range", v)
			}
			for _, w := range ws {
				if w.Group < 0 || w.Group >= len(m.Groups) {
					return nil, errors.Errorf("vertex %d: group %d out of range", v, w.Group)
				}
				m.Weights[v] = append(m.Weights[v], obj.GroupWeight{Group: w.Group, Weight: w.Weight})
			}
		}
	}
	ComputeTangents(m)
	return m, nil
}

var splineTypes = map[string]obj.SplineType{
	"":       obj.SplinePoly,
	"poly":   obj.SplinePoly,
	"nurbs":  obj.SplineNURBS,
	"bezier": obj.SplineBezier,
}

func convertCurve(def *CurveDef) (*obj.Curve, error) {
	c := &obj.Curve{}
	for i, sd := range def.Splines {
		typ, ok := splineTypes[sd.Type]
		if !ok {
			return nil, errors.Errorf("spline %d: unknown type %q", i, sd.Type)
		}
		sp := &obj.Spline{
			Type:        typ,
			Order:       sd.Order,
			PointCountV: sd.PointsV,
			Cyclic:      sd.Cyclic,
			Endpoint:    sd.Endpoint,
		}
		if sp.Order == 0 {
			sp.Order = 4
		}
		for _, p := range sd.Points {
			sp.Points = append(sp.Points, vec3(p))
		}
		c.Splines = append(c.Splines, sp)
	}
	return c, nil
}

// ObjectsAt returns the scene objects posed at frame.
func (s *SceneFile) ObjectsAt(frame int) ([]*obj.Object, error) {
	images := map[string]*obj.Image{}
	for i, def := range s.Images {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("image%d", i)
		}
		images[name] = &obj.Image{Name: name, Path: def.Path, Library: def.Library}
	}
	materials := map[string]*obj.Material{}
	for i, def := range s.Materials {
		if def.Name == "" {
			def.Name = fmt.Sprintf("material%d", i)
		}
		mat, err := s.convertMaterial(def, images)
		if err != nil {
			return nil, errors.Wrapf(err, "material %q", def.Name)
		}
		materials[def.Name] = mat
	}

	var objects []*obj.Object
	for i, def := range s.Objects {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("object%d", i)
		}
		p := def.poseAt(frame)
		o := &obj.Object{
			Name:     name,
			DataName: def.Data,
			Matrix:   geom.NewTRSMatrix4(p.position, p.rotation, p.scale),
			Selected: def.Selected == nil || *def.Selected,
		}
		var err error
		if def.Mesh != nil {
			o.Mesh, err = s.convertMesh(def.Mesh, materials, images)
		}
		if err == nil && def.Curve != nil {
			o.Curve, err = convertCurve(def.Curve)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", name)
		}
		objects = append(objects, o)
	}
	return objects, nil
}
