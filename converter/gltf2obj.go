package converter

import (
	"fmt"
	"math"
	"strings"

	"github.com/binzume/mmobj/geom"
	"github.com/binzume/mmobj/obj"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

type GLTFToOBJOption struct {
	// Apply default morph target weights of nodes and meshes.
	ApplyMorphs bool
	// File path per image index. Empty entries fall back to the image URI.
	ImagePaths []string
	Logger     *zap.Logger
}

type gltfToObj struct {
	options *GLTFToOBJOption
	log     *zap.Logger

	src       *gltf.Document
	images    []*obj.Image
	materials []*obj.Material
}

func NewGLTFToOBJConverter(options *GLTFToOBJOption) *gltfToObj {
	if options == nil {
		options = &GLTFToOBJOption{}
	}
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &gltfToObj{
		options: options,
		log:     log,
	}
}

func (c *gltfToObj) convertImage(i int, img *gltf.Image) *obj.Image {
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image%d", i)
	}
	path := ""
	if i < len(c.options.ImagePaths) && c.options.ImagePaths[i] != "" {
		path = c.options.ImagePaths[i]
	} else if img.BufferView == nil && img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
		path = img.URI
	}
	return &obj.Image{Name: name, Path: path}
}

func (c *gltfToObj) textureImage(tex uint32) *obj.Image {
	if int(tex) >= len(c.src.Textures) {
		return nil
	}
	t := c.src.Textures[tex]
	if t.Source == nil || int(*t.Source) >= len(c.images) {
		return nil
	}
	return c.images[*t.Source]
}

// baseColorImage returns the image used as face image for a material.
func (c *gltfToObj) baseColorImage(m *gltf.Material) *obj.Image {
	if m.PBRMetallicRoughness == nil || m.PBRMetallicRoughness.BaseColorTexture == nil {
		return nil
	}
	return c.textureImage(m.PBRMetallicRoughness.BaseColorTexture.Index)
}

func (c *gltfToObj) convertMaterial(i int, m *gltf.Material) *obj.Material {
	mat := &obj.Material{
		Name:             m.Name,
		DiffuseColor:     geom.Vector3{X: 0.8, Y: 0.8, Z: 0.8},
		DiffuseIntensity: 1,
		SpecularColor:    geom.Vector3{X: 1, Y: 1, Z: 1},
		SpecularShader:   obj.SpecularCookTorr,
		Ambient:          1,
		Alpha:            1,
		IOR:              1.5,
	}
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material%d", i)
	}
	_, mat.Shadeless = m.Extensions["KHR_materials_unlit"]

	roughness := float32(1)
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		col := pbr.BaseColorFactorOrDefault()
		metallic := pbr.MetallicFactorOrDefault()
		roughness = pbr.RoughnessFactorOrDefault()
		mat.DiffuseColor = geom.Vector3{X: col[0], Y: col[1], Z: col[2]}
		if m.AlphaMode != gltf.AlphaOpaque {
			mat.Alpha = col[3]
		}
		// metals reflect their base color
		mat.SpecularColor = geom.Vector3{
			X: 1 + (col[0]-1)*metallic,
			Y: 1 + (col[1]-1)*metallic,
			Z: 1 + (col[2]-1)*metallic,
		}
		mat.SpecularIntensity = metallic
		if img := c.baseColorImage(m); img != nil {
			mat.TextureSlots = append(mat.TextureSlots, &obj.TextureSlot{
				Image:      img,
				UseDiffuse: true,
				UseAlpha:   m.AlphaMode != gltf.AlphaOpaque,
			})
		}
	}
	smooth := 1 - roughness
	mat.SpecularHardness = int(math.Round(float64(smooth*smooth*510))) + 1
	if mat.SpecularHardness > 511 {
		mat.SpecularHardness = 511
	} else if mat.SpecularHardness < 1 {
		mat.SpecularHardness = 1
	}

	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		if img := c.textureImage(*m.NormalTexture.Index); img != nil {
			mat.TextureSlots = append(mat.TextureSlots, &obj.TextureSlot{Image: img, UseNormal: true})
		}
	}
	if m.EmissiveTexture != nil {
		if img := c.textureImage(m.EmissiveTexture.Index); img != nil {
			mat.TextureSlots = append(mat.TextureSlots, &obj.TextureSlot{Image: img, UseEmit: true})
		}
	}
	if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
		if img := c.textureImage(*m.OcclusionTexture.Index); img != nil {
			mat.TextureSlots = append(mat.TextureSlots, &obj.TextureSlot{Image: img, UseAmbient: true})
		}
	}
	return mat
}

// nodeMatrix returns the local transform of a node.
func nodeMatrix(n *gltf.Node) *geom.Matrix4 {
	if n.Matrix != [16]float32{} && !geom.NewMatrix4FromSlice(n.Matrix[:]).IsIdentity() {
		return geom.NewMatrix4FromSlice(n.Matrix[:])
	}
	rot := geom.NewQuaternionFromArray(n.Rotation)
	if n.Rotation == [4]float32{} {
		rot = geom.NewQuaternion(0, 0, 0, 1)
	}
	scale := geom.NewVector3FromArray(n.Scale)
	if n.Scale == [3]float32{} {
		scale = geom.NewVector3(1, 1, 1)
	}
	return geom.NewTRSMatrix4(geom.NewVector3FromArray(n.Translation), rot, scale)
}

// rootNodes returns the nodes of the default scene, or every parentless
// node when the document has no scene.
func rootNodes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		scene := uint32(0)
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			scene = *doc.Scene
		}
		return doc.Scenes[scene].Nodes
	}
	child := map[uint32]bool{}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

type primitiveData struct {
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	texcoords [][2]float32
	joints    [][4]uint16
	weights   [][4]float32
	indices   []uint32
}

func (c *gltfToObj) readPrimitive(p *gltf.Primitive) (*primitiveData, error) {
	doc := c.src
	d := &primitiveData{}
	a, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	var err error
	if d.positions, err = modeler.ReadPosition(doc, doc.Accessors[a], nil); err != nil {
		return nil, errors.Wrap(err, "POSITION")
	}
	if a, ok := p.Attributes["NORMAL"]; ok {
		if d.normals, err = modeler.ReadNormal(doc, doc.Accessors[a], nil); err != nil {
			return nil, errors.Wrap(err, "NORMAL")
		}
	}
	if a, ok := p.Attributes["TANGENT"]; ok {
		if d.tangents, err = modeler.ReadTangent(doc, doc.Accessors[a], nil); err != nil {
			return nil, errors.Wrap(err, "TANGENT")
		}
	}
	if a, ok := p.Attributes["TEXCOORD_0"]; ok {
		if d.texcoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[a], nil); err != nil {
			return nil, errors.Wrap(err, "TEXCOORD_0")
		}
	}
	if a, ok := p.Attributes["JOINTS_0"]; ok {
		if d.joints, err = modeler.ReadJoints(doc, doc.Accessors[a], nil); err != nil {
			return nil, errors.Wrap(err, "JOINTS_0")
		}
	}
	if a, ok := p.Attributes["WEIGHTS_0"]; ok {
		if d.weights, err = modeler.ReadWeights(doc, doc.Accessors[a], nil); err != nil {
			return nil, errors.Wrap(err, "WEIGHTS_0")
		}
	}
	if p.Indices != nil {
		if d.indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
			return nil, errors.Wrap(err, "indices")
		}
	} else {
		d.indices = make([]uint32, len(d.positions))
		for i := range d.indices {
			d.indices[i] = uint32(i)
		}
	}
	return d, nil
}

// applyMorphs adds weighted POSITION and NORMAL deltas of the morph targets.
func (c *gltfToObj) applyMorphs(p *gltf.Primitive, d *primitiveData, weights []float32) error {
	for i, target := range p.Targets {
		if i >= len(weights) || weights[i] == 0 {
			continue
		}
		w := weights[i]
		if a, ok := target["POSITION"]; ok {
			delta, err := modeler.ReadPosition(c.src, c.src.Accessors[a], nil)
			if err != nil {
				return errors.Wrapf(err, "morph %d", i)
			}
			for v := range d.positions {
				if v < len(delta) {
					d.positions[v][0] += delta[v][0] * w
					d.positions[v][1] += delta[v][1] * w
					d.positions[v][2] += delta[v][2] * w
				}
			}
		}
		if a, ok := target["NORMAL"]; ok && d.normals != nil {
			delta, err := modeler.ReadNormal(c.src, c.src.Accessors[a], nil)
			if err != nil {
				return errors.Wrapf(err, "morph %d", i)
			}
			for v := range d.normals {
				if v < len(delta) {
					d.normals[v][0] += delta[v][0] * w
					d.normals[v][1] += delta[v][1] * w
					d.normals[v][2] += delta[v][2] * w
				}
			}
		}
	}
	return nil
}

// primitiveFaces returns corner index triples for triangle modes.
func primitiveFaces(mode gltf.PrimitiveMode, indices []uint32) [][3]uint32 {
	var faces [][3]uint32
	switch mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				faces = append(faces, [3]uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			faces = append(faces, [3]uint32{indices[0], indices[i], indices[i+1]})
		}
	}
	return faces
}

// primitiveLines returns vertex pairs for line modes.
func primitiveLines(mode gltf.PrimitiveMode, indices []uint32) [][2]uint32 {
	var lines [][2]uint32
	switch mode {
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(indices); i += 2 {
			lines = append(lines, [2]uint32{indices[i], indices[i+1]})
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(indices); i++ {
			lines = append(lines, [2]uint32{indices[i], indices[i+1]})
		}
		if mode == gltf.PrimitiveLineLoop && len(indices) > 2 {
			lines = append(lines, [2]uint32{indices[len(indices)-1], indices[0]})
		}
	}
	return lines
}

// skinGroups returns vertex group names for the joints of a skin.
func (c *gltfToObj) skinGroups(skin *gltf.Skin) []string {
	groups := make([]string, len(skin.Joints))
	for k, j := range skin.Joints {
		name := fmt.Sprintf("joint%d", j)
		if int(j) < len(c.src.Nodes) && c.src.Nodes[j].Name != "" {
			name = c.src.Nodes[j].Name
		}
		groups[k] = fmt.Sprintf("%s%d.%s", obj.BlendGroupPrefix, k, obj.NameCompat(name))
	}
	return groups
}

func (c *gltfToObj) convertMesh(node *gltf.Node, m *gltf.Mesh) (*obj.Mesh, error) {
	mesh := &obj.Mesh{}
	var skin *gltf.Skin
	if node.Skin != nil && int(*node.Skin) < len(c.src.Skins) {
		skin = c.src.Skins[*node.Skin]
		mesh.Groups = c.skinGroups(skin)
	}
	morphWeights := m.Weights
	if len(node.Weights) > 0 {
		morphWeights = node.Weights
	}

	slots := map[int]int{}
	for pi, p := range m.Primitives {
		d, err := c.readPrimitive(p)
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d", pi)
		}
		if c.options.ApplyMorphs && len(morphWeights) > 0 {
			if err := c.applyMorphs(p, d, morphWeights); err != nil {
				return nil, errors.Wrapf(err, "primitive %d", pi)
			}
		}

		matIndex := -1
		var image *obj.Image
		if p.Material != nil && int(*p.Material) < len(c.materials) {
			matIndex = int(*p.Material)
			image = c.baseColorImage(c.src.Materials[matIndex])
		}
		slot, ok := slots[matIndex]
		if !ok {
			slot = len(mesh.Materials)
			slots[matIndex] = slot
			if matIndex >= 0 {
				mesh.Materials = append(mesh.Materials, c.materials[matIndex])
			} else {
				mesh.Materials = append(mesh.Materials, nil)
			}
		}

		base := len(mesh.Vertices)
		for _, v := range d.positions {
			mesh.Vertices = append(mesh.Vertices, geom.Vector3{X: v[0], Y: v[1], Z: v[2]})
		}
		if skin != nil && d.joints != nil && d.weights != nil {
			for v := range d.positions {
				var ws []obj.GroupWeight
				if v < len(d.joints) && v < len(d.weights) {
					for k := 0; k < 4; k++ {
						if d.weights[v][k] > 0 && int(d.joints[v][k]) < len(mesh.Groups) {
							ws = append(ws, obj.GroupWeight{Group: int(d.joints[v][k]), Weight: d.weights[v][k]})
						}
					}
				}
				mesh.Weights = append(mesh.Weights, ws)
			}
		} else if skin != nil {
			mesh.Weights = append(mesh.Weights, make([][]obj.GroupWeight, len(d.positions))...)
		}
		if d.texcoords != nil {
			mesh.HasUV = true
		}

		for _, tri := range primitiveFaces(p.Mode, d.indices) {
			f := obj.Face{Material: slot, Smooth: d.normals != nil, Image: image}
			for _, v := range tri {
				f.Loops = append(f.Loops, len(mesh.Loops))
				mesh.Loops = append(mesh.Loops, d.loop(base, int(v)))
			}
			mesh.Faces = append(mesh.Faces, f)
		}
		for _, l := range primitiveLines(p.Mode, d.indices) {
			mesh.Edges = append(mesh.Edges, obj.Edge{Verts: [2]int{base + int(l[0]), base + int(l[1])}, Loose: true})
		}
		if p.Mode == gltf.PrimitivePoints {
			c.log.Warn("points primitive ignored", zap.String("mesh", m.Name), zap.Int("primitive", pi))
		}
	}
	if len(mesh.Weights) > 0 && len(mesh.Weights) < len(mesh.Vertices) {
		mesh.Weights = append(mesh.Weights, make([][]obj.GroupWeight, len(mesh.Vertices)-len(mesh.Weights))...)
	}
	ComputeTangents(mesh)
	return mesh, nil
}

// loop builds the face corner of primitive vertex v.
func (d *primitiveData) loop(base, v int) obj.Loop {
	l := obj.Loop{Vertex: base + v}
	if v < len(d.normals) {
		l.Normal = *geom.NewVector3FromArray(d.normals[v]).Normalize()
	}
	if v < len(d.texcoords) {
		l.UV = *geom.NewVector2FlipV(d.texcoords[v])
	}
	if v < len(d.tangents) && v < len(d.normals) {
		t := d.tangents[v]
		l.Tangent = geom.Vector3{X: t[0], Y: t[1], Z: t[2]}
		b := l.Normal.Cross(&l.Tangent).Scale(t[3])
		l.Bitangent = *b
	}
	return l
}

func (c *gltfToObj) convertNode(index uint32, parent *geom.Matrix4, objects []*obj.Object) ([]*obj.Object, error) {
	n := c.src.Nodes[index]
	world := parent.Mul(nodeMatrix(n))
	if n.Mesh != nil && int(*n.Mesh) < len(c.src.Meshes) {
		m := c.src.Meshes[*n.Mesh]
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node%d", index)
		}
		mesh, err := c.convertMesh(n, m)
		if err != nil {
			return objects, errors.Wrapf(err, "node %q", name)
		}
		c.log.Debug("mesh converted", zap.String("object", name),
			zap.Int("vertices", len(mesh.Vertices)), zap.Int("faces", len(mesh.Faces)))
		objects = append(objects, &obj.Object{
			Name:     name,
			DataName: m.Name,
			Matrix:   world,
			Selected: true,
			Mesh:     mesh,
		})
	}
	var err error
	for _, child := range n.Children {
		if int(child) >= len(c.src.Nodes) {
			continue
		}
		if objects, err = c.convertNode(child, world, objects); err != nil {
			return objects, err
		}
	}
	return objects, nil
}

// Convert returns one object per mesh node of the default scene.
func (c *gltfToObj) Convert(src *gltf.Document) ([]*obj.Object, error) {
	c.src = src
	c.images = nil
	c.materials = nil
	for i, img := range src.Images {
		c.images = append(c.images, c.convertImage(i, img))
	}
	for i, mat := range src.Materials {
		c.materials = append(c.materials, c.convertMaterial(i, mat))
	}

	var objects []*obj.Object
	var err error
	for _, root := range rootNodes(src) {
		if int(root) >= len(src.Nodes) {
			continue
		}
		if objects, err = c.convertNode(root, geom.NewMatrix4(), objects); err != nil {
			return nil, err
		}
	}
	return objects, nil
}
