package converter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/binzume/mmobj/geom"
	"github.com/binzume/mmobj/obj"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// quadDocument returns a document with a skinned quad under a translated
// parent node and a line mesh.
func quadDocument() *gltf.Document {
	metallic, roughness := float32(0), float32(0.5)
	doc := gltf.NewDocument()
	doc.Images = []*gltf.Image{{Name: "albedo", URI: "tex/albedo.png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials = []*gltf.Material{{
		Name: "Skin",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float32{1, 0.5, 0.25, 1},
			MetallicFactor:   &metallic,
			RoughnessFactor:  &roughness,
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}

	quad := &gltf.Primitive{
		Attributes: map[string]uint32{
			"POSITION":   modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}),
			"NORMAL":     modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
			"TEXCOORD_0": modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}),
			"JOINTS_0":   modeler.WriteJoints(doc, [][4]uint16{{0, 0, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}),
			"WEIGHTS_0":  modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}),
		},
		Indices:  gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 2, 0, 2, 3})),
		Material: gltf.Index(0),
		Targets: []map[string]uint32{
			{"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})},
		},
	}
	line := &gltf.Primitive{
		Attributes: map[string]uint32{
			"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}}),
		},
		Mode: gltf.PrimitiveLineStrip,
	}
	doc.Meshes = []*gltf.Mesh{
		{Name: "QuadMesh", Primitives: []*gltf.Primitive{quad}, Weights: []float32{0.5}},
		{Name: "LineMesh", Primitives: []*gltf.Primitive{line}},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "Root", Translation: [3]float32{0, 0, 5}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}, Children: []uint32{1, 2}},
		{Name: "Body", Mesh: gltf.Index(0), Skin: gltf.Index(0), Translation: [3]float32{1, 0, 0}},
		{Name: "Wire", Mesh: gltf.Index(1)},
		{Name: "Hips"},
		{Name: "Upper Leg"},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{3, 4}}}
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func TestGLTFToOBJ(t *testing.T) {
	objects, err := NewGLTFToOBJConverter(nil).Convert(quadDocument())
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 || objects[0].Name != "Body" || objects[1].Name != "Wire" {
		t.Fatalf("unexpected objects: %v", objects)
	}
	body := objects[0]
	if body.DataName != "QuadMesh" {
		t.Error("DataName: ", body.DataName)
	}
	if p := body.Matrix.ApplyTo(&geom.Vector3{}); *p != (geom.Vector3{X: 1, Z: 5}) {
		t.Error("world matrix: ", *p)
	}

	m := body.Mesh
	if len(m.Vertices) != 4 || len(m.Faces) != 2 || len(m.Loops) != 6 {
		t.Fatalf("geometry: %d vertices %d faces %d loops", len(m.Vertices), len(m.Faces), len(m.Loops))
	}
	if m.Vertices[0].Z != 0 {
		t.Error("morph must not be applied by default")
	}
	if got := m.FaceVerts(&m.Faces[0]); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Error("winding: ", got)
	}
	if !m.HasUV || m.Loops[0].UV != (geom.Vector2{X: 0, Y: 0}) || m.Loops[2].UV != (geom.Vector2{X: 1, Y: 1}) {
		t.Error("uv: ", m.Loops[0].UV, m.Loops[2].UV)
	}
	if !m.Faces[0].Smooth || m.Faces[0].Image == nil || m.Faces[0].Image.Path != "tex/albedo.png" {
		t.Error("face: ", m.Faces[0])
	}
	if len(m.Materials) != 1 || m.Materials[0].Name != "Skin" {
		t.Fatal("materials: ", m.Materials)
	}
	if l := m.Loops[0]; l.Tangent != (geom.Vector3{X: 1}) || l.Bitangent != (geom.Vector3{Y: 1}) {
		t.Error("tangent frame: ", l.Tangent, l.Bitangent)
	}

	if len(m.Groups) != 2 || m.Groups[0] != "Index.0.Hips" || m.Groups[1] != "Index.1.Upper_Leg" {
		t.Error("groups: ", m.Groups)
	}
	if len(m.Weights) != 4 || len(m.Weights[1]) != 2 || m.Weights[2][0] != (obj.GroupWeight{Group: 1, Weight: 1}) {
		t.Error("weights: ", m.Weights)
	}

	wire := objects[1].Mesh
	if len(wire.Faces) != 0 || len(wire.Edges) != 2 || !wire.Edges[1].Loose || wire.Edges[1].Verts != [2]int{1, 2} {
		t.Error("edges: ", wire.Edges)
	}
}

func TestGLTFToOBJMorph(t *testing.T) {
	objects, err := NewGLTFToOBJConverter(&GLTFToOBJOption{ApplyMorphs: true}).Convert(quadDocument())
	if err != nil {
		t.Fatal(err)
	}
	if z := objects[0].Mesh.Vertices[2].Z; z != 0.5 {
		t.Error("morph: ", z)
	}
}

func TestGLTFToOBJImagePaths(t *testing.T) {
	opt := &GLTFToOBJOption{ImagePaths: []string{"/extracted/albedo.png"}}
	objects, err := NewGLTFToOBJConverter(opt).Convert(quadDocument())
	if err != nil {
		t.Fatal(err)
	}
	if p := objects[0].Mesh.Faces[0].Image.Path; p != "/extracted/albedo.png" {
		t.Error("image path: ", p)
	}
}

func TestConvertMaterial(t *testing.T) {
	doc := quadDocument()
	c := NewGLTFToOBJConverter(nil)
	if _, err := c.Convert(doc); err != nil {
		t.Fatal(err)
	}
	mat := c.materials[0]
	if mat.DiffuseColor != (geom.Vector3{X: 1, Y: 0.5, Z: 0.25}) || mat.Alpha != 1 {
		t.Error("diffuse: ", mat.DiffuseColor, mat.Alpha)
	}
	if mat.SpecularIntensity != 0 || obj.IllumMode(mat) != 1 {
		t.Error("specular: ", mat.SpecularIntensity)
	}
	if mat.SpecularHardness != 129 {
		t.Error("hardness: ", mat.SpecularHardness)
	}
	if len(mat.TextureSlots) != 1 || !mat.TextureSlots[0].UseDiffuse || mat.TextureSlots[0].UseAlpha {
		t.Error("slots: ", mat.TextureSlots)
	}

	unlit := &gltf.Material{
		Name:          "Glow",
		AlphaMode:     gltf.AlphaBlend,
		Extensions:    map[string]interface{}{"KHR_materials_unlit": struct{}{}},
		NormalTexture: &gltf.NormalTexture{Index: gltf.Index(0)},
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 0.5},
		},
	}
	mat = c.convertMaterial(1, unlit)
	if !mat.Shadeless || obj.IllumMode(mat) != 0 || mat.Alpha != 0.5 {
		t.Error("unlit: ", mat.Shadeless, mat.Alpha)
	}
	if mat.SpecularHardness != 1 {
		t.Error("rough hardness: ", mat.SpecularHardness)
	}
	if len(mat.TextureSlots) != 1 || !mat.TextureSlots[0].UseNormal {
		t.Error("normal slot: ", mat.TextureSlots)
	}
	if c.convertMaterial(2, &gltf.Material{}).Name != "material2" {
		t.Error("default name")
	}
}

func TestGLTFToOBJExport(t *testing.T) {
	objects, err := NewGLTFToOBJConverter(nil).Convert(quadDocument())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	s := obj.NewSession(&buf, &obj.Options{Normals: true, UVs: true, TangentSpace: true, Materials: true, ObjectNames: true, Edges: true})
	for _, o := range objects {
		if err := s.WriteObject(o); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"o Body_QuadMesh\n",
		"v 1.000000 0.000000 5.000000\n",
		"usemtl Skin\n",
		"#fx 1/1/1/1/1 2/2/1/1/1 3/3/1/1/1\n",
		"#vgn Index.0.Hips\n",
		"l 5 6\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestPrimitiveFaces(t *testing.T) {
	strip := primitiveFaces(gltf.PrimitiveTriangleStrip, []uint32{0, 1, 2, 3})
	if len(strip) != 2 || strip[1] != [3]uint32{2, 1, 3} {
		t.Error("strip: ", strip)
	}
	fan := primitiveFaces(gltf.PrimitiveTriangleFan, []uint32{0, 1, 2, 3})
	if len(fan) != 2 || fan[1] != [3]uint32{0, 2, 3} {
		t.Error("fan: ", fan)
	}
	loop := primitiveLines(gltf.PrimitiveLineLoop, []uint32{0, 1, 2})
	if len(loop) != 3 || loop[2] != [2]uint32{2, 0} {
		t.Error("loop: ", loop)
	}
}

func TestNodeMatrix(t *testing.T) {
	n := &gltf.Node{Translation: [3]float32{1, 2, 3}}
	if p := nodeMatrix(n).ApplyTo(&geom.Vector3{X: 1}); *p != (geom.Vector3{X: 2, Y: 2, Z: 3}) {
		t.Error("default TRS: ", *p)
	}
	n = &gltf.Node{Matrix: [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1}}
	if p := nodeMatrix(n).ApplyTo(&geom.Vector3{X: 1}); *p != (geom.Vector3{X: 2}) {
		t.Error("matrix: ", *p)
	}
}
