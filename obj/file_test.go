package obj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

func TestFramePath(t *testing.T) {
	if p := FramePath("out/anim.obj", 12); p != "out/anim_000012.obj" {
		t.Error("FramePath: ", p)
	}
	if p := MTLPath("out/anim.obj"); p != "out/anim.mtl" {
		t.Error("MTLPath: ", p)
	}
}

func TestExportObjects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.obj")

	bad := quadMesh(nil, false)
	bad.Groups = []string{"Index.x"}
	bad.Weights = [][]GroupWeight{{{0, 1}}}
	objects := []*Object{
		{Name: "Empty", Mesh: &Mesh{}},
		{Name: "Bad", Mesh: bad},
		{Name: "Quad", Mesh: quadMesh(&Material{Name: "Mat", Alpha: 1}, true)},
	}

	err := ExportObjects(path, objects, nil)
	if !errors.Is(err, ErrMalformedGroupName) {
		t.Error("expected malformed group error: ", err)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Error("skipped objects must not be reported: ", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "mtllib scene.mtl\n") || !strings.Contains(out, "o Quad\n") {
		t.Error("obj: ", out)
	}

	mtl, err := os.ReadFile(filepath.Join(dir, "scene.mtl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mtl), "newmtl Mat\n") {
		t.Error("mtl: ", string(mtl))
	}
}

func TestExportObjectsWithoutMaterials(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Materials = false
	if err := ExportObjects(filepath.Join(dir, "a.obj"), []*Object{{Name: "Quad", Mesh: quadMesh(nil, false)}}, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.mtl")); !os.IsNotExist(err) {
		t.Error("mtl file must not be written")
	}
}

func TestExportFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.obj")
	mat := &Material{Name: "Mat"}
	src := func(frame int) ([]*Object, error) {
		if frame == 3 {
			return nil, errors.New("no such frame")
		}
		m := quadMesh(mat, false)
		for i := range m.Vertices {
			m.Vertices[i].Z = float32(frame)
		}
		return []*Object{{Name: "Quad", Mesh: m}}, nil
	}

	err := ExportFrames(path, 1, 3, src, nil)
	if err == nil || !strings.Contains(err.Error(), "frame 3") {
		t.Error("frame error: ", err)
	}

	for frame := 1; frame <= 2; frame++ {
		data, err := os.ReadFile(FramePath(path, frame))
		if err != nil {
			t.Fatal(err)
		}
		// each frame is an independent session
		if !strings.Contains(string(data), "#fx 1//1 2//1 3//1 4//1\n") {
			t.Error("frame ", frame, ": ", string(data))
		}
		if !strings.Contains(string(data), "mtllib "+filepath.Base(MTLPath(FramePath(path, frame)))+"\n") {
			t.Error("frame mtllib: ", string(data))
		}
	}
}
