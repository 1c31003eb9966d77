package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/mmobj/obj"
	"golang.org/x/image/bmp"
)

func TestResolveModes(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "src", "out")
	img := &obj.Image{Name: "skin", Path: "tex/skin.png"}
	abs := filepath.ToSlash(filepath.Join(src, "tex", "skin.png"))

	tests := []struct {
		mode PathMode
		want string
	}{
		{PathAbsolute, abs},
		{PathRelative, "../tex/skin.png"},
		{PathStrip, "skin.png"},
		{PathAuto, abs},
		{PathCopy, "textures/skin.png"},
	}
	for _, test := range tests {
		r := NewResolver(src, dst, &Options{Mode: test.mode, Subdir: "textures"})
		if got := r.Resolve(img); got != test.want {
			t.Errorf("Resolve(%s) = %q, want %q", test.mode, got, test.want)
		}
	}

	// auto is relative inside the destination
	r := NewResolver(src, src, nil)
	if got := r.Resolve(img); got != "tex/skin.png" {
		t.Error("auto inside: ", got)
	}
	if r.Resolve(&obj.Image{Name: "generated"}) != "" {
		t.Error("image without path")
	}
}

func TestResolveLibraryImage(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, root, &Options{Mode: PathRelative})
	img := &obj.Image{Path: "wood.png", Library: "libs/materials.gltf"}
	if got := r.Resolve(img); got != "libs/wood.png" {
		t.Error("library image: ", got)
	}
}

func TestCopyNameCollision(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, filepath.Join(root, "out"), &Options{Mode: PathCopy})
	a := r.Resolve(&obj.Image{Path: "a/skin.png"})
	b := r.Resolve(&obj.Image{Path: "b/skin.png"})
	again := r.Resolve(&obj.Image{Path: "a/skin.png"})
	if a != "skin.png" || b != "skin_1.png" || again != a {
		t.Error("collision: ", a, b, again)
	}
	if r.Pending() != 2 {
		t.Error("pending: ", r.Pending())
	}
}

func TestCopyAllConvertsToPNG(t *testing.T) {
	root := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			src.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 60), 0, 255})
		}
	}
	f, err := os.Create(filepath.Join(root, "albedo.bmp"))
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out := filepath.Join(root, "out")
	r := NewResolver(root, out, &Options{Mode: PathCopy, Subdir: "tex", ConvertToPNG: true, MaxTextureSize: 4})
	ref := r.Resolve(&obj.Image{Name: "albedo", Path: "albedo.bmp"})
	if ref != "tex/albedo.png" {
		t.Fatal("ref: ", ref)
	}
	if err := r.CopyAll(); err != nil {
		t.Fatal(err)
	}
	if r.Pending() != 0 {
		t.Error("copy set not cleared")
	}

	pf, err := os.Open(filepath.Join(out, "tex", "albedo.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer pf.Close()
	img, err := png.Decode(pf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Error("size: ", img.Bounds())
	}
}

func TestCopyAllRepeated(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "skin.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(root, "out")
	copied := filepath.Join(out, "skin.png")
	r := NewResolver(root, out, &Options{Mode: PathCopy})

	for i := 0; i < 2; i++ {
		if ref := r.Resolve(&obj.Image{Path: "skin.png"}); ref != "skin.png" {
			t.Fatal("ref: ", ref)
		}
		if r.Pending() != 1 {
			t.Fatalf("run %d: pending %d", i, r.Pending())
		}
		if err := r.CopyAll(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(copied); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		os.Remove(copied)
	}
}

func TestCopyAllMissingFile(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, filepath.Join(root, "out"), &Options{Mode: PathCopy})
	r.Resolve(&obj.Image{Path: "missing.png"})
	if err := r.CopyAll(); err == nil {
		t.Error("missing file must fail")
	}
}

func TestFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 400))
	if b := Fit(img, 100).Bounds(); b.Dx() != 25 || b.Dy() != 100 {
		t.Error("Fit: ", b)
	}
	if Fit(img, 0) != image.Image(img) {
		t.Error("no limit")
	}
}
