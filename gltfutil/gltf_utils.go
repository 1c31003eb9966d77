package gltfutil

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func Load(path string) (*gltf.Document, error) {
	doc, err := gltf.Open(path)
	return doc, errors.Wrapf(err, "load %s", path)
}

func imageExt(img *gltf.Image) string {
	switch img.MimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	if strings.HasPrefix(img.URI, "data:") {
		mt := strings.TrimPrefix(img.URI, "data:")
		if i := strings.IndexAny(mt, ";,"); i >= 0 {
			mt = mt[:i]
		}
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			return exts[0]
		}
	}
	return ".png"
}

func embeddedData(doc *gltf.Document, img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if int(*img.BufferView) >= len(doc.BufferViews) {
			return nil, errors.New("bufferView out of range")
		}
		bv := doc.BufferViews[*img.BufferView]
		if int(bv.Buffer) >= len(doc.Buffers) {
			return nil, errors.New("buffer out of range")
		}
		data := doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if int(end) > len(data) {
			return nil, errors.New("bufferView exceeds buffer")
		}
		return data[bv.ByteOffset:end], nil
	}
	return img.MarshalData()
}

// ExtractImages returns a file path per image of doc. External images keep
// their location relative to srcDir. Images stored in buffers or data URIs
// are written to dstDir.
func ExtractImages(doc *gltf.Document, srcDir, dstDir string) ([]string, error) {
	paths := make([]string, len(doc.Images))
	used := map[string]bool{}
	for i, img := range doc.Images {
		if img.BufferView == nil && !img.IsEmbeddedResource() {
			if img.URI != "" {
				paths[i] = filepath.Join(srcDir, filepath.FromSlash(img.URI))
			}
			continue
		}
		data, err := embeddedData(doc, img)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		stem := img.Name
		if stem == "" {
			stem = fmt.Sprintf("image%d", i)
		}
		stem = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(stem)
		name := stem + imageExt(img)
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d%s", stem, n, imageExt(img))
		}
		used[name] = true

		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(dstDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		paths[i] = path
	}
	return paths, nil
}
