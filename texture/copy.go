package texture

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// DecodeFile decodes any registered image format. TGA has no magic number
// and is decoded by extension.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil && strings.ToLower(filepath.Ext(path)) == ".tga" {
		// retry
		f.Seek(0, io.SeekStart)
		img, err = tga.Decode(f)
	}
	return img, errors.Wrapf(err, "decode %s", path)
}

// Fit scales img down so that neither side exceeds limit.
func Fit(img image.Image, limit int) image.Image {
	rect := img.Bounds()
	if limit <= 0 || rect.Dx() <= limit && rect.Dy() <= limit {
		return img
	}
	scale := float32(limit) / float32(rect.Dx())
	if rect.Dy() > rect.Dx() {
		scale = float32(limit) / float32(rect.Dy())
	}
	w, h := int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst
}

func encodeFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" {
		err = jpeg.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func (r *Resolver) needsReencode(e *copyEntry) bool {
	if e.convert {
		return true
	}
	if r.MaxTextureSize <= 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(e.dst))
	return ext == ".png" || ext == ".jpg" || ext == ".jpeg"
}

func (r *Resolver) copyOne(e *copyEntry) error {
	if err := os.MkdirAll(filepath.Dir(e.dst), 0755); err != nil {
		return err
	}
	if !r.needsReencode(e) {
		return copyFile(e.src, e.dst)
	}
	img, err := DecodeFile(e.src)
	if err != nil {
		return err
	}
	return encodeFile(e.dst, Fit(img, r.MaxTextureSize))
}

// CopyAll copies every queued file. Failed files do not stop the others.
// The resolver starts over afterwards, so the next export queues its files again.
func (r *Resolver) CopyAll() error {
	var errs error
	for _, e := range r.copies {
		if same, _ := filepath.Abs(e.dst); same == e.src {
			continue
		}
		if err := r.copyOne(e); err != nil {
			r.log.Warn("texture copy failed", zap.String("src", e.src), zap.Error(err))
			errs = multierr.Append(errs, errors.Wrapf(err, "copy %s", e.src))
			continue
		}
		r.log.Info("texture copied", zap.String("src", e.src), zap.String("dst", e.dst))
	}
	r.copies = nil
	r.bySrc = map[string]string{}
	r.targets = map[string]string{}
	return errs
}
