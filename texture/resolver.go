// Package texture resolves image references written to material libraries
// and copies the referenced files next to the exported model.
package texture

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/binzume/mmobj/obj"
	"go.uber.org/zap"
)

type PathMode string

const (
	PathAuto     PathMode = "auto"
	PathAbsolute PathMode = "absolute"
	PathRelative PathMode = "relative"
	PathStrip    PathMode = "strip"
	PathCopy     PathMode = "copy"
)

type Options struct {
	Mode   PathMode `yaml:"mode" toml:"mode"`
	Subdir string   `yaml:"subdir" toml:"subdir"` // copy mode only

	// Re-encode TGA, PSD and BMP files as PNG when copying.
	ConvertToPNG   bool `yaml:"convert_to_png" toml:"convert_to_png"`
	MaxTextureSize int  `yaml:"max_texture_size" toml:"max_texture_size"` // 0: unlimited

	Logger *zap.Logger `yaml:"-" toml:"-"`
}

func DefaultOptions() *Options {
	return &Options{Mode: PathAuto}
}

// convertible formats are decoded and written as PNG when ConvertToPNG is set.
var convertible = map[string]bool{".tga": true, ".psd": true, ".bmp": true}

type copyEntry struct {
	src     string
	dst     string
	convert bool
}

// Resolver maps image paths of a source scene to references usable from
// the destination directory. In copy mode it collects the files to copy.
type Resolver struct {
	*Options
	srcDir string
	dstDir string
	log    *zap.Logger

	copies  []*copyEntry
	bySrc   map[string]string // src -> reference
	targets map[string]string // dst -> src
}

func NewResolver(srcDir, dstDir string, opts *Options) *Resolver {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Mode == "" {
		opts.Mode = PathAuto
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		Options: opts,
		srcDir:  srcDir,
		dstDir:  dstDir,
		log:     log,
		bySrc:   map[string]string{},
		targets: map[string]string{},
	}
}

// SourcePath returns the absolute location of an image file.
func (r *Resolver) SourcePath(img *obj.Image) string {
	p := filepath.FromSlash(img.Path)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	base := r.srcDir
	if img.Library != "" {
		lib := filepath.FromSlash(img.Library)
		if !filepath.IsAbs(lib) {
			lib = filepath.Join(r.srcDir, lib)
		}
		base = filepath.Dir(lib)
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return filepath.Join(base, p)
	}
	return abs
}

// Resolve returns the path written to the material library.
func (r *Resolver) Resolve(img *obj.Image) string {
	if img == nil || img.Path == "" {
		return ""
	}
	src := r.SourcePath(img)
	switch r.Mode {
	case PathAbsolute:
		return filepath.ToSlash(src)
	case PathRelative:
		return filepath.ToSlash(r.relative(src))
	case PathStrip:
		return filepath.Base(src)
	case PathCopy:
		return r.addCopy(src)
	default:
		rel := r.relative(src)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(src)
		}
		return filepath.ToSlash(rel)
	}
}

func (r *Resolver) relative(src string) string {
	dst, err := filepath.Abs(r.dstDir)
	if err != nil {
		return src
	}
	rel, err := filepath.Rel(dst, src)
	if err != nil {
		return src
	}
	return rel
}

func (r *Resolver) addCopy(src string) string {
	if ref, ok := r.bySrc[src]; ok {
		return ref
	}
	name := filepath.Base(src)
	ext := strings.ToLower(filepath.Ext(name))
	convert := r.ConvertToPNG && convertible[ext]
	if convert {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}

	ref := filepath.ToSlash(filepath.Join(r.Subdir, name))
	for i := 1; ; i++ {
		owner, ok := r.targets[ref]
		if !ok || owner == src {
			break
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		ref = filepath.ToSlash(filepath.Join(r.Subdir, fmt.Sprintf("%s_%d%s", stem, i, filepath.Ext(name))))
	}

	r.bySrc[src] = ref
	r.targets[ref] = src
	r.copies = append(r.copies, &copyEntry{
		src:     src,
		dst:     filepath.Join(r.dstDir, filepath.FromSlash(ref)),
		convert: convert,
	})
	r.log.Debug("texture queued", zap.String("src", src), zap.String("ref", ref))
	return ref
}

// Pending returns the number of files waiting for CopyAll.
func (r *Resolver) Pending() int {
	return len(r.copies)
}
