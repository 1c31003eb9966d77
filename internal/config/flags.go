package config

import (
	"flag"

	"github.com/binzume/mmobj/geom"
	"github.com/binzume/mmobj/texture"
)

// Flags are command line overrides. Only flags given explicitly are applied.
type Flags struct {
	fs *flag.FlagSet

	config    *string
	debug     *bool
	logFile   *string
	scale     *float64
	pathMode  *string
	texDir    *string
	png       *bool
	maxTexDim *int

	bools map[string]*bool
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		fs:        fs,
		config:    fs.String("config", "", "Path to config file (.yaml or .toml)"),
		debug:     fs.Bool("debug", false, "Enable debug logging"),
		logFile:   fs.String("log", "", "Log file path"),
		scale:     fs.Float64("scale", 1, "Uniform scale applied to all objects"),
		pathMode:  fs.String("path-mode", "", "Texture path mode: auto, absolute, relative, strip, copy"),
		texDir:    fs.String("texture-dir", "", "Subdirectory for copied textures"),
		png:       fs.Bool("png", false, "Convert copied TGA/PSD/BMP textures to PNG"),
		maxTexDim: fs.Int("max-texture-size", 0, "Downscale copied textures larger than this"),
		bools:     map[string]*bool{},
	}
	for _, b := range []struct {
		name, usage string
	}{
		{"triangulate", "Triangulate faces"},
		{"edges", "Write loose edges"},
		{"smooth-groups", "Write smoothing groups"},
		{"bitflags", "Smoothing groups as bit flags"},
		{"normals", "Write normals"},
		{"tangent-space", "Write tangent frames (#fx faces)"},
		{"uvs", "Write texture coordinates"},
		{"materials", "Write materials"},
		{"object-names", "Write objects as o lines"},
		{"group-by-object", "Write objects as g lines"},
		{"group-by-material", "Write a group per material"},
		{"keep-vertex-order", "Keep face order"},
		{"vertex-groups", "Write polygroups"},
		{"curves", "Write curves as NURBS"},
		{"selection-only", "Export selected objects only"},
		{"animation", "Export one file per frame"},
	} {
		f.bools[b.name] = fs.Bool(b.name, false, b.usage)
	}
	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

func (f *Flags) boolFields(cfg *Config) map[string]*bool {
	e := &cfg.Export
	return map[string]*bool{
		"triangulate":       &e.Triangulate,
		"edges":             &e.Edges,
		"smooth-groups":     &e.SmoothGroups,
		"bitflags":          &e.SmoothGroupBitflags,
		"normals":           &e.Normals,
		"tangent-space":     &e.TangentSpace,
		"uvs":               &e.UVs,
		"materials":         &e.Materials,
		"object-names":      &e.ObjectNames,
		"group-by-object":   &e.GroupByObject,
		"group-by-material": &e.GroupByMaterial,
		"keep-vertex-order": &e.KeepVertexOrder,
		"vertex-groups":     &e.VertexGroups,
		"curves":            &e.CurvesAsNURBS,
		"selection-only":    &e.SelectionOnly,
		"animation":         &e.Animation,
	}
}

// Apply applies flags set on the command line to cfg.
func (f *Flags) Apply(cfg *Config) {
	fields := f.boolFields(cfg)
	f.fs.Visit(func(fl *flag.Flag) {
		if dst, ok := fields[fl.Name]; ok {
			*dst = *f.bools[fl.Name]
			return
		}
		switch fl.Name {
		case "debug":
			if *f.debug {
				cfg.Logging.Level = "debug"
			}
		case "log":
			cfg.Logging.File.Path = *f.logFile
		case "scale":
			s := float32(*f.scale)
			cfg.Export.GlobalMatrix = geom.NewScaleMatrix4(s, s, s)
		case "path-mode":
			cfg.Texture.Mode = texture.PathMode(*f.pathMode)
		case "texture-dir":
			cfg.Texture.Subdir = *f.texDir
		case "png":
			cfg.Texture.ConvertToPNG = *f.png
		case "max-texture-size":
			cfg.Texture.MaxTextureSize = *f.maxTexDim
		}
	})
}
