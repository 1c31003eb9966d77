package obj

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MTLPath returns the material library path next to an OBJ file.
func MTLPath(objPath string) string {
	return strings.TrimSuffix(objPath, filepath.Ext(objPath)) + ".mtl"
}

// FramePath inserts a zero padded frame number before the extension.
func FramePath(objPath string, frame int) string {
	ext := filepath.Ext(objPath)
	return fmt.Sprintf("%s_%06d%s", strings.TrimSuffix(objPath, ext), frame, ext)
}

// ExportObjects writes objects to objPath and, when materials are enabled,
// the material library next to it. Objects failing for other reasons than
// ErrSkipObject do not stop the export; their errors are returned together.
func ExportObjects(objPath string, objects []*Object, opts *Options) error {
	opts = opts.withDefaults()
	mtlPath := MTLPath(objPath)
	if opts.MaterialLibrary == "" {
		opts.MaterialLibrary = filepath.Base(mtlPath)
	}
	log := opts.Logger

	f, err := os.Create(objPath)
	if err != nil {
		return errors.Wrap(err, "create obj")
	}
	defer f.Close()

	var errs error
	s := NewSession(f, opts)
	for _, o := range objects {
		err := s.WriteObject(o)
		if errors.Is(err, ErrSkipObject) {
			log.Warn("object skipped", zap.String("object", o.Name), zap.String("reason", err.Error()))
		} else if err != nil {
			log.Error("object failed", zap.String("object", o.Name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	if err := s.Close(); err != nil {
		return multierr.Append(errs, err)
	}
	if err := f.Close(); err != nil {
		return multierr.Append(errs, errors.Wrap(err, "close obj"))
	}

	if opts.Materials {
		if err := writeMTLFile(mtlPath, s.Materials(), opts); err != nil {
			return multierr.Append(errs, err)
		}
	}
	return errs
}

func writeMTLFile(path string, records []*MaterialRecord, opts *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create mtl")
	}
	defer f.Close()
	if err := WriteMTL(f, records, opts); err != nil {
		return err
	}
	return f.Close()
}

// FrameSource returns the objects of one animation frame.
type FrameSource func(frame int) ([]*Object, error)

// ExportFrames runs one export per frame in [start, end]. Every frame gets
// its own session, so names and indices never leak between files.
func ExportFrames(objPath string, start, end int, src FrameSource, opts *Options) error {
	opts = opts.withDefaults()
	var errs error
	for frame := start; frame <= end; frame++ {
		objects, err := src(frame)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "frame %d", frame))
			continue
		}
		frameOpts := *opts
		frameOpts.MaterialLibrary = ""
		path := FramePath(objPath, frame)
		opts.Logger.Debug("export frame", zap.Int("frame", frame), zap.String("path", path))
		if err := ExportObjects(path, objects, &frameOpts); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "frame %d", frame))
		}
	}
	return errs
}
