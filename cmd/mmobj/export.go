package main

import (
	"path/filepath"
	"strings"

	"github.com/binzume/mmobj/converter"
	"github.com/binzume/mmobj/gltfutil"
	"github.com/binzume/mmobj/internal/config"
	"github.com/binzume/mmobj/internal/logger"
	"github.com/binzume/mmobj/obj"
	"github.com/binzume/mmobj/texture"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func exportGLTF(input, output string, opts *obj.Options) error {
	doc, err := gltfutil.Load(input)
	if err != nil {
		return err
	}
	srcDir, err := filepath.Abs(filepath.Dir(input))
	if err != nil {
		return err
	}
	dstDir, err := filepath.Abs(filepath.Dir(output))
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	images, err := gltfutil.ExtractImages(doc, srcDir, filepath.Join(dstDir, base+"_images"))
	if err != nil {
		return err
	}
	conv := converter.NewGLTFToOBJConverter(&converter.GLTFToOBJOption{
		ApplyMorphs: opts.ApplyModifiers,
		ImagePaths:  images,
		Logger:      logger.Named("gltf"),
	})
	objects, err := conv.Convert(doc)
	if err != nil {
		return err
	}
	return obj.ExportObjects(output, objects, opts)
}

func exportScene(input, output string, opts *obj.Options) error {
	scene, err := converter.LoadScene(input)
	if err != nil {
		return err
	}
	opts.WorldAmbient = scene.WorldAmbient
	start, end := scene.Range()
	if opts.Animation {
		return obj.ExportFrames(output, start, end, scene.ObjectsAt, opts)
	}
	objects, err := scene.ObjectsAt(start)
	if err != nil {
		return err
	}
	return obj.ExportObjects(output, objects, opts)
}

// export converts input to output, copying textures when the path mode asks for it.
func export(input, output string, cfg *config.Config) error {
	texOpts := cfg.Texture
	texOpts.Logger = logger.Named("texture")
	resolver := texture.NewResolver(filepath.Dir(input), filepath.Dir(output), &texOpts)

	opts := cfg.Export
	opts.SourceName = filepath.Base(input)
	opts.ResolveTexture = resolver.Resolve
	opts.Logger = logger.Named("obj")

	var err error
	switch strings.ToLower(filepath.Ext(input)) {
	case ".gltf", ".glb", ".vrm":
		err = exportGLTF(input, output, &opts)
	case ".yaml", ".yml":
		err = exportScene(input, output, &opts)
	default:
		return errors.Errorf("unsupported input type: %s", filepath.Ext(input))
	}
	if cerr := resolver.CopyAll(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if err == nil {
		logger.Info("exported", zap.String("input", input), zap.String("output", output))
	}
	return err
}
