package obj

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// SpecularExponent converts shader parameters to the 0-1000 range of Ns.
func SpecularExponent(mat *Material) float32 {
	if mat.SpecularShader == SpecularWardIso {
		return (0.4 - mat.SpecularSlope) / 0.0004
	}
	return float32(mat.SpecularHardness-1) * 1.9607843137254901
}

// IllumMode returns the illum model of a material.
func IllumMode(mat *Material) int {
	if mat.Shadeless {
		return 0
	} else if mat.SpecularIntensity == 0 {
		return 1
	}
	return 2
}

// TextureChannels maps channel keywords to images. Slots are scanned bottom
// up so the topmost slot wins. faceImage suppresses slot diffuse maps.
func TextureChannels(mat *Material, faceImage *Image) map[string]*Image {
	channels := map[string]*Image{}
	for i := len(mat.TextureSlots) - 1; i >= 0; i-- {
		slot := mat.TextureSlots[i]
		if slot == nil || slot.Image == nil {
			continue
		}
		img := slot.Image
		if slot.UseDiffuse && faceImage == nil && !slot.UseWarp && slot.Coords != TexCoordReflection {
			channels["map_Kd"] = img
		}
		if slot.UseAmbient {
			channels["map_Ka"] = img
		}
		if slot.UseSpecularColor {
			channels["map_Ks"] = img
		}
		if slot.UseHardness {
			channels["map_Ns"] = img
		}
		if slot.UseAlpha {
			channels["map_d"] = img
		}
		if slot.UseTranslucency {
			channels["map_Tr"] = img
		}
		if slot.UseNormal {
			channels["map_Bump"] = img
		}
		if slot.UseDisplacement {
			channels["disp"] = img
		}
		if slot.UseDiffuse && slot.Coords == TexCoordReflection {
			channels["refl"] = img
		}
		if slot.UseEmit {
			channels["map_Ke"] = img
		}
	}
	return channels
}

func texturePath(opts *Options, img *Image) string {
	return strings.ReplaceAll(opts.ResolveTexture(img), "\\", "/")
}

// WriteMTL writes material records in the given order.
func WriteMTL(ww io.Writer, records []*MaterialRecord, opts *Options) error {
	opts = opts.withDefaults()
	w := bufio.NewWriter(ww)
	source := opts.SourceName
	if source == "" {
		source = "None"
	}
	fmt.Fprintf(w, "# mmobj MTL File: '%s'\n", source)
	fmt.Fprintf(w, "# Material Count: %d\n", len(records))

	amb := opts.WorldAmbient
	for _, rec := range records {
		fmt.Fprintf(w, "\nnewmtl %s\n", rec.Name)

		mat := rec.Material
		if mat != nil {
			fmt.Fprintf(w, "Ns %.6f\n", SpecularExponent(mat))
			fmt.Fprintf(w, "Ka %.6f %.6f %.6f\n", mat.Ambient*amb.X, mat.Ambient*amb.Y, mat.Ambient*amb.Z)
			kd := mat.DiffuseColor.Scale(mat.DiffuseIntensity)
			fmt.Fprintf(w, "Kd %.6f %.6f %.6f\n", kd.X, kd.Y, kd.Z)
			ks := mat.SpecularColor.Scale(mat.SpecularIntensity)
			fmt.Fprintf(w, "Ks %.6f %.6f %.6f\n", ks.X, ks.Y, ks.Z)
			ior := mat.IOR
			if ior == 0 {
				ior = 1
			}
			fmt.Fprintf(w, "Ni %.6f\n", ior)
			fmt.Fprintf(w, "d %.6f\n", mat.Alpha)
			fmt.Fprintf(w, "illum %d\n", IllumMode(mat))
		} else {
			w.WriteString("Ns 0\n")
			fmt.Fprintf(w, "Ka %.6f %.6f %.6f\n", amb.X, amb.Y, amb.Z)
			w.WriteString("Kd 0.8 0.8 0.8\n")
			w.WriteString("Ks 0.8 0.8 0.8\n")
			w.WriteString("d 1\n")
			w.WriteString("illum 2\n")
		}

		faceImage := rec.Image
		if faceImage != nil {
			if faceImage.Path != "" {
				fmt.Fprintf(w, "map_Kd %s\n", texturePath(opts, faceImage))
			} else {
				// generated image, fall back to the material slots
				faceImage = nil
			}
		}

		if mat != nil {
			channels := TextureChannels(mat, faceImage)
			keys := make([]string, 0, len(channels))
			for key := range channels {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			for _, key := range keys {
				fmt.Fprintf(w, "%s %s\n", key, texturePath(opts, channels[key]))
			}
		}
	}
	return errors.Wrap(w.Flush(), "flush mtl")
}
