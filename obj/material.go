package obj

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/text/unicode/norm"
)

// NullMaterialName is used by usemtl for faces without material and image.
const NullMaterialName = "(null)"

// NameCompat makes a name usable as a single OBJ token.
func NameCompat(name string) string {
	if name == "" {
		return "None"
	}
	return strings.ReplaceAll(norm.NFC.String(name), " ", "_")
}

// MaterialKey identifies a material/image combination. Empty strings mean none.
type MaterialKey struct {
	Material string
	Image    string
}

func (k MaterialKey) IsNull() bool {
	return k.Material == "" && k.Image == ""
}

type MaterialRecord struct {
	Name     string
	Key      MaterialKey
	Material *Material
	Image    *Image
}

// MaterialRegistry assigns stable unique export names to material keys.
// It belongs to one export session.
type MaterialRegistry struct {
	byKey  map[MaterialKey]*MaterialRecord
	byName map[string]MaterialKey
}

func NewMaterialRegistry() *MaterialRegistry {
	return &MaterialRegistry{
		byKey:  map[MaterialKey]*MaterialRecord{},
		byName: map[string]MaterialKey{},
	}
}

func (r *MaterialRegistry) taken(name string, key MaterialKey) bool {
	owner, ok := r.byName[name]
	return ok && owner != key
}

// Resolve returns the record for key, registering it on first use.
// Null keys are never registered and return nil.
func (r *MaterialRegistry) Resolve(key MaterialKey, mat *Material, img *Image) *MaterialRecord {
	if key.IsNull() {
		return nil
	}
	if rec, ok := r.byKey[key]; ok {
		return rec
	}

	name := NameCompat(key.Material)
	if r.taken(name, key) {
		ext := "_NONE"
		if key.Image != "" {
			ext = "_" + NameCompat(key.Image)
		}
		for i := 0; r.taken(name+ext, key); i++ {
			ext = fmt.Sprintf("_%03d", i)
		}
		name += ext
	}

	rec := &MaterialRecord{Name: name, Key: key, Material: mat, Image: img}
	r.byKey[key] = rec
	r.byName[name] = key
	return rec
}

// Lookup returns the key registered under an export name.
func (r *MaterialRegistry) Lookup(name string) (MaterialKey, bool) {
	key, ok := r.byName[name]
	return key, ok
}

func (r *MaterialRegistry) Len() int {
	return len(r.byKey)
}

// Records returns all records sorted by export name.
func (r *MaterialRegistry) Records() []*MaterialRecord {
	records := make([]*MaterialRecord, 0, len(r.byKey))
	for _, rec := range r.byKey {
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b *MaterialRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return records
}
