package obj

import (
	"golang.org/x/exp/slices"
)

type faceSortKey struct {
	material int
	image    int
	smooth   int
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// compareFaceKeys orders by material, then image, then smoothing state.
func compareFaceKeys(a, b faceSortKey) int {
	if c := compareInt(a.material, b.material); c != 0 {
		return c
	}
	if c := compareInt(a.image, b.image); c != 0 {
		return c
	}
	return compareInt(a.smooth, b.smooth)
}

// faceSortKeys builds one key per face. Image names are numbered by first
// appearance (0: no image) and only take part when useUV is set. Smoothing
// groups replace the smooth flag when given.
func faceSortKeys(m *Mesh, smoothGroups []int, useUV bool) []faceSortKey {
	keys := make([]faceSortKey, len(m.Faces))
	images := map[string]int{}
	for i := range m.Faces {
		f := &m.Faces[i]
		k := faceSortKey{material: f.Material}
		if useUV && f.Image != nil && f.Image.Name != "" {
			id, ok := images[f.Image.Name]
			if !ok {
				id = len(images) + 1
				images[f.Image.Name] = id
			}
			k.image = id
		}
		if f.Smooth {
			k.smooth = 1
			if smoothGroups != nil {
				k.smooth = smoothGroups[i]
			}
		}
		keys[i] = k
	}
	return keys
}

// SortFaces returns a permutation of face indices that keeps faces sharing
// material, image and smoothing state together. Ties keep input order.
func SortFaces(m *Mesh, smoothGroups []int, useUV bool) []int {
	keys := faceSortKeys(m, smoothGroups, useUV)
	order := identityOrder(len(m.Faces))
	slices.SortStableFunc(order, func(a, b int) int {
		return compareFaceKeys(keys[a], keys[b])
	})
	return order
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
