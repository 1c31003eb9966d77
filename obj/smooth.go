package obj

type edgeKey [2]int

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// faceAdjacency returns faces sharing each edge.
func faceAdjacency(m *Mesh) map[edgeKey][]int {
	adj := map[edgeKey][]int{}
	for fi := range m.Faces {
		verts := m.FaceVerts(&m.Faces[fi])
		for i, v := range verts {
			k := newEdgeKey(v, verts[(i+1)%len(verts)])
			adj[k] = append(adj[k], fi)
		}
	}
	return adj
}

// ComputeSmoothGroups partitions faces into regions connected through
// smooth faces and non-sharp edges. Every face gets a group id >= 1. With
// bitflags, ids are powers of two and neighbouring regions never share a
// bit. It returns nil when there is at most one region.
func ComputeSmoothGroups(m *Mesh, bitflags bool) ([]int, int) {
	if len(m.Faces) == 0 {
		return nil, 0
	}
	sharp := map[edgeKey]bool{}
	for _, e := range m.Edges {
		if e.Sharp {
			sharp[newEdgeKey(e.Verts[0], e.Verts[1])] = true
		}
	}
	adj := faceAdjacency(m)

	region := make([]int, len(m.Faces))
	count := 0
	for start := range m.Faces {
		if region[start] != 0 {
			continue
		}
		count++
		region[start] = count
		stack := []int{start}
		for len(stack) > 0 {
			fi := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !m.Faces[fi].Smooth {
				continue
			}
			verts := m.FaceVerts(&m.Faces[fi])
			for i, v := range verts {
				k := newEdgeKey(v, verts[(i+1)%len(verts)])
				if sharp[k] {
					continue
				}
				for _, nf := range adj[k] {
					if region[nf] == 0 && m.Faces[nf].Smooth {
						region[nf] = count
						stack = append(stack, nf)
					}
				}
			}
		}
	}
	if count <= 1 {
		return nil, 0
	}
	if !bitflags {
		return region, count
	}

	// neighbour regions across any shared edge
	neighbours := make([]map[int]bool, count+1)
	for _, faces := range adj {
		for _, a := range faces {
			for _, b := range faces {
				ra, rb := region[a], region[b]
				if ra == rb {
					continue
				}
				if neighbours[ra] == nil {
					neighbours[ra] = map[int]bool{}
				}
				neighbours[ra][rb] = true
			}
		}
	}
	flags := make([]int, count+1)
	for r := 1; r <= count; r++ {
		used := 0
		for n := range neighbours[r] {
			used |= flags[n]
		}
		bit := 1
		for bit != 1<<31 && used&bit != 0 {
			bit <<= 1
		}
		flags[r] = bit
	}
	groups := make([]int, len(m.Faces))
	for fi, r := range region {
		groups[fi] = flags[r]
	}
	return groups, count
}
