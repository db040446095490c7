package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/chewxy/math32"
)

// minTextureResolution is the floor applied when halving texture resolution
// for simplified material variants.
const minTextureResolution = 64

// DetailRatio returns the target vertex ratio for a detail level.
// Level 0 is the unmodified source (ratio 1.0); each further level halves the
// target vertex count.
//
// Parameters:
//   - level: the detail level (0 = full detail)
//
// Returns:
//   - float32: the target ratio in (0, 1]
func DetailRatio(level int) float32 {
	if level <= 0 {
		return 1
	}
	return 1 / float32(int32(1)<<uint(level))
}

// SimplifyGeometry produces a reduced copy of g targeting ratio × the source
// vertex count, using uniform-grid vertex clustering: vertices are snapped to
// grid cells sized from the target count, welded per cell, and degenerate
// triangles dropped. The source geometry is never modified.
//
// Parameters:
//   - g: the source geometry
//   - ratio: target vertex ratio in (0, 1]; 1 returns a plain clone
//
// Returns:
//   - *Geometry: the simplified geometry
//   - error: error if the source is empty, the ratio is out of range, or
//     clustering collapses the mesh to zero triangles
func SimplifyGeometry(g *Geometry, ratio float32) (*Geometry, error) {
	if g == nil || len(g.Positions) == 0 || len(g.Indices) < 3 {
		return nil, fmt.Errorf("simplify: source geometry is empty")
	}
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("simplify: ratio %v out of range (0, 1]", ratio)
	}
	if ratio == 1 {
		return g.Clone(), nil
	}

	// Bounding box of the source positions.
	lo, hi := g.Positions[0], g.Positions[0]
	for _, p := range g.Positions {
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], p[i])
			hi[i] = math32.Max(hi[i], p[i])
		}
	}

	// Grid resolution: cube root of the target vertex count per axis. Clamped
	// to at least 1 cell per axis so flat meshes still cluster.
	target := math32.Max(float32(len(g.Positions))*ratio, 4)
	cells := math32.Max(math32.Floor(math32.Cbrt(target)), 1)
	ext := common.Vec3{
		math32.Max(hi[0]-lo[0], 1e-6),
		math32.Max(hi[1]-lo[1], 1e-6),
		math32.Max(hi[2]-lo[2], 1e-6),
	}

	cellOf := func(p common.Vec3) [3]int32 {
		var c [3]int32
		for i := 0; i < 3; i++ {
			f := (p[i] - lo[i]) / ext[i] * cells
			c[i] = int32(math32.Min(f, cells-1))
		}
		return c
	}

	// Weld vertices per cell, averaging positions and normals.
	type cluster struct {
		index   uint32
		count   float32
		pos     common.Vec3
		norm    common.Vec3
		hasNorm bool
	}
	clusters := make(map[[3]int32]*cluster)
	remap := make([]uint32, len(g.Positions))
	hasNormals := len(g.Normals) == len(g.Positions)

	out := &Geometry{}
	for vi, p := range g.Positions {
		key := cellOf(p)
		cl, ok := clusters[key]
		if !ok {
			cl = &cluster{index: uint32(len(out.Positions)), hasNorm: hasNormals}
			clusters[key] = cl
			out.Positions = append(out.Positions, common.Vec3{})
			if hasNormals {
				out.Normals = append(out.Normals, common.Vec3{})
			}
		}
		for i := 0; i < 3; i++ {
			cl.pos[i] += p[i]
			if hasNormals {
				cl.norm[i] += g.Normals[vi][i]
			}
		}
		cl.count++
		remap[vi] = cl.index
	}
	for _, cl := range clusters {
		inv := 1 / cl.count
		for i := 0; i < 3; i++ {
			out.Positions[cl.index][i] = cl.pos[i] * inv
		}
		if cl.hasNorm {
			n := common.Vec3{cl.norm[0], cl.norm[1], cl.norm[2]}
			length := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
			if length > 1e-6 {
				for i := 0; i < 3; i++ {
					out.Normals[cl.index][i] = n[i] / length
				}
			}
		}
	}

	// Rebuild indices, dropping triangles whose corners collapsed together.
	for t := 0; t+2 < len(g.Indices); t += 3 {
		a := remap[g.Indices[t]]
		b := remap[g.Indices[t+1]]
		c := remap[g.Indices[t+2]]
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	if len(out.Indices) == 0 {
		return nil, fmt.Errorf("simplify: ratio %v collapsed mesh to zero triangles", ratio)
	}

	return out, nil
}

// SimplifyMaterial derives the material variant for a detail level: texture
// resolution halves per level (floored at 64 texels) and normal mapping is
// dropped from level 2 onward. Level 0 returns the source unchanged.
//
// Parameters:
//   - m: the source material
//   - level: the detail level (0 = full detail)
//
// Returns:
//   - Material: the derived material variant
func SimplifyMaterial(m Material, level int) Material {
	if level <= 0 {
		return m
	}
	out := m
	for i := 0; i < level && out.TextureResolution > minTextureResolution; i++ {
		out.TextureResolution /= 2
	}
	if out.TextureResolution < minTextureResolution && m.TextureResolution >= minTextureResolution {
		out.TextureResolution = minTextureResolution
	}
	if level >= 2 {
		out.NormalMapped = false
	}
	return out
}
