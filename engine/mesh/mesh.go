package mesh

import (
	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/chewxy/math32"
)

// Geometry holds CPU-side triangle mesh data. It is the unit the variant cache
// simplifies and the representations upload. A Geometry is immutable once
// handed to the variant cache; per-instance tweaks must operate on a Clone.
type Geometry struct {
	// Positions holds one world-unit position per vertex.
	Positions []common.Vec3
	// Normals holds one unit normal per vertex. May be empty for geometry that
	// is shaded flat; when present it must match len(Positions).
	Normals []common.Vec3
	// Indices holds triangle indices into Positions, three per triangle.
	Indices []uint32
}

// Material holds the shading parameters for an asset at a given detail level.
// It is a plain value type; the variant cache copies it on simplification so
// the source asset's material is never mutated.
type Material struct {
	// Name is the material identifier.
	Name string
	// BaseColor is the albedo color (RGBA).
	BaseColor common.Color
	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32
	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32
	// TextureResolution is the edge size in texels of the material's textures.
	// Simplified variants halve this per detail level.
	TextureResolution int
	// NormalMapped reports whether the material carries a normal map. Distant
	// detail levels drop normal mapping entirely.
	NormalMapped bool
}

// Asset bundles the full-detail geometry and material for one source asset.
// Assets are shared read-only by every scene object that references them; the
// variant cache derives all simplified levels from this source.
type Asset struct {
	// ID uniquely identifies the source asset across the session.
	ID string
	// Geometry is the full-detail mesh, or nil for assets that are
	// material-only (e.g. decals).
	Geometry *Geometry
	// Material is the full-detail material.
	Material Material
}

// VertexCount returns the number of vertices in the geometry.
//
// Returns:
//   - int: the vertex count
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions)
}

// TriangleCount returns the number of triangles in the geometry.
//
// Returns:
//   - int: the triangle count
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

// Clone returns a deep copy of the geometry.
//
// Returns:
//   - *Geometry: the copied geometry, or nil if the receiver is nil
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	out := &Geometry{
		Positions: make([]common.Vec3, len(g.Positions)),
		Normals:   make([]common.Vec3, len(g.Normals)),
		Indices:   make([]uint32, len(g.Indices)),
	}
	copy(out.Positions, g.Positions)
	copy(out.Normals, g.Normals)
	copy(out.Indices, g.Indices)
	return out
}

// BoundingRadius returns the radius of the origin-centered bounding sphere,
// used for distance-based selection of container children and culling.
//
// Returns:
//   - float32: the bounding sphere radius, 0 for empty geometry
func (g *Geometry) BoundingRadius() float32 {
	if g == nil {
		return 0
	}
	var maxSq float32
	for _, p := range g.Positions {
		d := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if d > maxSq {
			maxSq = d
		}
	}
	return math32.Sqrt(maxSq)
}
