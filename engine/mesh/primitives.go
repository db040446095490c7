package mesh

import "github.com/chewxy/math32"

// CubeGeometry builds a unit-style cube centered at the origin with flat
// per-face normals (24 vertices, 12 triangles).
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - *Geometry: the cube geometry
func CubeGeometry(size float32) *Geometry {
	h := size / 2
	faces := [6]struct {
		normal  [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
	}

	g := &Geometry{}
	for _, f := range faces {
		base := uint32(len(g.Positions))
		for _, c := range f.corners {
			g.Positions = append(g.Positions, c)
			g.Normals = append(g.Normals, f.normal)
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// SphereGeometry builds a UV sphere centered at the origin. Higher segment
// and ring counts give the detail selection something worth simplifying.
//
// Parameters:
//   - radius: the sphere radius
//   - segments: longitudinal divisions (minimum 3)
//   - rings: latitudinal divisions (minimum 2)
//
// Returns:
//   - *Geometry: the sphere geometry
func SphereGeometry(radius float32, segments, rings int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	g := &Geometry{}
	for ring := 0; ring <= rings; ring++ {
		phi := math32.Pi * float32(ring) / float32(rings)
		y := math32.Cos(phi)
		r := math32.Sin(phi)
		for seg := 0; seg <= segments; seg++ {
			theta := 2 * math32.Pi * float32(seg) / float32(segments)
			n := [3]float32{r * math32.Cos(theta), y, r * math32.Sin(theta)}
			g.Normals = append(g.Normals, n)
			g.Positions = append(g.Positions, [3]float32{n[0] * radius, n[1] * radius, n[2] * radius})
		}
	}

	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := uint32(ring)*stride + uint32(seg)
			b := a + stride
			g.Indices = append(g.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return g
}
