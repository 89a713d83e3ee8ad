package math

// ExtentsOf returns the axis-aligned bounds of the xyz part of the given
// positions. Empty input yields zero extents.
func ExtentsOf(positions []Vec4) Extents3D {
	if len(positions) == 0 {
		return Extents3D{}
	}
	first := positions[0].Vec3()
	ext := Extents3D{Min: first, Max: first}
	for _, p := range positions[1:] {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < ext.Min[axis] {
				ext.Min[axis] = p[axis]
			}
			if p[axis] > ext.Max[axis] {
				ext.Max[axis] = p[axis]
			}
		}
	}
	return ext
}
