package math

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// String formats the vector with the canonical float text.
func (v Vec3) String() string {
	return FormatFloat32(v.X) + ", " + FormatFloat32(v.Y) + ", " + FormatFloat32(v.Z)
}
