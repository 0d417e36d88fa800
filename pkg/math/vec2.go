// Package math provides the small vector and number helpers shared by the format codecs.
package math

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Splat2 returns a vector with both components set to s.
func Splat2(s float32) Vec2 {
	return Vec2{s, s}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// String formats the vector with the canonical float text.
func (v Vec2) String() string {
	return FormatFloat32(v.X) + ", " + FormatFloat32(v.Y)
}
