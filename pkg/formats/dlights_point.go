package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/distantlights/pkg/math"
)

// dlPointSize is the encoded size of one point.
const dlPointSize = 6

// DLPoint is a single light position in the file's integer space.
type DLPoint struct {
	X int16
	Y int16
	Z int16
}

// Vector returns the point as a float vector.
func (p DLPoint) Vector() math.Vec3 {
	return math.Vec3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}

// SetVector stores v, rounding each axis half away from zero.
// Values outside the int16 range saturate.
func (p *DLPoint) SetVector(v math.Vec3) {
	p.X = math.RoundInt16(v.X)
	p.Y = math.RoundInt16(v.Y)
	p.Z = math.RoundInt16(v.Z)
}

// String returns the point as "X, Y, Z".
func (p DLPoint) String() string {
	return p.Vector().String()
}

// parseDLPoint reads one point record.
func parseDLPoint(r *bytes.Reader) (DLPoint, error) {
	var p DLPoint
	if err := binary.Read(r, binary.BigEndian, &p); err != nil {
		return DLPoint{}, fmt.Errorf("%w: reading point", ErrTruncatedDLData)
	}
	return p, nil
}

func (p *DLPoint) write(buf *bytes.Buffer) {
	_ = binary.Write(buf, binary.BigEndian, p)
}
