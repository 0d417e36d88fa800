package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/distantlights/pkg/math"
)

// Group record sizes.
const (
	dlGroupCoreSize   = 12
	dlGroupHDTailSize = 12
	dlGroupSDTailSize = 2
)

// DLGroup is a cluster of lights (a "path" in the file) sharing a centre,
// radius and display attributes. It references a contiguous run of Points.
type DLGroup struct {
	CenterX     int16
	CenterY     int16
	CenterZ     int16
	Radius      int16
	PointOffset uint16
	PointCount  uint16

	// HD only; zero in SD files.
	Flags             uint16
	DisplayProperties uint16
	DistanceOffset    float32

	RandomSeed1 uint8
	RandomSeed2 uint8
	RandomSeed3 uint8 // HD only
	RandomSeed4 uint8 // HD only

	// Nodes views Points[PointOffset:PointOffset+PointCount]. Set by BuildCells.
	Nodes []DLPoint
}

// dlGroupCore mirrors the fixed part of a group record.
type dlGroupCore struct {
	CenterX     int16
	CenterY     int16
	CenterZ     int16
	Radius      int16
	PointOffset uint16
	PointCount  uint16
}

// dlGroupHDTail mirrors the HD extension of a group record.
type dlGroupHDTail struct {
	Flags             uint16
	DisplayProperties uint16
	DistanceOffset    float32
	RandomSeeds       [4]uint8
}

// Center returns the group centre as a float vector.
func (g *DLGroup) Center() math.Vec3 {
	return math.Vec3{X: float32(g.CenterX), Y: float32(g.CenterY), Z: float32(g.CenterZ)}
}

// SetCenter stores v with the same rounding as DLPoint.SetVector.
func (g *DLGroup) SetCenter(v math.Vec3) {
	g.CenterX = math.RoundInt16(v.X)
	g.CenterY = math.RoundInt16(v.Y)
	g.CenterZ = math.RoundInt16(v.Z)
}

// String returns all record fields as a comma separated line.
func (g *DLGroup) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d, %d, %d, %s, %d, %d, %d, %d",
		g.CenterX, g.CenterY, g.CenterZ, g.Radius,
		g.PointOffset, g.PointCount, g.Flags, g.DisplayProperties,
		math.FormatFloat32(g.DistanceOffset),
		g.RandomSeed1, g.RandomSeed2, g.RandomSeed3, g.RandomSeed4)
}

// parseDLGroup reads one group record in the given variant's layout.
func parseDLGroup(r *bytes.Reader, v DLVariant) (DLGroup, error) {
	var core dlGroupCore
	if err := binary.Read(r, binary.BigEndian, &core); err != nil {
		return DLGroup{}, fmt.Errorf("%w: reading group core", ErrTruncatedDLData)
	}

	g := DLGroup{
		CenterX:     core.CenterX,
		CenterY:     core.CenterY,
		CenterZ:     core.CenterZ,
		Radius:      core.Radius,
		PointOffset: core.PointOffset,
		PointCount:  core.PointCount,
	}

	if v == DLVariantHD {
		var tail dlGroupHDTail
		if err := binary.Read(r, binary.BigEndian, &tail); err != nil {
			return DLGroup{}, fmt.Errorf("%w: reading HD group tail", ErrTruncatedDLData)
		}
		g.Flags = tail.Flags
		g.DisplayProperties = tail.DisplayProperties
		g.DistanceOffset = tail.DistanceOffset
		g.RandomSeed1 = tail.RandomSeeds[0]
		g.RandomSeed2 = tail.RandomSeeds[1]
		g.RandomSeed3 = tail.RandomSeeds[2]
		g.RandomSeed4 = tail.RandomSeeds[3]
		return g, nil
	}

	var seeds [2]uint8
	if err := binary.Read(r, binary.BigEndian, &seeds); err != nil {
		return DLGroup{}, fmt.Errorf("%w: reading group seeds", ErrTruncatedDLData)
	}
	g.RandomSeed1 = seeds[0]
	g.RandomSeed2 = seeds[1]
	return g, nil
}

func (g *DLGroup) write(buf *bytes.Buffer, v DLVariant) {
	_ = binary.Write(buf, binary.BigEndian, dlGroupCore{
		CenterX:     g.CenterX,
		CenterY:     g.CenterY,
		CenterZ:     g.CenterZ,
		Radius:      g.Radius,
		PointOffset: g.PointOffset,
		PointCount:  g.PointCount,
	})

	if v == DLVariantHD {
		_ = binary.Write(buf, binary.BigEndian, dlGroupHDTail{
			Flags:             g.Flags,
			DisplayProperties: g.DisplayProperties,
			DistanceOffset:    g.DistanceOffset,
			RandomSeeds:       [4]uint8{g.RandomSeed1, g.RandomSeed2, g.RandomSeed3, g.RandomSeed4},
		})
		return
	}
	_ = binary.Write(buf, binary.BigEndian, [2]uint8{g.RandomSeed1, g.RandomSeed2})
}
