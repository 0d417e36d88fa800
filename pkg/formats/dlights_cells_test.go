package formats

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Faultbox/distantlights/pkg/math"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallDistantLights is a 2x2 grid with one group of two points in cell 0.
func smallDistantLights() *DistantLights {
	return &DistantLights{
		GridSize:    2,
		CellSize:    512,
		CellCount:   4,
		NodeCount:   2,
		PathCount:   1,
		PathIndices: []uint32{0, 0, 0, 0},
		PathCounts1: []uint32{1, 0, 0, 0},
		PathCounts2: []uint32{0, 0, 0, 0},
		Points:      []DLPoint{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}},
		Groups:      []DLGroup{{PointOffset: 0, PointCount: 2}},
	}
}

func TestBuildCells_SmallGrid(t *testing.T) {
	dl := smallDistantLights()
	require.NoError(t, dl.BuildCells())
	require.Len(t, dl.Cells, 4)

	c0 := dl.Cells[0]
	require.Len(t, c0.Paths1, 1)
	assert.Empty(t, c0.Paths2)
	assert.Equal(t, math.Vec2{X: -8192, Y: -8192}, c0.Min)
	assert.Equal(t, math.Vec2{X: -7680, Y: -7680}, c0.Max)
	assert.Equal(t, dl.Points, c0.Paths1[0].Nodes)

	for i := 1; i < 4; i++ {
		c := dl.Cells[i]
		assert.NotNil(t, c.Paths1, "cell %d Paths1", i)
		assert.NotNil(t, c.Paths2, "cell %d Paths2", i)
		assert.Empty(t, c.Paths1, "cell %d Paths1", i)
		assert.Empty(t, c.Paths2, "cell %d Paths2", i)
	}

	c01 := dl.Cell(0, 1)
	require.NotNil(t, c01)
	assert.Equal(t, uint32(1), c01.Index)
	assert.Equal(t, math.Vec2{X: -8192, Y: -7680}, c01.Min)

	c10 := dl.Cell(1, 0)
	require.NotNil(t, c10)
	assert.Equal(t, uint32(2), c10.Index)
	assert.Equal(t, math.Vec2{X: -7680, Y: -8192}, c10.Min)
}

func TestBuildCells_GridCoordinates(t *testing.T) {
	dl := testDistantLights(DLVariantHD)
	require.NoError(t, dl.BuildCells())

	for i, c := range dl.Cells {
		assert.Equal(t, uint32(i), c.Index)
		assert.Equal(t, c.Index, c.X*dl.GridSize+c.Y)
		assert.Equal(t, c.Min.Add(math.Splat2(512)), c.Max)
	}

	last := dl.Cell(31, 31)
	require.NotNil(t, last)
	assert.Equal(t, math.Vec2{X: 8192, Y: 8192}, last.Max)
}

func TestBuildCells_CountsMatch(t *testing.T) {
	for _, v := range []DLVariant{DLVariantSD, DLVariantHD} {
		dl := testDistantLights(v)
		require.NoError(t, dl.BuildCells())

		var joined []DLGroup
		for i, c := range dl.Cells {
			assert.Len(t, c.Paths1, int(dl.PathCounts1[i]))
			assert.Len(t, c.Paths2, int(dl.PathCounts2[i]))
			joined = append(joined, c.Paths1...)
			joined = append(joined, c.Paths2...)
		}
		// A valid partition yields every group once, in order.
		assert.Equal(t, dl.Groups, joined)
	}
}

func TestBuildCells_ViewsShareStorage(t *testing.T) {
	dl := testDistantLights(DLVariantSD)
	require.NoError(t, dl.BuildCells())

	dl.Groups[1].Radius = 999
	assert.Equal(t, int16(999), dl.Cells[0].Paths1[1].Radius)

	dl.Points[3].X = -1
	assert.Equal(t, int16(-1), dl.Groups[3].Nodes[0].X)

	// Capped views cannot grow into a neighbour's groups.
	grown := append(dl.Cells[0].Paths1, DLGroup{Radius: 1})
	assert.Equal(t, int16(52), dl.Groups[2].Radius)
	assert.Len(t, grown, 3)
}

func TestBuildCells_NoPaths(t *testing.T) {
	dl := NewDistantLights(DLVariantSD)
	dl.Groups = nil
	require.NoError(t, dl.BuildCells())
	require.Len(t, dl.Cells, 256)
	for _, c := range dl.Cells {
		assert.NotNil(t, c.Paths1)
		assert.NotNil(t, c.Paths2)
		assert.Empty(t, c.Paths1)
		assert.Empty(t, c.Paths2)
	}
}

func TestBuildCells_Rebuild(t *testing.T) {
	dl := smallDistantLights()
	require.NoError(t, dl.BuildCells())

	dl.PathCounts1[0] = 0
	dl.PathCounts2[3] = 1
	require.NoError(t, dl.BuildCells())
	assert.Empty(t, dl.Cells[0].Paths1)
	assert.Len(t, dl.Cells[3].Paths2, 1)
}

func TestBuildCells_Inconsistent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(dl *DistantLights)
	}{
		{"group points out of range", func(dl *DistantLights) { dl.Groups[0].PointCount = 3 }},
		{"group offset out of range", func(dl *DistantLights) { dl.Groups[0].PointOffset = 2; dl.Groups[0].PointCount = 1 }},
		{"cell paths1 out of range", func(dl *DistantLights) { dl.PathCounts1[2] = 2 }},
		{"cell paths2 out of range", func(dl *DistantLights) { dl.PathIndices[1] = 1; dl.PathCounts2[1] = 1 }},
		{"grid size mismatch", func(dl *DistantLights) { dl.GridSize = 3 }},
		{"short array", func(dl *DistantLights) { dl.PathCounts2 = dl.PathCounts2[:3] }},
		{"huge index", func(dl *DistantLights) { dl.PathIndices[0] = 0xFFFFFFFF }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dl := smallDistantLights()
			tc.mutate(dl)
			err := dl.BuildCells()
			if !errors.Is(err, ErrInconsistentDLIndex) {
				t.Errorf("expected ErrInconsistentDLIndex, got %v", err)
			}
		})
	}
}

func TestDistantLights_CellOutOfRange(t *testing.T) {
	dl := smallDistantLights()
	assert.Nil(t, dl.Cell(0, 0), "cells not built yet")

	require.NoError(t, dl.BuildCells())
	assert.NotNil(t, dl.Cell(1, 1))
	assert.Nil(t, dl.Cell(-1, 0))
	assert.Nil(t, dl.Cell(0, 2))
	assert.Nil(t, dl.Cell(2, 0))
}

func TestDLCell_String(t *testing.T) {
	dl := smallDistantLights()
	require.NoError(t, dl.BuildCells())
	assert.Equal(t, "1 (0, 1) - 0, 0 - (-8192, -7680 - -7680, -7168)", dl.Cells[1].String())
}

func TestCheckPartition(t *testing.T) {
	clean := testDistantLights(DLVariantSD)
	assert.Empty(t, clean.CheckPartition())
	assert.Empty(t, smallDistantLights().CheckPartition())

	tests := []struct {
		name   string
		mutate func(dl *DistantLights)
		want   []DLPartitionIssue
	}{
		{
			name:   "gap",
			mutate: func(dl *DistantLights) { dl.PathIndices[3] = 4; dl.PathCounts2[3] = 1 },
			want: []DLPartitionIssue{
				{Kind: DLIssueGap, Cell: 3, Start: 3, End: 4},
			},
		},
		{
			name:   "overlap",
			mutate: func(dl *DistantLights) { dl.PathIndices[17] = 4; dl.PathCounts1[17] = 2 },
			want: []DLPartitionIssue{
				{Kind: DLIssueOverlap, Cell: 17, Start: 4, End: 5},
			},
		},
		{
			name:   "tail",
			mutate: func(dl *DistantLights) { dl.PathCounts1[17] = 0 },
			want: []DLPartitionIssue{
				{Kind: DLIssueTail, Cell: 3, Start: 5, End: 6},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dl := testDistantLights(DLVariantSD)
			tc.mutate(dl)
			mutated := append([]uint32(nil), dl.PathIndices...)

			assert.Equal(t, tc.want, dl.CheckPartition())
			assert.Equal(t, mutated, dl.PathIndices, "check must not modify data")
		})
	}
}

func TestDLPartitionIssue_String(t *testing.T) {
	issue := DLPartitionIssue{Kind: DLIssueOverlap, Cell: 9, Start: 2, End: 4}
	assert.Equal(t, "Overlap at cell 9: groups [2, 4)", issue.String())
	assert.Equal(t, "Unknown(42)", DLIssueKind(42).String())
}

func TestDistantLights_Validate(t *testing.T) {
	assert.NoError(t, testDistantLights(DLVariantHD).Validate())

	dl := smallDistantLights()
	dl.GridSize = 3
	dl.Groups[0].PointCount = 5
	dl.PathCounts2[1] = 4
	dl.NodeCount = 9

	err := dl.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentDLIndex)

	var joined interface{ Unwrap() []error }
	require.ErrorAs(t, err, &joined)
	assert.Len(t, joined.Unwrap(), 4)
}

func TestDLPoint_Vector(t *testing.T) {
	p := DLPoint{X: -3, Y: 0, Z: 32767}
	assert.Equal(t, math.Vec3{X: -3, Y: 0, Z: 32767}, p.Vector())
	assert.Equal(t, "-3, 0, 32767", p.String())

	tests := []struct {
		in   math.Vec3
		want DLPoint
	}{
		{math.Vec3{X: 0.5, Y: -0.5, Z: 1.49}, DLPoint{X: 1, Y: -1, Z: 1}},
		{math.Vec3{X: 2.5, Y: -2.5, Z: 3.5}, DLPoint{X: 3, Y: -3, Z: 4}},
		{math.Vec3{X: 99999, Y: -99999, Z: -0.2}, DLPoint{X: 32767, Y: -32768, Z: 0}},
	}
	for _, tc := range tests {
		var got DLPoint
		got.SetVector(tc.in)
		if got != tc.want {
			t.Errorf("SetVector(%v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDLGroup_Center(t *testing.T) {
	var g DLGroup
	g.SetCenter(math.Vec3{X: 10.5, Y: -10.5, Z: 0.4})
	assert.Equal(t, int16(11), g.CenterX)
	assert.Equal(t, int16(-11), g.CenterY)
	assert.Equal(t, int16(0), g.CenterZ)
	assert.Equal(t, math.Vec3{X: 11, Y: -11, Z: 0}, g.Center())
}

func TestDLGroup_String(t *testing.T) {
	g := DLGroup{CenterX: 1, CenterY: -2, CenterZ: 3, Radius: 4, PointOffset: 5, PointCount: 6,
		Flags: 7, DisplayProperties: 8, DistanceOffset: 0.5, RandomSeed1: 9, RandomSeed2: 10, RandomSeed3: 11, RandomSeed4: 12}
	assert.Equal(t, "1, -2, 3, 4, 5, 6, 7, 8, 0.5, 9, 10, 11, 12", g.String())
}

func TestDLGroup_RecordSize(t *testing.T) {
	g := DLGroup{CenterX: -1, Radius: 300, PointCount: 2, Flags: 1, DistanceOffset: 1.5, RandomSeed4: 4}

	var hd bytes.Buffer
	g.write(&hd, DLVariantHD)
	assert.Equal(t, 24, hd.Len())
	assert.Equal(t, DLVariantHD.GroupRecordSize(), hd.Len())

	var sd bytes.Buffer
	g.write(&sd, DLVariantSD)
	assert.Equal(t, DLVariantSD.GroupRecordSize(), sd.Len())
	assert.Equal(t, dlGroupCoreSize+2, sd.Len())

	back, err := parseDLGroup(bytes.NewReader(hd.Bytes()), DLVariantHD)
	require.NoError(t, err)
	assert.Equal(t, g, back)

	// SD drops the HD-only fields.
	back, err = parseDLGroup(bytes.NewReader(sd.Bytes()), DLVariantSD)
	require.NoError(t, err)
	assert.Equal(t, DLGroup{CenterX: -1, Radius: 300, PointCount: 2}, back)
}

func TestDLPoint_RecordSize(t *testing.T) {
	p := DLPoint{X: -2, Y: 0x1234, Z: 7}
	var buf bytes.Buffer
	p.write(&buf)
	assert.Equal(t, []byte{0xFF, 0xFE, 0x12, 0x34, 0x00, 0x07}, buf.Bytes())

	back, err := parseDLPoint(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = parseDLPoint(bytes.NewReader(buf.Bytes()[:5]))
	assert.ErrorIs(t, err, ErrTruncatedDLData)
}
