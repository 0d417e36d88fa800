package formats

import (
	"fmt"

	"github.com/Faultbox/distantlights/pkg/math"
)

// dlGridOrigin is the world coordinate of the grid's minimum corner on both axes.
const dlGridOrigin = 8192.0

// DLCell is one tile of the world grid.
type DLCell struct {
	Index uint32
	X     uint32
	Y     uint32
	Min   math.Vec2 // world-space minimum corner
	Max   math.Vec2 // world-space maximum corner

	// Paths1 and Paths2 view consecutive runs of the container's Groups.
	Paths1 []DLGroup
	Paths2 []DLGroup
}

// String returns a one line summary of the cell.
func (c *DLCell) String() string {
	return fmt.Sprintf("%d (%d, %d) - %d, %d - (%s - %s)",
		c.Index, c.X, c.Y, len(c.Paths1), len(c.Paths2), c.Min, c.Max)
}

// BuildCells derives Cells and each group's Nodes from the flat arrays.
// It must run again after any change to the arrays, Points or Groups.
// Ranges are bounds checked but overlap between cells is not; see CheckPartition.
func (dl *DistantLights) BuildCells() error {
	if uint64(dl.GridSize)*uint64(dl.GridSize) != uint64(dl.CellCount) {
		return fmt.Errorf("%w: grid size %d does not match cell count %d", ErrInconsistentDLIndex, dl.GridSize, dl.CellCount)
	}
	if err := dl.checkCellArrays(); err != nil {
		return err
	}

	for i := range dl.Groups {
		g := &dl.Groups[i]
		start, end := int(g.PointOffset), int(g.PointOffset)+int(g.PointCount)
		if end > len(dl.Points) {
			return fmt.Errorf("%w: group %d points [%d, %d) exceed %d points", ErrInconsistentDLIndex, i, start, end, len(dl.Points))
		}
		g.Nodes = dl.Points[start:end:end]
	}

	cells := make([]DLCell, dl.CellCount)
	cellSize := float32(dl.CellSize)
	for x := uint32(0); x < dl.GridSize; x++ {
		for y := uint32(0); y < dl.GridSize; y++ {
			i := x*dl.GridSize + y

			start := uint64(dl.PathIndices[i])
			mid := start + uint64(dl.PathCounts1[i])
			end := mid + uint64(dl.PathCounts2[i])
			if end > uint64(len(dl.Groups)) {
				return fmt.Errorf("%w: cell %d groups [%d, %d) exceed %d groups", ErrInconsistentDLIndex, i, start, end, len(dl.Groups))
			}

			cellMin := math.Vec2{X: float32(x), Y: float32(y)}.Scale(cellSize).Sub(math.Splat2(dlGridOrigin))
			cells[i] = DLCell{
				Index:  i,
				X:      x,
				Y:      y,
				Min:    cellMin,
				Max:    cellMin.Add(math.Splat2(cellSize)),
				Paths1: groupView(dl.Groups, start, mid),
				Paths2: groupView(dl.Groups, mid, end),
			}
		}
	}

	dl.Cells = cells
	return nil
}

// Cell returns the cell at grid coordinates (x, y), or nil when out of range
// or when cells have not been built.
func (dl *DistantLights) Cell(x, y int) *DLCell {
	if x < 0 || y < 0 || x >= int(dl.GridSize) || y >= int(dl.GridSize) {
		return nil
	}
	i := x*int(dl.GridSize) + y
	if i >= len(dl.Cells) {
		return nil
	}
	return &dl.Cells[i]
}

func (dl *DistantLights) checkCellArrays() error {
	n := uint64(dl.CellCount)
	if uint64(len(dl.PathIndices)) != n || uint64(len(dl.PathCounts1)) != n || uint64(len(dl.PathCounts2)) != n {
		return fmt.Errorf("%w: cell arrays have %d/%d/%d entries, cell count is %d", ErrInconsistentDLIndex,
			len(dl.PathIndices), len(dl.PathCounts1), len(dl.PathCounts2), dl.CellCount)
	}
	return nil
}

// groupView returns groups[start:end] with its capacity capped, or an empty
// non-nil slice for an empty range.
func groupView(groups []DLGroup, start, end uint64) []DLGroup {
	if start == end {
		return []DLGroup{}
	}
	return groups[start:end:end]
}
