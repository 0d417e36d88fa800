package formats

import (
	"errors"
	"fmt"
)

// DLIssueKind classifies a partition issue.
type DLIssueKind int

// Partition issue kinds.
const (
	DLIssueGap     DLIssueKind = iota // groups skipped between two cells
	DLIssueOverlap                    // a cell starts inside the previous cell's run
	DLIssueTail                       // groups after the last cell's run
)

// String returns a human-readable kind name.
func (k DLIssueKind) String() string {
	switch k {
	case DLIssueGap:
		return "Gap"
	case DLIssueOverlap:
		return "Overlap"
	case DLIssueTail:
		return "Tail"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// DLPartitionIssue describes a place where the per-cell group runs do not
// tile the Groups array exactly.
type DLPartitionIssue struct {
	Kind  DLIssueKind
	Cell  uint32 // cell where the issue was found
	Start uint64 // first affected group
	End   uint64 // one past the last affected group
}

// String returns a one line description.
func (i DLPartitionIssue) String() string {
	return fmt.Sprintf("%s at cell %d: groups [%d, %d)", i.Kind, i.Cell, i.Start, i.End)
}

// CheckPartition reports gaps and overlaps in the per-cell group runs.
// Cells are visited in index order; empty cells are skipped. The data is
// never modified, and a nil result means the runs tile Groups exactly.
func (dl *DistantLights) CheckPartition() []DLPartitionIssue {
	var issues []DLPartitionIssue
	n := min(len(dl.PathIndices), len(dl.PathCounts1), len(dl.PathCounts2))

	var next uint64
	var last uint32
	for i := 0; i < n; i++ {
		count := uint64(dl.PathCounts1[i]) + uint64(dl.PathCounts2[i])
		if count == 0 {
			continue
		}
		start := uint64(dl.PathIndices[i])
		switch {
		case start > next:
			issues = append(issues, DLPartitionIssue{Kind: DLIssueGap, Cell: uint32(i), Start: next, End: start})
		case start < next:
			issues = append(issues, DLPartitionIssue{Kind: DLIssueOverlap, Cell: uint32(i), Start: start, End: min(next, start+count)})
		}
		next = max(next, start+count)
		last = uint32(i)
	}

	if total := uint64(len(dl.Groups)); next < total {
		issues = append(issues, DLPartitionIssue{Kind: DLIssueTail, Cell: last, Start: next, End: total})
	}
	return issues
}

// Validate checks every structural invariant and returns all violations
// joined together, or nil.
func (dl *DistantLights) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInconsistentDLIndex}, args...)...))
	}

	if uint64(dl.GridSize)*uint64(dl.GridSize) != uint64(dl.CellCount) {
		fail("grid size %d does not match cell count %d", dl.GridSize, dl.CellCount)
	}
	if err := dl.checkEncodable(); err != nil {
		errs = append(errs, err)
	}

	for i := range dl.Groups {
		g := &dl.Groups[i]
		if end := uint64(g.PointOffset) + uint64(g.PointCount); end > uint64(len(dl.Points)) {
			fail("group %d points end at %d, have %d", i, end, len(dl.Points))
		}
	}

	n := min(len(dl.PathIndices), len(dl.PathCounts1), len(dl.PathCounts2))
	for i := 0; i < n; i++ {
		end := uint64(dl.PathIndices[i]) + uint64(dl.PathCounts1[i]) + uint64(dl.PathCounts2[i])
		if end > uint64(len(dl.Groups)) {
			fail("cell %d groups end at %d, have %d", i, end, len(dl.Groups))
		}
	}

	return errors.Join(errs...)
}
