// Package formats provides codecs for game resource file formats.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Distant lights format errors.
var (
	ErrTruncatedDLData     = errors.New("truncated distant lights data")
	ErrInvalidDLDocument   = errors.New("invalid distant lights document")
	ErrInconsistentDLIndex = errors.New("inconsistent distant lights index")
)

// dlHDSuffix marks entries that use the HD record layout.
const dlHDSuffix = "_hd.dat"

// dlHeaderSize is NodeCount + PathCount.
const dlHeaderSize = 8

// DLVariant selects the on-disk layout of a distant lights file.
// The stream carries no tag for it; it comes from the entry name.
type DLVariant uint8

// Variants.
const (
	DLVariantSD DLVariant = iota // 16x16 grid, short group records
	DLVariantHD                  // 32x32 grid, extended group records
)

// String returns the variant name.
func (v DLVariant) String() string {
	switch v {
	case DLVariantSD:
		return "SD"
	case DLVariantHD:
		return "HD"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(v))
	}
}

// DLVariantForEntry picks the variant from an archive entry name.
func DLVariantForEntry(name string) DLVariant {
	if strings.HasSuffix(strings.ToLower(name), dlHDSuffix) {
		return DLVariantHD
	}
	return DLVariantSD
}

// DLLayout holds the grid dimensions implied by a variant.
type DLLayout struct {
	GridSize  uint32
	CellSize  uint32
	CellCount uint32
}

// Layout returns the grid dimensions used by files of this variant.
func (v DLVariant) Layout() DLLayout {
	if v == DLVariantHD {
		return DLLayout{GridSize: 32, CellSize: 512, CellCount: 1024}
	}
	return DLLayout{GridSize: 16, CellSize: 1024, CellCount: 256}
}

// GroupRecordSize returns the encoded size of one group record.
func (v DLVariant) GroupRecordSize() int {
	if v == DLVariantHD {
		return dlGroupCoreSize + dlGroupHDTailSize
	}
	return dlGroupCoreSize + dlGroupSDTailSize
}

// DistantLights represents a parsed distant lights file.
//
// Points, Groups and the three per-cell arrays are the source of truth.
// Cells is derived from them by BuildCells and is never encoded.
type DistantLights struct {
	HD        bool
	GridSize  uint32
	CellSize  uint32
	CellCount uint32
	NodeCount uint32
	PathCount uint32

	PathIndices []uint32 // first group of each cell
	PathCounts1 []uint32 // groups in the first membership class
	PathCounts2 []uint32 // groups in the second, following the first

	Points []DLPoint
	Groups []DLGroup
	Cells  []DLCell
}

// NewDistantLights returns an empty container with the variant's grid
// layout and zeroed per-cell arrays.
func NewDistantLights(v DLVariant) *DistantLights {
	layout := v.Layout()
	return &DistantLights{
		HD:          v == DLVariantHD,
		GridSize:    layout.GridSize,
		CellSize:    layout.CellSize,
		CellCount:   layout.CellCount,
		PathIndices: make([]uint32, layout.CellCount),
		PathCounts1: make([]uint32, layout.CellCount),
		PathCounts2: make([]uint32, layout.CellCount),
		Points:      []DLPoint{},
		Groups:      []DLGroup{},
	}
}

// Variant returns the variant matching the HD flag.
func (dl *DistantLights) Variant() DLVariant {
	if dl.HD {
		return DLVariantHD
	}
	return DLVariantSD
}

// LoadDistantLights reads and parses a distant lights file from disk.
// The variant is chosen from the file's base name.
func LoadDistantLights(path string) (*DistantLights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseDistantLightsEntry(data, filepath.Base(path))
}

// ParseDistantLightsEntry parses data using the variant implied by entryName.
func ParseDistantLightsEntry(data []byte, entryName string) (*DistantLights, error) {
	return ParseDistantLights(data, DLVariantForEntry(entryName))
}

// ParseDistantLights parses a distant lights file from raw bytes and builds
// its cell grid.
func ParseDistantLights(data []byte, v DLVariant) (*DistantLights, error) {
	dl, err := ParseDistantLightsRecords(data, v)
	if err != nil {
		return nil, err
	}
	if err := dl.BuildCells(); err != nil {
		return nil, err
	}
	return dl, nil
}

// ParseDistantLightsRecords decodes the header, per-cell arrays, points and
// groups without building cells. Index ranges are not checked, so the result
// can be passed to Validate before BuildCells.
func ParseDistantLightsRecords(data []byte, v DLVariant) (*DistantLights, error) {
	if len(data) < dlHeaderSize {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedDLData)
	}

	dl := NewDistantLights(v)
	r := bytes.NewReader(data)

	if err := binary.Read(r, binary.BigEndian, &dl.NodeCount); err != nil {
		return nil, fmt.Errorf("%w: reading node count", ErrTruncatedDLData)
	}
	if err := binary.Read(r, binary.BigEndian, &dl.PathCount); err != nil {
		return nil, fmt.Errorf("%w: reading path count", ErrTruncatedDLData)
	}

	// Check the whole size up front so header counts cannot force large
	// allocations on short input.
	need := dlHeaderSize +
		3*4*uint64(dl.CellCount) +
		dlPointSize*uint64(dl.NodeCount) +
		uint64(v.GroupRecordSize())*uint64(dl.PathCount)
	if uint64(len(data)) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedDLData, need, len(data))
	}

	if err := binary.Read(r, binary.BigEndian, dl.PathIndices); err != nil {
		return nil, fmt.Errorf("%w: reading path indices", ErrTruncatedDLData)
	}
	if err := binary.Read(r, binary.BigEndian, dl.PathCounts1); err != nil {
		return nil, fmt.Errorf("%w: reading path counts 1", ErrTruncatedDLData)
	}
	if err := binary.Read(r, binary.BigEndian, dl.PathCounts2); err != nil {
		return nil, fmt.Errorf("%w: reading path counts 2", ErrTruncatedDLData)
	}

	dl.Points = make([]DLPoint, dl.NodeCount)
	for i := range dl.Points {
		p, err := parseDLPoint(r)
		if err != nil {
			return nil, fmt.Errorf("parsing point %d: %w", i, err)
		}
		dl.Points[i] = p
	}

	dl.Groups = make([]DLGroup, dl.PathCount)
	for i := range dl.Groups {
		g, err := parseDLGroup(r, v)
		if err != nil {
			return nil, fmt.Errorf("parsing group %d: %w", i, err)
		}
		dl.Groups[i] = g
	}

	return dl, nil
}

// Encode serializes the container using the given variant. Only the header
// counts, the per-cell arrays, Points and Groups are written; Cells is ignored.
//
// The variant must match the one the data was parsed with. Encoding with a
// different variant produces a stream that decodes to garbage.
func (dl *DistantLights) Encode(v DLVariant) ([]byte, error) {
	if err := dl.checkEncodable(); err != nil {
		return nil, err
	}

	size := dlHeaderSize + 12*int(dl.CellCount) + dlPointSize*len(dl.Points) + v.GroupRecordSize()*len(dl.Groups)
	buf := bytes.NewBuffer(make([]byte, 0, size))

	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.BigEndian, dl.NodeCount)
	_ = binary.Write(buf, binary.BigEndian, dl.PathCount)
	_ = binary.Write(buf, binary.BigEndian, dl.PathIndices)
	_ = binary.Write(buf, binary.BigEndian, dl.PathCounts1)
	_ = binary.Write(buf, binary.BigEndian, dl.PathCounts2)
	for i := range dl.Points {
		dl.Points[i].write(buf)
	}
	for i := range dl.Groups {
		dl.Groups[i].write(buf, v)
	}

	return buf.Bytes(), nil
}

// checkEncodable verifies that the arrays match the header counts.
func (dl *DistantLights) checkEncodable() error {
	arrays := []struct {
		name string
		n    int
	}{
		{"path indices", len(dl.PathIndices)},
		{"path counts 1", len(dl.PathCounts1)},
		{"path counts 2", len(dl.PathCounts2)},
	}
	for _, a := range arrays {
		if uint64(a.n) != uint64(dl.CellCount) {
			return fmt.Errorf("%w: %s has %d entries, cell count is %d", ErrInconsistentDLIndex, a.name, a.n, dl.CellCount)
		}
	}
	if uint64(len(dl.Points)) != uint64(dl.NodeCount) {
		return fmt.Errorf("%w: %d points, node count is %d", ErrInconsistentDLIndex, len(dl.Points), dl.NodeCount)
	}
	if uint64(len(dl.Groups)) != uint64(dl.PathCount) {
		return fmt.Errorf("%w: %d groups, path count is %d", ErrInconsistentDLIndex, len(dl.Groups), dl.PathCount)
	}
	return nil
}
