package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/distantlights/pkg/math"
)

// XML element types. Scalars are <Name value="..."/>, composite arrays are
// sequences of <Item> children.

type dlXMLValue struct {
	Value string `xml:"value,attr"`
}

type dlXMLVec2 struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

type dlXMLRaw struct {
	Text string `xml:",chardata"`
}

type dlXMLDocument struct {
	XMLName     xml.Name     `xml:"DistantLights"`
	HD          *dlXMLValue  `xml:"HD"`
	GridSize    *dlXMLValue  `xml:"GridSize"`
	CellSize    *dlXMLValue  `xml:"CellSize"`
	CellCount   *dlXMLValue  `xml:"CellCount"`
	NodeCount   *dlXMLValue  `xml:"NodeCount"`
	PathCount   *dlXMLValue  `xml:"PathCount"`
	PathIndices *dlXMLRaw    `xml:"PathIndices"`
	PathCounts1 *dlXMLRaw    `xml:"PathCounts1"`
	PathCounts2 *dlXMLRaw    `xml:"PathCounts2"`
	Nodes       *dlXMLPoints `xml:"Nodes"`
	Paths       *dlXMLGroups `xml:"Paths"`
	Cells       *dlXMLCells  `xml:"Cells"`
}

type dlXMLPoints struct {
	Items []dlXMLPoint `xml:"Item"`
}

type dlXMLPoint struct {
	X *dlXMLValue `xml:"X"`
	Y *dlXMLValue `xml:"Y"`
	Z *dlXMLValue `xml:"Z"`
}

type dlXMLGroups struct {
	Items []dlXMLGroup `xml:"Item"`
}

type dlXMLGroup struct {
	CenterX           *dlXMLValue `xml:"CenterX"`
	CenterY           *dlXMLValue `xml:"CenterY"`
	CenterZ           *dlXMLValue `xml:"CenterZ"`
	Radius            *dlXMLValue `xml:"Radius"`
	PointOffset       *dlXMLValue `xml:"PointOffset"`
	PointCount        *dlXMLValue `xml:"PointCount"`
	Flags             *dlXMLValue `xml:"Flags"`
	DisplayProperties *dlXMLValue `xml:"DisplayProperties"`
	DistanceOffset    *dlXMLValue `xml:"DistanceOffset"`
	RandomSeed1       *dlXMLValue `xml:"RandomSeed1"`
	RandomSeed2       *dlXMLValue `xml:"RandomSeed2"`
	RandomSeed3       *dlXMLValue `xml:"RandomSeed3"`
	RandomSeed4       *dlXMLValue `xml:"RandomSeed4"`
}

type dlXMLCells struct {
	Items []dlXMLCell `xml:"Item"`
}

type dlXMLCell struct {
	Index   *dlXMLValue  `xml:"Index"`
	CellX   *dlXMLValue  `xml:"CellX"`
	CellY   *dlXMLValue  `xml:"CellY"`
	CellMin *dlXMLVec2   `xml:"CellMin"`
	CellMax *dlXMLVec2   `xml:"CellMax"`
	Paths1  *dlXMLGroups `xml:"Paths1"`
	Paths2  *dlXMLGroups `xml:"Paths2"`
}

// MarshalDistantLightsXML renders the container as an XML document.
// Cells are included when built; they are informational and ignored on load.
func MarshalDistantLightsXML(dl *DistantLights) ([]byte, error) {
	doc := dlXMLDocument{
		GridSize:  xmlUint(uint64(dl.GridSize)),
		CellSize:  xmlUint(uint64(dl.CellSize)),
		CellCount: xmlUint(uint64(dl.CellCount)),
		NodeCount: xmlUint(uint64(dl.NodeCount)),
		PathCount: xmlUint(uint64(dl.PathCount)),
	}
	// HD is only written when set; its absence reads back as false.
	if dl.HD {
		doc.HD = &dlXMLValue{Value: "true"}
	}
	doc.PathIndices = xmlRawArray(dl.PathIndices)
	doc.PathCounts1 = xmlRawArray(dl.PathCounts1)
	doc.PathCounts2 = xmlRawArray(dl.PathCounts2)

	if dl.Points != nil {
		doc.Nodes = &dlXMLPoints{Items: make([]dlXMLPoint, len(dl.Points))}
		for i, p := range dl.Points {
			doc.Nodes.Items[i] = dlXMLPoint{
				X: xmlInt(int64(p.X)),
				Y: xmlInt(int64(p.Y)),
				Z: xmlInt(int64(p.Z)),
			}
		}
	}
	doc.Paths = xmlGroups(dl.Groups)

	if dl.Cells != nil {
		doc.Cells = &dlXMLCells{Items: make([]dlXMLCell, len(dl.Cells))}
		for i := range dl.Cells {
			c := &dl.Cells[i]
			doc.Cells.Items[i] = dlXMLCell{
				Index:   xmlUint(uint64(c.Index)),
				CellX:   xmlUint(uint64(c.X)),
				CellY:   xmlUint(uint64(c.Y)),
				CellMin: xmlVec2(c.Min),
				CellMax: xmlVec2(c.Max),
				Paths1:  xmlGroups(c.Paths1),
				Paths2:  xmlGroups(c.Paths2),
			}
		}
	}

	out, err := xml.MarshalIndent(&doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("marshalling distant lights: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(xml.Header) + len(out) + 1)
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UnmarshalDistantLightsXML parses a document written by MarshalDistantLightsXML.
//
// Header scalars are required. The per-cell arrays, Nodes and Paths are
// optional and stay nil when missing. Cells in the document are ignored and
// rebuilt when all three per-cell arrays are present.
func UnmarshalDistantLightsXML(data []byte) (*DistantLights, error) {
	var doc dlXMLDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDLDocument, err)
	}

	dl := &DistantLights{}
	// A bare <HD/> counts as true.
	if doc.HD != nil {
		dl.HD = true
		if s := strings.TrimSpace(doc.HD.Value); s != "" {
			hd, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("%w: HD: %v", ErrInvalidDLDocument, err)
			}
			dl.HD = hd
		}
	}

	d := dlFieldDecoder{}
	dl.GridSize = d.u32(doc.GridSize, "GridSize")
	dl.CellSize = d.u32(doc.CellSize, "CellSize")
	dl.CellCount = d.u32(doc.CellCount, "CellCount")
	dl.NodeCount = d.u32(doc.NodeCount, "NodeCount")
	dl.PathCount = d.u32(doc.PathCount, "PathCount")
	dl.PathIndices = d.rawArray(doc.PathIndices, "PathIndices")
	dl.PathCounts1 = d.rawArray(doc.PathCounts1, "PathCounts1")
	dl.PathCounts2 = d.rawArray(doc.PathCounts2, "PathCounts2")

	if doc.Nodes != nil {
		dl.Points = make([]DLPoint, len(doc.Nodes.Items))
		for i, item := range doc.Nodes.Items {
			d.ctx = fmt.Sprintf("Nodes[%d].", i)
			dl.Points[i] = DLPoint{
				X: d.i16(item.X, "X"),
				Y: d.i16(item.Y, "Y"),
				Z: d.i16(item.Z, "Z"),
			}
		}
	}

	if doc.Paths != nil {
		dl.Groups = make([]DLGroup, len(doc.Paths.Items))
		for i := range doc.Paths.Items {
			d.ctx = fmt.Sprintf("Paths[%d].", i)
			dl.Groups[i] = d.group(&doc.Paths.Items[i])
		}
	}

	if d.err != nil {
		return nil, d.err
	}

	if dl.PathIndices != nil && dl.PathCounts1 != nil && dl.PathCounts2 != nil {
		if err := dl.BuildCells(); err != nil {
			return nil, fmt.Errorf("building cells: %w", err)
		}
	}

	return dl, nil
}

func xmlUint(n uint64) *dlXMLValue {
	return &dlXMLValue{Value: strconv.FormatUint(n, 10)}
}

func xmlInt(n int64) *dlXMLValue {
	return &dlXMLValue{Value: strconv.FormatInt(n, 10)}
}

func xmlVec2(v math.Vec2) *dlXMLVec2 {
	return &dlXMLVec2{X: math.FormatFloat32(v.X), Y: math.FormatFloat32(v.Y)}
}

func xmlRawArray(values []uint32) *dlXMLRaw {
	if values == nil {
		return nil
	}
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return &dlXMLRaw{Text: sb.String()}
}

func xmlGroups(groups []DLGroup) *dlXMLGroups {
	if groups == nil {
		return nil
	}
	out := &dlXMLGroups{Items: make([]dlXMLGroup, len(groups))}
	for i := range groups {
		g := &groups[i]
		out.Items[i] = dlXMLGroup{
			CenterX:           xmlInt(int64(g.CenterX)),
			CenterY:           xmlInt(int64(g.CenterY)),
			CenterZ:           xmlInt(int64(g.CenterZ)),
			Radius:            xmlInt(int64(g.Radius)),
			PointOffset:       xmlUint(uint64(g.PointOffset)),
			PointCount:        xmlUint(uint64(g.PointCount)),
			Flags:             xmlUint(uint64(g.Flags)),
			DisplayProperties: xmlUint(uint64(g.DisplayProperties)),
			DistanceOffset:    &dlXMLValue{Value: math.FormatFloat32(g.DistanceOffset)},
			RandomSeed1:       xmlUint(uint64(g.RandomSeed1)),
			RandomSeed2:       xmlUint(uint64(g.RandomSeed2)),
			RandomSeed3:       xmlUint(uint64(g.RandomSeed3)),
			RandomSeed4:       xmlUint(uint64(g.RandomSeed4)),
		}
	}
	return out
}

// dlFieldDecoder parses scalar elements and keeps the first error.
type dlFieldDecoder struct {
	ctx string
	err error
}

func (d *dlFieldDecoder) text(v *dlXMLValue, name string) (string, bool) {
	if d.err != nil {
		return "", false
	}
	if v == nil {
		d.err = fmt.Errorf("%w: missing %s%s", ErrInvalidDLDocument, d.ctx, name)
		return "", false
	}
	return strings.TrimSpace(v.Value), true
}

func (d *dlFieldDecoder) fail(name string, err error) {
	d.err = fmt.Errorf("%w: %s%s: %v", ErrInvalidDLDocument, d.ctx, name, err)
}

func (d *dlFieldDecoder) unsigned(v *dlXMLValue, name string, bits int) uint64 {
	s, ok := d.text(v, name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		d.fail(name, err)
		return 0
	}
	return n
}

func (d *dlFieldDecoder) u32(v *dlXMLValue, name string) uint32 {
	return uint32(d.unsigned(v, name, 32))
}

func (d *dlFieldDecoder) u16(v *dlXMLValue, name string) uint16 {
	return uint16(d.unsigned(v, name, 16))
}

func (d *dlFieldDecoder) u8(v *dlXMLValue, name string) uint8 {
	return uint8(d.unsigned(v, name, 8))
}

func (d *dlFieldDecoder) i16(v *dlXMLValue, name string) int16 {
	s, ok := d.text(v, name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		d.fail(name, err)
		return 0
	}
	return int16(n)
}

func (d *dlFieldDecoder) f32(v *dlXMLValue, name string) float32 {
	s, ok := d.text(v, name)
	if !ok {
		return 0
	}
	f, err := math.ParseFloat32(s)
	if err != nil {
		d.fail(name, err)
		return 0
	}
	return f
}

// rawArray parses a whitespace separated run. A missing element gives nil.
func (d *dlFieldDecoder) rawArray(raw *dlXMLRaw, name string) []uint32 {
	if raw == nil || d.err != nil {
		return nil
	}
	fields := strings.Fields(raw.Text)
	values := make([]uint32, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			d.fail(fmt.Sprintf("%s[%d]", name, i), err)
			return nil
		}
		values[i] = uint32(n)
	}
	return values
}

// group decodes one group item. The fields stored only in HD records may be
// left out and default to zero.
func (d *dlFieldDecoder) group(item *dlXMLGroup) DLGroup {
	g := DLGroup{
		CenterX:     d.i16(item.CenterX, "CenterX"),
		CenterY:     d.i16(item.CenterY, "CenterY"),
		CenterZ:     d.i16(item.CenterZ, "CenterZ"),
		Radius:      d.i16(item.Radius, "Radius"),
		PointOffset: d.u16(item.PointOffset, "PointOffset"),
		PointCount:  d.u16(item.PointCount, "PointCount"),
		RandomSeed1: d.u8(item.RandomSeed1, "RandomSeed1"),
		RandomSeed2: d.u8(item.RandomSeed2, "RandomSeed2"),
	}
	if item.Flags != nil {
		g.Flags = d.u16(item.Flags, "Flags")
	}
	if item.DisplayProperties != nil {
		g.DisplayProperties = d.u16(item.DisplayProperties, "DisplayProperties")
	}
	if item.DistanceOffset != nil {
		g.DistanceOffset = d.f32(item.DistanceOffset, "DistanceOffset")
	}
	if item.RandomSeed3 != nil {
		g.RandomSeed3 = d.u8(item.RandomSeed3, "RandomSeed3")
	}
	if item.RandomSeed4 != nil {
		g.RandomSeed4 = d.u8(item.RandomSeed4, "RandomSeed4")
	}
	return g
}
