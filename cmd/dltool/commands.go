package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/distantlights/internal/config"
	"github.com/Faultbox/distantlights/internal/logger"
	"github.com/Faultbox/distantlights/pkg/formats"
)

// errPartition is returned in strict mode when the cell runs do not tile
// the group array.
var errPartition = errors.New("cell partition has issues")

// usageError carries the usage line of a command invoked with bad arguments.
type usageError string

func (u usageError) Error() string  { return "usage: " + string(u) }
func (u usageError) String() string { return string(u) }

// tool runs commands against one configuration and output stream.
type tool struct {
	cfg *config.Config
	out io.Writer
}

// load decodes a binary file and runs the configured checks on it.
func (t *tool) load(path string) (*formats.DistantLights, error) {
	dl, err := formats.LoadDistantLights(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	logger.Debug("loaded distant lights",
		zap.String("file", path),
		zap.Stringer("variant", dl.Variant()),
		zap.Uint32("nodes", dl.NodeCount),
		zap.Uint32("paths", dl.PathCount))

	if t.cfg.Codec.CheckPartition {
		if err := t.reportPartition(path, dl); err != nil {
			return nil, err
		}
	}
	return dl, nil
}

// reportPartition logs partition issues and fails in strict mode.
func (t *tool) reportPartition(path string, dl *formats.DistantLights) error {
	issues := dl.CheckPartition()
	for _, issue := range issues {
		logger.Warn("cell partition issue",
			zap.String("file", path),
			zap.Stringer("kind", issue.Kind),
			zap.Uint32("cell", issue.Cell),
			zap.Uint64("start", issue.Start),
			zap.Uint64("end", issue.End))
	}
	if len(issues) > 0 && t.cfg.Codec.Strict {
		return fmt.Errorf("%s: %w (%d issues)", path, errPartition, len(issues))
	}
	return nil
}

func (t *tool) info(args []string) error {
	if len(args) < 1 {
		return usageError("info <file.dat>")
	}

	dl, err := t.load(args[0])
	if err != nil {
		return err
	}

	nonEmpty := 0
	for i := range dl.Cells {
		if len(dl.Cells[i].Paths1)+len(dl.Cells[i].Paths2) > 0 {
			nonEmpty++
		}
	}

	fmt.Fprintf(t.out, "File:       %s\n", args[0])
	fmt.Fprintf(t.out, "Variant:    %s\n", dl.Variant())
	fmt.Fprintf(t.out, "Grid:       %dx%d cells of %d units\n", dl.GridSize, dl.GridSize, dl.CellSize)
	fmt.Fprintf(t.out, "Cells:      %d (%d with groups)\n", dl.CellCount, nonEmpty)
	fmt.Fprintf(t.out, "Points:     %d\n", dl.NodeCount)
	fmt.Fprintf(t.out, "Groups:     %d\n", dl.PathCount)
	fmt.Fprintf(t.out, "Partition:  %d issues\n", len(dl.CheckPartition()))
	return nil
}

func (t *tool) cells(args []string) error {
	fs := flag.NewFlagSet("cells", flag.ContinueOnError)
	all := fs.Bool("all", false, "Include empty cells")
	if err := fs.Parse(args); err != nil {
		return usageError("cells <file.dat> [-all]")
	}
	if fs.NArg() < 1 {
		return usageError("cells <file.dat> [-all]")
	}

	dl, err := t.load(fs.Arg(0))
	if err != nil {
		return err
	}

	for i := range dl.Cells {
		c := &dl.Cells[i]
		if !*all && len(c.Paths1)+len(c.Paths2) == 0 {
			continue
		}
		fmt.Fprintln(t.out, c.String())
	}
	return nil
}

func (t *tool) check(args []string) error {
	if len(args) < 1 {
		return usageError("check <file.dat>")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v := formats.DLVariantForEntry(filepath.Base(path))
	dl, err := formats.ParseDistantLightsRecords(data, v)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	// Validate reports every range violation; BuildCells stops at the first.
	if err := dl.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	if err := dl.BuildCells(); err != nil {
		return fmt.Errorf("building cells of %s: %w", path, err)
	}
	if err := t.reportPartition(path, dl); err != nil {
		return err
	}

	fmt.Fprintf(t.out, "%s: OK\n", path)
	return nil
}

func (t *tool) toXML(args []string) error {
	if len(args) < 1 {
		return usageError("toxml <file.dat> [out.xml]")
	}

	dl, err := t.load(args[0])
	if err != nil {
		return err
	}
	if !t.cfg.Codec.IncludeCells {
		dl.Cells = nil
	}

	doc, err := formats.MarshalDistantLightsXML(dl)
	if err != nil {
		return err
	}

	if len(args) < 2 {
		_, err := t.out.Write(doc)
		return err
	}
	if err := t.writeFile(args[1], doc); err != nil {
		return err
	}
	logger.Info("exported XML", zap.String("from", args[0]), zap.String("to", args[1]), zap.Int("bytes", len(doc)))
	return nil
}

func (t *tool) fromXML(args []string) error {
	if len(args) < 2 {
		return usageError("fromxml <file.xml> <out.dat>")
	}
	in, out := args[0], args[1]

	doc, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	dl, err := formats.UnmarshalDistantLightsXML(doc)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}

	// The output name decides the layout, as it does for the game.
	variant := formats.DLVariantForEntry(filepath.Base(out))
	if variant != dl.Variant() {
		logger.Warn("output name selects a different layout than the document",
			zap.String("to", out),
			zap.Stringer("document", dl.Variant()),
			zap.Stringer("output", variant))
	}
	if t.cfg.Codec.CheckPartition {
		if err := t.reportPartition(in, dl); err != nil {
			return err
		}
	}

	data, err := dl.Encode(variant)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}
	if err := t.writeFile(out, data); err != nil {
		return err
	}
	logger.Info("imported XML", zap.String("from", in), zap.String("to", out), zap.Int("bytes", len(data)))
	return nil
}

func (t *tool) verify(args []string) error {
	if len(args) < 1 {
		return usageError("verify <file.dat>")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	variant := formats.DLVariantForEntry(filepath.Base(path))
	dl, err := formats.ParseDistantLights(data, variant)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	out, err := dl.Encode(variant)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	// Trailing bytes are not part of the format and are not rewritten.
	if len(out) < len(data) {
		logger.Warn("ignoring trailing bytes", zap.String("file", path), zap.Int("bytes", len(data)-len(out)))
		data = data[:len(out)]
	}
	if !bytes.Equal(data, out) {
		return fmt.Errorf("%s: re-encoded data differs from input", path)
	}

	fmt.Fprintf(t.out, "%s: round trip OK (%d bytes)\n", path, len(out))
	return nil
}

func (t *tool) writeConfig(args []string) error {
	if len(args) > 0 {
		if err := t.cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(t.out, "Wrote %s\n", args[0])
		return nil
	}
	path, err := t.cfg.Save()
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Wrote %s\n", path)
	return nil
}

// writeFile writes data to path, refusing to replace an existing file
// unless overwrite is enabled.
func (t *tool) writeFile(path string, data []byte) error {
	if !t.cfg.Codec.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s exists (use -overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
