// Package export re-serializes decoded badge rows. JSON output is a single
// array; CBOR output is a sequence of deterministic items, one per row.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/UnitVectorY-Labs/cratebadges/internal/badges"
	"github.com/UnitVectorY-Labs/cratebadges/internal/codec"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Options configures an export run.
type Options struct {
	DumpDir   string
	OutputDir string
	Format    string
	Workers   int
	Policy    dump.Policy
	Logger    *zap.Logger
}

// Stats summarizes a finished export.
type Stats struct {
	Path   string
	Rows   int
	Errors int
}

// FileName returns the output file name for a format.
func FileName(format string) (string, error) {
	switch format {
	case FormatJSON, FormatCBOR:
		return badges.Table + "." + format, nil
	}
	return "", fmt.Errorf("unknown export format %q", format)
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format string, rows []badges.Row) error {
	switch format {
	case FormatJSON:
		out := make([]badges.Exported, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Export())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case FormatCBOR:
		enc := codec.NewEncoder(w)
		for _, row := range rows {
			if err := enc.Encode(row.Export()); err != nil {
				return fmt.Errorf("failed to encode crate %s: %w", row.CrateID, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", format)
}

// Run decodes the badges table under opts.DumpDir and writes it to
// opts.OutputDir.
func Run(ctx context.Context, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	name, err := FileName(opts.Format)
	if err != nil {
		return Stats{}, err
	}

	table, closer, err := dump.Open(opts.DumpDir, badges.Table)
	if err != nil {
		return Stats{}, err
	}
	defer closer.Close()

	result, err := dump.DecodeAll(ctx, table, badges.FromRecord, dump.Options{
		Workers: opts.Workers,
		Policy:  opts.Policy,
		Logger:  logger,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to decode %s: %w", dump.Path(opts.DumpDir, badges.Table), err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Stats{}, fmt.Errorf("failed to create directory %s: %w", opts.OutputDir, err)
	}
	path := filepath.Join(opts.OutputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(file, opts.Format, result.Rows); err != nil {
		file.Close()
		return Stats{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return Stats{}, fmt.Errorf("failed to close %s: %w", path, err)
	}

	stats := Stats{Path: path, Rows: len(result.Rows), Errors: len(result.Errors)}
	logger.Info("export complete",
		zap.String("path", path),
		zap.Int("rows", stats.Rows),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}
