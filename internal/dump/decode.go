package dump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FromRecord decodes one raw row of a table. Implementations must be safe
// for concurrent use.
type FromRecord[T any] func(headers, fields []string) (T, error)

// Policy decides what DecodeAll does when a single row fails to decode.
type Policy string

const (
	// Abort stops decoding and returns the failing row's error.
	Abort Policy = "abort"
	// Skip records the failure and keeps decoding the remaining rows.
	Skip Policy = "skip"
)

// ParsePolicy validates a policy name from configuration or flags.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Abort, Skip:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown error policy %q (want %q or %q)", s, Abort, Skip)
}

// RowError ties a decode failure to the source line of the row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Options configures DecodeAll.
type Options struct {
	// Workers bounds the number of rows decoded at once. Zero means
	// GOMAXPROCS.
	Workers int
	Policy  Policy
	Logger  *zap.Logger
}

// Result holds the decoded rows in source order, followed by the row errors
// that were skipped under the Skip policy.
type Result[T any] struct {
	Rows   []T
	Errors []*RowError
}

// DecodeAll reads every remaining row of t and decodes them concurrently.
//
// Read errors from the underlying file are always fatal. Decode errors are
// fatal under Abort and collected under Skip. With Abort, the returned error
// is the first failure observed, which is not necessarily the lowest line.
func DecodeAll[T any](ctx context.Context, t *Table, from FromRecord[T], opts Options) (*Result[T], error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	policy := opts.Policy
	if policy == "" {
		policy = Abort
	}

	var records []Record
	for {
		rec, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	rows := make([]T, len(records))
	failures := make([]*RowError, len(records))
	headers := t.Headers()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			row, err := from(headers, rec.Fields)
			if err != nil {
				rowErr := &RowError{Line: rec.Line, Err: err}
				if policy == Abort {
					return rowErr
				}
				failures[i] = rowErr
				return nil
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result[T]{Rows: make([]T, 0, len(records))}
	for i := range records {
		if failures[i] != nil {
			logger.Warn("skipping row",
				zap.Int("line", failures[i].Line),
				zap.Error(failures[i].Err))
			result.Errors = append(result.Errors, failures[i])
			continue
		}
		result.Rows = append(result.Rows, rows[i])
	}

	logger.Debug("decoded table",
		zap.Int("rows", len(result.Rows)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("workers", workers))
	return result, nil
}
