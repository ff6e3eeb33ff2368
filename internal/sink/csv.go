package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/rickgao/odds-data/internal/model"
)

// ErrHeaderMismatch is returned by NewCSV when an existing store was not
// written with model.Columns.
var ErrHeaderMismatch = errors.New("store header mismatch")

// storeFile is the part of *os.File that Append uses.
type storeFile interface {
	io.Writer
	io.ReaderAt
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Sync() error
	Close() error
}

func openStoreFile(path string) (storeFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CSV is the primary append-only store.
//
// Each Append opens the file, writes, syncs and closes it again, so the
// store can be read by other processes between cycles.
type CSV struct {
	path     string
	logger   *slog.Logger
	openFile func(path string) (storeFile, error)
}

// NewCSV returns a store at path. A missing or empty file is fine; an
// existing file must start with the model.Columns header.
func NewCSV(path string, logger *slog.Logger) (*CSV, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := checkHeader(path); err != nil {
		return nil, err
	}
	return &CSV{path: path, logger: logger, openFile: openStoreFile}, nil
}

// Name implements Sink.
func (s *CSV) Name() string { return "csv" }

// Path returns the store location.
func (s *CSV) Path() string { return s.path }

// Append writes records to the end of the store, preceded by the header
// if the store is empty. The write is not interrupted by ctx.
//
// An empty batch is a no-op and does not create the store.
func (s *CSV) Append(_ context.Context, records []model.QuoteRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	fail := func(op string, cause error) error {
		return &PersistenceError{Sink: s.Name(), Op: op, Records: len(records), Err: cause}
	}

	f, err := s.openFile(s.path)
	if err != nil {
		return fail("open", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fail("close", cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fail("stat", err)
	}
	size := info.Size()
	if size > 0 {
		if size, err = s.dropPartialRow(f, size); err != nil {
			return fail("repair", err)
		}
	}

	buf, err := encode(records, size == 0)
	if err != nil {
		return fail("encode", err)
	}

	if _, err := f.Write(buf); err != nil {
		// Drop any partial row so the store stays parseable.
		if terr := f.Truncate(size); terr != nil {
			err = errors.Join(err, fmt.Errorf("truncate: %w", terr))
		}
		return fail("write", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync", err)
	}
	return nil
}

// dropPartialRow cuts an unterminated last row, left behind by a write
// that never completed, so new rows start on a line of their own. It
// returns the resulting store size.
func (s *CSV) dropPartialRow(f storeFile, size int64) (int64, error) {
	end, err := lastLineEnd(f, size)
	if err != nil {
		return size, err
	}
	if end == size {
		return size, nil
	}
	if err := f.Truncate(end); err != nil {
		return size, fmt.Errorf("truncate partial row: %w", err)
	}
	s.logger.Warn("dropped partial row at end of store",
		"path", s.path,
		"offset", end,
		"bytes", size-end,
	)
	return end, nil
}

// lastLineEnd returns the offset just past the last newline in the first
// size bytes of r, or 0 if there is none.
func lastLineEnd(r io.ReaderAt, size int64) (int64, error) {
	buf := make([]byte, 4096)
	for end := size; end > 0; {
		n := min(int64(len(buf)), end)
		chunk := buf[:n]
		if _, err := r.ReadAt(chunk, end-n); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read store tail: %w", err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return end - n + int64(i) + 1, nil
		}
		end -= n
	}
	return 0, nil
}

func encode(records []model.QuoteRecord, header bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header {
		if err := w.Write(model.Columns); err != nil {
			return nil, err
		}
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	got, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store header: %w", err)
	}
	if !slices.Equal(got, model.Columns) {
		return fmt.Errorf("%w: %s has %v, want %v", ErrHeaderMismatch, path, got, model.Columns)
	}
	return nil
}
