package archive

import (
	"bytes"
	"errors"

	"github.com/xitongsys/parquet-go/source"
)

// memFile is a write-only source.ParquetFile backed by a buffer.
type memFile struct {
	buf *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buf: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buf.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, errors.New("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buf.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buf.Bytes() }
