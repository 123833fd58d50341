package recovery

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/golib/memfile"
	"github.com/pingcap/errors"
)

const walFileName = "samehada.wal"

// LogStore is the device the write-ahead log is kept on.
type LogStore interface {
	io.ReaderAt
	Append(data []byte) error
	Size() int64
	Sync() error
	Close() error
}

type memoryLogStore struct {
	file *memfile.File
}

// NewMemoryLogStore keeps the log in file. Passing the memfile of a
// previous instance lets a test restart an engine on the same log.
func NewMemoryLogStore(file *memfile.File) LogStore {
	if file == nil {
		file = memfile.New(make([]byte, 0))
	}
	return &memoryLogStore{file: file}
}

func (s *memoryLogStore) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *memoryLogStore) Append(data []byte) error {
	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	_, err := s.file.Write(data)
	return err
}

func (s *memoryLogStore) Size() int64 {
	return int64(len(s.file.Bytes()))
}

func (s *memoryLogStore) Sync() error  { return nil }
func (s *memoryLogStore) Close() error { return nil }

type fileLogStore struct {
	file *os.File
	size int64
}

// OpenFileLogStore opens (or creates) the log file in dir.
func OpenFileLogStore(dir string) (LogStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.OpenFile(filepath.Join(dir, walFileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Trace(err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Trace(err)
	}
	return &fileLogStore{file: file, size: info.Size()}, nil
}

func (s *fileLogStore) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileLogStore) Append(data []byte) error {
	n, err := s.file.WriteAt(data, s.size)
	s.size += int64(n)
	return err
}

func (s *fileLogStore) Size() int64  { return s.size }
func (s *fileLogStore) Sync() error  { return s.file.Sync() }
func (s *fileLogStore) Close() error { return s.file.Close() }
