package ecall

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// fileEntry is one open file descriptor. Reader/writer/seeker are nil
// when the fd doesn't support that operation (stdin has no writer,
// stdout/stderr have no reader).
type fileEntry struct {
	r      io.Reader
	w      io.Writer
	s      io.Seeker
	closer io.Closer
}

// FileTable is the fd table backing the Open/Read/Write/Seek/Close
// ecalls. fd 0/1/2 are preopened against the handler's stdin/stdout/
// stderr streams; fds 3+ back real files opened via Open.
type FileTable struct {
	mu      sync.Mutex
	entries map[int]*fileEntry
	next    int
}

// NewFileTable preopens fd 0 (read-only), fd 1 and fd 2 (write-only).
func NewFileTable(stdin io.Reader, stdout, stderr io.Writer) *FileTable {
	return &FileTable{
		entries: map[int]*fileEntry{
			0: {r: stdin},
			1: {w: stdout},
			2: {w: stderr},
		},
		next: 3,
	}
}

// flag values for the Open ecall's a1 operand: 0=R, 1=W, 9=A.
const (
	OpenRead   = 0
	OpenWrite  = 1
	OpenAppend = 9
)

// Open opens path under the given mode and returns a new fd.
func (ft *FileTable) Open(path string, mode uint32) (int, error) {
	var flag int
	switch mode {
	case OpenRead:
		flag = os.O_RDONLY
	case OpenWrite:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case OpenAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return -1, fmt.Errorf("open: unknown mode %d", mode)
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return -1, err
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	fd := ft.next
	ft.next++
	ft.entries[fd] = &fileEntry{r: f, w: f, s: f, closer: f}
	return fd, nil
}

func (ft *FileTable) get(fd int) (*fileEntry, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	e, ok := ft.entries[fd]
	return e, ok
}

// Close closes fd and forgets it.
func (ft *FileTable) Close(fd int) error {
	ft.mu.Lock()
	e, ok := ft.entries[fd]
	if !ok {
		ft.mu.Unlock()
		return fmt.Errorf("close: bad fd %d", fd)
	}
	delete(ft.entries, fd)
	ft.mu.Unlock()
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

// Read reads into p from fd, returning bytes read.
func (ft *FileTable) Read(fd int, p []byte) (int, error) {
	e, ok := ft.get(fd)
	if !ok || e.r == nil {
		return 0, fmt.Errorf("read: bad fd %d", fd)
	}
	return e.r.Read(p)
}

// Write writes p to fd, returning bytes written.
func (ft *FileTable) Write(fd int, p []byte) (int, error) {
	e, ok := ft.get(fd)
	if !ok || e.w == nil {
		return 0, fmt.Errorf("write: bad fd %d", fd)
	}
	return e.w.Write(p)
}

// Seek repositions fd and returns the new offset.
func (ft *FileTable) Seek(fd int, offset int64, whence int) (int64, error) {
	e, ok := ft.get(fd)
	if !ok || e.s == nil {
		return -1, fmt.Errorf("seek: bad fd %d", fd)
	}
	return e.s.Seek(offset, whence)
}
