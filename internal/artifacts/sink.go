package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrDuplicateArtifact = errors.New("artifact already written in this run")
	ErrInvalidName       = errors.New("invalid artifact name")
)

// Sink is the output directory of one run. Every generator writes through it,
// and it refuses to hand out the same filename twice.
type Sink struct {
	dir string

	mu      sync.Mutex
	written map[string]bool
}

func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Sink{dir: dir, written: make(map[string]bool)}, nil
}

func (s *Sink) Dir() string { return s.dir }

// Path joins name onto the sink directory without reserving it.
func (s *Sink) Path(name string) string { return filepath.Join(s.dir, name) }

// Reserve claims name for the caller and returns its full path.
func (s *Sink) Reserve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written[name] {
		return "", fmt.Errorf("%w: %s", ErrDuplicateArtifact, name)
	}
	s.written[name] = true
	return filepath.Join(s.dir, name), nil
}

// Create reserves name and opens it for writing.
func (s *Sink) Create(name string) (*os.File, error) {
	path, err := s.Reserve(name)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (s *Sink) WriteFile(name string, data []byte) error {
	path, err := s.Reserve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Exists reports whether name is present on disk.
func (s *Sink) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Clear removes everything in the directory and forgets prior reservations.
func (s *Sink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.written = make(map[string]bool)
			return os.MkdirAll(s.dir, 0o755)
		}
		return fmt.Errorf("read output dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("clear output dir: %w", err)
		}
	}
	s.written = make(map[string]bool)
	return nil
}
