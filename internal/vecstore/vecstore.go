// Package vecstore implements an index-addressable, fixed-dimension
// vector store: a logical mapping VectorId -> Vector over the dense key
// range [0,N), backed by one of two interchangeable physical layouts.
package vecstore

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ivfann/ivfann/internal/ivferrors"
)

// Kind selects the physical layout of a Store.
type Kind int

const (
	// OffHeap backs the store with a single contiguous mmap'd region, the
	// layout the distance kernel and the zero-copy persistence path want.
	// This is Config's default.
	OffHeap Kind = iota
	// OnHeap backs the store with one owned []float32 per row. Simpler,
	// higher per-row overhead; fine for small stores.
	OnHeap
)

// Store is a fixed-shape, fixed-dimension vector store. Rows are written
// once per id via AddVector and read any number of times afterward; two
// concurrent writers to the same id are undefined.
type Store struct {
	kind Kind
	d, n int

	// OffHeap backing: a single mmap'd byte region of n*d*4 bytes,
	// viewed as a []float32 of length n*d without copying.
	region []byte
	floats []float32

	// OnHeap backing: one row per id.
	rows [][]float32
}

// New allocates a Store for N rows of dimension D. Rows are unspecified
// until written via AddVector.
func New(kind Kind, d, n int) (*Store, error) {
	if d <= 0 || n < 0 {
		return nil, fmt.Errorf("vecstore: invalid shape d=%d n=%d", d, n)
	}

	s := &Store{kind: kind, d: d, n: n}
	switch kind {
	case OffHeap:
		size := n * d * 4
		if size == 0 {
			// unix.Mmap rejects a zero-length mapping; keep the store
			// usable (N()==0 callers never index into it).
			s.region = nil
			s.floats = nil
			return s, nil
		}
		region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return nil, fmt.Errorf("vecstore: mmap %d bytes: %w", size, err)
		}
		s.region = region
		s.floats = unsafe.Slice((*float32)(unsafe.Pointer(&region[0])), n*d)
	case OnHeap:
		s.rows = make([][]float32, n)
	default:
		return nil, fmt.Errorf("vecstore: unknown storage kind %d", kind)
	}
	return s, nil
}

// D returns the configured dimension.
func (s *Store) D() int { return s.d }

// N returns the configured row count.
func (s *Store) N() int { return s.n }

// Kind returns the storage variant this Store was constructed with.
func (s *Store) Kind() Kind { return s.kind }

// AddVector writes src into row id, fully overwriting it.
func (s *Store) AddVector(id int, src []float32) error {
	if id < 0 || id >= s.n {
		return fmt.Errorf("%w: id %d out of range [0,%d)", ivferrors.ErrCapacityExceeded, id, s.n)
	}
	if len(src) != s.d {
		return fmt.Errorf("%w: got %d, want %d", ivferrors.ErrDimensionMismatch, len(src), s.d)
	}

	switch s.kind {
	case OffHeap:
		copy(s.floats[id*s.d:(id+1)*s.d], src)
	case OnHeap:
		row := make([]float32, s.d)
		copy(row, src)
		s.rows[id] = row
	}
	return nil
}

// LoadVectorInArray copies row id into dst[0:D()).
func (s *Store) LoadVectorInArray(id int, dst []float32) error {
	seg, err := s.segment(id)
	if err != nil {
		return err
	}
	if len(dst) < s.d {
		return fmt.Errorf("%w: dst too short", ivferrors.ErrDimensionMismatch)
	}
	copy(dst, seg)
	return nil
}

// GetSegment returns a read view over row id without copying. For OnHeap
// stores this is the row's own backing slice; callers must not mutate it.
func (s *Store) GetSegment(id int) []float32 {
	seg, err := s.segment(id)
	if err != nil {
		// Callers guarantee id is valid; a zero-length view is the least
		// surprising failure mode for a contract violation in a
		// no-error-return hot path.
		return nil
	}
	return seg
}

// GetVector returns a freshly allocated copy of row id. Cold-path only.
func (s *Store) GetVector(id int) []float32 {
	seg := s.GetSegment(id)
	if seg == nil {
		return nil
	}
	out := make([]float32, len(seg))
	copy(out, seg)
	return out
}

func (s *Store) segment(id int) ([]float32, error) {
	if id < 0 || id >= s.n {
		return nil, fmt.Errorf("%w: id %d out of range [0,%d)", ivferrors.ErrCapacityExceeded, id, s.n)
	}
	switch s.kind {
	case OffHeap:
		return s.floats[id*s.d : (id+1)*s.d], nil
	case OnHeap:
		return s.rows[id], nil
	}
	return nil, fmt.Errorf("vecstore: unknown storage kind %d", s.kind)
}

// Bytes exposes the off-heap region as a contiguous byte slice, for bulk
// I/O in package indexio. It returns nil for OnHeap stores.
func (s *Store) Bytes() []byte {
	if s.kind != OffHeap {
		return nil
	}
	return s.region
}

// Close releases the store's backing resources. It is safe to call on an
// already-closed or never-mmap'd store. Every exit path that constructs a
// Store must reach this, or the off-heap region leaks for the life of the
// process.
func (s *Store) Close() error {
	if s.kind != OffHeap || s.region == nil {
		return nil
	}
	region := s.region
	s.region = nil
	s.floats = nil
	if err := unix.Munmap(region); err != nil {
		return fmt.Errorf("%w: munmap: %v", ivferrors.ErrIoFailure, err)
	}
	return nil
}
