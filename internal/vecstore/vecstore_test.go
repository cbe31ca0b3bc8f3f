package vecstore

import (
	"errors"
	"testing"

	"github.com/ivfann/ivfann/internal/ivferrors"
)

func TestStoreAddAndLoadBothKinds(t *testing.T) {
	for _, kind := range []Kind{OffHeap, OnHeap} {
		s, err := New(kind, 4, 10)
		if err != nil {
			t.Fatalf("New(%v): %v", kind, err)
		}
		defer s.Close()

		v := []float32{1, 2, 3, 4}
		if err := s.AddVector(3, v); err != nil {
			t.Fatalf("AddVector: %v", err)
		}

		dst := make([]float32, 4)
		if err := s.LoadVectorInArray(3, dst); err != nil {
			t.Fatalf("LoadVectorInArray: %v", err)
		}
		for i := range v {
			if dst[i] != v[i] {
				t.Errorf("kind=%v: dst[%d] = %v, want %v", kind, i, dst[i], v[i])
			}
		}

		seg := s.GetSegment(3)
		for i := range v {
			if seg[i] != v[i] {
				t.Errorf("kind=%v: GetSegment[%d] = %v, want %v", kind, i, seg[i], v[i])
			}
		}

		cp := s.GetVector(3)
		cp[0] = 999
		if s.GetSegment(3)[0] == 999 {
			t.Errorf("kind=%v: GetVector must return a copy, mutation leaked into the store", kind)
		}
	}
}

func TestStoreAddVectorOutOfRange(t *testing.T) {
	s, err := New(OffHeap, 4, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	err = s.AddVector(2, make([]float32, 4))
	if !errors.Is(err, ivferrors.ErrCapacityExceeded) {
		t.Errorf("AddVector out of range: got %v, want ErrCapacityExceeded", err)
	}
}

func TestStoreAddVectorDimensionMismatch(t *testing.T) {
	s, err := New(OnHeap, 4, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	err = s.AddVector(0, make([]float32, 3))
	if !errors.Is(err, ivferrors.ErrDimensionMismatch) {
		t.Errorf("AddVector dim mismatch: got %v, want ErrDimensionMismatch", err)
	}
}

func TestStoreZeroRowsOffHeap(t *testing.T) {
	s, err := New(OffHeap, 8, 0)
	if err != nil {
		t.Fatalf("New with N=0: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on empty off-heap store: %v", err)
	}
}

func TestStoreDAndN(t *testing.T) {
	s, err := New(OnHeap, 16, 100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.D() != 16 {
		t.Errorf("D() = %d, want 16", s.D())
	}
	if s.N() != 100 {
		t.Errorf("N() = %d, want 100", s.N())
	}
}
