// Package indexio implements the on-disk persistence format for a built
// index: a ".clus" file holding centroids and posting lists and a ".vec"
// file holding the full vector store, both little-endian.
package indexio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ivfann/ivfann/internal/intlist"
	"github.com/ivfann/ivfann/internal/ivf"
	"github.com/ivfann/ivfann/internal/ivferrors"
	"github.com/ivfann/ivfann/internal/vecstore"
)

const nullPostingSentinel = int32(-1)

// Write persists ci to baseName+".clus" and baseName+".vec", truncating
// any existing files.
func Write(ci *ivf.ClusterIndex, baseName string) error {
	if err := writeClus(ci, baseName+".clus"); err != nil {
		return err
	}
	if err := writeVec(ci.Vectors, baseName+".vec"); err != nil {
		return err
	}
	return nil
}

func writeClus(ci *ivf.ClusterIndex, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ivferrors.ErrIoFailure, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	d, n := int32(ci.Centroids.D()), int32(ci.Centroids.N())
	if err := writeInt32s(w, d, n); err != nil {
		return ioErr(path, err)
	}
	for c := 0; c < int(n); c++ {
		if err := writeFloat32s(w, ci.Centroids.GetSegment(c)); err != nil {
			return ioErr(path, err)
		}
	}

	if err := writeInt32s(w, n); err != nil { // posting_count == centroid_N
		return ioErr(path, err)
	}
	for _, p := range ci.Postings {
		if p == nil {
			if err := writeInt32s(w, nullPostingSentinel); err != nil {
				return ioErr(path, err)
			}
			continue
		}
		if err := writeInt32s(w, int32(p.Size())); err != nil {
			return ioErr(path, err)
		}
		if err := writeInt32s(w, p.Slice()...); err != nil {
			return ioErr(path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return ioErr(path, err)
	}
	return nil
}

func writeVec(store *vecstore.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ivferrors.ErrIoFailure, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	d, n := int32(store.D()), int32(store.N())
	if err := writeInt32s(w, d, n); err != nil {
		return ioErr(path, err)
	}

	// Zero-copy bulk write when the store exposes its backing bytes
	// directly; row-by-row otherwise. Both paths are byte-for-byte
	// equivalent since both walk rows in id order.
	if raw := store.Bytes(); raw != nil {
		if _, err := w.Write(raw); err != nil {
			return ioErr(path, err)
		}
	} else {
		for i := 0; i < int(n); i++ {
			if err := writeFloat32s(w, store.GetSegment(i)); err != nil {
				return ioErr(path, err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return ioErr(path, err)
	}
	return nil
}

// Read loads an Index previously written by Write, materializing both
// stores in the given vecstore.Kind. Both files must exist.
func Read(baseName string, kind vecstore.Kind) (*ivf.ClusterIndex, error) {
	clusPath, vecPath := baseName+".clus", baseName+".vec"

	if _, err := os.Stat(clusPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ivferrors.ErrMissingFile, clusPath)
	}
	if _, err := os.Stat(vecPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ivferrors.ErrMissingFile, vecPath)
	}

	vectors, err := readVec(vecPath, kind)
	if err != nil {
		return nil, err
	}

	centroids, postings, err := readClus(clusPath, kind)
	if err != nil {
		vectors.Close()
		return nil, err
	}

	if centroids.D() != vectors.D() {
		centroids.Close()
		vectors.Close()
		return nil, fmt.Errorf("%w: centroid dim %d != vector dim %d", ivferrors.ErrInvalidFormat, centroids.D(), vectors.D())
	}

	return &ivf.ClusterIndex{Centroids: centroids, Postings: postings, Vectors: vectors}, nil
}

func readClus(path string, kind vecstore.Kind) (*vecstore.Store, []*intlist.IntList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", ivferrors.ErrIoFailure, path, err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	d, n, err := readShape(r)
	if err != nil {
		return nil, nil, invalidFormat(path, err)
	}

	centroids, err := vecstore.New(kind, d, n)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: allocate centroid store: %v", ivferrors.ErrIoFailure, err)
	}
	row := make([]float32, d)
	for c := 0; c < n; c++ {
		if err := readFloat32s(r, row); err != nil {
			centroids.Close()
			return nil, nil, invalidFormat(path, err)
		}
		if err := centroids.AddVector(c, row); err != nil {
			centroids.Close()
			return nil, nil, fmt.Errorf("%w: %v", ivferrors.ErrInvalidFormat, err)
		}
	}

	var postingCount int32
	if err := binary.Read(r, binary.LittleEndian, &postingCount); err != nil {
		centroids.Close()
		return nil, nil, invalidFormat(path, err)
	}
	if int(postingCount) != n {
		centroids.Close()
		return nil, nil, fmt.Errorf("%w: posting_count %d != centroid_N %d", ivferrors.ErrInvalidFormat, postingCount, n)
	}

	postings := make([]*intlist.IntList, postingCount)
	for c := 0; c < int(postingCount); c++ {
		var size int32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			centroids.Close()
			return nil, nil, invalidFormat(path, err)
		}
		if size == nullPostingSentinel {
			continue
		}
		if size < 0 {
			centroids.Close()
			return nil, nil, fmt.Errorf("%w: negative posting size %d", ivferrors.ErrInvalidFormat, size)
		}
		list := intlist.New(int(size))
		for i := int32(0); i < size; i++ {
			var id int32
			if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
				centroids.Close()
				return nil, nil, invalidFormat(path, err)
			}
			list.Add(id)
		}
		postings[c] = list
	}

	return centroids, postings, nil
}

func readVec(path string, kind vecstore.Kind) (*vecstore.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ivferrors.ErrIoFailure, path, err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	d, n, err := readShape(r)
	if err != nil {
		return nil, invalidFormat(path, err)
	}

	store, err := vecstore.New(kind, d, n)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate vector store: %v", ivferrors.ErrIoFailure, err)
	}

	row := make([]float32, d)
	for i := 0; i < n; i++ {
		if err := readFloat32s(r, row); err != nil {
			store.Close()
			return nil, invalidFormat(path, err)
		}
		if err := store.AddVector(i, row); err != nil {
			store.Close()
			return nil, fmt.Errorf("%w: %v", ivferrors.ErrInvalidFormat, err)
		}
	}

	return store, nil
}

func readShape(r io.Reader) (d, n int, err error) {
	var dd, nn int32
	if err := binary.Read(r, binary.LittleEndian, &dd); err != nil {
		return 0, 0, err
	}
	if err := binary.Read(r, binary.LittleEndian, &nn); err != nil {
		return 0, 0, err
	}
	if dd < 0 || nn < 0 {
		return 0, 0, fmt.Errorf("negative shape d=%d n=%d", dd, nn)
	}
	return int(dd), int(nn), nil
}

func writeInt32s(w io.Writer, vs ...int32) error {
	return binary.Write(w, binary.LittleEndian, vs)
}

func writeFloat32s(w io.Writer, vs []float32) error {
	return binary.Write(w, binary.LittleEndian, vs)
}

func readFloat32s(r io.Reader, dst []float32) error {
	return binary.Read(r, binary.LittleEndian, dst)
}

func ioErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ivferrors.ErrIoFailure, path, err)
}

func invalidFormat(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ivferrors.ErrInvalidFormat, path, err)
}
