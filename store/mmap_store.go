package store

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ic-timon/nnbench/nn"
)

// Fvecs is a read-only fvecs file backed by mmap.
type Fvecs struct {
	f    *os.File
	data mmap.MMap
	rows int
	dim  int
}

// OpenFvecs maps path and validates its layout.
func OpenFvecs(path string) (*Fvecs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrCorrupt, path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	rows, dim, err := layout(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Fvecs{f: f, data: m, rows: rows, dim: dim}, nil
}

// Len returns the number of rows.
func (s *Fvecs) Len() int { return s.rows }

// Dim returns the row dimension.
func (s *Fvecs) Dim() int { return s.dim }

// Row decodes row i into dst, allocating when dst is too short.
func (s *Fvecs) Row(i int, dst []float32) []float32 {
	if cap(dst) < s.dim {
		dst = make([]float32, s.dim)
	}
	dst = dst[:s.dim]
	rb := rowBytes(s.dim)
	decodeRow(dst, s.data[i*rb:(i+1)*rb])
	return dst
}

// PointSet copies every row out of the mapping.
func (s *Fvecs) PointSet() (nn.PointSet, error) {
	data := make([]float32, s.rows*s.dim)
	for i := 0; i < s.rows; i++ {
		s.Row(i, data[i*s.dim:(i+1)*s.dim])
	}
	return nn.NewPointSet(s.rows, s.dim, data)
}

// Close unmaps the file and closes it.
func (s *Fvecs) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return err
		}
		s.data = nil
	}
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}

// SaveFvecs writes ps to path, replacing any existing file.
func SaveFvecs(path string, ps nn.PointSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFvecs(f, ps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
