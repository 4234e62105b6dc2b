package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ic-timon/nnbench/nn"
)

// ErrCorrupt is returned for truncated files and rows whose dimension disagrees
// with the first row.
var ErrCorrupt = errors.New("store: corrupt fvecs data")

// WriteFvecs writes every row of ps to w.
func WriteFvecs(w io.Writer, ps nn.PointSet) error {
	bw := bufio.NewWriter(w)
	rec := make([]byte, rowBytes(ps.Dim()))
	for i := 0; i < ps.Len(); i++ {
		encodeRow(rec, ps.Row(i))
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func rowBytes(dim int) int {
	return 4 + 4*dim
}

func encodeRow(dst []byte, row []float32) {
	binary.LittleEndian.PutUint32(dst, uint32(len(row)))
	for j, v := range row {
		binary.LittleEndian.PutUint32(dst[4+4*j:], math.Float32bits(v))
	}
}

// layout validates src and returns its row count and dimension.
func layout(src []byte) (rows, dim int, err error) {
	if len(src) < 4 {
		return 0, 0, fmt.Errorf("%w: %d bytes is shorter than a row header", ErrCorrupt, len(src))
	}
	d := int32(binary.LittleEndian.Uint32(src))
	if d <= 0 {
		return 0, 0, fmt.Errorf("%w: dimension %d", ErrCorrupt, d)
	}
	dim = int(d)
	rb := rowBytes(dim)
	if len(src)%rb != 0 {
		return 0, 0, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte row", ErrCorrupt, len(src), rb)
	}
	rows = len(src) / rb
	for i := 1; i < rows; i++ {
		if got := int(int32(binary.LittleEndian.Uint32(src[i*rb:]))); got != dim {
			return 0, 0, fmt.Errorf("%w: row %d has dimension %d, want %d", ErrCorrupt, i, got, dim)
		}
	}
	return rows, dim, nil
}

func decodeRow(dst []float32, rec []byte) {
	for j := range dst {
		dst[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4+4*j:]))
	}
}
