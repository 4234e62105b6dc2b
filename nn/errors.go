package nn

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned (wrapped) for dimension mismatches, empty point sets,
// non-positive batch sizes, invalid alpha and invalid k.
var ErrInvalidInput = errors.New("nn: invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validatePair(x, y PointSet) error {
	if x.Len() == 0 {
		return invalidf("query set is empty")
	}
	if y.Len() == 0 {
		return invalidf("candidate set is empty")
	}
	if x.Dim() != y.Dim() {
		return invalidf("dimension mismatch: queries have %d, candidates have %d", x.Dim(), y.Dim())
	}
	return nil
}

func validateBatch(b int) error {
	if b <= 0 {
		return invalidf("batch size must be positive, got %d", b)
	}
	return nil
}
