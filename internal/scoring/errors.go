package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaMismatch means the artifact needs a column the feature record does not have
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDimensionMismatch means the feature vector and coefficients differ in length
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// SchemaMismatchError lists the required columns absent from the feature record
type SchemaMismatchError struct {
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", ErrSchemaMismatch, strings.Join(e.Missing, ", "))
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// DimensionMismatchError reports the two disagreeing lengths
type DimensionMismatchError struct {
	Features     int
	Coefficients int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d features, %d coefficients", ErrDimensionMismatch, e.Features, e.Coefficients)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }
