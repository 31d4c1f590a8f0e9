package zekta

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the zekta package.
var (
	// ErrClosed is returned when operations are attempted on a closed series.
	ErrClosed = errors.New("series is closed")

	// ErrTimeOutOfRange is returned when a write carries a timestamp the
	// target bucket does not cover, or a timestamp that cannot be mapped to
	// a bucket id at all (NaN, infinite, or beyond the safe integer range).
	ErrTimeOutOfRange = errors.New("time outside bucket range")

	// ErrBadValueLength is returned when a value's byte length does not
	// match the series value byte length.
	ErrBadValueLength = errors.New("value length does not match series")

	// ErrBadBucketFile is returned when a file in the buckets directory does
	// not have a decimal integer stem.
	ErrBadBucketFile = errors.New("bucket filename is not a valid id")

	// ErrUnsupportedVersion is returned when the on-disk config declares a
	// version this package does not understand.
	ErrUnsupportedVersion = errors.New("unsupported config version")

	// ErrIncompatibleConfig is returned when the caller-supplied value byte
	// length disagrees with the on-disk config.
	ErrIncompatibleConfig = errors.New("value byte length does not match on-disk config")

	// ErrMissingValueByteLength is returned when creating a new series
	// without a value byte length.
	ErrMissingValueByteLength = errors.New("value byte length required to create a series")

	// ErrCapacityExceeded is returned when a bucket would grow past the
	// maximum in-memory size.
	ErrCapacityExceeded = errors.New("bucket capacity exceeded")

	// ErrCorruptBucketFile is returned when a bucket file's size is not a
	// multiple of the record length.
	ErrCorruptBucketFile = errors.New("bucket file size is not a multiple of the record length")
)

// BucketError wraps a failure of a bucket-level I/O operation with the
// operation name and the file involved.
type BucketError struct {
	Op   string
	Path string
	Err  error
}

func (e *BucketError) Error() string {
	return fmt.Sprintf("bucket %s [%s]: %v", e.Op, e.Path, e.Err)
}

func (e *BucketError) Unwrap() error {
	return e.Err
}

func newBucketError(op, path string, err error) *BucketError {
	return &BucketError{Op: op, Path: path, Err: err}
}
