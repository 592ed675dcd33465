package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine    = errors.New("line has fewer than 5 tab-separated fields")
	ErrEmptyDeviceField = errors.New("device_type or device_id is empty")
	ErrUnknownDevice    = errors.New("unknown device type")
	ErrCodecMismatch    = errors.New("decoded payload does not match the original record")
	ErrNoBucketsForType = errors.New("no memcached endpoint registered for device type")
)

// UnopenableFileError generates a formatted error for an input file that
// could not be opened as a gzip stream.
func UnopenableFileError(path string, cause error) error {
	return fmt.Errorf("cannot open %s as gzip stream: %w", path, cause)
}

// UnknownDeviceTypeError names the offending device_type in context.
func UnknownDeviceTypeError(deviceType string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDevice, deviceType)
}
