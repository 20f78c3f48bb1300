package cursor

import "errors"

// Errors shared by every format reader built on the cursor.
var (
	// ErrOutOfRange indicates a read, write or seek outside the buffer.
	ErrOutOfRange = errors.New("out of range")

	// ErrFormat indicates a bad magic or a structurally impossible field value.
	ErrFormat = errors.New("malformed data")

	// ErrUnsupportedValue indicates a field value outside the set a reader handles.
	ErrUnsupportedValue = errors.New("unsupported value")
)
