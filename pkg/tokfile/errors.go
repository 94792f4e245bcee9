package tokfile

import "errors"

var (
	ErrInvalidFormat      = errors.New("invalid tokenizer file format")
	ErrUnsupportedVersion = errors.New("unsupported tokenizer file version")
	ErrCorruptFile        = errors.New("corrupt tokenizer file")
)
