package gsm

import (
	"errors"
	"fmt"

	"github.com/ellanetworks/nas-decoder/internal/cursor"
)

var (
	ErrOutOfBounds          = cursor.ErrOutOfBounds
	ErrInvalidOperationCode = errors.New("invalid QoS rule operation code")
	ErrUnknownComponentType = errors.New("unknown packet filter component type")
	ErrTruncatedContainer   = errors.New("inner length exceeds container")
	ErrInvalidUTF8          = errors.New("invalid UTF-8")
	ErrInvalidLength        = errors.New("invalid length")
)

// truncated marks a read that ran past an inner container's declared length.
func truncated(what string, err error) error {
	if errors.Is(err, cursor.ErrOutOfBounds) {
		return fmt.Errorf("%s: %w: %w", what, ErrTruncatedContainer, err)
	}

	return fmt.Errorf("%s: %w", what, err)
}
