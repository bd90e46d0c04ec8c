package settings

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrHardwareCall is matched by every HardwareCallError.
	ErrHardwareCall = errors.New("hardware call failed")

	// ErrInvalidParam reports a parameter outside its accepted range.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrUnknownPort reports a port name missing from the port table.
	ErrUnknownPort = errors.New("unknown port")

	// ErrStateUnavailable is returned by getters for state that was never
	// seeded from hardware nor set since startup.
	ErrStateUnavailable = errors.New("state not available")
)

// HardwareCallError wraps a failure returned by the hardware layer. The
// cached state is never modified when one is returned.
type HardwareCallError struct {
	Op  string
	Err error
}

func (e *HardwareCallError) Error() string {
	return fmt.Sprintf("hardware call %s failed: %v", e.Op, e.Err)
}

func (e *HardwareCallError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrHardwareCall.
func (e *HardwareCallError) Is(target error) bool {
	return target == ErrHardwareCall
}

func hardwareError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &HardwareCallError{Op: op, Err: err}
}

func invalidParam(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidParam, format, args...)
}
