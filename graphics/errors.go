package graphics

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Kind classifies graphics failures.
type Kind int

const (
	// KindCreation is a failure while creating the device, swap chain or
	// one of the views; it is fatal to the Graphics instance.
	KindCreation Kind = iota
	// KindCall is a failing driver call during a frame.
	KindCall
	// KindDeviceRemoved means the device handle is no longer usable.
	KindDeviceRemoved
	// KindInfo is a call that cannot fail by itself but made the debug
	// layer emit messages.
	KindInfo
)

func (k Kind) String() string {
	switch k {
	case KindCreation:
		return "creation"
	case KindCall:
		return "call"
	case KindDeviceRemoved:
		return "device removed"
	case KindInfo:
		return "info"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrDeviceRemoved matches every error of kind KindDeviceRemoved and is
// returned by all operations of a Graphics whose device was removed.
var ErrDeviceRemoved = errors.New("graphics: device removed")

// ErrReleased is wrapped by calls made on a Graphics after Release.
var ErrReleased = errors.New("graphics: used after release")

// OpError is a failure a driver records while encoding a call and reports
// later, from Present. Op names the call that caused it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Error is the structured error returned by all Graphics operations.
type Error struct {
	Kind Kind
	// Op names the driver call that failed.
	Op string
	// Code is the driver result. For device removal it is the removal
	// reason reported by the device.
	Code Result
	// Err is the error returned by the driver, if any.
	Err error
	// Info holds the debug layer messages emitted since the last
	// checkpoint.
	Info []string
	File string
	Line int
}

func newError(kind Kind, op string, err error, info []string) *Error {
	e := &Error{Kind: kind, Op: op, Err: err, Info: info, Code: resultOf(err)}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File, e.Line = filepath.Base(file), line
	}
	return e
}

func resultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ResultErrorUnknown
}

// Type returns the headline of the error.
func (e *Error) Type() string {
	switch e.Kind {
	case KindDeviceRemoved:
		return "Graphics Error [Device Removed] (VK_ERROR_DEVICE_LOST)"
	case KindInfo:
		return "Graphics Info Error"
	}
	return "Graphics Error"
}

// Description returns the explanation of the failure code, or the driver
// error text when the driver did not return a result code.
func (e *Error) Description() string {
	var r Result
	if e.Err != nil && !errors.As(e.Err, &r) {
		return e.Err.Error()
	}
	return e.Code.Description()
}

// InfoString joins the debug messages with newlines.
func (e *Error) InfoString() string {
	return strings.Join(e.Info, "\n")
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Type())
	b.WriteString("\n")
	if e.Kind != KindInfo {
		fmt.Fprintf(&b, "[Error Code] 0x%X (%d)\n", uint32(e.Code), uint32(e.Code))
		fmt.Fprintf(&b, "[Error String] %s\n", e.Code)
		fmt.Fprintf(&b, "[Description] %s\n", e.Description())
	}
	if len(e.Info) > 0 {
		fmt.Fprintf(&b, "\n[Error Info]\n%s\n\n", e.InfoString())
	}
	fmt.Fprintf(&b, "[Op] %s\n[File] %s\n[Line] %d", e.Op, e.File, e.Line)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDeviceRemoved) true for device removal.
func (e *Error) Is(target error) bool {
	return target == ErrDeviceRemoved && e.Kind == KindDeviceRemoved
}
