package hal

import "fmt"

// ClassID names the driver type that reported an error.
type ClassID uint8

const (
	ClassUnknown ClassID = iota
	ClassTimer
	ClassADC
	ClassUART
	ClassHash
)

func (c ClassID) String() string {
	switch c {
	case ClassTimer:
		return "timer"
	case ClassADC:
		return "adc"
	case ClassUART:
		return "uart"
	case ClassHash:
		return "hash"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ErrorCode is the reason a driver fired its error signal.
type ErrorCode uint8

const (
	CodeNone ErrorCode = iota
	CodeIsBusy
	CodeNullBuffer
	CodeZeroSize
	CodeNotInitialized
	CodeInvalidArgument
	CodeHALError
	CodeHALBusy
	CodeHALTimeout
)

var codeNames = [...]string{
	CodeNone:            "none",
	CodeIsBusy:          "is busy",
	CodeNullBuffer:      "null buffer",
	CodeZeroSize:        "zero size",
	CodeNotInitialized:  "not initialized",
	CodeInvalidArgument: "invalid argument",
	CodeHALError:        "hal error",
	CodeHALBusy:         "hal busy",
	CodeHALTimeout:      "hal timeout",
}

func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

// StatusCode maps a backend status to the error code drivers report.
// StatusOK maps to CodeNone.
func StatusCode(s Status) ErrorCode {
	switch s {
	case StatusOK:
		return CodeNone
	case StatusBusy:
		return CodeHALBusy
	case StatusTimeout:
		return CodeHALTimeout
	default:
		return CodeHALError
	}
}

// Error is the (class, code) pair carried by every driver error signal.
type Error struct {
	Class  ClassID
	Code   ErrorCode
	Handle Handle
}

func NewError(class ClassID, code ErrorCode, h Handle) *Error {
	return &Error{Class: class, Code: code, Handle: h}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Class, e.Handle, e.Code)
}

// Is matches another *Error on Code, and on Class and Handle when those are
// set in target, so errors.Is(err, &hal.Error{Code: hal.CodeIsBusy}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.Class != ClassUnknown && t.Class != e.Class {
		return false
	}
	return t.Handle == "" || t.Handle == e.Handle
}
