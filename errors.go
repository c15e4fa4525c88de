package ftpaudit

import (
	"errors"
	"fmt"
)

// ReplyError is returned when the server completed a command exchange with
// a reply outside the range the conversation needed. The reply code places
// the error in one of three classes:
//
//   - 5xx: the server refused the operation. For the commands this package
//     issues, a refusal is a permission boundary and is usually consumed as
//     measurement data rather than treated as a fault.
//   - 4xx: a transient condition; the same command may succeed later.
//   - anything else: a reply the conversation did not allow at that point.
//
// Use IsPermissionDenied, IsTemporary and IsProtocolReply to discriminate.
type ReplyError struct {
	// Command is the FTP command that was sent (e.g., "MKD probedir")
	Command string

	// Response is the message the server replied with
	Response string

	// Code is the numeric FTP reply code (e.g., 550)
	Code int
}

// Error implements the error interface.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("ftpaudit: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// ProtocolError is returned when the control conversation itself breaks:
// unparseable replies, I/O failures mid-exchange, unexpected EOF. Once one
// of these surfaces the session can no longer be trusted.
type ProtocolError struct {
	// Op names the operation that was in flight (e.g., "NLST")
	Op string

	// Err is the underlying failure, if any
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ftpaudit: %s: protocol violation", e.Op)
	}
	return fmt.Sprintf("ftpaudit: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsPermissionDenied reports whether err is a server refusal (5xx reply).
// The probe and the scanner absorb these as data; everything else they
// hand back to the caller.
func IsPermissionDenied(err error) bool {
	var re *ReplyError
	return errors.As(err, &re) && re.Code >= 500 && re.Code < 600
}

// IsTemporary reports whether err is a transient server condition (4xx
// reply). Callers wanting bounded retries key off this.
func IsTemporary(err error) bool {
	var re *ReplyError
	return errors.As(err, &re) && re.Code >= 400 && re.Code < 500
}

// IsProtocolReply reports whether err is a completed exchange whose reply
// code belongs to neither the refusal nor the transient class: the server
// answered, but with something the conversation had no use for.
func IsProtocolReply(err error) bool {
	var re *ReplyError
	return errors.As(err, &re) && (re.Code < 400 || re.Code >= 600)
}
