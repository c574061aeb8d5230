// Package ctferrors implements an error type carrying an interpretable
// Kind, mirroring the error taxonomy a CTF trace reader needs to
// report to its caller: directory/file problems, framing problems
// specific to the metadata stream, and data-layout problems specific
// to packet and event decoding.
package ctferrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error, letting a caller decide whether to retry,
// warn, or abort without string-matching the message.
type Kind int

const (
	// Other indicates an unknown error.
	Other Kind = iota
	// NotFound indicates a missing trace directory or stream file.
	NotFound
	// IOError indicates a failed read, mmap, or munmap.
	IOError
	// UnsupportedFraming indicates a metadata packet declared
	// compression, encryption, or a non-zero checksum scheme.
	UnsupportedFraming
	// UnsupportedVersion indicates a metadata major.minor version this
	// reader does not recognize. Callers that want the warn-and-continue
	// behavior described in spec §4.D should inspect Kind rather than
	// treating this as fatal.
	UnsupportedVersion
	// BadMagic indicates a packet header's magic field did not match
	// CTF_MAGIC.
	BadMagic
	// UUIDMismatch indicates a UUID observed after the trace's UUID was
	// adopted did not match exactly.
	UUIDMismatch
	// StreamIDChange indicates a stream file's packets did not all
	// share one stream_id.
	StreamIDChange
	// UnknownStream indicates a packet's stream_id has no corresponding
	// stream-class descriptor in the metadata.
	UnknownStream
	// InvalidEventID indicates an event header's id was out of range,
	// or had no corresponding event-class descriptor.
	InvalidEventID
	// BadPacketSize indicates invariant 1 or invariant 2 (§3) was
	// violated by a packet's header fields.
	BadPacketSize
	// MetadataParseError indicates the external metadata parser
	// collaborator failed.
	MetadataParseError

	maxKind
)

var kindNames = map[Kind]string{
	Other:               "unknown error",
	NotFound:            "not found",
	IOError:             "i/o error",
	UnsupportedFraming:  "unsupported metadata framing",
	UnsupportedVersion:  "unsupported version",
	BadMagic:            "bad magic number",
	UUIDMismatch:        "uuid mismatch",
	StreamIDChange:      "stream id changed within a stream",
	UnknownStream:       "unknown stream",
	InvalidEventID:      "invalid event id",
	BadPacketSize:       "bad packet size",
	MetadataParseError:  "metadata parse error",
}

// String returns a human-readable name for k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown error"
}

// Error is the error type returned throughout this module. Errors may
// chain through Err, and Error() renders the full chain separated by
// Separator, in the style of grailbio-base/errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Separator is inserted between chained errors in Error() output.
var Separator = ":\n\t"

// E constructs an Error from its arguments, interpreted by type:
//
//   - Kind sets the error's kind.
//   - string appends to the message (space-joined).
//   - error sets the wrapped cause; if it is itself *Error and no
//     Kind argument was given, the kind is inherited from it.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("ctferrors.E: no args")
	}
	e := &Error{}
	var msg strings.Builder
	var kindSet bool
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
			kindSet = true
		case string:
			if msg.Len() > 0 {
				msg.WriteByte(' ')
			}
			msg.WriteString(a)
		case *Error:
			e.Err = a
			if !kindSet {
				e.Kind = a.Kind
			}
		case error:
			e.Err = a
		default:
			panic(fmt.Sprintf("ctferrors.E: unsupported argument type %T", a))
		}
	}
	e.Message = msg.String()
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(Separator)
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is/errors.As see through an Error's cause chain.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err's kind, or the kind of any *Error in its
// cause chain, equals kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		return false
	}
	return false
}
