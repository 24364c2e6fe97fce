// Package wfipc implements a client for the Wayfire JSON IPC socket.
//
// Every message on the wire is a frame: a 4-byte little-endian length
// followed by exactly that many bytes of UTF-8 JSON.
//
//	Request:  [u32 LE length]{"method": <string>, "data": <object>}
//	Response: [u32 LE length]<any JSON value, {"error": ...} on failure>
//
// Only one request/response pair may be in flight per connection; responses
// carry no request ID and are matched to requests by position.
package wfipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"

	"golang.org/x/sys/unix"
)

// HeaderSize is the width of the little-endian length prefix.
const HeaderSize = 4

// ReadExact reads exactly n bytes from r, looping over short reads.
// A read that yields no bytes before n are collected means the peer went away.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		read, err := r.Read(buf[got:])
		got += read
		if got == n {
			return buf, nil
		}
		if err != nil {
			if isClosedErr(err) {
				return nil, fmt.Errorf("%w: got %d of %d bytes", ErrConnectionClosed, got, n)
			}
			return nil, fmt.Errorf("%w: read: %w", ErrIO, err)
		}
		if read == 0 {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrConnectionClosed, got, n)
		}
	}
	return buf, nil
}

// ReadFrame reads one length-prefixed frame and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	return ReadFrameLimit(r, 0)
}

// ReadFrameLimit is ReadFrame with an upper bound on the declared payload
// length. A zero limit accepts any 32-bit length.
func ReadFrameLimit(r io.Reader, limit uint32) ([]byte, error) {
	header, err := ReadExact(r, HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	n := binary.LittleEndian.Uint32(header)
	if limit > 0 && n > limit {
		return nil, fmt.Errorf("%w: frame length %d exceeds limit %d", ErrMalformed, n, limit)
	}
	if uint64(n) > uint64(math.MaxInt) {
		return nil, fmt.Errorf("%w: frame length %d not addressable", ErrMalformed, n)
	}

	payload, err := ReadExact(r, int(n))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}

// WriteFrame writes the length prefix and payload in a single write.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes does not fit a 32-bit length", ErrMalformed, len(payload))
	}

	frame := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)

	if _, err := w.Write(frame); err != nil {
		if isClosedErr(err) {
			return fmt.Errorf("%w: write: %w", ErrConnectionClosed, err)
		}
		return fmt.Errorf("%w: write: %w", ErrIO, err)
	}
	return nil
}

// isClosedErr reports errors that mean the stream is gone rather than faulty.
func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.ECONNRESET)
}
