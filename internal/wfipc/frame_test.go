package wfipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte(`{}`),
		[]byte(`{"method":"list-views","data":{}}`),
		bytes.Repeat([]byte("x"), 70000),
	}

	for _, payload := range payloads {
		var wire bytes.Buffer
		require.NoError(t, WriteFrame(&wire, payload))
		require.Equal(t, HeaderSize+len(payload), wire.Len())
		require.Equal(t, uint32(len(payload)), binary.LittleEndian.Uint32(wire.Bytes()[:HeaderSize]))

		got, err := ReadFrame(&wire)
		require.NoError(t, err)
		require.Equal(t, len(payload), len(got))
		require.True(t, bytes.Equal(payload, got))
	}
}

func TestReadExactSurvivesPartialReads(t *testing.T) {
	data := []byte("partial reads must be stitched together")

	whole, err := ReadExact(bytes.NewReader(data), len(data))
	require.NoError(t, err)

	oneByte, err := ReadExact(iotest.OneByteReader(bytes.NewReader(data)), len(data))
	require.NoError(t, err)

	half, err := ReadExact(iotest.HalfReader(bytes.NewReader(data)), len(data))
	require.NoError(t, err)

	require.Equal(t, whole, oneByte)
	require.Equal(t, whole, half)
}

func TestReadExactAcceptsDataWithEOF(t *testing.T) {
	got, err := ReadExact(iotest.DataErrReader(strings.NewReader("abcd")), 4)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), got)
}

func TestReadExactZeroReadIsClosed(t *testing.T) {
	_, err := ReadExact(zeroReader{}, 3)
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadExactWrapsOtherErrorsAsIO(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReadExact(iotest.ErrReader(boom), 3)
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, boom)
}

func TestReadFrameClosedMidFrame(t *testing.T) {
	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header, 100)

	_, err := ReadFrame(bytes.NewReader(header))
	require.ErrorIs(t, err, ErrConnectionClosed)
	require.Contains(t, err.Error(), "read payload")
}

func TestReadFrameShortPayloadIsNotTruncated(t *testing.T) {
	var wire bytes.Buffer
	require.NoError(t, WriteFrame(&wire, []byte(`{"views":[]}`)))
	short := wire.Bytes()[:wire.Len()-3]

	got, err := ReadFrame(iotest.OneByteReader(bytes.NewReader(short)))
	require.ErrorIs(t, err, ErrConnectionClosed)
	require.Nil(t, got)
}

func TestReadFrameClosedInHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 0}))
	require.ErrorIs(t, err, ErrConnectionClosed)
	require.Contains(t, err.Error(), "read header")

	_, err = ReadFrame(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadFrameLimit(t *testing.T) {
	var wire bytes.Buffer
	require.NoError(t, WriteFrame(&wire, []byte(`"0123456789"`)))

	_, err := ReadFrameLimit(bytes.NewReader(wire.Bytes()), 4)
	require.ErrorIs(t, err, ErrMalformed)

	got, err := ReadFrameLimit(bytes.NewReader(wire.Bytes()), 12)
	require.NoError(t, err)
	require.Equal(t, `"0123456789"`, string(got))
}

func TestWriteFrameIsOneWrite(t *testing.T) {
	w := &countingWriter{}
	require.NoError(t, WriteFrame(w, []byte(`{"method":"x"}`)))
	require.Equal(t, 1, w.writes)
}

func TestWriteFrameErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	err := WriteFrame(failingWriter{err: boom}, []byte("{}"))
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, boom)

	err = WriteFrame(failingWriter{err: io.ErrClosedPipe}, []byte("{}"))
	require.ErrorIs(t, err, ErrIO)

	err = WriteFrame(failingWriter{err: io.EOF}, []byte("{}"))
	require.ErrorIs(t, err, ErrConnectionClosed)
}

type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }
