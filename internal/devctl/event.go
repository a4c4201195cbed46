// Package devctl describes the wire format of the kernel device event
// channel and reads whole event records from it.
package devctl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Device event state constants matching kernel conventions.
//
//nolint:revive,staticcheck // ALL_CAPS naming matches kernel conventions
const (
	DEVICE_REMOVED     = 0x01
	DEVICE_INSERTED    = 0x02
	DEVICE_RECOVERED   = 0x03
	DEVICE_FATAL_ERROR = 0x04
)

// The devctl channel reports its own device node like any other; events
// carrying this identity must be ignored so the channel is never torn down
// by the code that reads it.
const (
	ControlDeviceMajor = 2
	ControlDeviceMinor = 10
)

// Event matches the kernel device event record layout. Fields are u32
// little-endian; the record is read in whole units only.
type Event struct {
	State         uint32
	IsBlockDevice uint32
	MajorNumber   uint32
	MinorNumber   uint32
}

// EventSize is the fixed on-wire record size in bytes.
const EventSize = 16

// ErrTruncatedRecord reports that the stream ended or errored inside a
// record boundary. Once that happens the reader and the kernel disagree on
// record framing and nothing further can be trusted.
var ErrTruncatedRecord = errors.New("devctl: stream ended after incomplete record")

// IsControlDevice reports whether the event describes the devctl channel's
// own device node.
func (e *Event) IsControlDevice() bool {
	return e.IsBlockDevice == 0 && e.MajorNumber == ControlDeviceMajor && e.MinorNumber == ControlDeviceMinor
}

// ReadEvent reads exactly one event record from r.
// Any failure to fill a whole record, including a clean EOF, is reported as
// ErrTruncatedRecord: the channel is an always-open device, not a bounded
// file, so there is no legitimate end-of-stream.
func ReadEvent(r io.Reader) (*Event, error) {
	var buf [EventSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedRecord, err)
	}

	return &Event{
		State:         binary.LittleEndian.Uint32(buf[0:4]),
		IsBlockDevice: binary.LittleEndian.Uint32(buf[4:8]),
		MajorNumber:   binary.LittleEndian.Uint32(buf[8:12]),
		MinorNumber:   binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}
