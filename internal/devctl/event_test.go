package devctl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func encodeEvent(state, isBlock, major, minor uint32) []byte {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint32(buf[0:4], state)
	binary.LittleEndian.PutUint32(buf[4:8], isBlock)
	binary.LittleEndian.PutUint32(buf[8:12], major)
	binary.LittleEndian.PutUint32(buf[12:16], minor)
	return buf
}

func TestReadEvent(t *testing.T) {
	r := bytes.NewReader(encodeEvent(DEVICE_INSERTED, 1, 3, 0))

	event, err := ReadEvent(r)
	if err != nil {
		t.Fatalf("ReadEvent() error = %v", err)
	}
	if event.State != DEVICE_INSERTED {
		t.Errorf("State = %d, want %d", event.State, DEVICE_INSERTED)
	}
	if event.IsBlockDevice != 1 {
		t.Errorf("IsBlockDevice = %d, want 1", event.IsBlockDevice)
	}
	if event.MajorNumber != 3 || event.MinorNumber != 0 {
		t.Errorf("major:minor = %d:%d, want 3:0", event.MajorNumber, event.MinorNumber)
	}
}

func TestReadEvent_Sequential(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeEvent(DEVICE_INSERTED, 1, 3, 0))
	stream.Write(encodeEvent(DEVICE_REMOVED, 0, 116, 2))

	first, err := ReadEvent(&stream)
	if err != nil {
		t.Fatalf("first ReadEvent() error = %v", err)
	}
	second, err := ReadEvent(&stream)
	if err != nil {
		t.Fatalf("second ReadEvent() error = %v", err)
	}
	if first.MajorNumber != 3 || second.MajorNumber != 116 {
		t.Errorf("records out of order: %d then %d", first.MajorNumber, second.MajorNumber)
	}
}

func TestReadEvent_TruncatedRecord(t *testing.T) {
	r := bytes.NewReader(encodeEvent(DEVICE_INSERTED, 1, 3, 0)[:10])

	if _, err := ReadEvent(r); !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("ReadEvent() error = %v, want ErrTruncatedRecord", err)
	}
}

func TestReadEvent_CleanEOFIsStillAnError(t *testing.T) {
	// The channel is an always-open device; even a record-aligned EOF means
	// the stream is broken.
	if _, err := ReadEvent(bytes.NewReader(nil)); !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("ReadEvent() at EOF error = %v, want ErrTruncatedRecord", err)
	}
}

func TestIsControlDevice(t *testing.T) {
	cases := []struct {
		isBlock, major, minor uint32
		want                  bool
	}{
		{0, 2, 10, true},
		{1, 2, 10, false},
		{0, 2, 11, false},
		{0, 3, 10, false},
	}
	for _, tc := range cases {
		e := Event{IsBlockDevice: tc.isBlock, MajorNumber: tc.major, MinorNumber: tc.minor}
		if got := e.IsControlDevice(); got != tc.want {
			t.Errorf("IsControlDevice(%d %d:%d) = %v, want %v", tc.isBlock, tc.major, tc.minor, got, tc.want)
		}
	}
}
