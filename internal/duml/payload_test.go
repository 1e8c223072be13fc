package duml

import (
	"reflect"
	"testing"
)

func TestDecodePayload_ShortInput(t *testing.T) {
	var s Snapshot
	if err := DecodePayload(make([]byte, 16), &s); err != ErrShortPayload {
		t.Fatalf("len=16: err = %v, want ErrShortPayload", err)
	}
	if err := DecodePayload(make([]byte, 17), &s); err != nil {
		t.Fatalf("len=17: err = %v, want nil", err)
	}
	if err := DecodePayload(make([]byte, 32), &s); err != nil {
		t.Fatalf("len=32: err = %v, want nil", err)
	}
}

func TestDecodePayload_NilDst(t *testing.T) {
	if err := DecodePayload(make([]byte, 17), nil); err != ErrShortPayload {
		t.Fatalf("err = %v, want ErrShortPayload", err)
	}
}

func TestDecodePayload_AllZero(t *testing.T) {
	var s Snapshot
	if err := DecodePayload(make([]byte, PayloadLen), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Snapshot{
		FlightMode: ModeSport,
		StickRight: Stick{Horizontal: -1024, Vertical: -1024},
		StickLeft:  Stick{Horizontal: -1024, Vertical: -1024},
		LeftWheel:  -1024,
		RightWheel: -1024,
	}
	if s != want {
		t.Fatalf("decode(zero) = %+v, want %+v", s, want)
	}
}

func TestDecodePayload_ExtraTrailingBytesIgnored(t *testing.T) {
	p := make([]byte, PayloadLen+100)
	p[100] = 0xFF // far past the payload; must not affect decode
	var s Snapshot
	if err := DecodePayload(p, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.FlightMode != ModeSport {
		t.Fatalf("trailing bytes leaked into decode: %+v", s)
	}
}

func axisCases() []struct {
	enc  uint16
	want int16
} {
	return []struct {
		enc  uint16
		want int16
	}{
		{0x0000, -1024},
		{0x0400, 0},
		{0xFFFF, -1025},
		{0x0694, 660},
		{0x016C, -660},
	}
}

func TestDecodePayload_AxisEncoding(t *testing.T) {
	for _, c := range axisCases() {
		p := make([]byte, PayloadLen)
		writeU16LE(p[5:7], c.enc)
		var s Snapshot
		if err := DecodePayload(p, &s); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if s.StickRight.Horizontal != c.want {
			t.Errorf("enc=%#04x: got %d, want %d", c.enc, s.StickRight.Horizontal, c.want)
		}
	}
}

func deltaCases() []struct {
	b    byte
	want int8
} {
	return []struct {
		b    byte
		want int8
	}{
		{0x54, 10},
		{0x14, -10},
		{0x7E, 31},
		{0x40, 0},
		{0x00, 0},
	}
}

func TestDecodePayload_DeltaEncoding(t *testing.T) {
	for _, c := range deltaCases() {
		p := make([]byte, PayloadLen)
		p[4] = c.b
		var s Snapshot
		if err := DecodePayload(p, &s); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if s.RightWheelDelta != c.want {
			t.Errorf("byte=%#02x: got %d, want %d", c.b, s.RightWheelDelta, c.want)
		}
	}
}

func TestDecodePayload_E5Scenario(t *testing.T) {
	p := make([]byte, PayloadLen)
	p[1] = 0xF9
	for _, off := range []int{5, 7, 9, 11, 13, 15} {
		writeU16LE(p[off:off+2], axisCenter)
	}
	var s Snapshot
	if err := DecodePayload(p, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.Record {
		t.Error("Record = false, want true")
	}
	if !(s.FiveD.Right && s.FiveD.Up && s.FiveD.Down && s.FiveD.Left && s.FiveD.Center) {
		t.Errorf("five_d = %+v, want all true", s.FiveD)
	}
	axes := []int16{s.StickRight.Horizontal, s.StickRight.Vertical, s.StickLeft.Vertical, s.StickLeft.Horizontal, s.LeftWheel, s.RightWheel}
	for i, a := range axes {
		if a != 0 {
			t.Errorf("axis[%d] = %d, want 0", i, a)
		}
	}
}

// TestDecodePayload_ReservedBitsIgnored sets every reserved bit and checks decode is
// unaffected versus an all-zero payload.
func TestDecodePayload_ReservedBitsIgnored(t *testing.T) {
	clean := make([]byte, PayloadLen)
	dirty := make([]byte, PayloadLen)
	dirty[0] = 0x0F | 0x80 // bits 0-3 and 7 reserved in byte 0
	dirty[1] = 0x06        // bits 1-2 reserved in byte 1
	dirty[2] = 0xE0        // bits 5-7 reserved in byte 2
	dirty[3] = 0xFF         // entirely unused
	dirty[4] = 0x01 | 0x80  // bits 0 and 7 reserved in byte 4

	var sClean, sDirty Snapshot
	if err := DecodePayload(clean, &sClean); err != nil {
		t.Fatalf("decode clean: %v", err)
	}
	if err := DecodePayload(dirty, &sDirty); err != nil {
		t.Fatalf("decode dirty: %v", err)
	}
	if !reflect.DeepEqual(sClean, sDirty) {
		t.Fatalf("reserved bits influenced decode:\nclean=%+v\ndirty=%+v", sClean, sDirty)
	}
}

func TestDecodePayload_SignBitZeroMagnitudeIsZero(t *testing.T) {
	p := make([]byte, PayloadLen)
	p[4] = 1 << 6 // sign set, magnitude 0
	var s Snapshot
	if err := DecodePayload(p, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.RightWheelDelta != 0 {
		t.Fatalf("delta = %d, want 0 (no negative zero)", s.RightWheelDelta)
	}
}

// TestRoundTrip_DecodeEncode checks decode(encode(s)) == s for snapshots
// within the representable domain (property 1, spec §8).
func TestRoundTrip_DecodeEncode(t *testing.T) {
	cases := []Snapshot{
		{},
		{Pause: true, GoHome: true, Shutter: true, Record: true},
		{FiveD: FiveD{Right: true, Up: true, Down: true, Left: true, Center: true}},
		{Custom1: true, Custom2: true, Custom3: true, FlightMode: ModeTripod},
		{FlightMode: ModeNormal},
		{
			StickRight:      Stick{Horizontal: 660, Vertical: -660},
			StickLeft:       Stick{Horizontal: -1, Vertical: 1},
			LeftWheel:       0x3FF,
			RightWheel:      -0x400,
			RightWheelDelta: 31,
		},
		{RightWheelDelta: -31},
		{RightWheelDelta: 0},
	}
	for i, s := range cases {
		enc := EncodePayload(&s)
		var got Snapshot
		if err := DecodePayload(enc, &got); err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if got != s {
			t.Fatalf("case %d: decode(encode(s)) = %+v, want %+v", i, got, s)
		}
	}
}

// TestRoundTrip_EncodeDecode checks encode(decode(p)) == p with reserved
// bits zeroed.
func TestRoundTrip_EncodeDecode(t *testing.T) {
	p := make([]byte, PayloadLen)
	p[0] = 0x70 // pause, gohome, shutter
	p[1] = 0xF9 // record + all five_d
	p[2] = 0x1D // custom1-3 + flight mode = 1
	writeU16LE(p[5:7], 0x0694)
	writeU16LE(p[7:9], 0x016C)
	writeU16LE(p[9:11], axisCenter)
	writeU16LE(p[11:13], axisCenter)
	writeU16LE(p[13:15], axisCenter)
	writeU16LE(p[15:17], axisCenter)
	p[4] = 0x54 // +10

	var s Snapshot
	if err := DecodePayload(p, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	enc := EncodePayload(&s)
	if !reflect.DeepEqual(enc, p) {
		t.Fatalf("encode(decode(p)) = % X, want % X", enc, p)
	}
}

func TestEncodePayload_DeltaClamp(t *testing.T) {
	s := Snapshot{RightWheelDelta: 100}
	enc := EncodePayload(&s)
	var got Snapshot
	if err := DecodePayload(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RightWheelDelta != 31 {
		t.Fatalf("delta = %d, want 31", got.RightWheelDelta)
	}
}

func TestEncodePayload_NilSnapshotIsZeroBytes(t *testing.T) {
	got := EncodePayload(nil)
	if len(got) != PayloadLen {
		t.Fatalf("len = %d, want %d", len(got), PayloadLen)
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}
