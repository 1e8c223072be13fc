package duml

import "testing"

// TestParser_ChunkedStream mirrors the teacher's chunked RX stress test:
// a continuous stream of several frames fed through Feed in irregular
// small chunks must still produce exactly one callback per push frame,
// in order.
func TestParser_ChunkedStream(t *testing.T) {
	p, got := newCollectingParser(t)

	var want []Snapshot
	var stream []byte
	for i := uint16(0); i < 6; i++ {
		payload := make([]byte, PayloadLen)
		payload[4] = byte(i) << 1 // vary right_wheel_delta per frame
		frame := buildPush(t, i, payload)
		stream = append(stream, frame...)

		var s Snapshot
		if err := DecodePayload(payload, &s); err != nil {
			t.Fatalf("DecodePayload: %v", err)
		}
		want = append(want, s)
	}

	chunkSizes := []int{1, 2, 3, 4, 5, 7, 11, 13}
	cs := 0
	for pos := 0; pos < len(stream); {
		n := chunkSizes[cs%len(chunkSizes)]
		cs++
		if pos+n > len(stream) {
			n = len(stream) - pos
		}
		p.Feed(stream[pos : pos+n])
		pos += n
	}

	if len(*got) != len(want) {
		t.Fatalf("decoded %d frames, want %d", len(*got), len(want))
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Fatalf("frame %d mismatch: got %+v, want %+v", i, (*got)[i], want[i])
		}
	}
}

// TestParser_InterleavedNonPushFrames checks that channel-request frames
// mixed in with push frames neither desync the parser nor produce
// spurious callbacks.
func TestParser_InterleavedNonPushFrames(t *testing.T) {
	p, got := newCollectingParser(t)

	var stream []byte
	wantCallbacks := 0
	for i := uint16(0); i < 5; i++ {
		if i%2 == 0 {
			out := make([]byte, 32)
			n, err := BuildChannelRequest(out, i)
			if err != nil {
				t.Fatalf("BuildChannelRequest: %v", err)
			}
			stream = append(stream, out[:n]...)
			continue
		}
		stream = append(stream, buildPush(t, i, make([]byte, PayloadLen))...)
		wantCallbacks++
	}

	p.Feed(stream)
	if len(*got) != wantCallbacks {
		t.Fatalf("got %d callbacks, want %d", len(*got), wantCallbacks)
	}
}
