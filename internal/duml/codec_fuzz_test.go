package duml

import "testing"

// FuzzParserFeed ensures arbitrary byte streams, fed through the parser in
// one shot, never panic, and that any dispatched snapshot can be
// re-encoded without panicking.
func FuzzParserFeed(f *testing.F) {
	seed := buildSeedFrame()
	f.Add(seed)
	f.Add([]byte{StartByte, StartByte, StartByte})
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		p := NewParser(func(s *Snapshot) {
			_ = EncodePayload(s)
		})
		p.Feed(data)
	})
}

// FuzzBuildFrameRoundTrip builds a push frame for any payload length that
// fits within a well-formed frame and feeds it through the parser without
// panicking; a payload of exactly PayloadLen bytes must produce exactly one
// callback.
func FuzzBuildFrameRoundTrip(f *testing.F) {
	f.Add(uint16(1), make([]byte, PayloadLen))
	f.Add(uint16(0xFFFF), make([]byte, 0))
	f.Fuzz(func(t *testing.T, seq uint16, payload []byte) {
		if len(payload) > MaxFrameLen-headerLen-footerLen {
			payload = payload[:MaxFrameLen-headerLen-footerLen]
		}
		out := make([]byte, headerLen+len(payload)+footerLen)
		n, err := BuildFrame(out, DevRC, 0, DevPC, 0, seq, PackResponse, AckNone, 0, CmdSetRC, CmdIDRCPush, payload)
		if err != nil {
			return
		}
		dispatched := 0
		p := NewParser(func(s *Snapshot) { dispatched++ })
		p.Feed(out[:n])
		if len(payload) == PayloadLen && dispatched != 1 {
			t.Fatalf("payload len=%d: dispatched=%d, want 1", len(payload), dispatched)
		}
	})
}

func buildSeedFrame() []byte {
	out := make([]byte, headerLen+PayloadLen+footerLen)
	n, err := BuildFrame(out, DevRC, 0, DevPC, 0, 1, PackResponse, AckNone, 0, CmdSetRC, CmdIDRCPush, make([]byte, PayloadLen))
	if err != nil {
		panic(err)
	}
	return out[:n]
}
