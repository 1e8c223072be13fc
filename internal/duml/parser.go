package duml

import "github.com/snglth/rc-monitor/internal/metrics"

// ringSize is the fixed capacity of the parser's byte ring. Any frame
// larger than this cannot be assembled; it is abandoned on resync like
// any other unparsable span.
const ringSize = 4096

// scanWindowEnd bounds the command-pair fallback scan: offsets 8..12
// inclusive. This is deliberately narrow — see spec §9 "Version
// tolerance" — and must not be widened or narrowed without evidence
// from real firmware variants.
const scanWindowEnd = 12

// reassemblyState is the parser's two-state reassembly machine.
type reassemblyState int

const (
	scanningForStart reassemblyState = iota
	readingFrame
)

// Callback is invoked synchronously, on the calling goroutine, once per
// decoded controller-push frame. snap is only valid for the duration of
// the call; callers that need to retain it must copy.
type Callback func(snap *Snapshot)

// Parser reassembles a chunked DUML byte stream into frames and dispatches
// decoded controller-push snapshots to a callback. A Parser is not safe
// for concurrent use from multiple goroutines; each stream needs its own
// Parser, or the caller must serialize access.
type Parser struct {
	callback Callback

	ring  [ringSize]byte
	head  int // next write position
	count int // bytes currently buffered

	state    reassemblyState
	frameLen int // expected frame length, valid only in readingFrame

	scratch [MaxFrameLen]byte
	hdr     [3]byte
}

// NewParser creates a Parser that invokes cb for each decoded
// controller-push frame. It returns nil if cb is nil.
func NewParser(cb Callback) *Parser {
	if cb == nil {
		return nil
	}
	return &Parser{callback: cb, state: scanningForStart}
}

// Reset empties the ring and returns to the scanning state. The callback
// binding is retained.
func (p *Parser) Reset() {
	if p == nil {
		return
	}
	p.head = 0
	p.count = 0
	p.state = scanningForStart
	p.frameLen = 0
}

// Close releases any resources held by p. Parser holds no resources
// beyond the fixed arrays embedded in its struct, so Close is a no-op
// kept only for API symmetry with create/destroy pairs elsewhere in this
// protocol family; callers may equally just drop the reference.
func (p *Parser) Close() {}

// ringPeek returns the byte at logical offset idx (0 = oldest buffered byte).
func (p *Parser) ringPeek(idx int) byte {
	tail := (p.head - p.count + ringSize) % ringSize
	return p.ring[(tail+idx)%ringSize]
}

// ringCopy copies n bytes starting at logical offset idx into dst.
func (p *Parser) ringCopy(idx int, dst []byte) {
	tail := (p.head - p.count + ringSize) % ringSize
	for i := range dst {
		dst[i] = p.ring[(tail+idx+i)%ringSize]
	}
}

// ringConsume discards n bytes from the front of the buffer.
func (p *Parser) ringConsume(n int) {
	if n > p.count {
		n = p.count
	}
	p.count -= n
}

// ringPush appends one byte, silently overwriting the oldest byte if full.
func (p *Parser) ringPush(b byte) {
	p.ring[p.head] = b
	p.head = (p.head + 1) % ringSize
	if p.count < ringSize {
		p.count++
	}
}

// Feed pushes bytes into the ring and drains every decodable frame,
// invoking the callback for each controller-push frame found. It
// returns the number of controller-push frames dispatched in this call.
// Feeding a stream byte-at-a-time or in one call produces identical
// callback sequences.
func (p *Parser) Feed(data []byte) int {
	if p == nil {
		return 0
	}
	decoded := 0
	for _, b := range data {
		p.ringPush(b)
		for {
			dispatched, more := p.tryDecodeFrame()
			if dispatched {
				decoded++
			}
			if !more {
				break
			}
		}
	}
	return decoded
}

// tryDecodeFrame drives the reassembly state machine as far as it can go
// without new input. It returns (dispatched, more): dispatched is true if
// a controller-push frame was decoded and the callback invoked; more is
// true if another call might make further progress with the currently
// buffered bytes (i.e. a frame was consumed, decodable or not, so the
// loop should run again before waiting for more input).
func (p *Parser) tryDecodeFrame() (dispatched bool, more bool) {
	for p.count > 0 {
		if p.state == scanningForStart {
			if p.ringPeek(0) != StartByte {
				p.ringConsume(1)
				metrics.IncResynced()
				continue
			}
			if p.count < 4 {
				return false, false
			}
			p.ringCopy(0, p.hdr[:])
			expected := p.ringPeek(3)
			if crc8(p.hdr[:]) != expected {
				p.ringConsume(1)
				metrics.IncResynced()
				continue
			}
			lenVer := uint16(p.hdr[1]) | uint16(p.hdr[2])<<8
			length := int(lenVer & 0x03FF)
			if length < MinFrameLen || length > MaxFrameLen {
				p.ringConsume(1)
				metrics.IncResynced()
				continue
			}
			p.frameLen = length
			p.state = readingFrame
		}

		// readingFrame
		if p.count < p.frameLen {
			return false, false
		}
		frame := p.scratch[:p.frameLen]
		p.ringCopy(0, frame)
		p.ringConsume(p.frameLen)
		p.state = scanningForStart

		expectedCRC := uint16(frame[p.frameLen-2]) | uint16(frame[p.frameLen-1])<<8
		if crc16(frame[:p.frameLen-2]) != expectedCRC {
			metrics.IncMalformed()
			return false, true
		}

		dispatched := p.dispatchControllerPush(frame)
		if !dispatched {
			metrics.IncOtherCommand()
		}
		return dispatched, true
	}
	return false, false
}

// dispatchControllerPush looks for the controller-push command pair in a
// validated frame and, if found with a sufficient payload suffix, decodes
// the payload and invokes the callback. It tries the canonical header
// offsets first, then falls back to a small scan window to tolerate
// header drift between DUML minor versions.
func (p *Parser) dispatchControllerPush(frame []byte) bool {
	l := len(frame)

	if l >= MinFrameLen {
		cmdSet, cmdID := frame[9], frame[10]
		if cmdSet == CmdSetRC && cmdID == CmdIDRCPush {
			payloadLen := l - (headerLen + footerLen)
			if payloadLen >= PayloadLen {
				var snap Snapshot
				if DecodePayload(frame[headerLen:], &snap) == nil {
					p.callback(&snap)
					return true
				}
			}
		}
	}

	if l >= MinFrameLen+1 {
		for off := 8; off <= scanWindowEnd; off++ {
			if off+2+PayloadLen > l-footerLen {
				continue
			}
			if frame[off] == CmdSetRC && frame[off+1] == CmdIDRCPush {
				payloadOff := off + 2
				var snap Snapshot
				if DecodePayload(frame[payloadOff:l-footerLen], &snap) == nil {
					p.callback(&snap)
					return true
				}
			}
		}
	}

	return false
}
