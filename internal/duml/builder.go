package duml

// packDeviceAddr packs a device type (low 5 bits) and index (high 3 bits)
// into a single byte, per the sender/receiver field layout.
func packDeviceAddr(devType, index uint8) byte {
	return (devType & 0x1F) | (index&0x07)<<5
}

// BuildFrame writes a complete DUML v1 frame into out and returns the
// total frame length. sender/receiverType are device-type constants
// (DevPC, DevRC, ...); sender/receiverIndex are usually 0.
//
// Returns ErrInvalidArgs if out is nil, or if payload is nil while
// len(payload) > 0 is impossible to express in Go (payload is always a
// valid, possibly-empty slice) — this case is retained only for
// documentation parity with the reference builder; callers pass a nil
// or empty slice interchangeably.
//
// Returns ErrTooLarge if the required length exceeds MaxFrameLen, and
// ErrBufferTooSmall if len(out) is less than the required length.
func BuildFrame(
	out []byte,
	senderType, senderIndex, receiverType, receiverIndex uint8,
	seq uint16,
	kind PackType, ack AckType, encrypt uint8,
	cmdSet, cmdID uint8,
	payload []byte,
) (int, error) {
	if out == nil {
		return 0, ErrInvalidArgs
	}

	total := headerLen + len(payload) + footerLen
	if len(out) < total {
		return 0, ErrBufferTooSmall
	}
	if total > MaxFrameLen {
		return 0, ErrTooLarge
	}

	out[0] = StartByte
	lenVer := uint16(total&0x03FF) | uint16(ProtocolVersion)<<10
	writeU16LE(out[1:3], lenVer)
	out[3] = crc8(out[0:3])

	out[4] = packDeviceAddr(senderType, senderIndex)
	out[5] = packDeviceAddr(receiverType, receiverIndex)
	writeU16LE(out[6:8], seq)
	out[8] = byte(kind)<<7 | byte(ack)<<5 | encrypt&0x07
	out[9] = cmdSet
	out[10] = cmdID

	copy(out[11:11+len(payload)], payload)

	writeU16LE(out[total-2:total], crc16(out[:total-2]))

	return total, nil
}

// BuildControllerEnable builds the one-byte-payload controller-enable
// command (cmd_set=0x06, cmd_id=0x24), sender=PC, receiver=RC,
// ack=after-exec, payload=[0x01]. The resulting frame is always 14
// bytes.
func BuildControllerEnable(out []byte, seq uint16) (int, error) {
	return BuildFrame(out,
		DevPC, 0, DevRC, 0,
		seq,
		PackRequest, AckAfterExec, 0,
		CmdSetRC, CmdIDRCEnable,
		[]byte{0x01},
	)
}

// BuildChannelRequest builds the no-payload channel-data request
// (cmd_set=0x06, cmd_id=0x01), sender=PC, receiver=RC, ack=after-exec.
// The resulting frame is always 13 bytes.
func BuildChannelRequest(out []byte, seq uint16) (int, error) {
	return BuildFrame(out,
		DevPC, 0, DevRC, 0,
		seq,
		PackRequest, AckAfterExec, 0,
		CmdSetRC, CmdIDRCChannel,
		nil,
	)
}
