// atapi_commands.go - individual ATAPI opcode handlers (spec.md S4.5)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// doInquiry generates the 36-byte MMC INQUIRY reply (spec.md S6 "ATAPI
// INQUIRY reply").
func (d *ATAPIDevice) doInquiry() {
	n := 36
	buf := d.SectorBuf[:n]
	for i := range buf {
		buf[i] = 0
	}
	buf[0] = (0 << 5) | 5 // peripheral qualifier 0, device type 5 = CD-ROM
	buf[1] = 0x80         // RMB = 1, removable
	buf[3] = 0x21
	buf[4] = byte(n - 5)
	copy(buf[8:16], padRight(d.VendorID, 8))
	copy(buf[16:32], padRight(d.ProductID, 16))
	copy(buf[32:36], padRight(d.ProductRev, 4))
	d.finishDataIn(n)
}

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

// doReadCapacity returns (leadOut_LBA-150, 2048) (spec.md S4.5 "0x25 READ
// CAPACITY").
func (d *ATAPIDevice) doReadCapacity() {
	if !d.commonSpinupResponse(false, false) {
		d.abortCheckCondition()
		return
	}
	_, _, leadOut, err := d.CDROM.GetAudioTracks()
	if err != nil {
		d.abortWithSense(SenseKeyNotReady, ASCMediumNotPresent, 0)
		return
	}
	buf := d.SectorBuf[:8]
	last := leadOut - 150
	writeDwordBE(buf[0:4], last)
	writeDwordBE(buf[4:8], 2048)
	d.finishDataIn(8)
}

func writeDwordBE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// doRead implements READ(10)/READ(12) (spec.md S4.5 "0x28/0xA8").
func (d *ATAPIDevice) doRead(op byte) {
	if !d.commonSpinupResponse(true, true) {
		d.abortCheckCondition()
		return
	}
	lba := uint32(d.ATAPICmd[2])<<24 | uint32(d.ATAPICmd[3])<<16 | uint32(d.ATAPICmd[4])<<8 | uint32(d.ATAPICmd[5])
	var length uint32
	if op == 0x28 {
		length = uint32(d.ATAPICmd[7])<<8 | uint32(d.ATAPICmd[8])
	} else {
		length = uint32(d.ATAPICmd[6])<<24 | uint32(d.ATAPICmd[7])<<16 | uint32(d.ATAPICmd[8])<<8 | uint32(d.ATAPICmd[9])
	}
	d.ReadLBA = lba
	d.TransferLength = length

	byteCount := minU32(length*2048, uint32(len(d.SectorBuf)))
	if err := d.CDROM.ReadSectorsHost(lba, byteCount/2048, d.SectorBuf[:byteCount]); err != nil {
		d.abortWithSense(SenseKeyNotReady, ASCMediumNotPresent, 0)
		return
	}
	d.finishDataIn(int(byteCount))
}

// doSeek implements SEEK (spec.md S4.5 "0x2B SEEK"): requires ready, and as
// a Windows 95 CD-player quirk, stops any playing audio.
func (d *ATAPIDevice) doSeek() {
	if !d.commonSpinupResponse(true, true) {
		d.abortCheckCondition()
		return
	}
	if d.PlayingAudio {
		d.CDROM.StopAudio()
		d.PlayingAudio = false
	}
	d.finishNoData()
}

// doReadSubchannel implements spec.md S4.5 "0x42 READ SUBCHANNEL".
func (d *ATAPIDevice) doReadSubchannel() {
	if !d.commonSpinupResponse(true, true) {
		d.abortCheckCondition()
		return
	}
	sub, err := d.CDROM.GetAudioSub()
	if err != nil {
		d.abortWithSense(SenseKeyNotReady, ASCMediumNotPresent, 0)
		return
	}
	timeField := d.ATAPICmd[1]&0x02 != 0
	buf := d.SectorBuf[:16]
	for i := range buf {
		buf[i] = 0
	}
	status := d.CDROM.GetAudioStatus()
	switch {
	case status.Playing && !status.Paused:
		buf[1] = 0x11
	case status.Paused:
		buf[1] = 0x12
	default:
		buf[1] = 0x13
	}
	buf[3] = 12 // subchannel data length
	buf[5] = sub.Attr
	buf[6] = sub.Track
	buf[7] = sub.Index
	if timeField {
		min, sec, frame := lbaToMSF(sub.AbsoluteAddr)
		buf[8], buf[9], buf[10] = 0, min, sec
		buf[11] = frame
		min, sec, frame = lbaToMSF(sub.RelativeAddr)
		buf[12], buf[13], buf[14] = 0, min, sec
		buf[15] = frame
	} else {
		writeDwordBE(buf[8:12], sub.AbsoluteAddr)
		writeDwordBE(buf[12:16], sub.RelativeAddr)
	}
	d.finishDataIn(16)
}

// doPlayAudio implements PLAY AUDIO(10)/PLAY AUDIO MSF (spec.md S4.5
// "0x45/0x47").
func (d *ATAPIDevice) doPlayAudio(op byte) {
	if !d.commonSpinupResponse(true, true) {
		d.abortCheckCondition()
		return
	}
	var start, length uint32
	if op == 0x45 {
		start = uint32(d.ATAPICmd[2])<<24 | uint32(d.ATAPICmd[3])<<16 | uint32(d.ATAPICmd[4])<<8 | uint32(d.ATAPICmd[5])
		length = uint32(d.ATAPICmd[7])<<8 | uint32(d.ATAPICmd[8])
	} else {
		start = msfToLBA(d.ATAPICmd[3], d.ATAPICmd[4], d.ATAPICmd[5])
		end := msfToLBA(d.ATAPICmd[6], d.ATAPICmd[7], d.ATAPICmd[8])
		if end > start {
			length = end - start
		}
	}
	if start == 0xFFFFFFFF {
		d.CDROM.PauseAudio(false)
		d.PlayingAudio = false
		d.finishNoData()
		return
	}
	if length == 0 {
		d.finishNoData()
		return
	}
	if err := d.CDROM.PlayAudioSector(start, length); err != nil {
		d.abortWithSense(SenseKeyNotReady, ASCMediumNotPresent, 0)
		return
	}
	d.PlayingAudio = true
	d.finishNoData()
}

// doPauseResume implements spec.md S4.5 "0x4B PAUSE/RESUME".
func (d *ATAPIDevice) doPauseResume() {
	if !d.commonSpinupResponse(true, true) {
		d.abortCheckCondition()
		return
	}
	resume := d.ATAPICmd[8]&1 != 0
	if err := d.CDROM.PauseAudio(resume); err != nil {
		d.abortWithSense(SenseKeyNotReady, ASCMediumNotPresent, 0)
		return
	}
	d.finishNoData()
}

// doModeSelectEnter begins the DATA_WRITE phase for MODE SELECT(10)
// (spec.md S4.5 "0x55"): accept AllocationLength data, capped at 512.
func (d *ATAPIDevice) doModeSelectEnter() {
	allocLen := minInt(int(uint16(d.ATAPICmd[7])<<8|uint16(d.ATAPICmd[8])), BytesPerSector)
	if allocLen == 0 {
		d.finishNoData()
		return
	}
	d.SectorI = 0
	d.SectorTotal = allocLen
	d.State = StateDataWrite
	d.Status = StatusReadyDRQ
	d.setTransferByteCount(allocLen)
}

// onModeSelectComplete ends the MODE SELECT(10) data phase. It logs only
// byte 7 of the received parameter header (the low byte of the block
// descriptor length); the mode pages that follow are not parsed.
func (d *ATAPIDevice) onModeSelectComplete() {
	if d.SectorTotal >= 8 {
		pageLen := d.SectorBuf[7]
		d.Logger.Printf("ide: MODE SELECT(10) block descriptor length %d", pageLen)
	}
	d.ioCompletion()
}
