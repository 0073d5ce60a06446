// atapi.go - ATAPI PACKET command engine (spec.md S4.5)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// writeCommand is the ATAPI command-byte dispatcher for the taskfile
// RegCmdStatus write (spec.md S4.5 "PACKET entry" plus the small set of ATA
// commands an ATAPI device must still answer).
func (d *ATAPIDevice) writeCommand(val byte) {
	if !commandInterruptionOK(&d.Device, val) {
		return
	}
	d.Command = val
	d.AllowWriting = false

	switch val {
	case 0x08: // DEVICE RESET
		d.Count = 1
		d.LBA[0] = 1
		d.LBA[1] = 0x14
		d.LBA[2] = 0xEB
		d.Status = StatusReady
		d.AllowWriting = true
		d.Controller.raiseIRQ()

	case 0xA0: // PACKET
		d.beginPacket()

	case 0x20: // a READ SECTOR(S) aimed at an ATAPI device: not supported
		abortErrorSignature(&d.Device)
		d.Controller.raiseIRQ()

	case 0xA1: // IDENTIFY PACKET DEVICE
		d.IdentifyPacketDevice()

	case 0xEC: // IDENTIFY PACKET DEVICE requested through the wrong opcode
		abortErrorSignature(&d.Device)
		d.Controller.raiseIRQ()

	default:
		d.Logger.Printf("ide: unknown ATAPI command 0x%02X", val)
		abortError(&d.Device)
		d.Controller.raiseIRQ()
	}
}

// IdentifyPacketDevice handles the ATAPI identify opcode, 0xA1, the way
// 0xEC is handled for ATA: writeCommand routes an ATAPI device's 0xA1 here,
// and the 512-byte reply from identify.go is delivered through DATA_READ.
// An ATA disk given 0xA1 aborts with the ATAPI signature instead (ata.go's
// writeCommand).
func (d *ATAPIDevice) IdentifyPacketDevice() {
	if !commandInterruptionOK(&d.Device, 0xA1) {
		return
	}
	d.Command = 0xA1
	d.State = StateBusy
	d.Status = StatusBSY
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, d.IdentifyCommandDelay)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "identify"), delay, func() {
		sector := d.GenerateIdentifyPacketDevice()
		copy(d.SectorBuf[:BytesPerSector], sector)
		d.SectorI = 0
		d.SectorTotal = BytesPerSector
		d.State = StateDataRead
		d.Status = StatusReadyDRQ
		d.Controller.raiseIRQ()
	})
}

// beginPacket implements spec.md S4.5 "PACKET entry (0xA0)".
func (d *ATAPIDevice) beginPacket() {
	if d.Feature&1 != 0 { // DMA requested, explicit non-goal
		d.abortCheckCondition()
		return
	}
	hostMax := uint32(d.LBA[2])<<8 | uint32(d.LBA[1])
	if hostMax == 0 {
		hostMax = 65536
	}
	d.HostMaximumByteCount = int(hostMax)
	d.ATAPIToHost = (d.Feature>>2)&1 != 0

	d.State = StateBusy
	d.Status = StatusBSY
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, DelayReentryUS)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "packet_entry"), delay, func() {
		d.ATAPICmdTotal = 12
		d.ATAPICmdI = 0
		d.Count = 0x01
		d.State = StateATAPIPacketCommand
		d.Status = StatusReadyDRQ
	})
}

// dataRead services base+0 reads while state == DATA_READ.
func (d *ATAPIDevice) dataRead(width int) uint32 {
	if d.SectorI >= d.SectorTotal {
		return 0xFFFF
	}
	var val uint32
	switch width {
	case 1:
		val = uint32(d.SectorBuf[d.SectorI])
		d.SectorI++
	case 4:
		val = uint32(d.SectorBuf[d.SectorI]) | uint32(d.SectorBuf[d.SectorI+1])<<8 |
			uint32(d.SectorBuf[d.SectorI+2])<<16 | uint32(d.SectorBuf[d.SectorI+3])<<24
		d.SectorI += 4
	default:
		val = uint32(d.SectorBuf[d.SectorI]) | uint32(d.SectorBuf[d.SectorI+1])<<8
		d.SectorI += 2
	}
	if d.SectorI >= d.SectorTotal {
		d.ioCompletion()
	}
	return val
}

// dataWrite handles both ATAPI_PACKET_COMMAND 12-byte accumulation and
// DATA_WRITE sector-buffer accumulation (spec.md S4.5 / S4.1).
func (d *ATAPIDevice) dataWrite(width int, val uint32) {
	if d.State == StateATAPIPacketCommand {
		d.ATAPICmd[d.ATAPICmdI] = byte(val)
		d.ATAPICmdI++
		if width != 1 {
			d.ATAPICmd[d.ATAPICmdI] = byte(val >> 8)
			d.ATAPICmdI++
		}
		if d.ATAPICmdI >= d.ATAPICmdTotal {
			d.atapiCmdCompletion()
		}
		return
	}

	// DATA_WRITE: MODE SELECT(10) payload accumulation.
	if width == 4 {
		d.SectorBuf[d.SectorI] = byte(val)
		d.SectorBuf[d.SectorI+1] = byte(val >> 8)
		d.SectorBuf[d.SectorI+2] = byte(val >> 16)
		d.SectorBuf[d.SectorI+3] = byte(val >> 24)
		d.SectorI += 4
	} else {
		d.SectorBuf[d.SectorI] = byte(val)
		d.SectorBuf[d.SectorI+1] = byte(val >> 8)
		d.SectorI += 2
	}
	if d.SectorI >= d.SectorTotal {
		d.onModeSelectComplete()
	}
}

func (d *ATAPIDevice) setTransferByteCount(n int) {
	d.LBA[1] = byte(n)
	d.LBA[2] = byte(n >> 8)
}

// atapiCmdCompletion dispatches the 12-byte packet to its opcode handler
// (spec.md S4.5 "Completion dispatcher"), scheduling an ATAPI_BUSY delay
// for anything that is not effectively free.
func (d *ATAPIDevice) atapiCmdCompletion() {
	op := d.ATAPICmd[0]
	slot := d.Controller.slotOf(d)

	if op == 0x00 { // TEST UNIT READY: immediate, no spinup trigger
		d.commonSpinupResponse(false, false)
		d.Count = 0x03
		d.setTransferByteCount(0)
		d.Status = StatusReady
		d.State = StateReady
		d.AllowWriting = true
		d.Controller.raiseIRQ()
		return
	}

	var delayUS int
	switch op {
	case 0x28, 0xA8: // READ(10)/READ(12)
		delayUS = DelayReadUS
	case 0x03, 0x1E, 0x25, 0x12, 0x42, 0x43, 0x45, 0x47, 0x4B, 0x55, 0x5A:
		delayUS = DelayATAPIQuickUS
	case 0x2B: // SEEK, gated via spinup first
		delayUS = DelayATAPIQuickUS
	default:
		d.Logger.Printf("ide: unknown ATAPI opcode 0x%02X", op)
		d.abortCheckCondition()
		return
	}

	d.State = StateATAPIBusy
	d.Status = StatusBSY
	delay := delayForDevice(d.FakedCommand, delayUS)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "atapi_busy"), delay, func() {
		d.onATAPIBusyTime(op)
	})
}

// onATAPIBusyTime is the per-opcode completion switch (spec.md S4.5 table;
// SPEC_FULL S4 funnels through here the way original_source/ide.cpp funnels
// every ATAPI_BUSY re-entry through atapi_cmd_completion). Commands other
// than TEST UNIT READY/REQUEST SENSE that land here while the disc is still
// spinning up reschedule themselves 100ms out instead of dispatching
// (spec.md S4.7).
func (d *ATAPIDevice) onATAPIBusyTime(op byte) {
	if op != 0x00 && op != 0x03 && d.LoadingMode == LoadDiscLoading {
		slot := d.Controller.slotOf(d)
		delay := delayForDevice(d.FakedCommand, DelayLoadingUS)
		d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "atapi_busy"), delay, func() {
			d.onATAPIBusyTime(op)
		})
		return
	}

	switch op {
	case 0x03:
		d.doRequestSense()
	case 0x12:
		d.doInquiry()
	case 0x1E:
		d.finishNoData()
	case 0x25:
		d.doReadCapacity()
	case 0x28, 0xA8:
		d.doRead(op)
	case 0x2B:
		d.doSeek()
	case 0x42:
		d.doReadSubchannel()
	case 0x43:
		d.doReadTOC()
	case 0x45, 0x47:
		d.doPlayAudio(op)
	case 0x4B:
		d.doPauseResume()
	case 0x55:
		d.doModeSelectEnter()
	case 0x5A:
		d.doModeSense()
	default:
		d.abortCheckCondition()
	}
}

func (d *ATAPIDevice) finishDataIn(n int) {
	d.SectorI = 0
	d.SectorTotal = n
	d.setTransferByteCount(n)
	d.State = StateDataRead
	d.Status = StatusReadyDRQ
	d.Controller.raiseIRQ()
}

func (d *ATAPIDevice) finishNoData() {
	d.Count = 0x03
	d.setTransferByteCount(0)
	d.State = StateReady
	d.Status = StatusReady
	d.AllowWriting = true
	d.Controller.raiseIRQ()
}

// abortCheckCondition reports a CHECK CONDITION completion: count=0x03 and
// feature=0xF4 (spec.md S4.5 default branch / S7 "Unsupported ATAPI
// feature"), status READY|SEEK|ERROR, sense already populated by the
// caller (spec.md S8 scenario S4's "status = READY|SEEK|ERROR" on a
// medium-changed response). Distinct from abortErrorSignature, which is
// reserved for the ATA/ATAPI command-mismatch signature (spec.md S6).
func (d *ATAPIDevice) abortCheckCondition() {
	d.Feature = 0xF4
	d.Count = 0x03
	d.setTransferByteCount(0)
	d.State = StateReady
	d.Status = StatusReadyError
	d.AllowWriting = true
	d.Controller.raiseIRQ()
}

func (d *ATAPIDevice) abortWithSense(sk, asc, ascq byte) {
	d.setSense(sk, asc, ascq, 18)
	d.abortCheckCondition()
}

func (d *ATAPIDevice) doRequestSense() {
	n := minInt(d.SenseLength, int(d.ATAPICmd[4]))
	if n == 0 {
		n = d.SenseLength
	}
	copy(d.SectorBuf[:n], d.Sense[:n])
	d.finishDataIn(n)
}

// ioCompletion fires when the guest finishes reading/writing the data
// phase of an ATAPI command; spec.md S4.5 "an additional IRQ fires at
// io_completion time to match real hardware".
func (d *ATAPIDevice) ioCompletion() {
	d.State = StateReady
	d.Status = StatusReady
	d.AllowWriting = true
	d.Controller.raiseIRQ()
}
