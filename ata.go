// ata.go - ATA command engine (spec.md S4.4)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// isLBA reports whether the taskfile currently addresses LBA28 (drivehead
// bits 7:5 all set) rather than C/H/S (spec.md S4.4).
func isLBA(d *Device) bool {
	return d.DriveHead&0xE0 == 0xE0
}

// currentLBA28 decodes the taskfile into a 28-bit LBA.
func currentLBA28(d *Device) uint32 {
	return uint32(d.LBA[0]) | uint32(d.LBA[1])<<8 | uint32(d.LBA[2])<<16 | uint32(d.DriveHead&0x0F)<<24
}

func setLBA28(d *Device, lba uint32) {
	d.LBA[0] = byte(lba)
	d.LBA[1] = byte(lba >> 8)
	d.LBA[2] = byte(lba >> 16)
	d.DriveHead = (d.DriveHead &^ 0x0F) | byte(lba>>24)&0x0F
}

// currentCHS decodes the taskfile into C/H/S (1-based sector).
func currentCHS(d *Device) (cyl, head, sect int) {
	cyl = int(d.LBA[1]) | int(d.LBA[2])<<8
	head = int(d.DriveHead & 0x0F)
	sect = int(d.LBA[0])
	return
}

func setCHS(d *Device, cyl, head, sect int) {
	d.LBA[1] = byte(cyl)
	d.LBA[2] = byte(cyl >> 8)
	d.DriveHead = (d.DriveHead &^ 0x0F) | byte(head&0x0F)
	d.LBA[0] = byte(sect)
}

// resolveAddress validates and converts the current taskfile address into
// an absolute LBA for the backing HostDisk, per spec.md S4.4 "Address
// decoding" and "Range check".
func (d *ATADevice) resolveAddress() (lba uint64, ok bool) {
	if isLBA(&d.Device) {
		return uint64(currentLBA28(&d.Device)), true
	}
	cyl, head, sect := currentCHS(&d.Device)
	if sect < 1 || sect > d.Sects || head >= d.Heads || cyl >= d.Cyls {
		return 0, false
	}
	return uint64(cyl)*uint64(d.Heads)*uint64(d.Sects) + uint64(head)*uint64(d.Sects) + uint64(sect-1), true
}

// incrementCurrentAddress advances the taskfile address by one sector
// (spec.md S4.4 "Address increment"). Returns false on overflow.
func (d *ATADevice) incrementCurrentAddress() bool {
	if isLBA(&d.Device) {
		lba := currentLBA28(&d.Device)
		if lba >= (1<<28)-1 {
			return false
		}
		setLBA28(&d.Device, lba+1)
		return true
	}

	cyl, head, sect := currentCHS(&d.Device)
	sect++
	if sect > d.Sects {
		sect = 1
		head++
		if d.Heads == 16 && head >= 16 {
			// original_source/ide.cpp special-cases a 16-head geometry:
			// the head nibble alone cannot represent 16, so it wraps and
			// borrows from drivehead directly instead of overflowing cyl
			// early.
			head = 0
			d.DriveHead -= 0x10
			cyl++
		} else if head >= d.Heads {
			head = 0
			cyl++
		}
		if cyl >= d.Cyls {
			return false
		}
	}
	setCHS(&d.Device, cyl, head, sect)
	return true
}

func (c *Controller) ataKey(slot int, kind string) EventKey {
	return EventKey{Controller: c.Index, Device: slot, Kind: kind}
}

func (c *Controller) slotOf(t commandTarget) int {
	for i := 0; i < 2; i++ {
		if c.target(i) == t {
			return i
		}
	}
	return -1
}

// writeCommand is the ATA command dispatcher (spec.md S4.4 "Commands
// implemented").
func (d *ATADevice) writeCommand(val byte) {
	if !commandInterruptionOK(&d.Device, val) {
		return
	}
	d.Command = val
	d.AllowWriting = false

	switch {
	case val == 0x00: // NOP
		d.Feature = 0x04
		d.Status = StatusReadyError
		d.AllowWriting = true
		d.Controller.raiseIRQ()

	case val == 0x08: // DEVICE RESET
		d.Count = 1
		d.LBA[0] = 1
		d.LBA[1] = 0
		d.LBA[2] = 0
		d.DriveHead &= 0x10
		d.Status = StatusReady
		d.AllowWriting = true
		d.Controller.raiseIRQ()

	case val >= 0x10 && val <= 0x1F: // RECALIBRATE
		d.Status = StatusReady
		if isLBA(&d.Device) {
			d.LBA[0] = 0
		} else {
			d.LBA[0] = 1
		}
		d.LBA[1] = 0
		d.LBA[2] = 0
		d.AllowWriting = true
		d.Controller.raiseIRQ()

	case val == 0x20 || val == 0x21: // READ SECTOR(S)
		d.beginRead(1)

	case val == 0x30: // WRITE SECTOR(S)
		d.beginWrite(1)

	case val == 0x40 || val == 0x41: // READ VERIFY
		d.beginVerify()

	case val == 0x91: // INITIALIZE DEVICE PARAMETERS
		d.initializeDeviceParameters()

	case val == 0xC4: // READ MULTIPLE
		d.beginRead(d.multipleBlockSize())

	case val == 0xC5: // WRITE MULTIPLE
		d.beginWrite(d.multipleBlockSize())

	case val == 0xC6: // SET MULTIPLE MODE
		d.setMultipleMode()

	case val == 0xEC: // IDENTIFY DEVICE
		d.beginIdentify()

	case val == 0xA0 || val == 0xA1: // ATAPI command on an ATA disk
		abortErrorSignature(&d.Device)
		d.Controller.raiseIRQ()

	default:
		d.Logger.Printf("ide: unknown ATA command 0x%02X", val)
		abortError(&d.Device)
		d.Controller.raiseIRQ()
	}
}

func (d *ATADevice) multipleBlockSize() int {
	if d.MultipleSectorCount > 0 {
		return d.MultipleSectorCount
	}
	return 1
}

func (d *ATADevice) initializeDeviceParameters() {
	if d.Count == 0 {
		abortError(&d.Device)
		d.Controller.raiseIRQ()
		return
	}
	sects := int(d.Count)
	heads := int(d.DriveHead&0x0F) + 1
	total := d.Cyls * d.Heads * d.Sects
	d.Sects = sects
	d.Heads = heads
	if sects > 0 && heads > 0 {
		d.Cyls = total / (sects * heads)
	}
	d.Status = StatusReady
	d.AllowWriting = true
	d.Controller.raiseIRQ()
}

func (d *ATADevice) setMultipleMode() {
	count := int(d.Count)
	if count == 0 || count > d.MultipleSectorMax || !isPowerOfTwo(count) {
		d.Feature = 0x04
		abortError(&d.Device)
		d.Controller.raiseIRQ()
		return
	}
	d.MultipleSectorCount = count
	d.Status = StatusReady
	d.AllowWriting = true
	d.Controller.raiseIRQ()
}

func (d *ATADevice) beginIdentify() {
	d.State = StateBusy
	d.Status = StatusBSY
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, d.IdentifyCommandDelay)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "identify"), delay, func() {
		sector := d.GenerateIdentifyDevice()
		copy(d.SectorBuf[:BytesPerSector], sector)
		d.SectorI = 0
		d.SectorTotal = BytesPerSector
		d.State = StateDataRead
		d.Status = StatusReadyDRQ
		d.Controller.raiseIRQ()
	})
}

func (d *ATADevice) beginRead(blockSectors int) {
	count := int(d.Count)
	if count == 0 {
		count = 256
	}
	d.ProgressCount = 0
	d.State = StateBusy
	d.Status = StatusBSY
	d.scheduleReadSector(blockSectors, count)
}

func (d *ATADevice) scheduleReadSector(blockSectors, remaining int) {
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, DelayReadUS)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "io_completion"), delay, func() {
		d.completeReadSector(blockSectors, remaining)
	})
}

func (d *ATADevice) completeReadSector(blockSectors, remaining int) {
	n := minInt(blockSectors, remaining)
	buf := d.SectorBuf[:n*BytesPerSector]
	for i := 0; i < n; i++ {
		lba, ok := d.resolveAddress()
		if !ok {
			abortError(&d.Device)
			d.Controller.raiseIRQ()
			return
		}
		if err := d.Disk.ReadSector(lba, buf[i*BytesPerSector:(i+1)*BytesPerSector]); err != nil {
			d.Logger.Printf("ide: disk read failed: %v", err)
			abortError(&d.Device)
			d.Controller.raiseIRQ()
			return
		}
		if !d.incrementCurrentAddress() && i < n-1 {
			abortError(&d.Device)
			d.Controller.raiseIRQ()
			return
		}
	}
	d.SectorI = 0
	d.SectorTotal = n * BytesPerSector
	d.ProgressCount += n
	remaining -= n
	d.Count = byte(remaining)
	d.State = StateDataRead
	d.Status = StatusReadyDRQ
	d.Controller.raiseIRQ()
	d.pendingReadRemaining = remaining
	d.pendingReadBlock = blockSectors
}

func (d *ATADevice) beginWrite(blockSectors int) {
	count := int(d.Count)
	if count == 0 {
		count = 256
	}
	d.ProgressCount = 0
	n := minInt(blockSectors, count)
	d.SectorI = 0
	d.SectorTotal = n * BytesPerSector
	d.pendingReadRemaining = count
	d.pendingReadBlock = blockSectors
	d.State = StateDataWrite
	d.Status = StatusReadyDRQ
	// No IRQ on entry to WRITE SECTOR per spec.md S4.4.
}

func (d *ATADevice) beginVerify() {
	count := int(d.Count)
	if count == 0 {
		count = 256
	}
	d.State = StateBusy
	d.Status = StatusBSY
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, DelayReadUS)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "io_completion"), delay, func() {
		for i := 0; i < count; i++ {
			if _, ok := d.resolveAddress(); !ok {
				abortError(&d.Device)
				d.Controller.raiseIRQ()
				return
			}
			if i < count-1 && !d.incrementCurrentAddress() {
				abortError(&d.Device)
				d.Controller.raiseIRQ()
				return
			}
		}
		d.Count = 0
		d.Status = StatusReady
		d.State = StateReady
		d.AllowWriting = true
		d.Controller.raiseIRQ()
	})
}

// dataRead services base+0 reads while state == DATA_READ (spec.md S4.1/S4.4).
func (d *ATADevice) dataRead(width int) uint32 {
	if d.SectorI+2 > d.SectorTotal && width != 4 {
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
		d.ioCompletionRead()
	}
	return val
}

func (d *ATADevice) dataWrite(width int, val uint32) {
	switch width {
	case 1:
		d.SectorBuf[d.SectorI] = byte(val)
		d.SectorI++
	case 4:
		d.SectorBuf[d.SectorI] = byte(val)
		d.SectorBuf[d.SectorI+1] = byte(val >> 8)
		d.SectorBuf[d.SectorI+2] = byte(val >> 16)
		d.SectorBuf[d.SectorI+3] = byte(val >> 24)
		d.SectorI += 4
	default:
		d.SectorBuf[d.SectorI] = byte(val)
		d.SectorBuf[d.SectorI+1] = byte(val >> 8)
		d.SectorI += 2
	}
	if d.SectorI >= d.SectorTotal {
		d.ioCompletionWrite()
	}
}

// ioCompletionRead drives the READ SECTOR(S)/READ MULTIPLE re-entry chain
// (spec.md S4.4, SPEC_FULL S4 "IDE_DelayedCommand master dispatcher").
func (d *ATADevice) ioCompletionRead() {
	if d.pendingReadRemaining <= 0 {
		d.Status = StatusReady
		d.State = StateReady
		d.AllowWriting = true
		return
	}
	d.State = StateBusy
	d.Status = StatusBSY
	d.scheduleReadSector(d.pendingReadBlock, d.pendingReadRemaining)
}

func (d *ATADevice) ioCompletionWrite() {
	d.State = StateBusy
	d.Status = StatusBSY
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, DelayFreshRampUS)
	if d.ProgressCount > 0 {
		delay = delayForDevice(d.FakedCommand, DelayReentryUS)
	}
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "io_completion"), delay, func() {
		n := d.SectorTotal / BytesPerSector
		for i := 0; i < n; i++ {
			lba, ok := d.resolveAddress()
			if !ok {
				abortError(&d.Device)
				d.Controller.raiseIRQ()
				return
			}
			if err := d.Disk.WriteSector(lba, d.SectorBuf[i*BytesPerSector:(i+1)*BytesPerSector]); err != nil {
				d.Logger.Printf("ide: disk write failed: %v", err)
				abortError(&d.Device)
				d.Controller.raiseIRQ()
				return
			}
			if !d.incrementCurrentAddress() && i < n-1 {
				abortError(&d.Device)
				d.Controller.raiseIRQ()
				return
			}
		}
		d.ProgressCount += n
		remaining := d.pendingReadRemaining - n
		d.Count = byte(remaining)
		if remaining <= 0 {
			d.Status = StatusReady
			d.State = StateReady
			d.AllowWriting = true
			d.Controller.raiseIRQ()
			return
		}
		next := minInt(d.pendingReadBlock, remaining)
		d.SectorI = 0
		d.SectorTotal = next * BytesPerSector
		d.pendingReadRemaining = remaining
		d.State = StateDataWrite
		d.Status = StatusReadyDRQ
		d.Controller.raiseIRQ()
	})
}
