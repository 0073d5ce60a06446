// ports.go - port-I/O front end: base and alt address windows (spec.md S4.1)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// Install registers this controller's base and alt windows on bus, in the
// teacher's MapIO(start, end, onRead, onWrite) style generalized to legacy
// port space (host.go's Bus interface).
func (c *Controller) Install(bus Bus) {
	for offset := uint16(0); offset < 8; offset++ {
		off := offset
		bus.InstallPort(c.BaseIO+off, 4,
			func(width int) uint32 { return c.baseRead(int(off), width) },
			func(width int, val uint32) { c.baseWrite(int(off), width, val) },
		)
	}
	for offset := uint16(0); offset < 2; offset++ {
		off := offset
		bus.InstallPort(c.AltIO+off, 1,
			func(width int) uint32 { return c.altRead(int(off)) },
			func(width int, val uint32) { c.altWrite(int(off), byte(val)) },
		)
	}
}

// splitWidth reports whether a 32-bit data-port access is ignored: with
// IgnorePIO32 and EnablePIO32 both set, reads return all-ones and writes are
// dropped. It does not split anything: every other 32-bit access, to the
// data port or to a taskfile register, reaches its handler unchanged as a
// single access, whatever EnablePIO32 says.
func (c *Controller) splitWidth(offset, width int) (ignore bool) {
	if offset != RegData || width != 4 {
		return false
	}
	return c.IgnorePIO32 && c.EnablePIO32
}

func (c *Controller) baseRead(offset, width int) uint32 {
	if offset == RegData && width == 4 && c.splitWidth(offset, width) {
		return 0xFFFFFFFF
	}

	d := c.selected()
	t := c.selectedTarget()

	switch offset {
	case RegData:
		if t == nil || d.State != StateDataRead || d.Status&StatusDRQ == 0 {
			return 0xFFFF
		}
		return t.dataRead(width)
	case RegFeature, RegCount, RegLBA0, RegLBA1, RegLBA2:
		if d == nil {
			return 0
		}
		return uint32(taskfileByte(d, offset))
	case RegDriveHead:
		return uint32(c.DriveHead)
	case RegCmdStatus:
		if !c.anyDeviceBusy() {
			c.lowerIRQ()
		}
		if d == nil {
			return uint32(c.FallbackStatus)
		}
		return uint32(d.Status)
	default:
		return 0xFF
	}
}

func taskfileByte(d *Device, offset int) byte {
	switch offset {
	case RegFeature:
		return d.Feature
	case RegCount:
		return d.Count
	case RegLBA0:
		return d.LBA[0]
	case RegLBA1:
		return d.LBA[1]
	case RegLBA2:
		return d.LBA[2]
	}
	return 0
}

func setTaskfileByte(d *Device, offset int, val byte) {
	switch offset {
	case RegFeature:
		d.Feature = val
	case RegCount:
		d.Count = val
	case RegLBA0:
		d.LBA[0] = val
	case RegLBA1:
		d.LBA[1] = val
	case RegLBA2:
		d.LBA[2] = val
	}
}

func (c *Controller) baseWrite(offset, width int, val uint32) {
	if offset == RegData && width == 4 && c.splitWidth(offset, width) {
		return
	}

	d := c.selected()
	t := c.selectedTarget()

	switch offset {
	case RegData:
		if t != nil {
			t.dataWrite(width, val)
		}
	case RegFeature, RegCount, RegLBA0, RegLBA1, RegLBA2:
		if d == nil {
			return
		}
		if d.Status&StatusBSY != 0 {
			d.Logger.Printf("ide: dropped taskfile write to offset %d while BUSY", offset)
			return
		}
		if !d.AllowWriting {
			return
		}
		setTaskfileByte(d, offset, byte(val))
	case RegDriveHead:
		c.writeDriveHead(byte(val))
	case RegCmdStatus:
		if t == nil {
			return
		}
		if d.Status&StatusBSY != 0 {
			d.Logger.Printf("ide: dropped command write 0x%02X while BUSY", val)
			return
		}
		t.writeCommand(byte(val))
	}
}

// writeDriveHead implements spec.md S4.1's offset-6 write behavior,
// including the BUSY-gating exception ("honored only if the new
// drive-select bit matches the current select").
func (c *Controller) writeDriveHead(val byte) {
	newSelect := int((val >> 4) & 1)
	busy := c.anyDeviceBusy()
	if busy && newSelect != c.Select {
		return
	}

	oldSelect := c.Select
	switched := newSelect != oldSelect
	if switched {
		c.lowerIRQ()
		if old := c.target(oldSelect); old != nil {
			old.deselect()
		}
		c.Select = newSelect
	}
	c.DriveHead = val
	if t := c.target(c.Select); t != nil {
		t.selectDevice(val, switched)
		t.dev().DriveHead = val
	}
}

func (c *Controller) altRead(offset int) uint32 {
	switch offset {
	case AltRegStatus:
		d := c.selected()
		if d == nil {
			return uint32(c.FallbackStatus)
		}
		return uint32(d.Status)
	case AltRegAddress:
		// Synthesized Drive Address Register: bit layout is vestigial on
		// real controllers and not consumed by the guests this module
		// targets; report the inactive-low default.
		return 0xFF &^ (1 << uint(c.Select))
	}
	return 0xFF
}

func (c *Controller) altWrite(offset int, val byte) {
	if offset != AltRegControl {
		return
	}

	nienWasSet := c.controlNIEN
	nienNowSet := val&ControlNIEN != 0
	if nienWasSet != nienNowSet {
		c.setInterruptEnable(!nienNowSet)
	}
	c.controlNIEN = nienNowSet

	srstWasSet := c.controlSRST
	srstNowSet := val&ControlSRST != 0
	if !srstWasSet && srstNowSet {
		c.HostReset = true
		for i := 0; i < 2; i++ {
			if t := c.target(i); t != nil {
				t.hostResetBegin()
			}
		}
	} else if srstWasSet && !srstNowSet {
		c.HostReset = false
		for i := 0; i < 2; i++ {
			if t := c.target(i); t != nil {
				t.hostResetComplete()
			}
		}
	}
	c.controlSRST = srstNowSet
}
