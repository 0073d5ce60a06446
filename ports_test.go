// ports_test.go - port-I/O front end edge cases (spec.md S4.1)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import "testing"

func TestAltStatusReadDoesNotClearIRQ(t *testing.T) {
	c, pic, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	dev, _ := c.AttachATA(0, disk, "S", "F", "M")
	dev.Status |= 0 // no-op, keep status at default
	c.raiseIRQ()

	c.altRead(AltRegStatus)
	if !pic.raised[c.IRQ] {
		t.Errorf("alt-status read cleared the IRQ line; spec requires it not to")
	}
}

func TestCmdStatusReadClearsIRQWhenNotBusy(t *testing.T) {
	c, pic, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	c.AttachATA(0, disk, "S", "F", "M")
	c.raiseIRQ()

	c.baseRead(RegCmdStatus, 1)
	if pic.raised[c.IRQ] {
		t.Errorf("RegCmdStatus read left IRQ asserted while device not BUSY")
	}
}

func TestCmdStatusReadDoesNotClearIRQWhileBusy(t *testing.T) {
	c, pic, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	dev, _ := c.AttachATA(0, disk, "S", "F", "M")
	dev.Status = StatusBSY
	c.raiseIRQ()

	c.baseRead(RegCmdStatus, 1)
	if !pic.raised[c.IRQ] {
		t.Errorf("RegCmdStatus read cleared IRQ while device reported BUSY")
	}
}

func TestTaskfileWriteDroppedWhenNotAllowWriting(t *testing.T) {
	c, _, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	dev, _ := c.AttachATA(0, disk, "S", "F", "M")
	dev.AllowWriting = false
	dev.Feature = 0xAA

	c.baseWrite(RegFeature, 1, 0x11)
	if dev.Feature != 0xAA {
		t.Errorf("feature register changed to 0x%02X despite allow_writing=false", dev.Feature)
	}
}

func TestDriveHeadSwitchLowersIRQAndDeselectsOld(t *testing.T) {
	c, pic, _ := newTestController(t)
	disk0 := newFakeDisk(1, 1, 1)
	disk1 := newFakeDisk(1, 1, 1)
	c.AttachATA(0, disk0, "", "", "")
	c.AttachATA(1, disk1, "", "", "")
	c.raiseIRQ()

	c.writeDriveHead(0x10) // select bit = 1 -> slave
	if pic.raised[c.IRQ] {
		t.Errorf("switching selected drive should lower the IRQ line")
	}
	if c.Select != 1 {
		t.Errorf("Select = %d, want 1 after writing drive-head select bit", c.Select)
	}
}

func TestDriveHeadSwitchIgnoredWhileOtherDeviceBusy(t *testing.T) {
	c, _, _ := newTestController(t)
	disk0 := newFakeDisk(1, 1, 1)
	disk1 := newFakeDisk(1, 1, 1)
	dev0, _ := c.AttachATA(0, disk0, "", "", "")
	c.AttachATA(1, disk1, "", "", "")
	dev0.Status = StatusBSY

	c.writeDriveHead(0x10)
	if c.Select != 0 {
		t.Errorf("Select changed to %d while the currently-selected device was BUSY", c.Select)
	}
}

func TestNIENRisingEdgeLowersIRQFallingRestoresIt(t *testing.T) {
	c, pic, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	c.AttachATA(0, disk, "S", "F", "M")
	c.raiseIRQ()

	c.altWrite(AltRegControl, ControlNIEN) // nIEN set: interrupts disabled
	if pic.raised[c.IRQ] {
		t.Errorf("setting nIEN should deassert the IRQ line")
	}

	c.altWrite(AltRegControl, 0) // nIEN cleared: interrupts re-enabled, IRQ still pending
	if !pic.raised[c.IRQ] {
		t.Errorf("clearing nIEN with irq_pending set should re-raise the IRQ line")
	}
}

func TestSRSTBeginAndCompleteResetBothDevices(t *testing.T) {
	c, _, _ := newTestController(t)
	disk0 := newFakeDisk(1, 1, 1)
	disk1 := newFakeDisk(1, 1, 1)
	dev0, _ := c.AttachATA(0, disk0, "", "", "")
	dev1, _ := c.AttachATA(1, disk1, "", "", "")
	dev0.Status = StatusBSY
	dev1.Status = StatusBSY

	c.altWrite(AltRegControl, ControlSRST)
	if !c.HostReset {
		t.Fatalf("HostReset not set after SRST 0->1 transition")
	}

	c.altWrite(AltRegControl, 0)
	if c.HostReset {
		t.Fatalf("HostReset still set after SRST 1->0 transition")
	}
	if dev0.State != StateReady || dev1.State != StateReady {
		t.Errorf("devices not left in Ready state after host reset completed: %v %v", dev0.State, dev1.State)
	}
	if dev0.Status != 0 || dev1.Status != 0 {
		t.Errorf("status not cleared after host reset completed: %02X %02X", dev0.Status, dev1.Status)
	}
}

func TestDataPort32BitIgnoredWhenConfigured(t *testing.T) {
	c, _, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	dev, _ := c.AttachATA(0, disk, "S", "F", "M")
	c.EnablePIO32 = true
	c.IgnorePIO32 = true
	dev.State = StateDataRead
	dev.Status = StatusReadyDRQ

	got := c.baseRead(RegData, 4)
	if got != 0xFFFFFFFF {
		t.Errorf("32-bit data read with IgnorePIO32 = 0x%08X, want 0xFFFFFFFF", got)
	}
}

func TestDataPortReadOutsideDataReadReturnsAllOnes(t *testing.T) {
	c, _, _ := newTestController(t)
	disk := newFakeDisk(20, 16, 63)
	dev, _ := c.AttachATA(0, disk, "S", "F", "M")
	dev.State = StateReady

	got := c.baseRead(RegData, 2)
	if got != 0xFFFF {
		t.Errorf("data read outside DATA_READ/DRQ = 0x%04X, want 0xFFFF", got)
	}
}
