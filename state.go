// state.go - per-device command state machine (spec.md S4.3)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// commandTarget is implemented by *ATADevice and *ATAPIDevice so state.go,
// ports.go and scheduler callbacks can dispatch without a type switch on
// every byte (spec.md S9 "tagged variant ... dispatched by variant").
type commandTarget interface {
	dev() *Device
	writeCommand(val byte)
	dataRead(width int) uint32
	dataWrite(width int, val uint32)
	deselect()
	selectDevice(val byte, switchedTo bool)
	hostResetBegin()
	hostResetComplete()
}

func (d *ATADevice) dev() *Device   { return &d.Device }
func (d *ATAPIDevice) dev() *Device { return &d.Device }

func (c *Controller) target(i int) commandTarget {
	if c.ATA[i] != nil {
		return c.ATA[i]
	}
	if c.ATAPI[i] != nil {
		return c.ATAPI[i]
	}
	return nil
}

func (c *Controller) selectedTarget() commandTarget {
	return c.target(c.Select)
}

// abortSilent clears state with no error bit (spec.md S4.3). Per spec.md's
// explicit text this differs from the literal original_source/ide.cpp,
// whose abort_silent sets IDE_STATUS_ERROR identically to abort_error -
// resolved as a deliberate redesign favoring the documented spec behavior,
// see DESIGN.md.
func abortSilent(d *Device) {
	d.State = StateReady
	d.Status = StatusReady
	d.AllowWriting = true
}

// abortNormal clears state, no error, status = READY|SEEK_COMPLETE.
func abortNormal(d *Device) {
	d.State = StateReady
	d.Status = StatusReady
	d.AllowWriting = true
}

// abortError sets state = READY, status = READY|SEEK_COMPLETE|ERROR.
func abortError(d *Device) {
	d.State = StateReady
	d.Status = StatusReadyError
	d.AllowWriting = true
}

// abortErrorSignature additionally writes the ATAPI-style error signature
// used both by an ATA device rejecting an ATAPI command and by ATAPI
// command aborts (spec.md S6 "Error signature on command abort").
func abortErrorSignature(d *Device) {
	d.Count = AbortSigCount
	d.LBA[0] = AbortSigLBA0
	d.LBA[1] = AbortSigLBA1
	d.LBA[2] = AbortSigLBA2
	d.Feature = AbortSigFeature
	d.DriveHead &= AbortDriveHeadMask
	abortError(d)
}

// commandInterruptionOK implements spec.md S4.3's "Command interruption
// rule": writing the same command byte currently executing is a no-op
// accept; writing DEVICE RESET while mid-transfer silently aborts the
// prior command; any other command outside READY aborts the prior command
// with error and rejects the new one.
//
// proceed is false when the new command must not run: it repeats the
// command already executing, or the prior command was aborted with error.
func commandInterruptionOK(d *Device, newCommand byte) (proceed bool) {
	if d.State == StateReady {
		return true
	}
	if newCommand == d.Command {
		return false // no-op accept: command already in flight
	}
	if newCommand == 0x08 { // DEVICE RESET
		abortSilent(d)
		return true
	}
	abortErrorSignature(d)
	return false
}

// deselect is called on the previously-selected device when the guest
// flips the drive-select bit in drivehead (spec.md S4.1).
func (d *ATADevice) deselect()   { /* ATA has no deselect side effect */ }
func (d *ATAPIDevice) deselect() { /* ATAPI has no deselect side effect */ }

// selectDevice handles a write to the drive/head register that did not
// necessarily change selection; switchedTo is true only on the transition
// edge (spec.md S4.1 "select(value, switched_to=true)").
func (d *ATADevice) selectDevice(val byte, switchedTo bool) {
	d.DriveHead = val
}

func (d *ATAPIDevice) selectDevice(val byte, switchedTo bool) {
	d.DriveHead = val
}

// hostResetBegin/hostResetComplete implement the SRST 0->1/1->0 transitions
// from spec.md S4.1.
func (d *ATADevice) hostResetBegin() {
	d.Status = StatusResetActive
	d.State = StateBusy
	d.AllowWriting = false
}

func (d *ATADevice) hostResetComplete() {
	d.Status = 0
	d.State = StateReady
	d.AllowWriting = true
	d.Count = 1
	d.LBA[0] = 1
	d.LBA[1] = 0
	d.LBA[2] = 0
	d.DriveHead &= 0x10
}

func (d *ATAPIDevice) hostResetBegin() {
	d.Status = StatusResetActive
	d.State = StateBusy
	d.AllowWriting = false
}

func (d *ATAPIDevice) hostResetComplete() {
	d.Status = 0
	d.State = StateReady
	d.AllowWriting = true
	d.Count = 1
	d.LBA[0] = 1
	d.LBA[1] = 0x14
	d.LBA[2] = 0xEB
}
