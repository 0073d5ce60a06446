// loading_test.go - ATAPI loading/spin-up/spin-down state machine
// (spec.md S4.6)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import (
	"testing"
	"time"
)

func TestLoadingStateMachineFullCycle(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, false)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")

	if dev.LoadingMode != LoadNoDisc {
		t.Fatalf("initial loading_mode = %v, want NO_DISC", dev.LoadingMode)
	}

	dev.MediaChangeNotify()
	if dev.LoadingMode != LoadInsertCD {
		t.Fatalf("after MediaChangeNotify loading_mode = %v, want INSERT_CD", dev.LoadingMode)
	}
	if !dev.HasChanged {
		t.Errorf("has_changed not set after MediaChangeNotify")
	}

	clock.advance(time.Hour)
	c.Scheduler.Pump()
	if dev.LoadingMode != LoadDiscLoading {
		t.Fatalf("after insertion delay loading_mode = %v, want DISC_LOADING", dev.LoadingMode)
	}

	clock.advance(time.Hour)
	c.Scheduler.Pump()
	if dev.LoadingMode != LoadDiscReadied {
		t.Fatalf("after spinup delay loading_mode = %v, want DISC_READIED", dev.LoadingMode)
	}
}

func TestCommonSpinupResponseNoDiscNotReady(t *testing.T) {
	d := &ATAPIDevice{LoadingMode: LoadNoDisc}
	ready := d.commonSpinupResponse(false, false)
	if ready {
		t.Fatalf("commonSpinupResponse returned ready=true with NO_DISC")
	}
	if d.Sense[2]&0x0F != SenseKeyNotReady || d.Sense[12] != ASCMediumNotPresent {
		t.Errorf("sense = %02X %02X, want NotReady/MediumNotPresent", d.Sense[2], d.Sense[12])
	}
}

func TestCommonSpinupResponseReadyAfterDiscReadied(t *testing.T) {
	c, _, _ := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, true)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")
	dev.LoadingMode = LoadDiscReadied
	dev.HasChanged = false

	ready := dev.commonSpinupResponse(true, true)
	if !ready {
		t.Fatalf("commonSpinupResponse returned ready=false with no pending media change")
	}
	if dev.LoadingMode != LoadReady {
		t.Errorf("loading_mode = %v, want READY", dev.LoadingMode)
	}
}

func TestRearmSpindownFromReady(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, true)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")
	// Run the attach-time insertion and spin-up events to completion so none
	// is left pending to overwrite the loading mode set below.
	clock.advance(time.Hour)
	c.Scheduler.Pump()
	clock.advance(time.Hour)
	c.Scheduler.Pump()
	dev.LoadingMode = LoadReady
	dev.SpinDownTimeUS = 1000

	ready := dev.commonSpinupResponse(true, true)
	if !ready {
		t.Fatalf("expected ready=true from LoadReady with no pending change")
	}

	slot := c.slotOf(dev)
	key := c.ataKey(slot, "spindown")
	if !c.Scheduler.Pending(key) {
		t.Fatalf("spindown event not armed after rearmSpindown(trigger=true)")
	}

	clock.advance(time.Hour)
	c.Scheduler.Pump()
	if dev.LoadingMode != LoadIdle {
		t.Errorf("loading_mode after spindown fires = %v, want IDLE", dev.LoadingMode)
	}
}

func TestCommonSpinupResponseDiscLoadingReadyWhenWaiting(t *testing.T) {
	d := &ATAPIDevice{LoadingMode: LoadDiscLoading, HasChanged: false}
	ready := d.commonSpinupResponse(true, true)
	if !ready {
		t.Fatalf("commonSpinupResponse(wait=true) from DISC_LOADING with no pending change must proceed")
	}
	if d.LoadingMode != LoadDiscLoading {
		t.Errorf("loading_mode changed to %v; a waiting command must not force the state forward", d.LoadingMode)
	}
}

func TestCommonSpinupResponseDiscLoadingBlocksNonWaitingOnChange(t *testing.T) {
	d := &ATAPIDevice{LoadingMode: LoadDiscLoading, HasChanged: true}
	ready := d.commonSpinupResponse(true, false)
	if ready {
		t.Fatalf("commonSpinupResponse(wait=false) from DISC_LOADING with a pending change must not proceed")
	}
	if d.Sense[2]&0x0F != SenseKeyNotReady || d.Sense[12] != ASCBecomingAvailable {
		t.Errorf("sense = %02X %02X, want NotReady/BecomingAvailable", d.Sense[2], d.Sense[12])
	}
}

// TestATAPIBusyReschedulesWhileDiscLoading drives a READ TOC through the
// full packet pipeline while the disc is still spinning up, and checks that
// the command is held pending (rescheduled every 100ms) rather than
// completing or aborting, until the disc becomes ready. Unlike issuePacket,
// this advances the clock in small steps so the command lands mid-spinup
// instead of jumping straight past it.
func TestATAPIBusyReschedulesWhileDiscLoading(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM([]ScriptedTrack{{Number: 1, Attr: 0x14, StartLBA: 0}}, 1000, true)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")

	clock.advance(510 * time.Millisecond) // past cd_insertion (500ms), short of spinup (2s)
	c.Scheduler.Pump()
	if dev.LoadingMode != LoadDiscLoading {
		t.Fatalf("loading_mode = %v, want DISC_LOADING", dev.LoadingMode)
	}

	c.baseWrite(RegFeature, 1, 0)
	c.baseWrite(RegLBA1, 1, 0)
	c.baseWrite(RegLBA2, 1, 0)
	c.baseWrite(RegCmdStatus, 1, 0xA0)
	clock.advance(20 * time.Microsecond)
	c.Scheduler.Pump()
	for _, b := range [12]byte{0x43, 0, 0, 0, 0, 0, 0, 12, 0} {
		c.baseWrite(RegData, 1, uint32(b))
	}
	clock.advance(2 * time.Millisecond)
	c.Scheduler.Pump()

	if dev.State != StateATAPIBusy {
		t.Fatalf("state = %v, want ATAPIBusy: command must not resolve while disc is loading", dev.State)
	}
	slot := c.slotOf(dev)
	key := c.ataKey(slot, "atapi_busy")
	if !c.Scheduler.Pending(key) {
		t.Fatalf("expected atapi_busy event rearmed by the loading-state reschedule")
	}

	for i := 0; i < 10 && dev.State == StateATAPIBusy; i++ {
		clock.advance(500 * time.Millisecond)
		c.Scheduler.Pump()
	}
	if dev.State == StateATAPIBusy {
		t.Fatalf("command never resolved after the disc had time to finish spinning up")
	}
}

func TestDoReadSubchannelAbortsWhenNoDisc(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, false)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")

	issuePacket(c, clock, [12]byte{0x42, 0x02, 0, 0, 0, 0, 0, 0, 0})

	if dev.Status&StatusERR == 0 {
		t.Fatalf("READ SUBCHANNEL with no disc: status = 0x%02X, want ERROR", dev.Status)
	}
	if dev.Sense[2]&0x0F != SenseKeyNotReady || dev.Sense[12] != ASCMediumNotPresent {
		t.Errorf("sense = %02X %02X, want NotReady/MediumNotPresent", dev.Sense[2], dev.Sense[12])
	}
}

func TestDoReadTOCAbortsWhenNoDisc(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, false)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")

	issuePacket(c, clock, [12]byte{0x43, 0, 0, 0, 0, 0, 0, 12, 0})

	if dev.Status&StatusERR == 0 {
		t.Fatalf("READ TOC with no disc: status = 0x%02X, want ERROR", dev.Status)
	}
	if dev.Sense[2]&0x0F != SenseKeyNotReady || dev.Sense[12] != ASCMediumNotPresent {
		t.Errorf("sense = %02X %02X, want NotReady/MediumNotPresent", dev.Sense[2], dev.Sense[12])
	}
}

func TestDoPauseResumeAbortsWhenNoDisc(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, false)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")

	issuePacket(c, clock, [12]byte{0x4B, 0, 0, 0, 0, 0, 0, 0, 1})

	if dev.Status&StatusERR == 0 {
		t.Fatalf("PAUSE/RESUME with no disc: status = 0x%02X, want ERROR", dev.Status)
	}
	if dev.Sense[2]&0x0F != SenseKeyNotReady || dev.Sense[12] != ASCMediumNotPresent {
		t.Errorf("sense = %02X %02X, want NotReady/MediumNotPresent", dev.Sense[2], dev.Sense[12])
	}
}

func TestIdleTriggersSpinupOnDemand(t *testing.T) {
	c, _, clock := newTestController(t)
	cdrom := NewScriptedCDROM(nil, 1000, true)
	dev, _ := c.AttachATAPI(0, cdrom, "V", "P", "R")
	// Run the attach-time insertion and spin-up events to completion so none
	// is left pending to overwrite the loading mode set below.
	clock.advance(time.Hour)
	c.Scheduler.Pump()
	clock.advance(time.Hour)
	c.Scheduler.Pump()
	dev.LoadingMode = LoadIdle

	ready := dev.commonSpinupResponse(true, false)
	if ready {
		t.Fatalf("commonSpinupResponse from IDLE must report not-ready while spinning up")
	}
	if dev.LoadingMode != LoadDiscLoading {
		t.Fatalf("loading_mode = %v, want DISC_LOADING after IDLE trigger", dev.LoadingMode)
	}

	clock.advance(time.Hour)
	c.Scheduler.Pump()
	if dev.LoadingMode != LoadDiscReadied {
		t.Errorf("loading_mode after spinup = %v, want DISC_READIED", dev.LoadingMode)
	}
}
