// loading.go - ATAPI disc loading/spin-up/spin-down state machine
// (spec.md S4.6)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// MediaChangeNotify signals that a disc was (re-)inserted, driving
// LoadNoDisc -> LoadInsertCD and arming the insertion timer.
func (d *ATAPIDevice) MediaChangeNotify() {
	d.LoadingMode = LoadInsertCD
	d.HasChanged = true
	slot := d.Controller.slotOf(d)
	delay := delayForDevice(d.FakedCommand, d.CDInsertTimeUS)
	d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "cd_insertion"), delay, func() {
		d.LoadingMode = LoadDiscLoading
		spin := delayForDevice(d.FakedCommand, d.SpinUpTimeUS)
		d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "spinup_complete"), spin, func() {
			d.LoadingMode = LoadDiscReadied
		})
	})
}

// commonSpinupResponse gates ATAPI commands on loading-state readiness
// (spec.md S4.6 "common_spinup_response(trigger, wait)"). ready is false
// (and sense has been set) when the command must not proceed yet.
func (d *ATAPIDevice) commonSpinupResponse(trigger, wait bool) (ready bool) {
	switch d.LoadingMode {
	case LoadNoDisc, LoadInsertCD:
		d.setSense(SenseKeyNotReady, ASCMediumNotPresent, 0, 18)
		return false

	case LoadDiscLoading:
		if d.HasChanged && !wait {
			d.setSense(SenseKeyNotReady, ASCBecomingAvailable, ASCQBecomingAvailable, 18)
			return false
		}

	case LoadDiscReadied:
		d.LoadingMode = LoadReady
		if d.HasChanged {
			d.setSense(SenseKeyNotReady, ASCMediumChanged, 0, 18)
			if trigger {
				d.HasChanged = false
			}
			return false
		}
		d.rearmSpindown(trigger)
		return true

	case LoadIdle:
		if !trigger {
			d.clearSense()
			return true
		}
		d.LoadingMode = LoadDiscLoading
		slot := d.Controller.slotOf(d)
		spin := delayForDevice(d.FakedCommand, d.SpinUpTimeUS)
		d.Controller.Scheduler.Schedule(d.Controller.ataKey(slot, "spinup_complete"), spin, func() {
			d.LoadingMode = LoadDiscReadied
		})
		d.setSense(SenseKeyNotReady, ASCBecomingAvailable, ASCQBecomingAvailable, 18)
		return false

	case LoadReady:
		d.clearSense()
		d.rearmSpindown(trigger)
		return true
	}
	return true
}

// rearmSpindown cancels any outstanding spin-down event and reschedules it
// (spec.md S4.6 "any prior spindown event is removed and the spindown timer
// is rearmed").
func (d *ATAPIDevice) rearmSpindown(trigger bool) {
	if !trigger {
		return
	}
	slot := d.Controller.slotOf(d)
	key := d.Controller.ataKey(slot, "spindown")
	delay := delayForDevice(d.FakedCommand, d.SpinDownTimeUS)
	d.Controller.Scheduler.Schedule(key, delay, func() {
		d.LoadingMode = LoadIdle
	})
}
