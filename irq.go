// irq.go - controller IRQ line gating (spec.md S4.2)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// raiseIRQ sets irq_pending and, if interrupts are enabled on this channel
// and it has a valid IRQ line, asserts it on the PIC.
func (c *Controller) raiseIRQ() {
	c.IRQPending = true
	if c.InterruptEnable && c.IRQ >= 0 && c.PIC != nil {
		c.PIC.RaiseIRQ(c.IRQ)
	}
}

// lowerIRQ clears irq_pending and deasserts the line.
func (c *Controller) lowerIRQ() {
	c.IRQPending = false
	if c.IRQ >= 0 && c.PIC != nil {
		c.PIC.LowerIRQ(c.IRQ)
	}
}

// setInterruptEnable implements the nIEN edge behavior from spec.md S4.1
// ("Bit 1 is nIEN ... rising edge of enable re-raises IRQ if pending;
// falling edge deasserts the line").
func (c *Controller) setInterruptEnable(enabled bool) {
	wasEnabled := c.InterruptEnable
	c.InterruptEnable = enabled
	if enabled && !wasEnabled && c.IRQPending {
		if c.IRQ >= 0 && c.PIC != nil {
			c.PIC.RaiseIRQ(c.IRQ)
		}
	} else if !enabled && wasEnabled {
		if c.IRQ >= 0 && c.PIC != nil {
			c.PIC.LowerIRQ(c.IRQ)
		}
	}
}

// anyDeviceBusy reports whether either slot's device (or the controller's
// fallback) reports BUSY - used to gate the "reading status clears IRQ"
// rule in spec.md S4.1 ("only if neither the device nor the fallback is
// BUSY").
func (c *Controller) anyDeviceBusy() bool {
	for i := 0; i < 2; i++ {
		if d := c.device(i); d != nil && d.Status&StatusBSY != 0 {
			return true
		}
	}
	return c.FallbackStatus&StatusBSY != 0
}
