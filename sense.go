// sense.go - ATAPI sense-data generation (spec.md S4.5 "Sense generation")

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// Sense-key catalog used by this module (spec.md S6).
const (
	SenseKeyNoSense      byte = 0x00
	SenseKeyNotReady     byte = 0x02
	ASCMediumNotPresent  byte = 0x3A
	ASCBecomingAvailable byte = 0x04
	ASCQBecomingAvailable byte = 0x01
	ASCMediumChanged     byte = 0x28
)

// setSense fills the device's sense buffer. n is promoted to 18 if smaller
// (spec.md S8 invariant 9: "set_sense(SK, ASC, ASCQ, n) where n<18 promotes
// n to 18").
func (d *ATAPIDevice) setSense(sk, asc, ascq byte, n int) {
	if n < 18 {
		n = 18
	}
	for i := range d.Sense[:n] {
		d.Sense[i] = 0
	}
	d.Sense[0] = 0x70
	d.Sense[2] = sk & 0x0F
	d.Sense[12] = asc
	d.Sense[13] = ascq
	d.Sense[7] = byte(n - 18)
	d.SenseLength = n
}

func (d *ATAPIDevice) clearSense() {
	d.setSense(SenseKeyNoSense, 0, 0, 18)
}
