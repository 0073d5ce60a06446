// identify.go - IDENTIFY DEVICE / IDENTIFY PACKET DEVICE 512-byte replies
// (spec.md S4.9, S6)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

// writeWordLE writes a little-endian 16-bit word at byte offset off.
func writeWordLE(sector []byte, off int, val uint16) {
	sector[off] = byte(val)
	sector[off+1] = byte(val >> 8)
}

func writeDwordLE(sector []byte, off int, val uint32) {
	sector[off] = byte(val)
	sector[off+1] = byte(val >> 8)
	sector[off+2] = byte(val >> 16)
	sector[off+3] = byte(val >> 24)
}

// writeSwappedASCII writes s, space-padded/truncated to n bytes, with each
// byte pair swapped (index XOR 1) - the ATA "byte-swapped ASCII" quirk
// preserved bit-exact per spec.md S9, grounded in the word-layout decode
// helpers of other_examples/4f78887c_sagarkrsd-smart__atasmart-ataidentify.go.go.
func writeSwappedASCII(sector []byte, off int, s string, n int) {
	for i := 0; i < n; i++ {
		var b byte = ' '
		if i < len(s) {
			b = s[i]
		}
		sector[off+(i^1)] = b
	}
}

func identifyChecksum(sector []byte) {
	sector[510] = 0xA5
	var csum byte
	for i := 0; i < 511; i++ {
		csum += sector[i]
	}
	sector[511] = 0 - csum
}

// GenerateIdentifyDevice produces the 512-byte IDENTIFY DEVICE (0xEC) reply
// (spec.md S6 "ATA IDENTIFY (0xEC) 512-byte layout").
func (d *ATADevice) GenerateIdentifyDevice() []byte {
	sector := make([]byte, BytesPerSector)

	total := uint32(d.Sects * d.Cyls * d.Heads)
	ptotal := uint32(d.PhysSects * d.PhysCyls * d.PhysHeads)

	writeWordLE(sector, 0*2, 0x0040) // bit 6: fixed disk
	writeWordLE(sector, 1*2, uint16(d.PhysCyls))
	writeWordLE(sector, 3*2, uint16(d.PhysHeads))
	writeWordLE(sector, 4*2, uint16(d.PhysSects*512))
	writeWordLE(sector, 5*2, 512)
	writeWordLE(sector, 6*2, uint16(d.PhysSects))

	writeSwappedASCII(sector, 10*2, d.IDSerial, 20)

	writeWordLE(sector, 20*2, 1)
	writeWordLE(sector, 21*2, 4)

	writeSwappedASCII(sector, 23*2, d.IDFirmwareRev, 8)
	writeSwappedASCII(sector, 27*2, d.IDModel, 40)

	if d.MultipleSectorMax != 0 {
		writeWordLE(sector, 47*2, 0x80|uint16(d.MultipleSectorMax))
	}

	writeWordLE(sector, 48*2, 0x0000)
	writeWordLE(sector, 49*2, 0x0A00)
	writeWordLE(sector, 50*2, 0x4000)
	writeWordLE(sector, 51*2, 0x00F0)
	writeWordLE(sector, 52*2, 0x00F0)
	writeWordLE(sector, 53*2, 0x0007)
	writeWordLE(sector, 54*2, uint16(d.Cyls))
	writeWordLE(sector, 55*2, uint16(d.Heads))
	writeWordLE(sector, 56*2, uint16(d.Sects))
	writeDwordLE(sector, 57*2, total)

	if d.MultipleSectorCount != 0 {
		writeWordLE(sector, 59*2, 0x0100|uint16(d.MultipleSectorCount))
	}

	writeDwordLE(sector, 60*2, ptotal)
	writeWordLE(sector, 62*2, 0x0000)
	writeWordLE(sector, 63*2, 0x0000)
	writeWordLE(sector, 64*2, 0x0003)
	writeWordLE(sector, 65*2, 0x0000)
	writeWordLE(sector, 66*2, 0x0000)
	writeWordLE(sector, 67*2, 0x0078)
	writeWordLE(sector, 68*2, 0x0078)
	writeWordLE(sector, 80*2, 0x007E)
	writeWordLE(sector, 81*2, 0x0022)
	writeWordLE(sector, 82*2, 0x4208)
	writeWordLE(sector, 83*2, 0x4000)
	writeWordLE(sector, 84*2, 0x4000)
	writeWordLE(sector, 85*2, 0x4208)
	writeWordLE(sector, 86*2, 0x4000)
	writeWordLE(sector, 87*2, 0x4000)
	writeWordLE(sector, 88*2, 0x0000)
	// Word 93 (byte offset 186): resolved per spec.md S9's open question -
	// original_source/ide.cpp writes host_writew(sector+(93*3), ...), which
	// is byte offset 279 and stomps the middle of the model-string field
	// (words 27..46). Treated as a typo for 93*2 here, see DESIGN.md.
	writeWordLE(sector, 93*2, 0x0000)

	identifyChecksum(sector)
	return sector
}

// GenerateIdentifyPacketDevice produces the 512-byte IDENTIFY PACKET DEVICE
// (0xA1) reply (spec.md S6 "ATAPI IDENTIFY (0xA1)").
func (d *ATAPIDevice) GenerateIdentifyPacketDevice() []byte {
	sector := make([]byte, BytesPerSector)

	writeWordLE(sector, 0*2, 0x85C0) // ATAPI device, command packet set 2, removable

	writeSwappedASCII(sector, 10*2, d.VendorID, 20)
	writeSwappedASCII(sector, 23*2, d.ProductRev, 8)
	writeSwappedASCII(sector, 27*2, d.ProductID, 40)

	writeWordLE(sector, 49*2, 0x0A00) // IORDY supported, must-be-one bit
	writeWordLE(sector, 50*2, 0x4000)
	writeWordLE(sector, 51*2, 0x00F0)
	writeWordLE(sector, 52*2, 0x00F0)
	writeWordLE(sector, 53*2, 0x0006)
	writeWordLE(sector, 64*2, 0x0003)
	writeWordLE(sector, 67*2, 0x0078)
	writeWordLE(sector, 68*2, 0x0078)
	writeWordLE(sector, 80*2, 0x007E)
	writeWordLE(sector, 81*2, 0x0022)
	writeWordLE(sector, 82*2, 0x4008)
	writeWordLE(sector, 83*2, 0x0000)
	writeWordLE(sector, 85*2, 0x4208)
	writeWordLE(sector, 86*2, 0x0000)

	identifyChecksum(sector)
	return sector
}
