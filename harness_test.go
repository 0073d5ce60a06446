// harness_test.go - shared test fakes (fake PIC, fake HostDisk, fixed clock)

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import "time"

// fakePIC records raise/lower calls instead of touching real hardware,
// the way audio_chip_race_test.go's newTestSoundChip() harness redirects
// side effects for assertions.
type fakePIC struct {
	raised map[int]bool
	raises int
	lowers int
}

func newFakePIC() *fakePIC {
	return &fakePIC{raised: make(map[int]bool)}
}

func (p *fakePIC) RaiseIRQ(irq int) {
	p.raised[irq] = true
	p.raises++
}

func (p *fakePIC) LowerIRQ(irq int) {
	p.raised[irq] = false
	p.lowers++
}

// fakeDisk is an in-memory HostDisk backed by a flat byte slice, filled
// with a repeating pattern so reads are easy to assert on.
type fakeDisk struct {
	cyls, heads, sects int
	sectors            map[uint64][]byte
	failRead           bool
	failWrite          bool
}

func newFakeDisk(cyls, heads, sects int) *fakeDisk {
	return &fakeDisk{cyls: cyls, heads: heads, sects: sects, sectors: make(map[uint64][]byte)}
}

func (f *fakeDisk) fill(lba uint64, b byte) {
	buf := make([]byte, BytesPerSector)
	for i := range buf {
		buf[i] = b
	}
	f.sectors[lba] = buf
}

func (f *fakeDisk) Geometry() (int, int, int) { return f.cyls, f.heads, f.sects }

func (f *fakeDisk) ReadSector(lba uint64, buf []byte) error {
	if f.failRead {
		return errTestDiskFailure
	}
	src, ok := f.sectors[lba]
	if !ok {
		src = make([]byte, BytesPerSector)
	}
	copy(buf, src)
	return nil
}

func (f *fakeDisk) WriteSector(lba uint64, buf []byte) error {
	if f.failWrite {
		return errTestDiskFailure
	}
	cp := make([]byte, BytesPerSector)
	copy(cp, buf)
	f.sectors[lba] = cp
	return nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errTestDiskFailure = testError("fake disk failure")

// fixedClock lets scheduler tests advance virtual time deterministically.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// newTestController builds a single registered controller with a fake PIC
// and a scheduler driven by a fixedClock, ready for AttachATA/AttachATAPI.
func newTestController(t interface{ Fatalf(string, ...any) }) (*Controller, *fakePIC, *fixedClock) {
	clock := &fixedClock{now: time.Unix(0, 0)}
	sched := NewScheduler(clock.Now)
	pic := newFakePIC()
	reg := NewRegistry()
	c, err := reg.New(0, ChannelConfig{}, pic, sched, nil)
	if err != nil {
		t.Fatalf("Registry.New: %v", err)
	}
	return c, pic, clock
}
