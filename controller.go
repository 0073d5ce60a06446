// controller.go - controller registry, construction, attach/detach
// (spec.md S3 "Lifecycle", S9 "process-wide controller table")

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import (
	"fmt"
	"log"
)

// Registry is the fixed-size, nullable controller table (spec.md S9):
// the external I/O bus and timer service only ever see controller indices.
type Registry struct {
	controllers [MaxControllers]*Controller
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// New constructs controller index i from cfg, registering it in the table.
// For index<4 with cfg.BaseIO zero, BaseIO, AltIO and IRQ all come from the
// built-in defaults (spec.md S9 "IDEController constructor (config parsing +
// default arrays for index<4)"); cfg.AltIO and cfg.IRQ are then ignored.
func (r *Registry) New(index int, cfg ChannelConfig, pic PIC, sched *Scheduler, logger *log.Logger) (*Controller, error) {
	if index < 0 || index >= MaxControllers {
		return nil, fmt.Errorf("ideadapter: controller index %d out of range", index)
	}
	if r.controllers[index] != nil {
		return nil, fmt.Errorf("ideadapter: controller index %d already registered", index)
	}
	if logger == nil {
		logger = log.Default()
	}

	base, alt, irq := cfg.BaseIO, cfg.AltIO, cfg.IRQ
	if index < 4 && base == 0 {
		d := DefaultChannels[index]
		base, alt, irq = d.Base16, d.Alt, d.IRQ
	}

	spinUp, spinDown, insert := cfg.SpinUpTimeMS, cfg.SpinDownTimeMS, cfg.CDInsertTimeMS
	if spinUp == 0 {
		spinUp = 2000
	}
	if spinDown == 0 {
		spinDown = 60000
	}
	if insert == 0 {
		insert = 500
	}

	c := &Controller{
		Index:             index,
		IRQ:               irq,
		BaseIO:            base,
		AltIO:             alt,
		FallbackStatus:    0,
		InterruptEnable:   true,
		EnablePIO32:       cfg.EnablePIO32,
		IgnorePIO32:       cfg.IgnorePIO32,
		Int13FakeIO:       cfg.Int13FakeIO,
		Int13FakeV86IO:    cfg.Int13FakeV86IO,
		DefaultSpinUpUS:   spinUp * 1000,
		DefaultSpinDownUS: spinDown * 1000,
		DefaultInsertUS:   insert * 1000,
		PIC:               pic,
		Scheduler:         sched,
		Logger:            logger,
	}
	r.controllers[index] = c
	return c, nil
}

// Get returns controller index, or nil if unregistered.
func (r *Registry) Get(index int) *Controller {
	if index < 0 || index >= MaxControllers {
		return nil
	}
	return r.controllers[index]
}

// AttachATA attaches a fixed disk to slot (0=master, 1=slave).
func (c *Controller) AttachATA(slot int, disk HostDisk, serial, firmware, model string) (*ATADevice, error) {
	if slot != 0 && slot != 1 {
		return nil, fmt.Errorf("ideadapter: invalid slot %d", slot)
	}
	if c.ATA[slot] != nil || c.ATAPI[slot] != nil {
		return nil, fmt.Errorf("ideadapter: slot %d already occupied", slot)
	}
	cyls, heads, sects := disk.Geometry()
	d := &ATADevice{
		Device:            newDevice(c, DeviceATA, c.Logger),
		IDSerial:          serial,
		IDFirmwareRev:     firmware,
		IDModel:           model,
		Cyls:              cyls,
		Heads:             heads,
		Sects:             sects,
		PhysCyls:          cyls,
		PhysHeads:         heads,
		PhysSects:         sects,
		MultipleSectorMax: multipleSectorMax,
		Disk:              disk,
	}
	c.ATA[slot] = d
	return d, nil
}

// AttachATAPI attaches a CD-ROM to slot (0=master, 1=slave).
func (c *Controller) AttachATAPI(slot int, cdrom HostCDROM, vendor, product, rev string) (*ATAPIDevice, error) {
	if slot != 0 && slot != 1 {
		return nil, fmt.Errorf("ideadapter: invalid slot %d", slot)
	}
	if c.ATA[slot] != nil || c.ATAPI[slot] != nil {
		return nil, fmt.Errorf("ideadapter: slot %d already occupied", slot)
	}
	d := &ATAPIDevice{
		Device:         newDevice(c, DeviceATAPI, c.Logger),
		VendorID:       vendor,
		ProductID:      product,
		ProductRev:     rev,
		CDROM:          cdrom,
		LoadingMode:    LoadNoDisc,
		SpinUpTimeUS:   c.DefaultSpinUpUS,
		SpinDownTimeUS: c.DefaultSpinDownUS,
		CDInsertTimeUS: c.DefaultInsertUS,
	}
	d.clearSense()
	c.ATAPI[slot] = d
	if cdrom != nil && cdrom.Inserted() {
		d.MediaChangeNotify()
	}
	return d, nil
}

// Detach removes whatever is attached at slot, cancelling its outstanding
// scheduled events.
func (c *Controller) Detach(slot int) {
	if slot != 0 && slot != 1 {
		return
	}
	for _, kind := range []string{"io_completion", "identify", "atapi_busy", "packet_entry", "cd_insertion", "spinup_complete", "spindown"} {
		c.Scheduler.Cancel(c.ataKey(slot, kind))
	}
	c.ATA[slot] = nil
	c.ATAPI[slot] = nil
}

// ResyncGeometry re-derives cyls/heads/sects after the backing disk's
// geometry changes post-attach (SPEC_FULL S4 "update_from_biosdisk /
// update_from_cdrom geometry resync").
func (d *ATADevice) ResyncGeometry(disk HostDisk) {
	d.Disk = disk
	d.Cyls, d.Heads, d.Sects = disk.Geometry()
	d.PhysCyls, d.PhysHeads, d.PhysSects = d.Cyls, d.Heads, d.Sects
}

// ResyncMedia re-points an ATAPI device at a new backing CD-ROM interface
// and signals a media change.
func (d *ATAPIDevice) ResyncMedia(cd HostCDROM) {
	d.CDROM = cd
	if cd != nil && cd.Inserted() {
		d.MediaChangeNotify()
	} else {
		d.LoadingMode = LoadNoDisc
	}
}

// Reset restores the controller and both device slots to power-on defaults,
// in the teacher's component_reset.go style (constructor-default
// restoration rather than full object reallocation).
func (c *Controller) Reset() {
	c.Select = 0
	c.FallbackStatus = 0
	c.DriveHead = 0
	c.InterruptEnable = true
	c.HostReset = false
	c.IRQPending = false
	c.controlNIEN = false
	c.controlSRST = false
	for i := 0; i < 2; i++ {
		if a := c.ATA[i]; a != nil {
			a.State = StateReady
			a.Status = StatusReady
			a.AllowWriting = true
		}
		if p := c.ATAPI[i]; p != nil {
			p.State = StateReady
			p.Status = StatusReady
			p.AllowWriting = true
			p.clearSense()
		}
	}
}
