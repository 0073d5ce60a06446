// types.go - Controller, Device, ATADevice, ATAPIDevice data model

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import "log"

// ChannelConfig is the per-channel, externally-supplied configuration
// (spec.md S6 "Configuration (per channel)"). Parsing a config file into
// this struct is an explicit non-goal of this module; the embedder builds
// one of these per enabled channel.
type ChannelConfig struct {
	Enable          bool
	IRQ             int    // 1..15
	BaseIO          uint16 // 0x100..0x3FF, aligned /8
	AltIO           uint16 // aligned /2
	Int13FakeIO     bool
	Int13FakeV86IO  bool
	EnablePIO32     bool
	IgnorePIO32     bool
	SpinUpTimeMS    int
	SpinDownTimeMS  int
	CDInsertTimeMS  int
}

// Device holds the fields common to every taskfile-addressable device,
// whether ATA or ATAPI (spec.md S3 "Device (common)").
type Device struct {
	Controller *Controller
	Type       DeviceType
	State      DeviceState

	// Taskfile shadow.
	Feature   byte
	Count     byte
	LBA       [3]byte
	DriveHead byte
	Command   byte
	Status    byte

	AllowWriting bool
	MotorOn      bool
	Asleep       bool
	FakedCommand bool

	SelectDelayUS         int
	SpinUpDelayUS         int
	SpinDownDelayUS       int
	IdentifyCommandDelay  int

	Logger *log.Logger
}

func newDevice(c *Controller, typ DeviceType, logger *log.Logger) Device {
	if logger == nil {
		logger = log.Default()
	}
	return Device{
		Controller:   c,
		Type:         typ,
		State:        StateReady,
		Status:       StatusReady,
		AllowWriting: true,
		Logger:       logger,
	}
}

// ATADevice extends Device with fixed-disk geometry and the ATA command
// engine's working state (spec.md S3 "ATA device").
type ATADevice struct {
	Device

	IDSerial       string
	IDFirmwareRev  string
	IDModel        string

	Cyls, Heads, Sects             int
	PhysCyls, PhysHeads, PhysSects int
	HeadShr                        int
	GeoTranslate                   bool

	MultipleSectorCount int
	MultipleSectorMax   int

	SectorBuf   [SectorBufferSize]byte
	SectorI     int
	SectorTotal int
	ProgressCount int

	// pendingReadRemaining/pendingReadBlock track the in-flight multi-sector
	// transfer across scheduled re-entries (spec.md S4.4 READ/WRITE
	// SECTOR(S) and READ/WRITE MULTIPLE).
	pendingReadRemaining int
	pendingReadBlock     int

	Disk HostDisk
}

// ATAPIDevice extends Device with MMC identity, the 12-byte PACKET buffer,
// sense state, and the loading state machine (spec.md S3 "ATAPI device").
type ATAPIDevice struct {
	Device

	VendorID, ProductID, ProductRev string
	DriveIndex                      int

	Sense       [256]byte
	SenseLength int

	ATAPICmd      [12]byte
	ATAPICmdI     int
	ATAPICmdTotal int
	ATAPIToHost   bool

	HostMaximumByteCount int

	SectorBuf   [SectorBufferSize]byte
	SectorI     int
	SectorTotal int

	ReadLBA        uint32
	TransferLength uint32

	LoadingMode LoadingMode
	HasChanged  bool

	SpinUpTimeUS    int
	SpinDownTimeUS  int
	CDInsertTimeUS  int

	PlayingAudio bool

	CDROM HostCDROM
}

// Controller is one IDE channel (spec.md S3 "Controller").
type Controller struct {
	Index int

	IRQ    int
	BaseIO uint16
	AltIO  uint16

	Select int // which slot (0 or 1) of ATA/ATAPI the taskfile currently addresses

	FallbackStatus byte
	DriveHead      byte

	InterruptEnable bool
	HostReset       bool
	IRQPending      bool
	controlNIEN     bool
	controlSRST     bool

	EnablePIO32 bool
	IgnorePIO32 bool

	Int13FakeIO    bool
	Int13FakeV86IO bool

	DefaultSpinUpUS   int
	DefaultSpinDownUS int
	DefaultInsertUS   int

	ATA   [2]*ATADevice
	ATAPI [2]*ATAPIDevice

	PIC       PIC
	Scheduler *Scheduler

	Logger *log.Logger
}

// device returns the common Device view of slot i, or nil if empty.
func (c *Controller) device(i int) *Device {
	if c.ATA[i] != nil {
		return &c.ATA[i].Device
	}
	if c.ATAPI[i] != nil {
		return &c.ATAPI[i].Device
	}
	return nil
}

// selected returns the common Device view of the currently selected slot.
func (c *Controller) selected() *Device {
	return c.device(c.Select)
}
