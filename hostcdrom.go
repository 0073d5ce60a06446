// hostcdrom.go - reference HostCDROM backend: a scripted Lua disc
// descriptor (SPEC_FULL S3 "github.com/yuin/gopher-lua")

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ScriptedTrack is one decoded entry of a Lua-scripted disc descriptor's
// track table.
type ScriptedTrack struct {
	Number   int
	Attr     byte
	StartLBA uint32
}

// ScriptedCDROM is the reference HostCDROM implementation: disc layout
// (inserted flag, lead-out, track list with each track's audio/data attr)
// is described by a small Lua table rather than a real ISO. The table
// carries no media-change events, and sector data is staged with PutSector
// rather than from the script. This lets the ATAPI
// loading state machine and TOC/subchannel emulation (spec.md S4.5, S4.6)
// can be driven from tests and scripted scenarios. Grounded in the
// teacher's unused-but-declared gopher-lua dependency (SPEC_FULL S3).
type ScriptedCDROM struct {
	tracks    []ScriptedTrack
	leadOut   uint32
	data      map[uint32][]byte // lba -> 2048-byte sector, sparse
	inserted  bool
	playing   bool
	paused    bool
	playPos   uint32
	playEnd   uint32
}

// LoadScriptedCDROM evaluates the Lua script at path, which must assign a
// global table `disc` of the form:
//
//	disc = {
//	  inserted = true,
//	  lead_out = 20000,
//	  tracks = {
//	    {number=1, attr=0x14, start=0},   -- attr bit 2 => data track
//	    {number=2, attr=0x10, start=5000},
//	  },
//	}
func LoadScriptedCDROM(path string) (*ScriptedCDROM, error) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("ideadapter: load disc script %s: %w", path, err)
	}
	discVal := L.GetGlobal("disc")
	disc, ok := discVal.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("ideadapter: disc script %s has no `disc` table", path)
	}

	c := &ScriptedCDROM{data: make(map[uint32][]byte)}
	c.inserted = lua.LVAsBool(disc.RawGetString("inserted"))
	if lo, ok := disc.RawGetString("lead_out").(lua.LNumber); ok {
		c.leadOut = uint32(lo)
	}

	tracksVal := disc.RawGetString("tracks")
	if tracks, ok := tracksVal.(*lua.LTable); ok {
		tracks.ForEach(func(_, v lua.LValue) {
			tt, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			num, _ := tt.RawGetString("number").(lua.LNumber)
			attr, _ := tt.RawGetString("attr").(lua.LNumber)
			start, _ := tt.RawGetString("start").(lua.LNumber)
			c.tracks = append(c.tracks, ScriptedTrack{
				Number:   int(num),
				Attr:     byte(int(attr)),
				StartLBA: uint32(start),
			})
		})
	}
	return c, nil
}

// NewScriptedCDROM builds an in-memory descriptor directly, for tests that
// would rather not touch the filesystem.
func NewScriptedCDROM(tracks []ScriptedTrack, leadOut uint32, inserted bool) *ScriptedCDROM {
	return &ScriptedCDROM{tracks: tracks, leadOut: leadOut, inserted: inserted, data: make(map[uint32][]byte)}
}

// PutSector stages 2048 bytes of sector data at lba for ReadSectorsHost to
// serve; a sector with no staged data reads back as zeros.
func (c *ScriptedCDROM) PutSector(lba uint32, data []byte) {
	buf := make([]byte, 2048)
	copy(buf, data)
	c.data[lba] = buf
}

func (c *ScriptedCDROM) Inserted() bool { return c.inserted }

func (c *ScriptedCDROM) ReadSectorsHost(lba uint32, count uint32, buf []byte) error {
	if !c.inserted {
		return fmt.Errorf("ideadapter: no disc inserted")
	}
	for i := uint32(0); i < count; i++ {
		sector := c.data[lba+i]
		if sector == nil {
			sector = make([]byte, 2048)
		}
		copy(buf[i*2048:(i+1)*2048], sector)
	}
	return nil
}

func (c *ScriptedCDROM) GetAudioTracks() (first, last int, leadOutLBA uint32, err error) {
	if !c.inserted || len(c.tracks) == 0 {
		return 0, 0, 0, fmt.Errorf("ideadapter: no disc inserted")
	}
	first = c.tracks[0].Number
	last = c.tracks[len(c.tracks)-1].Number
	return first, last, c.leadOut, nil
}

func (c *ScriptedCDROM) GetAudioTrackInfo(track int) (AudioTrackInfo, error) {
	for _, t := range c.tracks {
		if t.Number == track {
			return AudioTrackInfo{Track: t.Number, Attr: t.Attr, StartLBA: t.StartLBA}, nil
		}
	}
	return AudioTrackInfo{}, fmt.Errorf("ideadapter: no such track %d", track)
}

func (c *ScriptedCDROM) GetAudioSub() (SubchannelInfo, error) {
	if !c.inserted {
		return SubchannelInfo{}, fmt.Errorf("ideadapter: no disc inserted")
	}
	track := 1
	for _, t := range c.tracks {
		if c.playPos >= t.StartLBA {
			track = t.Number
		}
	}
	return SubchannelInfo{
		Attr:         0x10,
		Track:        byte(track),
		Index:        1,
		RelativeAddr: 0,
		AbsoluteAddr: c.playPos,
	}, nil
}

func (c *ScriptedCDROM) PlayAudioSector(start, length uint32) error {
	if !c.inserted {
		return fmt.Errorf("ideadapter: no disc inserted")
	}
	c.playing = true
	c.paused = false
	c.playPos = start
	c.playEnd = start + length
	return nil
}

func (c *ScriptedCDROM) PauseAudio(resume bool) error {
	if !c.playing {
		return nil
	}
	c.paused = !resume
	return nil
}

func (c *ScriptedCDROM) StopAudio() error {
	c.playing = false
	c.paused = false
	return nil
}

func (c *ScriptedCDROM) GetAudioStatus() AudioStatus {
	return AudioStatus{Playing: c.playing, Paused: c.paused}
}
