// doc.go - package overview for the emulated IDE host-bus-adapter

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

// Package ideadapter emulates an IDE (ATA/ATAPI) host-bus-adapter for a PC
// emulator: up to eight independent channels, each with up to two devices
// (master/slave), presenting legacy taskfile port I/O to guest software
// running on an emulated x86 CPU.
//
// Signal flow: guest port I/O -> Bus (ports.go) -> Controller -> selected
// Device -> command engine (ata.go / atapi.go) -> an optional event posted
// to the Scheduler (scheduler.go) -> a completion callback that updates the
// taskfile and raises an IRQ through the PIC interface (irq.go) -> the guest
// observes the result on its next port read.
//
// Threading model: single-threaded, cooperative, matching the embedding
// emulator's main event loop. Port-I/O handlers run synchronously to
// completion or arm exactly one future Scheduler event; there is no
// internal locking because there is no internal parallelism. The Scheduler
// itself runs its due-callbacks pump on whatever goroutine the embedder
// drives it from - see scheduler.go's concurrency note for the one place
// this module does take a mutex, to protect the Scheduler's heap from a
// concurrent Attach/Detach caller.
package ideadapter
