// Package vlink implements the virtual-link device-event subsystem
// mentioned in passing by spec.md §6 and detailed in
// original_source/fb_ethvlink.c and nl_vlink.h: a parallel control
// channel that notifies interested parties when virtual network devices
// are added, removed, or have their hook state toggled, via a
// priority-ordered callback chain.
package vlink

import "github.com/pkg/errors"

// Kind identifies a virtual-link event.
type Kind int

const (
	AddDevice Kind = iota
	RmDevice
	StartHookDevice
	StopHookDevice
)

func (k Kind) String() string {
	switch k {
	case AddDevice:
		return "ADD_DEVICE"
	case RmDevice:
		return "RM_DEVICE"
	case StartHookDevice:
		return "START_HOOK_DEVICE"
	case StopHookDevice:
		return "STOP_HOOK_DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Message carries a virtual-link event (spec.md §6).
type Message struct {
	Kind     Kind
	VirtName string
	RealName string
	Port     int
	Flags    uint32
}

// Priority orders callbacks within the chain; higher runs first.
type Priority int

const (
	Low  Priority = 0
	Norm Priority = 1
	High Priority = 2
)

// Outcome is a callback's verdict on a Message (spec.md §6).
type Outcome int

const (
	// Next means proceed to the next callback in the chain.
	Next Outcome = iota
	// Stop halts the chain successfully.
	Stop
	// Emerg halts the chain and reports failure to the sender.
	Emerg
)

// Callback observes or reacts to a Message.
type Callback func(msg Message) Outcome

type entry struct {
	priority Priority
	cb       Callback
}

// Chain is a priority-ordered callback chain. The zero value is an empty,
// ready-to-use chain. Chain is not safe for concurrent registration and
// dispatch; callers serialize both on the control thread, matching
// spec.md §9's "the data path is not involved."
type Chain struct {
	entries []entry
}

// Register inserts cb into the chain in priority-descending order
// (spec.md §9: "a small sorted vector per subsystem, inserted in
// priority-descending order").
func (c *Chain) Register(priority Priority, cb Callback) {
	i := 0
	for i < len(c.entries) && c.entries[i].priority >= priority {
		i++
	}
	c.entries = append(c.entries, entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry{priority: priority, cb: cb}
}

// Dispatch runs msg through the chain in priority order, stopping early
// on Stop or Emerg.
func (c *Chain) Dispatch(msg Message) error {
	for _, e := range c.entries {
		switch e.cb(msg) {
		case Stop:
			return nil
		case Emerg:
			return errors.Errorf("vlink: %s on %s rejected by a callback", msg.Kind, msg.VirtName)
		}
	}
	return nil
}
