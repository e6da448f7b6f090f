// Package control implements the control-message dispatcher of spec.md
// §4.8: it translates a small fixed set of commands into FB registry and
// binding operations, over a pluggable Transport standing in for the
// original's netlink socket (out of scope per spec.md §1).
package control

import "code.hybscloud.com/netfab"

// Cmd identifies a control message kind (spec.md §6).
type Cmd int

const (
	Add Cmd = iota
	Set
	Rm
	Bind
	Unbind
	Replace
	Subscribe
	Unsubscribe
)

func (c Cmd) String() string {
	switch c {
	case Add:
		return "ADD"
	case Set:
		return "SET"
	case Rm:
		return "RM"
	case Bind:
		return "BIND"
	case Unbind:
		return "UNBIND"
	case Replace:
		return "REPLACE"
	case Subscribe:
		return "SUBSCRIBE"
	case Unsubscribe:
		return "UNSUBSCRIBE"
	default:
		return "UNKNOWN"
	}
}

// Message is the control-message envelope (spec.md §6: "a cmd byte
// followed by a command-specific union"). Name1/Name2/Type/Option are
// used selectively depending on Cmd; each name is bounded to
// netfab.FBNameSize as in the source's FBNAMSIZ.
type Message struct {
	Cmd Cmd

	Name1  string
	Name2  string
	Type   string // ADD
	Option string // SET, "key=value"

	// DropPriv is REPLACE's drop-private-state flag. It is carried to
	// Registry.Replace, which ignores it: the surviving FB never inherits
	// private state from the FB it replaces, whether DropPriv is set or not.
	DropPriv bool
}

// validateName enforces spec.md §6's IFNAMSIZ-style bound, matching
// netfab.InitFB's own check so control messages fail fast with a
// consistent error.
func validateName(name string) error {
	if len(name) == 0 || len(name) > netfab.FBNameSize-1 {
		return netfab.ErrInvalid
	}
	return nil
}
