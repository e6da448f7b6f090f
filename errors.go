package netfab

import "errors"

// Control-plane error kinds (spec.md §7). These are classified with
// errors.Is; callers that need extra context get it from the wrapping
// github.com/pkg/errors.Wrap applied at the control/ dispatcher boundary.
var (
	// ErrNotFound indicates no FB exists by the given name or IDP.
	ErrNotFound = errors.New("netfab: not found")
	// ErrInUse indicates a name is already registered.
	ErrInUse = errors.New("netfab: name in use")
	// ErrBusy indicates an FB's refcount is too high to remove it.
	ErrBusy = errors.New("netfab: busy")
	// ErrNoMem indicates IDP space or another local allocation is exhausted.
	ErrNoMem = errors.New("netfab: out of memory")
	// ErrInvalid indicates a malformed message or out-of-range argument.
	ErrInvalid = errors.New("netfab: invalid argument")
	// ErrDenied indicates the caller lacks control privilege.
	ErrDenied = errors.New("netfab: permission denied")
)

// Verdict is the data-path outcome of a functional block's netfbRx
// callback. Verdicts are never Go errors: spec.md §7 requires that
// data-path failures are counted and the packet freed, never unwound as a
// control-flow exception.
type Verdict int

const (
	// Success means the packet was processed and its next-hop slot
	// rewritten; the engine should continue the traversal.
	Success Verdict = iota
	// Dropped means the callback freed the packet and the engine must
	// stop the traversal without touching the packet again.
	Dropped
	// Error means resolution or processing failed; the engine frees the
	// packet, increments the error counter, and stops.
	Error
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "success"
	case Dropped:
		return "dropped"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
