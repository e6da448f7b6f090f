package netfab

// EventKind identifies a control-path event delivered to an FB's EventRx
// callback (spec.md §4.3).
type EventKind int

const (
	// BindIDP asks the FB to bind a direction's port to an IDP.
	BindIDP EventKind = iota
	// UnbindIDP asks the FB to clear a direction's port, if it currently
	// holds exactly the given IDP.
	UnbindIDP
	// SetOpt asks the FB to apply a "key=value" option.
	SetOpt
)

// Event is the payload delivered through EventRxFunc.
type Event struct {
	Kind EventKind

	// Dir and IDP are set for BindIDP and UnbindIDP.
	Dir Direction
	IDP IDP

	// Key and Val are set for SetOpt.
	Key string
	Val string
}

// PortState is the per-worker next-hop pair held by an FB's private state
// (spec.md §3: "FB private per-port state"). One PortState exists per
// worker id (the Go analogue of "held per CPU"); bind/unbind mutate every
// worker's copy so all workers converge on the same value, serialized by
// the registry's control lock.
type PortState struct {
	lock Seqlock
	port [NumDirections]IDP

	// portClone is the secondary port used by dual-port FBs such as tee
	// (spec.md §4.7). IDPExit means unused.
	portClone IDP
}

// NewPortState returns a PortState with both ports and the clone port set
// to the sentinel.
func NewPortState() *PortState {
	return &PortState{port: [NumDirections]IDP{IDPExit, IDPExit}, portClone: IDPExit}
}

// Read returns a seqlock-consistent snapshot of (port[dir], portClone).
func (ps *PortState) Read(dir Direction) (next IDP, clone IDP) {
	for {
		seq := ps.lock.ReadBegin()
		next = ps.port[dir]
		clone = ps.portClone
		if !ps.lock.ReadRetry(seq) {
			return
		}
	}
}

// Bind implements spec.md §4.3's BIND semantics for one worker's
// PortState: it succeeds on dir only if the current port is the sentinel;
// for dual-port FBs, if the primary port is already used it falls through
// to the clone port. Returns ErrInvalid if neither is available.
//
// The caller must hold the registry's control lock so that every worker's
// PortState converges on the same decision (spec.md §4.3: bind events are
// serialized via a global control lock).
func (ps *PortState) Bind(dir Direction, idp IDP, allowClone bool) error {
	ps.lock.WriteLock()
	defer ps.lock.WriteUnlock()

	if ps.port[dir] == IDPExit {
		ps.port[dir] = idp
		return nil
	}
	if allowClone && ps.portClone == IDPExit {
		ps.portClone = idp
		return nil
	}
	return ErrInvalid
}

// Unbind implements spec.md §4.3's UNBIND semantics: it succeeds only if
// the current port (primary or clone) exactly matches idp.
func (ps *PortState) Unbind(dir Direction, idp IDP) error {
	ps.lock.WriteLock()
	defer ps.lock.WriteUnlock()

	if ps.port[dir] == idp {
		ps.port[dir] = IDPExit
		return nil
	}
	if ps.portClone == idp {
		ps.portClone = IDPExit
		return nil
	}
	return ErrInvalid
}
