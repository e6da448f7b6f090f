package control

// Transport delivers Messages from an external collaborator (spec.md
// §1's "kernel-interface transport... out of scope") to a Dispatcher.
// The real system carries these over netlink; this module only needs an
// in-process stand-in.
type Transport interface {
	Send(msg Message) error
	Messages() <-chan Message
	Close()
}

// ChanTransport is an in-process Transport backed by a buffered channel.
// cmd/netfabd and cmd/netfabctl do not use it; they talk over the TCP
// protocol in net.go.
type ChanTransport struct {
	ch chan Message
}

// NewChanTransport creates a ChanTransport with the given channel
// capacity.
func NewChanTransport(capacity int) *ChanTransport {
	return &ChanTransport{ch: make(chan Message, capacity)}
}

// Send enqueues msg for delivery. Never blocks indefinitely longer than
// the channel's capacity allows; callers run on the control thread per
// spec.md §5 ("control messages that would block on a held lock simply
// wait").
func (t *ChanTransport) Send(msg Message) error {
	t.ch <- msg
	return nil
}

// Messages returns the receive side of the transport.
func (t *ChanTransport) Messages() <-chan Message { return t.ch }

// Close closes the underlying channel. Send must not be called again
// afterward.
func (t *ChanTransport) Close() { close(t.ch) }

// Serve reads from transport until it is closed, dispatching each
// message and discarding the result; callers that need per-message
// errors should drive Dispatch directly instead.
func Serve(d *Dispatcher, t Transport) {
	for msg := range t.Messages() {
		_ = d.Dispatch(msg)
	}
}
