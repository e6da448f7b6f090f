package control

import (
	"github.com/pkg/errors"

	"code.hybscloud.com/netfab"
)

// Dispatcher translates Messages into registry/binding operations
// (spec.md §4.8), grounded on the original source's __userctl_rcv switch
// statement over its netlink command enum.
type Dispatcher struct {
	Registry  *netfab.Registry
	Factories map[string]*netfab.Factory
}

// NewDispatcher returns a Dispatcher with no registered factories; call
// RegisterFactory for each FB type the daemon supports.
func NewDispatcher(registry *netfab.Registry) *Dispatcher {
	return &Dispatcher{Registry: registry, Factories: map[string]*netfab.Factory{}}
}

// RegisterFactory makes an FB type available to ADD messages.
func (d *Dispatcher) RegisterFactory(f *netfab.Factory) {
	d.Factories[f.Type] = f
}

// Dispatch executes msg and returns any error, wrapped with the command
// name for easier CLI-side diagnosis.
func (d *Dispatcher) Dispatch(msg Message) error {
	err := d.dispatch(msg)
	if err != nil {
		return errors.Wrapf(err, "%s %s %s", msg.Cmd, msg.Name1, msg.Name2)
	}
	return nil
}

func (d *Dispatcher) dispatch(msg Message) error {
	switch msg.Cmd {
	case Add:
		return d.add(msg)
	case Set:
		return d.set(msg)
	case Rm:
		return d.rm(msg)
	case Bind:
		return d.Registry.Bind(msg.Name1, msg.Name2)
	case Unbind:
		return d.Registry.Unbind(msg.Name1, msg.Name2)
	case Replace:
		return d.replace(msg)
	case Subscribe:
		return d.Registry.Subscribe(msg.Name1, msg.Name2)
	case Unsubscribe:
		return d.Registry.Unsubscribe(msg.Name1, msg.Name2)
	default:
		return errors.Wrapf(netfab.ErrInvalid, "unknown command %d", msg.Cmd)
	}
}

func (d *Dispatcher) add(msg Message) error {
	if err := validateName(msg.Name1); err != nil {
		return err
	}
	factory, ok := d.Factories[msg.Type]
	if !ok {
		return errors.Wrapf(netfab.ErrInvalid, "unknown FB type %q", msg.Type)
	}
	fb, err := factory.New(msg.Name1)
	if err != nil {
		return err
	}
	return d.Registry.Publish(fb)
}

func (d *Dispatcher) set(msg Message) error {
	fb, err := d.Registry.LookupByName(msg.Name1)
	if err != nil {
		return err
	}
	defer fb.Put()
	key, val := splitOption(msg.Option)
	ev := netfab.Event{Kind: netfab.SetOpt, Key: key, Val: val}
	if fb.EventRx != nil {
		if err := fb.EventRx(fb, ev); err != nil {
			return err
		}
	}
	fb.Deliver(ev)
	return nil
}

func (d *Dispatcher) rm(msg Message) error {
	fb, err := d.Registry.LookupByName(msg.Name1)
	if err != nil {
		return err
	}
	defer fb.Put()
	return d.Registry.Unpublish(fb)
}

func (d *Dispatcher) replace(msg Message) error {
	return d.Registry.Replace(msg.Name1, msg.Name2, msg.DropPriv)
}

// splitOption splits a "key=value" SET option on the first '='.
func splitOption(opt string) (key, val string) {
	for i := 0; i < len(opt); i++ {
		if opt[i] == '=' {
			return opt[:i], opt[i+1:]
		}
	}
	return opt, ""
}
