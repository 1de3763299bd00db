package osc

import (
	"strings"

	gosc "github.com/hypebeast/go-osc/osc"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
)

// Sender writes one OSC packet; *gosc.Client satisfies it.
type Sender interface {
	Send(packet gosc.Packet) error
}

// Lookup finds registered controllables.
type Lookup interface {
	Get(id string) (*controllable.Controllable, bool)
}

// Feedback echoes attribute changes as /<root>/<id>/<attribute> messages.
type Feedback struct {
	sender Sender
	root   string
	lookup Lookup
	logger log.Log
	sub    bus.Subscription
}

// NewFeedback sends to host:port.
func NewFeedback(host string, port int, root string, lookup Lookup, logger log.Log) *Feedback {
	return NewFeedbackWithSender(gosc.NewClient(host, port), root, lookup, logger)
}

func NewFeedbackWithSender(sender Sender, root string, lookup Lookup, logger log.Log) *Feedback {
	if logger == nil {
		logger = log.Nop()
	}
	return &Feedback{
		sender: sender,
		root:   strings.Trim(root, "/"),
		lookup: lookup,
		logger: logger.With(log.String("component", "osc_feedback")),
	}
}

// Attach subscribes to value changes on b.
func (f *Feedback) Attach(b bus.EventBus) error {
	sub, err := b.Subscribe(controllable.EventValueChanged, f.handle)
	if err != nil {
		return err
	}
	f.sub = sub
	return nil
}

func (f *Feedback) Detach() {
	if f.sub != nil {
		_ = f.sub.Cancel()
		f.sub = nil
	}
}

// Address builds the outbound address of an attribute.
func (f *Feedback) Address(id, attribute string) string {
	if f.root == "" {
		return "/" + id + "/" + attribute
	}
	return "/" + f.root + "/" + id + "/" + attribute
}

func (f *Feedback) handle(ev bus.Event) error {
	change, ok := ev.Data().(controllable.Change)
	if !ok {
		return nil
	}
	c, ok := f.lookup.Get(change.Controllable)
	if !ok {
		return nil
	}
	a, ok := c.Attribute(change.Attribute)
	if !ok {
		return nil
	}
	return f.Send(c.ID(), a)
}

// Send writes the current value of a.
func (f *Feedback) Send(id string, a *binding.Attribute) error {
	msg := gosc.NewMessage(f.Address(id, a.Name), Arguments(a.Value())...)
	if err := f.sender.Send(msg); err != nil {
		f.logger.Debug("Failed to send feedback", log.String("address", msg.Address), log.Error(err))
		return err
	}
	return nil
}
