// Package drivers provides concrete switchcore.Driver implementations: a
// null loopback driver for testing and a container-sandboxed helper-process
// driver for real packet I/O.
package drivers

import (
	"context"

	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

// Null is an in-process loopback driver: RecvPkts/SendPkts operate purely
// on an internal ring buffer, with no external I/O. It stands in for the
// original's PMD driver in tests and local development, grounded on
// core/drivers/pmd.c's hook shape without any of the DPDK specifics (out of
// scope per the Non-goal on concrete NIC drivers).
type Null struct{}

func NewNull() *Null { return &Null{} }

func (n *Null) Name() string          { return "null" }
func (n *Null) DefaultIncQSize() int  { return 64 }
func (n *Null) DefaultOutQSize() int  { return 64 }

func (n *Null) InitDriver(ctx context.Context) error { return nil }

type nullPortState struct {
	ring chan switchcore.Batch
}

func (n *Null) InitPort(ctx context.Context, port *switchcore.Port, arg sv.Value) (sv.Value, error) {
	port.State = &nullPortState{ring: make(chan switchcore.Batch, port.IncQSize)}
	return sv.Nil(), nil
}

func (n *Null) DeinitPort(ctx context.Context, port *switchcore.Port) error {
	return nil
}

// RecvPkts drains whatever was queued by a prior SendPkts loopback, up to
// cap entries.
func (n *Null) RecvPkts(port *switchcore.Port, qid int, cap int) (switchcore.Batch, error) {
	st := port.State.(*nullPortState)
	select {
	case batch := <-st.ring:
		if len(batch) > cap {
			batch = batch[:cap]
		}
		return batch, nil
	default:
		return nil, nil
	}
}

// SendPkts loops batch back onto the same port's recv ring. The whole batch
// is accepted if the ring has a free slot, otherwise none of it is.
func (n *Null) SendPkts(port *switchcore.Port, qid int, batch switchcore.Batch) (int, error) {
	st := port.State.(*nullPortState)
	select {
	case st.ring <- batch:
		return len(batch), nil
	default:
		return 0, nil
	}
}
