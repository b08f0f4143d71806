package mclasses

import (
	"context"
	"sync/atomic"

	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

// Counter is a passthrough module class: ProcessBatch tallies packets and
// bytes on gate 0 and reports the downstream name via Traverse, same shape
// as PortOut's forwarding but with its own running totals exposed through
// Query rather than only through gate counters.
type Counter struct {
	switchcore.BaseModuleClass

	packets uint64
	bytes   uint64
}

func NewCounter() *Counter {
	return &Counter{BaseModuleClass: switchcore.NewBaseModuleClass("Counter")}
}

func (c *Counter) ProcessBatch(m *switchcore.Module, batch switchcore.Batch) {
	if len(batch) == 0 {
		return
	}
	atomic.AddUint64(&c.packets, uint64(len(batch)))
	atomic.AddUint64(&c.bytes, batch.Bytes())
	m.Traverse(0, batch)
}

// Query reports the running packet/byte totals. It only reads atomics, so
// it is safe to call while workers are running: it does not need the
// worker paused the way a hook that mutates module state would.
func (c *Counter) Query(ctx context.Context, m *switchcore.Module, arg sv.Value) (sv.Value, error) {
	reply := sv.MapVal()
	reply.MapSet("packets", sv.Uint(atomic.LoadUint64(&c.packets)))
	reply.MapSet("bytes", sv.Uint(atomic.LoadUint64(&c.bytes)))
	return reply, nil
}

func (c *Counter) GetDump(m *switchcore.Module) sv.Value {
	dump := sv.MapVal()
	dump.MapSet("packets", sv.Uint(atomic.LoadUint64(&c.packets)))
	dump.MapSet("bytes", sv.Uint(atomic.LoadUint64(&c.bytes)))
	return dump
}
