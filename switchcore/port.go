package switchcore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/softnic/softnicd/sv"
)

// DirStats holds the per-direction packet counters exposed by
// get_port_stats.
type DirStats struct {
	Packets uint64
	Dropped uint64
	Bytes   uint64
}

func (s *DirStats) add(packets, dropped, bytes uint64) {
	atomic.AddUint64(&s.Packets, packets)
	atomic.AddUint64(&s.Dropped, dropped)
	atomic.AddUint64(&s.Bytes, bytes)
}

func (s *DirStats) snapshot() DirStats {
	return DirStats{
		Packets: atomic.LoadUint64(&s.Packets),
		Dropped: atomic.LoadUint64(&s.Dropped),
		Bytes:   atomic.LoadUint64(&s.Bytes),
	}
}

// Port is a live NIC endpoint bound to a Driver.
type Port struct {
	Name      string
	Driver    Driver
	IncQSize  int
	OutQSize  int
	State     interface{} // driver-owned private state
	CreatedAt time.Time

	refcount int32 // modules referencing this port; read and updated atomically

	Inc DirStats
	Out DirStats
}

// portTable is the control-goroutine-owned catalog of live ports. Reads
// (listing, stats) take the RLock and run concurrently with workers;
// mutation always takes the write Lock and additionally requires the
// caller to have already quiesced the workers for pause-needed commands.
type portTable struct {
	mu    sync.RWMutex
	ports map[string]*Port
}

func newPortTable() *portTable {
	return &portTable{ports: make(map[string]*Port)}
}

func (t *portTable) nextName(driverName string) string {
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s%d", driverName, n)
		if _, ok := t.ports[candidate]; !ok {
			return candidate
		}
	}
}

// Create implements create_port.
func (t *portTable) Create(ctx context.Context, nameOpt string, d Driver, arg sv.Value) (*Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := nameOpt
	if name == "" {
		name = t.nextName(d.Name())
	} else if _, ok := t.ports[name]; ok {
		return nil, NewError(EEXIST, "port %q already exists", name)
	}

	incQ, outQ := d.DefaultIncQSize(), d.DefaultOutQSize()
	if v, ok := sv.EvalUint(arg, "size_inc_q"); ok {
		incQ = int(v)
	}
	if v, ok := sv.EvalUint(arg, "size_out_q"); ok {
		outQ = int(v)
	}

	p := &Port{Name: name, Driver: d, IncQSize: incQ, OutQSize: outQ, CreatedAt: time.Now()}

	if reply, err := d.InitPort(ctx, p, arg); err != nil {
		return nil, err
	} else if reply.IsErr() {
		code, msg := reply.ErrGet()
		return nil, &SVError{Code: Errno(code), Msg: msg}
	}

	t.ports[name] = p
	portsTotal.Inc()
	return p, nil
}

// Destroy implements destroy_port.
func (t *portTable) Destroy(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.ports[name]
	if !ok {
		return NewError(ENOENT, "port %q not found", name)
	}
	if atomic.LoadInt32(&p.refcount) > 0 {
		return NewError(EBUSY, "port %q still referenced by %d module(s)", name, p.refcount)
	}

	if err := p.Driver.DeinitPort(ctx, p); err != nil {
		return err
	}
	delete(t.ports, name)
	portsTotal.Dec()
	return nil
}

func (t *portTable) Find(name string) (*Port, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.ports[name]
	return p, ok
}

// List returns a page of ports, sorted by name.
func (t *portTable) List(offset, limit int) []*Port {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.ports))
	for n := range t.ports {
		names = append(names, n)
	}
	sort.Strings(names)
	names = page(names, offset, limit)

	out := make([]*Port, 0, len(names))
	for _, n := range names {
		out = append(out, t.ports[n])
	}
	return out
}

func (t *portTable) reference(name string, delta int32) {
	t.mu.RLock()
	p, ok := t.ports[name]
	t.mu.RUnlock()
	if ok {
		atomic.AddInt32(&p.refcount, delta)
	}
}

// Stats implements get_port_stats.
func Stats(p *Port) sv.Value {
	inc, out := p.Inc.snapshot(), p.Out.snapshot()

	incV := sv.MapVal()
	incV.MapSet("packets", sv.Uint(inc.Packets))
	incV.MapSet("dropped", sv.Uint(inc.Dropped))
	incV.MapSet("bytes", sv.Uint(inc.Bytes))

	outV := sv.MapVal()
	outV.MapSet("packets", sv.Uint(out.Packets))
	outV.MapSet("dropped", sv.Uint(out.Dropped))
	outV.MapSet("bytes", sv.Uint(out.Bytes))

	result := sv.MapVal()
	result.MapSet("inc", incV)
	result.MapSet("out", outV)
	result.MapSet("timestamp", sv.Double(float64(time.Now().UnixNano())/1e9))
	return result
}
