package switchcore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/softnic/softnicd/sv"
)

// Module is a live graph vertex of a ModuleClass.
type Module struct {
	Name   string
	MClass ModuleClass
	State  interface{}

	mu    sync.RWMutex
	gates []Gate
	tasks [MaxTasksPerModule]*Task

	boundPort *Port // port this module sources/sinks from, if any; see bindPort
}

// bindPort records that this module references port p, incrementing its
// reference count so destroy_port correctly reports EBUSY. Invoked by
// moduleTable.Create on behalf of port-facing module classes (see
// mclasses/portio.go), which request a binding by returning a "bind_port"
// field from Init rather than reaching into the port table themselves.
func (m *Module) bindPort(t *portTable, p *Port) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boundPort != nil {
		t.reference(m.boundPort.Name, -1)
	}
	m.boundPort = p
	t.reference(p.Name, 1)
}

// BoundPort returns the port this module is currently bound to, if any.
func (m *Module) BoundPort() (*Port, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.boundPort, m.boundPort != nil
}

func (m *Module) unbindPort(t *portTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boundPort != nil {
		t.reference(m.boundPort.Name, -1)
		m.boundPort = nil
	}
}

// Traverse records a batch crossing gateIdx (counters, tap) and reports the
// configured downstream module name, if any. It does not deliver the batch
// anywhere itself — per-packet forwarding between modules is dataplane
// logic outside this package's scope; callers (module classes) may use the
// returned name to decide what, if anything, to do next.
func (m *Module) Traverse(gateIdx int, batch Batch) (downstream string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if gateIdx < 0 || gateIdx >= len(m.gates) {
		return "", NewError(ENOENT, "gate %d not allocated on %q", gateIdx, m.Name)
	}
	g := &m.gates[gateIdx]
	if tapErr := Traverse(m.Name, gateIdx, g, batch); tapErr != nil {
		return g.Downstream, tapErr
	}
	return g.Downstream, nil
}

// RegisterTask registers task slot id during ModuleClass.Init, matching the
// original's "tasks the module registers during init enter its task table."
func (m *Module) RegisterTask(id int, arg sv.Value) error {
	if id < 0 || id >= MaxTasksPerModule {
		return NewError(EINVAL, "task id %d out of range", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[id] = &Task{Module: m, ID: id, Arg: arg}
	return nil
}

// moduleTable is the control-goroutine-owned catalog of live modules.
type moduleTable struct {
	mu      sync.RWMutex
	modules map[string]*Module
	ports   *portTable
	workers *workerTable
}

func newModuleTable(ports *portTable, workers *workerTable) *moduleTable {
	return &moduleTable{modules: make(map[string]*Module), ports: ports, workers: workers}
}

func (t *moduleTable) nextName(mclassName string) string {
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s%d", mclassName, n)
		if _, ok := t.modules[candidate]; !ok {
			return candidate
		}
	}
}

// Create implements create_module.
func (t *moduleTable) Create(ctx context.Context, nameOpt string, c ModuleClass, arg sv.Value) (*Module, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := nameOpt
	if name == "" {
		name = t.nextName(c.Name())
	} else if _, ok := t.modules[name]; ok {
		return nil, NewError(EEXIST, "module %q already exists", name)
	}

	m := &Module{Name: name, MClass: c}

	reply, err := c.Init(ctx, m, arg)
	if err != nil {
		return nil, err
	}
	if reply.IsErr() {
		code, msg := reply.ErrGet()
		return nil, &SVError{Code: Errno(code), Msg: msg}
	}

	if portName, ok := sv.EvalStr(reply, "bind_port"); ok {
		p, ok := t.ports.Find(portName)
		if !ok {
			return nil, NewError(ENOENT, "bind_port: port %q not found", portName)
		}
		m.bindPort(t.ports, p)
	}

	t.modules[name] = m
	modulesTotal.Inc()
	return m, nil
}

// Destroy implements destroy_module: detach all tasks, disconnect
// every inbound edge by scanning the other modules' gate arrays (no
// back-edges are stored), invoke Deinit, then remove.
func (t *moduleTable) Destroy(ctx context.Context, name string, detach func(wid int, mod string, tid int)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.modules[name]
	if !ok {
		return NewError(ENOENT, "module %q not found", name)
	}

	m.mu.Lock()
	for _, task := range m.tasks {
		if task != nil && task.Attached {
			detach(task.Worker, name, task.ID)
		}
	}
	m.mu.Unlock()

	for otherName, other := range t.modules {
		if otherName == name {
			continue
		}
		other.mu.Lock()
		for i := range other.gates {
			if other.gates[i].Downstream == name {
				other.gates[i] = Gate{}
			}
		}
		other.mu.Unlock()
	}

	m.unbindPort(t.ports)

	if err := m.MClass.Deinit(ctx, m); err != nil {
		return err
	}

	delete(t.modules, name)
	modulesTotal.Dec()
	return nil
}

func (t *moduleTable) Find(name string) (*Module, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.modules[name]
	return m, ok
}

func (t *moduleTable) List(offset, limit int) []*Module {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.modules))
	for n := range t.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	names = page(names, offset, limit)

	out := make([]*Module, 0, len(names))
	for _, n := range names {
		out = append(out, t.modules[n])
	}
	return out
}

// Connect implements connect_modules.
func (t *moduleTable) Connect(srcName string, gateIdx int, dstName string) error {
	t.mu.RLock()
	src, srcOK := t.modules[srcName]
	_, dstOK := t.modules[dstName]
	t.mu.RUnlock()

	if !srcOK {
		return NewError(ENOENT, "module %q not found", srcName)
	}
	if !dstOK {
		return NewError(ENOENT, "module %q not found", dstName)
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	grown, err := growGates(src.gates, gateIdx)
	if err != nil {
		return err
	}
	src.gates = grown

	if src.gates[gateIdx].connected() {
		return NewError(EBUSY, "gate %d on %q already connected", gateIdx, srcName)
	}
	src.gates[gateIdx].Downstream = dstName
	return nil
}

// Disconnect implements disconnect_modules.
func (t *moduleTable) Disconnect(srcName string, gateIdx int) error {
	t.mu.RLock()
	src, ok := t.modules[srcName]
	t.mu.RUnlock()
	if !ok {
		return NewError(ENOENT, "module %q not found", srcName)
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if gateIdx >= len(src.gates) || !src.gates[gateIdx].connected() {
		return NewError(ENOENT, "gate %d on %q not connected", gateIdx, srcName)
	}
	src.gates[gateIdx] = Gate{}
	return nil
}

// GetInfo implements get_module_info.
func (t *moduleTable) GetInfo(m *Module) sv.Value {
	info := sv.MapVal()
	info.MapSet("name", sv.Str(m.Name))
	info.MapSet("mclass", sv.Str(m.MClass.Name()))

	if desc := m.MClass.GetDesc(m); !desc.IsNil() {
		info.MapSet("desc", desc)
	}
	if dump := m.MClass.GetDump(m); !dump.IsNil() {
		info.MapSet("dump", dump)
	}

	m.mu.RLock()
	gates := sv.List()
	for idx, g := range m.gates {
		if !g.connected() {
			continue
		}
		entry := sv.MapVal()
		entry.MapSet("gate", sv.Uint(uint64(idx)))
		entry.MapSet("name", sv.Str(g.Downstream))
		cnt := g.Counters.snapshot()
		entry.MapSet("cnt", sv.Uint(cnt.Cnt))
		entry.MapSet("pkts", sv.Uint(cnt.Pkts))
		entry.MapSet("bytes", sv.Uint(cnt.Bytes))
		entry.MapSet("timestamp", sv.Double(float64(time.Now().UnixNano())/1e9))
		gates.ListAdd(entry)
	}
	m.mu.RUnlock()
	info.MapSet("gates", gates)

	// detectCycle locks each module it visits, including m itself, so m's
	// lock must already be released here: held across the call it would be
	// a recursive RLock, which a writer blocked in between (connect_modules,
	// destroy_module) can turn into a self-deadlock.
	info.MapSet("cycle", sv.Uint(boolToUint(t.detectCycle(m.Name))))

	return info
}

// detectCycle answers the open question on cyclic gate graphs: connect
// still permits cycles, but callers can now ask whether one exists from a
// given module, via plain depth-first search over gate downstreams.
func (t *moduleTable) detectCycle(start string) bool {
	visited := make(map[string]int) // 0=unvisited,1=in-progress,2=done
	var visit func(name string) bool
	visit = func(name string) bool {
		switch visited[name] {
		case 1:
			return true
		case 2:
			return false
		}
		visited[name] = 1

		t.mu.RLock()
		m, ok := t.modules[name]
		t.mu.RUnlock()
		if !ok {
			visited[name] = 2
			return false
		}

		m.mu.RLock()
		downstreams := make([]string, 0, len(m.gates))
		for _, g := range m.gates {
			if g.connected() {
				downstreams = append(downstreams, g.Downstream)
			}
		}
		m.mu.RUnlock()

		for _, d := range downstreams {
			if visit(d) {
				return true
			}
		}
		visited[name] = 2
		return false
	}
	return visit(start)
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
