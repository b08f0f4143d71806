package switchcore

import (
	"context"
	"sort"
	"sync"

	"github.com/softnic/softnicd/sv"
)

// Driver is the capability contract a concrete NIC (or sandboxed helper
// process) implementation must satisfy. Registered once at startup and
// never mutated thereafter.
type Driver interface {
	Name() string
	DefaultIncQSize() int
	DefaultOutQSize() int

	InitDriver(ctx context.Context) error
	InitPort(ctx context.Context, port *Port, arg sv.Value) (sv.Value, error)
	DeinitPort(ctx context.Context, port *Port) error
	RecvPkts(port *Port, qid int, cap int) (Batch, error)
	SendPkts(port *Port, qid int, batch Batch) (accepted int, err error)
}

// ModuleClass is the capability contract a packet-processing module
// implementation must satisfy. Every method besides Name is optional; a
// class that does not implement a given hook simply omits it by embedding
// BaseModuleClass.
type ModuleClass interface {
	Name() string

	Init(ctx context.Context, m *Module, arg sv.Value) (sv.Value, error)
	Deinit(ctx context.Context, m *Module) error
	ProcessBatch(m *Module, batch Batch)
	RunTask(ctx context.Context, m *Module, arg sv.Value) (packets, bits uint64, err error)
	Query(ctx context.Context, m *Module, arg sv.Value) (sv.Value, error)
	GetDesc(m *Module) sv.Value
	GetDump(m *Module) sv.Value
}

// BaseModuleClass supplies no-op implementations of every optional
// ModuleClass hook. Concrete classes embed it and override only the hooks
// they need, without requiring nil-function-pointer checks at call sites.
type BaseModuleClass struct{ name string }

func NewBaseModuleClass(name string) BaseModuleClass { return BaseModuleClass{name: name} }

func (b BaseModuleClass) Name() string { return b.name }

func (BaseModuleClass) Init(ctx context.Context, m *Module, arg sv.Value) (sv.Value, error) {
	return sv.Nil(), nil
}
func (BaseModuleClass) Deinit(ctx context.Context, m *Module) error { return nil }
func (BaseModuleClass) ProcessBatch(m *Module, batch Batch)         {}
func (BaseModuleClass) RunTask(ctx context.Context, m *Module, arg sv.Value) (uint64, uint64, error) {
	return 0, 0, NewError(ENOTSUP, "run_task not implemented")
}
func (BaseModuleClass) Query(ctx context.Context, m *Module, arg sv.Value) (sv.Value, error) {
	return sv.Value{}, NewError(ENOTSUP, "query not implemented")
}
func (BaseModuleClass) GetDesc(m *Module) sv.Value { return sv.Nil() }
func (BaseModuleClass) GetDump(m *Module) sv.Value { return sv.Nil() }

// Registry holds the process-wide, write-once-at-init catalogs of Driver
// and ModuleClass descriptors.
type Registry struct {
	mu       sync.RWMutex
	drivers  map[string]Driver
	mclasses map[string]ModuleClass
}

func NewRegistry() *Registry {
	return &Registry{
		drivers:  make(map[string]Driver),
		mclasses: make(map[string]ModuleClass),
	}
}

func (r *Registry) RegisterDriver(d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drivers[d.Name()]; ok {
		return NewError(EEXIST, "driver %q already registered", d.Name())
	}
	r.drivers[d.Name()] = d
	return nil
}

func (r *Registry) RegisterMClass(c ModuleClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mclasses[c.Name()]; ok {
		return NewError(EEXIST, "module class %q already registered", c.Name())
	}
	r.mclasses[c.Name()] = c
	return nil
}

func (r *Registry) FindDriver(name string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	return d, ok
}

func (r *Registry) FindMClass(name string) (ModuleClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.mclasses[name]
	return c, ok
}

// ListDrivers returns a bounded page of registered driver names, sorted for
// stable pagination.
func (r *Registry) ListDrivers(offset, limit int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return page(names, offset, limit)
}

func (r *Registry) ListMClasses(offset, limit int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.mclasses))
	for n := range r.mclasses {
		names = append(names, n)
	}
	sort.Strings(names)
	return page(names, offset, limit)
}

func page(all []string, offset, limit int) []string {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// InitDrivers invokes InitDriver once per registered driver, in name order,
// so startup behavior (and any log output) is deterministic.
func (r *Registry) InitDrivers(ctx context.Context) error {
	r.mu.RLock()
	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	r.mu.RUnlock()

	for _, n := range names {
		d, _ := r.FindDriver(n)
		if err := d.InitDriver(ctx); err != nil {
			return err
		}
	}
	return nil
}
