package switchcore

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Switch is the control-plane aggregate: registries, instance tables,
// worker supervisor and the command dispatcher, all wired around a shared
// driver registry.
type Switch struct {
	log *logrus.Entry

	Registry *Registry
	ports    *portTable
	modules  *moduleTable
	workers  *workerTable
	Dispatch *Dispatcher
}

// New builds an empty Switch. Callers must explicitly register drivers and
// module classes before accepting control input; nothing is registered
// implicitly at startup.
func New(log *logrus.Entry) *Switch {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	sw := &Switch{
		log:      log,
		Registry: NewRegistry(),
		ports:    newPortTable(),
		workers:  newWorkerTable(),
	}
	sw.modules = newModuleTable(sw.ports, sw.workers)
	sw.Dispatch = newDispatcher(sw)
	return sw
}

// Init invokes every registered driver's InitDriver hook once, in
// deterministic (name) order, after logging a single startup line.
func (sw *Switch) Init(ctx context.Context) error {
	sw.log.Info("initializing registered drivers")
	return sw.Registry.InitDrivers(ctx)
}

// AttachTask implements attach_task.
func (sw *Switch) AttachTask(moduleName string, tid, wid int) error {
	m, ok := sw.modules.Find(moduleName)
	if !ok {
		return NewError(ENOENT, "module %q not found", moduleName)
	}

	if tid < 0 || tid >= MaxTasksPerModule {
		return NewError(EINVAL, "task id %d out of range", tid)
	}

	// m.mu stays held across the workers.attach call below so the
	// Attached check and the attach itself are atomic: releasing it in
	// between would let two concurrent attach_task calls on the same task
	// both pass the check and both register with a worker.
	m.mu.Lock()
	defer m.mu.Unlock()

	task := m.tasks[tid]
	if task == nil {
		return NewError(ENOENT, "task %d not registered on %q", tid, moduleName)
	}
	if task.Attached {
		return NewError(EBUSY, "task %d already attached", tid)
	}

	return sw.workers.attach(wid, task)
}

// ResetAll implements reset_all: destroy all modules, then all ports.
func (sw *Switch) ResetAll(ctx context.Context) error {
	for _, m := range sw.modules.List(0, 1<<30) {
		if err := sw.modules.Destroy(ctx, m.Name, sw.workers.detach); err != nil {
			return err
		}
	}
	for _, p := range sw.ports.List(0, 1<<30) {
		if err := sw.ports.Destroy(ctx, p.Name); err != nil {
			return err
		}
	}
	return nil
}
