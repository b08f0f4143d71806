package switchcore

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// MaxWorkers bounds the size of the worker table.
const MaxWorkers = 64

// WorkerState is a worker's run state.
type WorkerState int32

const (
	WorkerInactive WorkerState = iota
	WorkerPaused
	WorkerRunning
)

// worker is one pinned-core scheduler slot. The control goroutine talks to
// it over ctl (pause/resume requests) and ack (state-transition
// acknowledgements). state is only ever mutated by the worker's own run()
// goroutine, but PauseAll/ResumeAll/IsAnyRunning read it from the control
// goroutine, so it is accessed through atomic load/store rather than as a
// plain field.
type worker struct {
	wid   int
	core  int
	state int32

	ctl  chan workerCmd
	ack  chan struct{}
	done chan struct{}

	tasks map[taskKey]*Task
}

func (w *worker) getState() WorkerState  { return WorkerState(atomic.LoadInt32(&w.state)) }
func (w *worker) setState(s WorkerState) { atomic.StoreInt32(&w.state, int32(s)) }

type workerCmd int

const (
	cmdPause workerCmd = iota
	cmdResume
	cmdStop
)

type taskKey struct {
	module string
	tid    int
}

// workerTable is the fixed-size supervisor of all worker slots.
type workerTable struct {
	mu      sync.RWMutex
	workers [MaxWorkers]*worker
}

func newWorkerTable() *workerTable {
	return &workerTable{}
}

// Launch implements launch_worker.
func (t *workerTable) Launch(wid, core int) error {
	if wid < 0 || wid >= MaxWorkers {
		return NewError(EINVAL, "wid %d out of range", wid)
	}
	if core < 0 || core >= runtime.NumCPU() {
		return NewError(EINVAL, "core %d exceeds logical core count", core)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.workers[wid] != nil {
		return NewError(EEXIST, "worker %d already active", wid)
	}

	w := &worker{
		wid:   wid,
		core:  core,
		state: int32(WorkerPaused),
		ctl:   make(chan workerCmd, 1),
		ack:   make(chan struct{}),
		done:  make(chan struct{}),
		tasks: make(map[taskKey]*Task),
	}
	t.workers[wid] = w
	workersActive.Inc()

	go w.run()
	return nil
}

// run is the worker's poll loop. The real packet poll loop and per-core
// scheduler classes are an external collaborator; this loop only honors
// the pause/resume protocol and, while running, drives any attached
// tasks' RunTask hooks at a coarse interval, enough to exercise counters
// and statistics end to end.
func (w *worker) run() {
	trySetAffinity(w.core)

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-w.ctl:
			switch cmd {
			case cmdPause:
				if w.getState() == WorkerRunning {
					workersRunning.Dec()
				}
				w.setState(WorkerPaused)
				w.ack <- struct{}{}
			case cmdResume:
				if w.getState() != WorkerRunning {
					workersRunning.Inc()
				}
				w.setState(WorkerRunning)
				w.ack <- struct{}{}
			case cmdStop:
				if w.getState() == WorkerRunning {
					workersRunning.Dec()
				}
				workersActive.Dec()
				close(w.done)
				return
			}
		case <-ticker.C:
			if w.getState() != WorkerRunning {
				continue
			}
			for _, task := range w.tasks {
				mc := task.Module.MClass
				mc.RunTask(context.Background(), task.Module, task.Arg) //nolint:errcheck // best-effort poll tick
			}
		}
	}
}

func trySetAffinity(core int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	_ = unix.SchedSetaffinity(0, &set) // best-effort; ignored on non-Linux or unsupported cores
}

// PauseAll implements quiesce protocol: it returns only after every
// active worker has acknowledged entering paused.
func (t *workerTable) PauseAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, w := range t.workers {
		if w == nil || w.getState() == WorkerInactive {
			continue
		}
		w.ctl <- cmdPause
		<-w.ack
	}
}

func (t *workerTable) ResumeAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, w := range t.workers {
		if w == nil || w.getState() == WorkerInactive {
			continue
		}
		w.ctl <- cmdResume
		<-w.ack
	}
}

func (t *workerTable) IsAnyRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, w := range t.workers {
		if w != nil && w.getState() == WorkerRunning {
			return true
		}
	}
	return false
}

func (t *workerTable) get(wid int) (*worker, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if wid < 0 || wid >= MaxWorkers || t.workers[wid] == nil {
		return nil, false
	}
	return t.workers[wid], true
}

// attach assigns task to worker wid's default traffic class.
func (t *workerTable) attach(wid int, task *Task) error {
	w, ok := t.get(wid)
	if !ok {
		return NewError(EINVAL, "worker %d not active", wid)
	}
	w.tasks[taskKey{module: task.Module.Name, tid: task.ID}] = task
	task.Attached = true
	task.Worker = wid
	return nil
}

// detach removes a task from a worker's schedule, used by destroy_module
// (and so by reset_modules and reset_all).
func (t *workerTable) detach(wid int, moduleName string, tid int) {
	w, ok := t.get(wid)
	if !ok {
		return
	}
	delete(w.tasks, taskKey{module: moduleName, tid: tid})
}
