package switchcore

import (
	"context"
	"time"

	"github.com/softnic/softnicd/sv"
)

// handlerFunc is a control-plane command handler. It returns either a
// result SV or a Go error, converted to an sv.Err at the dispatcher
// boundary.
type handlerFunc func(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error)

// commandEntry is a registered command: name, the quiesce precondition,
// and the handler itself — a data attribute, not a branch, .
type commandEntry struct {
	name        string
	pauseNeeded bool
	fn          handlerFunc
}

// Dispatcher routes {to, cmd, arg} requests to their registered handler.
type Dispatcher struct {
	commands map[string]commandEntry
	sw       *Switch
}

func newDispatcher(sw *Switch) *Dispatcher {
	d := &Dispatcher{commands: make(map[string]commandEntry), sw: sw}
	for _, e := range buildCommandTable() {
		d.commands[e.name] = e
	}
	return d
}

// Dispatch implements  validates to/cmd, enforces the pause
// precondition, invokes the handler, and normalizes the result.
func (d *Dispatcher) Dispatch(ctx context.Context, req sv.Value) sv.Value {
	to, ok := sv.EvalStr(req, "to")
	if !ok {
		return sv.Err(uint32(EINVAL), "missing 'to' field")
	}

	switch to {
	case "softnic":
		return d.dispatchSoftnic(ctx, req)
	case "module":
		return d.dispatchModule(ctx, req)
	default:
		return sv.Err(uint32(EINVAL), "unknown destination in 'to': %s", to)
	}
}

func (d *Dispatcher) dispatchSoftnic(ctx context.Context, req sv.Value) sv.Value {
	cmd, ok := sv.EvalStr(req, "cmd")
	if !ok {
		return sv.Err(uint32(EINVAL), "missing 'cmd' field")
	}
	entry, ok := d.commands[cmd]
	if !ok {
		return sv.Err(uint32(ENOTSUP), "unknown command in 'cmd': %s", cmd)
	}

	arg, _ := req.MapGet("arg")

	if entry.pauseNeeded && d.sw.workers.IsAnyRunning() {
		dispatchErrors.WithLabelValues(cmd, EBUSY.String()).Inc()
		return sv.Err(uint32(EBUSY), "there is a running worker")
	}

	start := time.Now()
	dispatchCalls.WithLabelValues(cmd).Inc()
	reply, err := entry.fn(ctx, d.sw, arg)
	dispatchLatency.WithLabelValues(cmd).Observe(time.Since(start).Seconds())

	if err != nil {
		sve := ToSV(err)
		code, _ := sve.ErrGet()
		dispatchErrors.WithLabelValues(cmd, Errno(code).String()).Inc()
		return sve
	}
	if reply.IsNil() {
		return sv.Nil()
	}
	return reply
}

// dispatchModule implements the "module" route: {to:"module", cmd:"query",
// arg:{name, arg}}, grounded on handle_snobj_module, with the module name
// and its own argument nested inside the envelope's "arg" field to fit the
// uniform {to,cmd,arg} request shape used throughout this API.
func (d *Dispatcher) dispatchModule(ctx context.Context, req sv.Value) sv.Value {
	cmd, _ := sv.EvalStr(req, "cmd")
	if cmd != "query" {
		return sv.Err(uint32(ENOTSUP), "not supported command '%s'", cmd)
	}

	envelope, _ := req.MapGet("arg")
	name, ok := sv.EvalStr(envelope, "name")
	if !ok {
		return sv.Err(uint32(EINVAL), "missing module name field 'name'")
	}

	m, ok := d.sw.modules.Find(name)
	if !ok {
		return sv.Err(uint32(ENOENT), "no module '%s' found", name)
	}

	arg, ok := envelope.MapGet("arg")
	if !ok {
		arg = sv.Nil()
	}

	reply, err := m.MClass.Query(ctx, m, arg)
	if err != nil {
		return ToSV(err)
	}
	return reply
}
