package switchcore

import (
	"context"
	"os"

	"github.com/softnic/softnicd/sv"
)

// buildCommandTable is the Go expression of command table: a data
// table of {name, pauseNeeded, fn}, not a chain of ifs.
func buildCommandTable() []commandEntry {
	return []commandEntry{
		{"reset_all", true, cmdResetAll},
		{"pause_all", false, cmdPauseAll},
		{"resume_all", false, cmdResumeAll},
		{"add_worker", true, cmdAddWorker},
		{"list_drivers", false, cmdListDrivers},
		{"reset_ports", true, cmdResetPorts},
		{"list_ports", false, cmdListPorts},
		{"create_port", false, cmdCreatePort},
		{"destroy_port", false, cmdDestroyPort},
		{"get_port_stats", false, cmdGetPortStats},
		{"list_mclasses", false, cmdListMClasses},
		{"reset_modules", true, cmdResetModules},
		{"list_modules", false, cmdListModules},
		{"create_module", true, cmdCreateModule},
		{"destroy_module", true, cmdDestroyModule},
		{"get_module_info", false, cmdGetModuleInfo},
		{"connect_modules", true, cmdConnectModules},
		{"disconnect_modules", true, cmdDisconnectModules},
		{"attach_task", true, cmdAttachTask},
		{"enable_tcpdump", true, cmdEnableTcpdump},
		{"disable_tcpdump", true, cmdDisableTcpdump},
		{"kill_softnic", true, cmdKillSoftnic},
	}
}

func cmdResetAll(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	return sv.Nil(), sw.ResetAll(ctx)
}

func cmdPauseAll(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	sw.workers.PauseAll()
	return sv.Nil(), nil
}

func cmdResumeAll(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	sw.workers.ResumeAll()
	return sv.Nil(), nil
}

func cmdAddWorker(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	wid, ok := sv.EvalUint(arg, "wid")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'wid'")
	}
	core, ok := sv.EvalUint(arg, "core")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'core'")
	}
	return sv.Nil(), sw.workers.Launch(int(wid), int(core))
}

func cmdListDrivers(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	names := sw.Registry.ListDrivers(0, 1<<30)
	out := sv.List()
	for _, n := range names {
		out.ListAdd(sv.Str(n))
	}
	return out, nil
}

func cmdResetPorts(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	for _, p := range sw.ports.List(0, 1<<30) {
		if err := sw.ports.Destroy(ctx, p.Name); err != nil {
			return sv.Value{}, err
		}
	}
	return sv.Nil(), nil
}

func cmdListPorts(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	out := sv.List()
	for _, p := range sw.ports.List(0, 1<<30) {
		entry := sv.MapVal()
		entry.MapSet("name", sv.Str(p.Name))
		entry.MapSet("driver", sv.Str(p.Driver.Name()))
		entry.MapSet("created_at", sv.Double(float64(p.CreatedAt.UnixNano())/1e9))
		out.ListAdd(entry)
	}
	return out, nil
}

func cmdCreatePort(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	driverName, ok := sv.EvalStr(arg, "driver")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'driver'")
	}
	d, ok := sw.Registry.FindDriver(driverName)
	if !ok {
		return sv.Value{}, NewError(ENODEV, "driver %q not registered", driverName)
	}
	name, _ := sv.EvalStr(arg, "name")
	portArg, ok := arg.MapGet("arg")
	if !ok {
		portArg = sv.Nil()
	}

	p, err := sw.ports.Create(ctx, name, d, portArg)
	if err != nil {
		return sv.Value{}, err
	}

	out := sv.MapVal()
	out.MapSet("name", sv.Str(p.Name))
	return out, nil
}

func cmdDestroyPort(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := arg.StrGet()
	if !ok {
		return sv.Value{}, NewError(EINVAL, "arg must be a port name string")
	}
	return sv.Nil(), sw.ports.Destroy(ctx, name)
}

func cmdGetPortStats(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := arg.StrGet()
	if !ok {
		return sv.Value{}, NewError(EINVAL, "arg must be a port name string")
	}
	p, ok := sw.ports.Find(name)
	if !ok {
		return sv.Value{}, NewError(ENOENT, "port %q not found", name)
	}
	return Stats(p), nil
}

func cmdListMClasses(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	names := sw.Registry.ListMClasses(0, 1<<30)
	out := sv.List()
	for _, n := range names {
		out.ListAdd(sv.Str(n))
	}
	return out, nil
}

func cmdResetModules(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	for _, m := range sw.modules.List(0, 1<<30) {
		if err := sw.modules.Destroy(ctx, m.Name, sw.workers.detach); err != nil {
			return sv.Value{}, err
		}
	}
	return sv.Nil(), nil
}

func cmdListModules(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	out := sv.List()
	for _, m := range sw.modules.List(0, 1<<30) {
		entry := sv.MapVal()
		entry.MapSet("name", sv.Str(m.Name))
		entry.MapSet("mclass", sv.Str(m.MClass.Name()))
		if desc := m.MClass.GetDesc(m); !desc.IsNil() {
			entry.MapSet("desc", desc)
		}
		out.ListAdd(entry)
	}
	return out, nil
}

func cmdCreateModule(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	mclassName, ok := sv.EvalStr(arg, "mclass")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'mclass'")
	}
	c, ok := sw.Registry.FindMClass(mclassName)
	if !ok {
		return sv.Value{}, NewError(ENOENT, "module class %q not registered", mclassName)
	}
	name, _ := sv.EvalStr(arg, "name")
	moduleArg, ok := arg.MapGet("arg")
	if !ok {
		moduleArg = sv.Nil()
	}

	m, err := sw.modules.Create(ctx, name, c, moduleArg)
	if err != nil {
		return sv.Value{}, err
	}

	out := sv.MapVal()
	out.MapSet("name", sv.Str(m.Name))
	return out, nil
}

func cmdDestroyModule(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := arg.StrGet()
	if !ok {
		return sv.Value{}, NewError(EINVAL, "arg must be a module name string")
	}
	return sv.Nil(), sw.modules.Destroy(ctx, name, sw.workers.detach)
}

func cmdGetModuleInfo(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := arg.StrGet()
	if !ok {
		return sv.Value{}, NewError(EINVAL, "arg must be a module name string")
	}
	m, ok := sw.modules.Find(name)
	if !ok {
		return sv.Value{}, NewError(ENOENT, "module %q not found", name)
	}
	return sw.modules.GetInfo(m), nil
}

func cmdConnectModules(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	m1, ok := sv.EvalStr(arg, "m1")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'm1'")
	}
	m2, ok := sv.EvalStr(arg, "m2")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'm2'")
	}
	gate, ok := sv.EvalUint(arg, "gate")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'gate'")
	}
	return sv.Nil(), sw.modules.Connect(m1, int(gate), m2)
}

func cmdDisconnectModules(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := sv.EvalStr(arg, "name")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'name'")
	}
	gate, ok := sv.EvalUint(arg, "gate")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'gate'")
	}
	return sv.Nil(), sw.modules.Disconnect(name, int(gate))
}

func cmdAttachTask(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := sv.EvalStr(arg, "name")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'name'")
	}
	tid, ok := sv.EvalUint(arg, "taskid")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'taskid'")
	}
	wid, ok := sv.EvalUint(arg, "wid")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'wid'")
	}
	return sv.Nil(), sw.AttachTask(name, int(tid), int(wid))
}

func cmdEnableTcpdump(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := sv.EvalStr(arg, "name")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'name'")
	}
	gate, ok := sv.EvalUint(arg, "gate")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'gate'")
	}
	fifo, ok := sv.EvalStr(arg, "fifo")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'fifo'")
	}
	return sv.Nil(), sw.modules.EnableTcpdump(name, int(gate), fifo)
}

func cmdDisableTcpdump(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	name, ok := sv.EvalStr(arg, "name")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'name'")
	}
	gate, ok := sv.EvalUint(arg, "gate")
	if !ok {
		return sv.Value{}, NewError(EINVAL, "missing 'gate'")
	}
	return sv.Nil(), sw.modules.DisableTcpdump(name, int(gate))
}

func cmdKillSoftnic(ctx context.Context, sw *Switch, arg sv.Value) (sv.Value, error) {
	sw.log.Info("kill_softnic received, exiting")
	go func() {
		os.Exit(0)
	}()
	return sv.Nil(), nil
}
