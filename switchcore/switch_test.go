package switchcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softnic/softnicd/drivers"
	"github.com/softnic/softnicd/mclasses"
	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

func newTestSwitch(t *testing.T) *switchcore.Switch {
	sw := switchcore.New(nil)
	require.NoError(t, sw.Registry.RegisterDriver(drivers.NewNull()))
	require.NoError(t, sw.Registry.RegisterMClass(mclasses.NewNoOp()))
	require.NoError(t, sw.Registry.RegisterMClass(mclasses.NewPortInc()))
	require.NoError(t, sw.Registry.RegisterMClass(mclasses.NewPortOut()))
	require.NoError(t, sw.Init(context.Background()))
	return sw
}

func req(to, cmd string, arg sv.Value) sv.Value {
	m := sv.MapVal()
	m.MapSet("to", sv.Str(to))
	m.MapSet("cmd", sv.Str(cmd))
	if !arg.IsNil() {
		m.MapSet("arg", arg)
	}
	return m
}

func TestEmptyListPorts(t *testing.T) {
	sw := newTestSwitch(t)
	reply := sw.Dispatch.Dispatch(context.Background(), req("softnic", "list_ports", sv.Nil()))
	items, ok := reply.ListGet()
	require.True(t, ok)
	require.Len(t, items, 0)
}

func TestCreateDestroyPort(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	arg := sv.MapVal()
	arg.MapSet("driver", sv.Str("null"))
	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "create_port", arg))
	require.False(t, reply.IsErr())
	name, ok := sv.EvalStr(reply, "name")
	require.True(t, ok)
	require.Equal(t, "null0", name)

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "destroy_port", sv.Str(name)))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "destroy_port", sv.Str(name)))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.ENOENT), code)
}

func TestResetModulesRequiresPause(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	addWorkerArg := sv.MapVal()
	addWorkerArg.MapSet("wid", sv.Uint(0))
	addWorkerArg.MapSet("core", sv.Uint(0))
	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "add_worker", addWorkerArg))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "resume_all", sv.Nil()))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "reset_modules", sv.Nil()))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.EBUSY), code)

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "pause_all", sv.Nil()))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "reset_modules", sv.Nil()))
	require.True(t, reply.IsNil())
}

func TestCreateModulesAutoNaming(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	arg := sv.MapVal()
	arg.MapSet("mclass", sv.Str("NoOP"))

	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", arg))
	name1, _ := sv.EvalStr(reply, "name")
	require.Equal(t, "NoOP0", name1)

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", arg))
	name2, _ := sv.EvalStr(reply, "name")
	require.Equal(t, "NoOP1", name2)
}

func TestConnectModulesAndInfo(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	mkArg := sv.MapVal()
	mkArg.MapSet("mclass", sv.Str("NoOP"))
	sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", mkArg))
	sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", mkArg))

	connArg := sv.MapVal()
	connArg.MapSet("m1", sv.Str("NoOP0"))
	connArg.MapSet("m2", sv.Str("NoOP1"))
	connArg.MapSet("gate", sv.Uint(0))

	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "connect_modules", connArg))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "connect_modules", connArg))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.EBUSY), code)

	info := sw.Dispatch.Dispatch(ctx, req("softnic", "get_module_info", sv.Str("NoOP0")))
	gates, ok := info.MapGet("gates")
	require.True(t, ok)
	list, _ := gates.ListGet()
	require.Len(t, list, 1)
	gateName, _ := sv.EvalStr(list[0], "name")
	require.Equal(t, "NoOP1", gateName)

	discArg := sv.MapVal()
	discArg.MapSet("name", sv.Str("NoOP0"))
	discArg.MapSet("gate", sv.Uint(0))
	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "disconnect_modules", discArg))
	require.True(t, reply.IsNil())

	info = sw.Dispatch.Dispatch(ctx, req("softnic", "get_module_info", sv.Str("NoOP0")))
	gates, _ = info.MapGet("gates")
	list, _ = gates.ListGet()
	require.Len(t, list, 0)
}

func TestAttachTaskTwiceFails(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	mkArg := sv.MapVal()
	mkArg.MapSet("mclass", sv.Str("NoOP"))
	sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", mkArg))

	addWorkerArg := sv.MapVal()
	addWorkerArg.MapSet("wid", sv.Uint(0))
	addWorkerArg.MapSet("core", sv.Uint(0))
	sw.Dispatch.Dispatch(ctx, req("softnic", "add_worker", addWorkerArg))

	attachArg := sv.MapVal()
	attachArg.MapSet("name", sv.Str("NoOP0"))
	attachArg.MapSet("taskid", sv.Uint(0))
	attachArg.MapSet("wid", sv.Uint(0))

	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "attach_task", attachArg))
	require.True(t, reply.IsNil())

	reply = sw.Dispatch.Dispatch(ctx, req("softnic", "attach_task", attachArg))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.EBUSY), code)
}

func TestAddWorkerBoundary(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	arg := sv.MapVal()
	arg.MapSet("wid", sv.Uint(switchcore.MaxWorkers))
	arg.MapSet("core", sv.Uint(0))

	reply := sw.Dispatch.Dispatch(ctx, req("softnic", "add_worker", arg))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.EINVAL), code)
}

func TestModuleQueryRoute(t *testing.T) {
	sw := newTestSwitch(t)
	ctx := context.Background()

	mkArg := sv.MapVal()
	mkArg.MapSet("mclass", sv.Str("NoOP"))
	sw.Dispatch.Dispatch(ctx, req("softnic", "create_module", mkArg))

	envelope := sv.MapVal()
	envelope.MapSet("name", sv.Str("NoOP0"))

	reply := sw.Dispatch.Dispatch(ctx, req("module", "query", envelope))
	require.True(t, reply.IsErr())
	code, _ := reply.ErrGet()
	require.Equal(t, uint32(switchcore.ENOTSUP), code)
}
