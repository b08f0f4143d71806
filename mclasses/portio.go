package mclasses

import (
	"context"

	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

// PortInc is a source module class: its task polls a bound Port's RecvPkts
// and records the result on gate 0, exercising the Driver contract and the
// tap/counter machinery end to end without implementing a full packet fast
// path (out of scope).
type PortInc struct {
	switchcore.BaseModuleClass
}

func NewPortInc() *PortInc {
	return &PortInc{BaseModuleClass: switchcore.NewBaseModuleClass("PortInc")}
}

func (p *PortInc) Init(ctx context.Context, m *switchcore.Module, arg sv.Value) (sv.Value, error) {
	portName, ok := sv.EvalStr(arg, "port")
	if !ok {
		return sv.Value{}, switchcore.NewError(switchcore.EINVAL, "missing 'port'")
	}
	if err := m.RegisterTask(0, arg); err != nil {
		return sv.Value{}, err
	}
	reply := sv.MapVal()
	reply.MapSet("bind_port", sv.Str(portName))
	return reply, nil
}

func (p *PortInc) RunTask(ctx context.Context, m *switchcore.Module, arg sv.Value) (uint64, uint64, error) {
	port, ok := m.BoundPort()
	if !ok {
		return 0, 0, switchcore.NewError(switchcore.ENODEV, "no bound port")
	}

	batch, err := port.Driver.RecvPkts(port, 0, 32)
	if err != nil {
		return 0, 0, err
	}
	if len(batch) == 0 {
		return 0, 0, nil
	}

	if _, err := m.Traverse(0, batch); err != nil {
		return 0, 0, err
	}
	return uint64(len(batch)), batch.Bytes() * 8, nil
}

// PortOut is a sink module class: ProcessBatch hands a batch to its bound
// Port's SendPkts.
type PortOut struct {
	switchcore.BaseModuleClass
}

func NewPortOut() *PortOut {
	return &PortOut{BaseModuleClass: switchcore.NewBaseModuleClass("PortOut")}
}

func (p *PortOut) Init(ctx context.Context, m *switchcore.Module, arg sv.Value) (sv.Value, error) {
	portName, ok := sv.EvalStr(arg, "port")
	if !ok {
		return sv.Value{}, switchcore.NewError(switchcore.EINVAL, "missing 'port'")
	}
	reply := sv.MapVal()
	reply.MapSet("bind_port", sv.Str(portName))
	return reply, nil
}

func (p *PortOut) ProcessBatch(m *switchcore.Module, batch switchcore.Batch) {
	port, ok := m.BoundPort()
	if !ok {
		return
	}
	port.Driver.SendPkts(port, 0, batch)
}
