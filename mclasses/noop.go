// Package mclasses provides concrete switchcore.ModuleClass implementations.
package mclasses

import (
	"context"

	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

// NoOp is the trivial module class: its task does no work and forwards no
// packets, only a run_task hook that reports zero packets/bits.
type NoOp struct {
	switchcore.BaseModuleClass
}

func NewNoOp() *NoOp {
	return &NoOp{BaseModuleClass: switchcore.NewBaseModuleClass("NoOP")}
}

func (n *NoOp) Init(ctx context.Context, m *switchcore.Module, arg sv.Value) (sv.Value, error) {
	if err := m.RegisterTask(0, arg); err != nil {
		return sv.Value{}, err
	}
	return sv.Nil(), nil
}

func (n *NoOp) RunTask(ctx context.Context, m *switchcore.Module, arg sv.Value) (uint64, uint64, error) {
	return 0, 0, nil
}
