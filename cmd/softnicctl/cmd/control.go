package cmd

import (
	"fmt"

	"github.com/softnic/softnicd/sv"
)

const (
	ResetAllCommandDescription = "Destroy every module and port"
	ResetAllCommandHelp        = ResetAllCommandDescription
)

type ResetAllCommand struct{ ControlCommand }

func (c *ResetAllCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}
	_, err := c.call("softnic", "reset_all", sv.Nil())
	return err
}

const (
	PauseAllCommandDescription  = "Pause every running worker"
	PauseAllCommandHelp         = PauseAllCommandDescription
	ResumeAllCommandDescription = "Resume every paused worker"
	ResumeAllCommandHelp        = ResumeAllCommandDescription
)

type PauseAllCommand struct{ ControlCommand }

func (c *PauseAllCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}
	_, err := c.call("softnic", "pause_all", sv.Nil())
	return err
}

type ResumeAllCommand struct{ ControlCommand }

func (c *ResumeAllCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}
	_, err := c.call("softnic", "resume_all", sv.Nil())
	return err
}

const (
	AddWorkerCommandDescription = "Launch a worker thread pinned to a CPU core"
	AddWorkerCommandHelp        = AddWorkerCommandDescription
)

type AddWorkerCommand struct {
	ControlCommand

	WID  uint64 `long:"wid" required:"true" description:"worker id"`
	Core uint64 `long:"core" required:"true" description:"CPU core to pin the worker to"`
}

func (c *AddWorkerCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	arg := sv.MapVal()
	arg.MapSet("wid", sv.Uint(c.WID))
	arg.MapSet("core", sv.Uint(c.Core))

	_, err := c.call("softnic", "add_worker", arg)
	return err
}

const (
	AttachTaskCommandDescription = "Bind a module's task to a worker"
	AttachTaskCommandHelp        = AttachTaskCommandDescription
)

type AttachTaskCommand struct {
	ControlCommand

	Module string `long:"module" required:"true" description:"module name"`
	TaskID uint64 `long:"taskid" default:"0" description:"task id registered on the module"`
	WID    uint64 `long:"wid" required:"true" description:"worker id to attach to"`
}

func (c *AttachTaskCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	arg := sv.MapVal()
	arg.MapSet("name", sv.Str(c.Module))
	arg.MapSet("taskid", sv.Uint(c.TaskID))
	arg.MapSet("wid", sv.Uint(c.WID))

	_, err := c.call("softnic", "attach_task", arg)
	return err
}

const (
	KillCommandDescription = "Shut down the softnicd daemon"
	KillCommandHelp         = KillCommandDescription
)

type KillCommand struct{ ControlCommand }

func (c *KillCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}
	_, err := c.call("softnic", "kill_softnic", sv.Nil())
	if err != nil {
		return err
	}
	fmt.Println("softnicd shutting down")
	return nil
}
