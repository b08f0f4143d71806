package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/softnic/softnicd/sv"
)

const (
	ListModulesCommandDescription = "List the modules currently created on the switch"
	ListModulesCommandHelp        = ListModulesCommandDescription
)

type ListModulesCommand struct {
	ControlCommand
}

func (c *ListModulesCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	reply, err := c.call("softnic", "list_modules", sv.Nil())
	if err != nil {
		return err
	}

	items, _ := reply.ListGet()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Class"})
	for _, item := range items {
		name, _ := sv.EvalStr(item, "name")
		mclass, _ := sv.EvalStr(item, "mclass")
		table.Append([]string{name, mclass})
	}
	table.Render()
	return nil
}

const (
	CreateModuleCommandDescription = "Instantiate a module class"
	CreateModuleCommandHelp        = CreateModuleCommandDescription
)

type CreateModuleCommand struct {
	ControlCommand

	MClass string `long:"mclass" required:"true" description:"name of the registered module class"`
	Name   string `long:"name" description:"explicit module name; auto-assigned when omitted"`
}

func (c *CreateModuleCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	arg := sv.MapVal()
	arg.MapSet("mclass", sv.Str(c.MClass))
	if c.Name != "" {
		arg.MapSet("name", sv.Str(c.Name))
	}

	reply, err := c.call("softnic", "create_module", arg)
	if err != nil {
		return err
	}

	name, _ := sv.EvalStr(reply, "name")
	fmt.Printf("module %s created\n", name)
	return nil
}

const (
	DestroyModuleCommandDescription = "Destroy a module"
	DestroyModuleCommandHelp        = DestroyModuleCommandDescription
)

type DestroyModuleCommand struct {
	ControlCommand

	Args struct {
		Name string `positional-arg-name:"name" required:"true"`
	} `positional-args:"true"`
}

func (c *DestroyModuleCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	_, err := c.call("softnic", "destroy_module", sv.Str(c.Args.Name))
	if err != nil {
		return err
	}

	fmt.Printf("module %s destroyed\n", c.Args.Name)
	return nil
}

const (
	ConnectModulesCommandDescription = "Connect an output gate of one module to another module's input"
	ConnectModulesCommandHelp        = ConnectModulesCommandDescription
)

type ConnectModulesCommand struct {
	ControlCommand

	From string `long:"from" required:"true" description:"upstream module name"`
	To   string `long:"to" required:"true" description:"downstream module name"`
	Gate uint64 `long:"gate" default:"0" description:"upstream output gate index"`
}

func (c *ConnectModulesCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	arg := sv.MapVal()
	arg.MapSet("m1", sv.Str(c.From))
	arg.MapSet("m2", sv.Str(c.To))
	arg.MapSet("gate", sv.Uint(c.Gate))

	if _, err := c.call("softnic", "connect_modules", arg); err != nil {
		return err
	}

	fmt.Printf("%s:%d -> %s\n", c.From, c.Gate, c.To)
	return nil
}

const (
	ModuleInfoCommandDescription = "Show a module's gate connections"
	ModuleInfoCommandHelp        = ModuleInfoCommandDescription
)

type ModuleInfoCommand struct {
	ControlCommand

	Args struct {
		Name string `positional-arg-name:"name" required:"true"`
	} `positional-args:"true"`
}

func (c *ModuleInfoCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	reply, err := c.call("softnic", "get_module_info", sv.Str(c.Args.Name))
	if err != nil {
		return err
	}

	gates, _ := reply.MapGet("gates")
	list, _ := gates.ListGet()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Gate", "Connected to"})
	for _, g := range list {
		idx, _ := sv.EvalUint(g, "gate")
		name, _ := sv.EvalStr(g, "name")
		table.Append([]string{fmt.Sprint(idx), name})
	}
	table.Render()
	return nil
}
