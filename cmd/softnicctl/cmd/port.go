package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"

	"github.com/softnic/softnicd/sv"
)

const (
	ListPortsCommandDescription = "List the ports currently created on the switch"
	ListPortsCommandHelp        = ListPortsCommandDescription
)

type ListPortsCommand struct {
	ControlCommand
}

func (c *ListPortsCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	reply, err := c.call("softnic", "list_ports", sv.Nil())
	if err != nil {
		return err
	}

	items, _ := reply.ListGet()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Driver", "Age"})
	for _, item := range items {
		name, _ := sv.EvalStr(item, "name")
		driver, _ := sv.EvalStr(item, "driver")
		age := "-"
		if ts, ok := sv.EvalDouble(item, "created_at"); ok {
			age = units.HumanDuration(time.Since(time.Unix(int64(ts), 0)))
		}
		table.Append([]string{name, driver, age})
	}
	table.Render()
	return nil
}

const (
	CreatePortCommandDescription = "Create a new port bound to a driver"
	CreatePortCommandHelp        = CreatePortCommandDescription
)

type CreatePortCommand struct {
	ControlCommand

	Driver string `long:"driver" required:"true" description:"name of the registered driver to bind"`
	Name   string `long:"name" description:"explicit port name; auto-assigned when omitted"`
}

func (c *CreatePortCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	arg := sv.MapVal()
	arg.MapSet("driver", sv.Str(c.Driver))
	if c.Name != "" {
		arg.MapSet("name", sv.Str(c.Name))
	}

	reply, err := c.call("softnic", "create_port", arg)
	if err != nil {
		return err
	}

	name, _ := sv.EvalStr(reply, "name")
	fmt.Printf("port %s created\n", name)
	return nil
}

const (
	DestroyPortCommandDescription = "Destroy a port"
	DestroyPortCommandHelp        = DestroyPortCommandDescription
)

type DestroyPortCommand struct {
	ControlCommand

	Args struct {
		Name string `positional-arg-name:"name" required:"true"`
	} `positional-args:"true"`
}

func (c *DestroyPortCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	_, err := c.call("softnic", "destroy_port", sv.Str(c.Args.Name))
	if err != nil {
		return err
	}

	fmt.Printf("port %s destroyed\n", c.Args.Name)
	return nil
}

const (
	PortStatsCommandDescription = "Show the packet/byte counters for a port"
	PortStatsCommandHelp        = PortStatsCommandDescription
)

type PortStatsCommand struct {
	ControlCommand

	Args struct {
		Name string `positional-arg-name:"name" required:"true"`
	} `positional-args:"true"`
}

func (c *PortStatsCommand) Execute(args []string) error {
	if err := c.ControlCommand.Execute(nil); err != nil {
		return err
	}

	reply, err := c.call("softnic", "get_port_stats", sv.Str(c.Args.Name))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Direction", "Packets", "Dropped", "Bytes"})
	for _, dir := range []string{"inc", "out"} {
		packets, _ := sv.EvalUint(reply, dir+".packets")
		dropped, _ := sv.EvalUint(reply, dir+".dropped")
		bytes, _ := sv.EvalUint(reply, dir+".bytes")
		table.Append([]string{dir, fmt.Sprint(packets), fmt.Sprint(dropped), fmt.Sprint(bytes)})
	}
	table.Render()
	return nil
}
