// Package cmd implements the softnicctl subcommand tree: one ControlCommand
// embedded by every subcommand, dialing the control channel before Execute
// runs.
package cmd

import (
	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/transport"
)

// ControlCommand dials the control channel with a plain framed
// transport.Client.
type ControlCommand struct {
	Network string `long:"ctl-network" default:"unix" description:"control channel network type"`
	Address string `long:"ctl-address" default:"/var/run/softnicd.sock" description:"control channel address to connect"`

	client *transport.Client
}

func (c *ControlCommand) Execute(args []string) error {
	client, err := transport.Dial(c.Network, c.Address)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

func (c *ControlCommand) call(to, cmdName string, arg sv.Value) (sv.Value, error) {
	req := sv.MapVal()
	req.MapSet("to", sv.Str(to))
	req.MapSet("cmd", sv.Str(cmdName))
	if !arg.IsNil() {
		req.MapSet("arg", arg)
	}

	reply, err := c.client.Call(req)
	if err != nil {
		return sv.Value{}, err
	}
	if reply.IsErr() {
		code, msg := reply.ErrGet()
		return sv.Value{}, &cliError{code: code, msg: msg}
	}
	return reply, nil
}

type cliError struct {
	code uint32
	msg  string
}

func (e *cliError) Error() string {
	return e.msg
}
