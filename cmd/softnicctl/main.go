package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/softnic/softnicd/cmd/softnicctl/cmd"
)

var (
	version = "undefined"
	build   = "undefined"
)

func main() {
	parser := flags.NewNamedParser("softnicctl", flags.Default)

	parser.AddCommand("list-ports",
		cmd.ListPortsCommandDescription, cmd.ListPortsCommandHelp,
		&cmd.ListPortsCommand{})
	parser.AddCommand("create-port",
		cmd.CreatePortCommandDescription, cmd.CreatePortCommandHelp,
		&cmd.CreatePortCommand{})
	parser.AddCommand("destroy-port",
		cmd.DestroyPortCommandDescription, cmd.DestroyPortCommandHelp,
		&cmd.DestroyPortCommand{})
	parser.AddCommand("port-stats",
		cmd.PortStatsCommandDescription, cmd.PortStatsCommandHelp,
		&cmd.PortStatsCommand{})

	parser.AddCommand("list-modules",
		cmd.ListModulesCommandDescription, cmd.ListModulesCommandHelp,
		&cmd.ListModulesCommand{})
	parser.AddCommand("create-module",
		cmd.CreateModuleCommandDescription, cmd.CreateModuleCommandHelp,
		&cmd.CreateModuleCommand{})
	parser.AddCommand("destroy-module",
		cmd.DestroyModuleCommandDescription, cmd.DestroyModuleCommandHelp,
		&cmd.DestroyModuleCommand{})
	parser.AddCommand("connect-modules",
		cmd.ConnectModulesCommandDescription, cmd.ConnectModulesCommandHelp,
		&cmd.ConnectModulesCommand{})
	parser.AddCommand("module-info",
		cmd.ModuleInfoCommandDescription, cmd.ModuleInfoCommandHelp,
		&cmd.ModuleInfoCommand{})

	parser.AddCommand("reset-all",
		cmd.ResetAllCommandDescription, cmd.ResetAllCommandHelp,
		&cmd.ResetAllCommand{})
	parser.AddCommand("pause-all",
		cmd.PauseAllCommandDescription, cmd.PauseAllCommandHelp,
		&cmd.PauseAllCommand{})
	parser.AddCommand("resume-all",
		cmd.ResumeAllCommandDescription, cmd.ResumeAllCommandHelp,
		&cmd.ResumeAllCommand{})
	parser.AddCommand("add-worker",
		cmd.AddWorkerCommandDescription, cmd.AddWorkerCommandHelp,
		&cmd.AddWorkerCommand{})
	parser.AddCommand("attach-task",
		cmd.AttachTaskCommandDescription, cmd.AttachTaskCommandHelp,
		&cmd.AttachTaskCommand{})
	parser.AddCommand("kill",
		cmd.KillCommandDescription, cmd.KillCommandHelp,
		&cmd.KillCommand{})

	parser.AddCommand("install-helper",
		cmd.InstallHelperCommandDescription, cmd.InstallHelperCommandHelp,
		&cmd.InstallHelperCommand{})
	parser.AddCommand("list-helpers",
		cmd.ListHelpersCommandDescription, cmd.ListHelpersCommandHelp,
		&cmd.ListHelpersCommand{})
	parser.AddCommand("remove-helper",
		cmd.RemoveHelperCommandDescription, cmd.RemoveHelperCommandHelp,
		&cmd.RemoveHelperCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		fmt.Println()
		parser.WriteHelp(os.Stdout)
		fmt.Printf("\nBuild information\n  commit: %s\n  date: %s\n", version, build)
		os.Exit(1)
	}
}
