package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/olekukonko/tablewriter"

	"github.com/softnic/softnicd/runtime"
)

// helperStorage is the common flag every helper-image command needs: the
// same path the daemon was started with via -storage, since image install,
// list and removal all operate directly on that on-disk storage rather than
// through the control channel.
type helperStorage struct {
	Storage string `long:"storage" default:"/var/lib/softnicd" description:"path where the daemon stores runtime state"`
}

func (h *helperStorage) open() (*runtime.Runtime, error) {
	rt := runtime.NewRuntime(h.Storage)
	if err := rt.Init(); err != nil {
		return nil, err
	}
	return rt, nil
}

const (
	InstallHelperCommandDescription = "Pull and install a packet-I/O helper image"
	InstallHelperCommandHelp        = InstallHelperCommandDescription
)

type InstallHelperCommand struct {
	helperStorage

	Update bool `long:"update" description:"re-pull the image even if already installed"`

	Args struct {
		Ref string `positional-arg-name:"image" required:"true"`
	} `positional-args:"true"`
}

func (c *InstallHelperCommand) Execute(args []string) error {
	rt, err := c.open()
	if err != nil {
		return err
	}

	img, err := runtime.NewHelperImage(c.Args.Ref)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Prefix = fmt.Sprintf("installing %s ", c.Args.Ref)
	s.Start()
	status, err := rt.InstallHelper(img, c.Update)
	s.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("helper image %s installed at %s\n", status.Reference, status.Path)
	return nil
}

const (
	ListHelpersCommandDescription = "List installed packet-I/O helper images"
	ListHelpersCommandHelp        = ListHelpersCommandDescription
)

type ListHelpersCommand struct {
	helperStorage
}

func (c *ListHelpersCommand) Execute(args []string) error {
	rt, err := c.open()
	if err != nil {
		return err
	}

	list, err := rt.ListHelpers()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Reference", "Digest", "Path"})
	for _, status := range list {
		table.Append([]string{status.Reference, status.Digest.String(), status.Path})
	}
	table.Render()
	return nil
}

const (
	RemoveHelperCommandDescription = "Remove an installed packet-I/O helper image"
	RemoveHelperCommandHelp        = RemoveHelperCommandDescription
)

type RemoveHelperCommand struct {
	helperStorage

	Args struct {
		Ref string `positional-arg-name:"image" required:"true"`
	} `positional-args:"true"`
}

func (c *RemoveHelperCommand) Execute(args []string) error {
	rt, err := c.open()
	if err != nil {
		return err
	}

	img, err := runtime.NewHelperImage(c.Args.Ref)
	if err != nil {
		return err
	}

	if err := rt.RemoveHelper(img); err != nil {
		return err
	}

	fmt.Printf("helper image %s removed\n", c.Args.Ref)
	return nil
}
