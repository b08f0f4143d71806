package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/softnic/softnicd/drivers"
	"github.com/softnic/softnicd/mclasses"
	"github.com/softnic/softnicd/runtime"
	"github.com/softnic/softnicd/switchcore"
	"github.com/softnic/softnicd/transport"
)

var (
	version = "undefined"
	build   = "undefined"

	network *string
	address *string
	storage *string

	helperImage *string
	helperPath  *string

	log struct {
		level  *string
		format *string
	}
	cmd *flag.FlagSet

	ctlListener net.Listener
)

func init() {
	cmd = flag.NewFlagSet("softnicd", flag.ExitOnError)
	network = cmd.String("ctl-network", "unix", "control channel network type: tcp, tcp4, tcp6, unix or unixpacket.")
	address = cmd.String("ctl-address", "/var/run/softnicd.sock", "control channel address to listen.")
	storage = cmd.String("storage", "/var/lib/softnicd", "path where all the runtime information is stored.")

	helperImage = cmd.String("helper-image", "", "OCI image holding a sandboxed packet-I/O helper; container driver is skipped when empty.")
	helperPath = cmd.String("helper-path", "/bin/softnic-helper", "path, inside the helper image, of the binary to run.")

	log.level = cmd.String("log-level", "info", "log level: panic, fatal, error, warning, info, debug.")
	log.format = cmd.String("log-format", "text", "format of the logs: text or json.")
	cmd.Parse(os.Args[1:])

	buildLogger()
	runtime.Bootstrap()
}

func main() {
	logrus.Infof("softnicd version: %s (build: %s)", version, build)

	sw := switchcore.New(logrus.NewEntry(logrus.StandardLogger()))
	registerBuiltins(sw)

	ctx, cancel := context.WithCancel(context.Background())
	if err := sw.Init(ctx); err != nil {
		logrus.Errorf("error initializing drivers: %s", err)
		os.Exit(1)
	}

	srv := transport.NewServer(logrus.NewEntry(logrus.StandardLogger()), sw)
	handleGracefulShutdown(cancel, srv)

	logrus.Infof("control channel listening on %s (%s)", *address, *network)
	if err := srv.Serve(ctx, *network, *address); err != nil {
		logrus.Errorf("error serving control channel: %s", err)
		os.Exit(1)
	}
}

// registerBuiltins wires the in-process Null driver and the NoOP/PortInc/
// PortOut/Counter module classes always, and the container driver only
// when an operator opted in with -helper-image, so a default startup
// never needs network access.
func registerBuiltins(sw *switchcore.Switch) {
	must(sw.Registry.RegisterDriver(drivers.NewNull()))
	must(sw.Registry.RegisterMClass(mclasses.NewNoOp()))
	must(sw.Registry.RegisterMClass(mclasses.NewPortInc()))
	must(sw.Registry.RegisterMClass(mclasses.NewPortOut()))
	must(sw.Registry.RegisterMClass(mclasses.NewCounter()))

	if *helperImage == "" {
		return
	}

	rt := runtime.NewRuntime(*storage)
	if err := rt.Init(); err != nil {
		logrus.Errorf("error initializing container runtime: %s", err)
		os.Exit(1)
	}

	cd, err := drivers.NewContainer(logrus.NewEntry(logrus.StandardLogger()), rt, *helperImage, *helperPath)
	if err != nil {
		logrus.Errorf("error preparing container driver: %s", err)
		os.Exit(1)
	}
	must(sw.Registry.RegisterDriver(cd))
}

func must(err error) {
	if err != nil {
		logrus.Errorf("error registering builtin: %s", err)
		os.Exit(1)
	}
}

func buildLogger() {
	lvl, err := logrus.ParseLevel(*log.level)
	if err != nil {
		logrus.Errorf("invalid log level %q: %s", *log.level, err)
		os.Exit(1)
	}
	logrus.SetLevel(lvl)

	if *log.format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func handleGracefulShutdown(cancel context.CancelFunc, srv *transport.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-stop
		logrus.Warningf("signal received %+v", sig)
		logrus.Warningf("stopping softnicd")
		cancel()
		if err := srv.Close(); err != nil {
			logrus.Errorf("error closing control channel: %s", err)
		}
	}()
}
