package drivers

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/softnic/softnicd/runtime"
	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

// Container is a Driver that sandboxes packet I/O in a rootless container:
// one sandboxed helper process per port, whose spawn InitPort retries with
// exponential backoff, speaking framed batches over its stdin and stdout. A
// helper that exits after InitPort has returned is not restarted.
type Container struct {
	rt     *runtime.Runtime
	image  runtime.HelperImage
	helper string
	args   []string
	log    *logrus.Entry
}

// NewContainer builds a Container driver that runs helperImage (a docker
// image reference holding a packet-I/O helper binary) in a rootless
// container per port, invoking helperPath with extraArgs as its entrypoint.
func NewContainer(log *logrus.Entry, rt *runtime.Runtime, helperImage, helperPath string, extraArgs ...string) (*Container, error) {
	img, err := runtime.NewHelperImage(helperImage)
	if err != nil {
		return nil, err
	}
	if _, err := rt.InstallHelper(img, false); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Container{rt: rt, image: img, helper: helperPath, args: extraArgs, log: log}, nil
}

// healthCheckTimeout bounds how long InitPort waits for a freshly spawned
// helper to reach the libcontainer Running state before giving up on this
// spawn attempt and letting the backoff.Retry loop try again.
const healthCheckTimeout = 2 * time.Second

func (c *Container) Name() string         { return "container" }
func (c *Container) DefaultIncQSize() int { return 256 }
func (c *Container) DefaultOutQSize() int { return 256 }

func (c *Container) InitDriver(ctx context.Context) error { return nil }

// containerPortState pumps framed batches between the helper process's
// stdio and two buffered channels on background goroutines, so RecvPkts/
// SendPkts themselves never block on the helper: a stalled or slow helper
// only backs up recvCh/sendCh, it never stalls the worker goroutine that
// calls RecvPkts/SendPkts from inside its run loop.
type containerPortState struct {
	mu        sync.Mutex
	container runtime.Container
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	recvCh    chan switchcore.Batch
	sendCh    chan switchcore.Batch
	done      chan struct{}
	closed    bool
	log       *logrus.Entry
}

// InitPort spawns the sandboxed helper process for port, retrying with
// exponential backoff the way spawnOne does, but bounded to a handful of
// attempts since InitPort must return synchronously to the caller of
// create_port.
func (c *Container) InitPort(ctx context.Context, port *switchcore.Port, arg sv.Value) (sv.Value, error) {
	var st *containerPortState
	op := func() error {
		s, err := c.spawn(port)
		if err != nil {
			c.log.WithError(err).Warn("helper process spawn failed, retrying")
			return err
		}
		st = s
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(op, bo); err != nil {
		return sv.Value{}, switchcore.NewError(switchcore.EIO, "spawning helper for port %q: %v", port.Name, err)
	}

	port.State = st
	return sv.Nil(), nil
}

func (c *Container) spawn(port *switchcore.Port) (*containerPortState, error) {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	p := &runtime.Process{
		Args:   append([]string{c.helper}, c.args...),
		Stdin:  stdinR,
		Stdout: stdoutW,
	}

	cid := fmt.Sprintf("softnic-%s", port.Name)
	container, err := c.rt.Container(cid, c.image, p, nil)
	if err != nil {
		return nil, err
	}
	if err := container.Start(); err != nil {
		return nil, err
	}
	if err := runtime.WaitHealthy(container, healthCheckTimeout); err != nil {
		container.Stop() //nolint:errcheck // best-effort cleanup of a helper that never became healthy
		return nil, err
	}

	st := &containerPortState{
		container: container,
		stdin:     stdinW,
		stdout:    stdoutR,
		recvCh:    make(chan switchcore.Batch, port.IncQSize),
		sendCh:    make(chan switchcore.Batch, port.OutQSize),
		done:      make(chan struct{}),
		log:       c.log.WithField("port", port.Name),
	}
	go st.recvLoop()
	go st.sendLoop()
	return st, nil
}

// recvLoop blocks on the helper's stdout so nothing else has to: it is the
// only goroutine that ever calls readBatch.
func (st *containerPortState) recvLoop() {
	for {
		batch, err := readBatch(st.stdout)
		if err != nil {
			select {
			case <-st.done:
			default:
				st.log.WithError(err).Warn("helper stdout closed, stopping recv loop")
			}
			return
		}
		select {
		case st.recvCh <- batch:
		case <-st.done:
			return
		}
	}
}

// sendLoop blocks on the helper's stdin so nothing else has to: it is the
// only goroutine that ever calls writeBatch.
func (st *containerPortState) sendLoop() {
	for {
		select {
		case batch := <-st.sendCh:
			if err := writeBatch(st.stdin, batch); err != nil {
				st.log.WithError(err).Warn("helper stdin closed, stopping send loop")
				return
			}
		case <-st.done:
			return
		}
	}
}

// DeinitPort stops the sandboxed helper process and its pump goroutines.
func (c *Container) DeinitPort(ctx context.Context, port *switchcore.Port) error {
	st := port.State.(*containerPortState)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return nil
	}
	st.closed = true
	close(st.done)
	st.stdin.Close()
	st.stdout.Close()
	return st.container.Stop()
}

// RecvPkts takes one already-framed batch off recvCh if one is ready,
// truncated to cap entries. It never blocks: a helper that has nothing
// queued yields an empty batch immediately, the same contract Null.RecvPkts
// honors, so a stalled helper cannot stall the worker goroutine driving it.
func (c *Container) RecvPkts(port *switchcore.Port, qid int, cap int) (switchcore.Batch, error) {
	st := port.State.(*containerPortState)
	select {
	case batch := <-st.recvCh:
		if len(batch) > cap {
			batch = batch[:cap]
		}
		return batch, nil
	default:
		return nil, nil
	}
}

// SendPkts hands batch to sendCh for the background sendLoop to frame and
// write, never blocking on the helper's stdin: the whole batch is accepted
// if sendCh has a free slot right now, otherwise none of it is.
func (c *Container) SendPkts(port *switchcore.Port, qid int, batch switchcore.Batch) (int, error) {
	st := port.State.(*containerPortState)
	select {
	case st.sendCh <- batch:
		return len(batch), nil
	default:
		return 0, nil
	}
}

// writeBatch/readBatch frame a Batch as a packet count followed by
// length-prefixed packets, the same big-endian length-prefix idiom the
// control channel uses in transport/server.go.
func writeBatch(w io.Writer, batch switchcore.Batch) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(batch)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, pkt := range batch {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(pkt)))
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.Write(pkt); err != nil {
			return err
		}
	}
	return nil
}

func readBatch(r io.Reader) (switchcore.Batch, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])

	batch := make(switchcore.Batch, n)
	for i := range batch {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, err
		}
		pktLen := binary.BigEndian.Uint32(hdr[:])
		pkt := make([]byte, pktLen)
		if _, err := io.ReadFull(r, pkt); err != nil {
			return nil, err
		}
		batch[i] = pkt
	}
	return batch, nil
}
