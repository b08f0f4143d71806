package switchcore

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/softnic/softnicd/internal/pcapwriter"
)

// Tap is a capture sink attached to a gate. It receives a copy of every
// batch traversing the gate, pcap-framed, written to a named pipe opened
// for non-blocking write.
type Tap struct {
	mu   sync.Mutex
	f    *os.File
	pcap *pcapwriter.Writer
}

// OpenTap opens fifoPath for non-blocking write and wraps it in a pcap
// writer. fifoPath is expected to already exist as a named pipe, created by
// the client .
func OpenTap(fifoPath string) (*Tap, error) {
	f, err := os.OpenFile(fifoPath, os.O_WRONLY|os.O_NONBLOCK, 0)
	if err != nil {
		return nil, NewError(EIO, "open tap fifo %q: %s", fifoPath, err)
	}
	return &Tap{f: f, pcap: pcapwriter.New(f)}, nil
}

// Write captures batch to the tap. I/O failures are reported as EIO.
func (t *Tap) Write(batch Batch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pkts := make([][]byte, len(batch))
	for i, p := range batch {
		pkts[i] = p
	}
	if err := t.pcap.WriteBatch(pkts, time.Now()); err != nil {
		return NewError(EIO, "tap write: %s", err)
	}
	return nil
}

func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Close()
}

// EnableTcpdump implements enable_tcpdump.
func (t *moduleTable) EnableTcpdump(srcName string, gateIdx int, fifoPath string) error {
	t.mu.RLock()
	src, ok := t.modules[srcName]
	t.mu.RUnlock()
	if !ok {
		return NewError(ENOENT, "module %q not found", srcName)
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if gateIdx >= len(src.gates) {
		return NewError(ENOENT, "gate %d on %q not allocated", gateIdx, srcName)
	}

	tap, err := OpenTap(fifoPath)
	if err != nil {
		return err
	}
	src.gates[gateIdx].Tap = tap
	return nil
}

// DisableTcpdump implements disable_tcpdump.
func (t *moduleTable) DisableTcpdump(srcName string, gateIdx int) error {
	t.mu.RLock()
	src, ok := t.modules[srcName]
	t.mu.RUnlock()
	if !ok {
		return NewError(ENOENT, "module %q not found", srcName)
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if gateIdx >= len(src.gates) || src.gates[gateIdx].Tap == nil {
		return NewError(ENOENT, "gate %d on %q has no tap", gateIdx, srcName)
	}
	tap := src.gates[gateIdx].Tap
	src.gates[gateIdx].Tap = nil
	return tap.Close()
}

// Traverse is called by a module's dataplane-facing code (ProcessBatch
// implementations) each time a batch crosses a gate, recording counters
// (both the in-process atomic GateCounters and the mirrored
// gatePackets/gateBytes Prometheus vectors) and forwarding a copy to any
// attached tap.
func Traverse(moduleName string, gateIdx int, g *Gate, batch Batch) error {
	g.Counters.record(len(batch), batch.Bytes())

	gateLabel := strconv.Itoa(gateIdx)
	gatePackets.WithLabelValues(moduleName, gateLabel).Add(float64(len(batch)))
	gateBytes.WithLabelValues(moduleName, gateLabel).Add(float64(batch.Bytes()))

	if g.Tap != nil {
		return g.Tap.Write(batch)
	}
	return nil
}
