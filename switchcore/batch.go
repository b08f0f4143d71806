package switchcore

// Packet is an opaque packet handle. The real packet buffer pool and
// per-core memory regions are an external collaborator; here a packet is
// simply its wire bytes, sufficient to drive the control-plane tests and
// the diagnostic taps.
type Packet []byte

// Batch is a contiguous group of packets processed together for amortized
// per-packet cost, mirroring the dataplane's batch-oriented I/O.
type Batch []Packet

// Bytes returns the total byte length of every packet in the batch.
func (b Batch) Bytes() uint64 {
	var total uint64
	for _, p := range b {
		total += uint64(len(p))
	}
	return total
}
