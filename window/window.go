// Package window implements the per-connection sliding-window bookkeeping
// for a small-footprint TCP/IP stack: segment pool lending, RX reassembly
// with SACK generation, TX queueing across priority/wait/tx queues, ACK
// and SACK ingestion, fast retransmit, and SRTT/RTO estimation.
//
// A Window owns no socket, no IP layer, and no payload bytes. It tracks
// metadata about byte ranges only; packet parsing, framing, the
// application's stream buffers, and the host tick source are supplied by
// the caller. Every exported method is meant to be driven by a single
// task: a Window is not safe for concurrent use, and none of its methods
// block or allocate on the hot path.
package window

import (
	"log/slog"

	"github.com/go-tcpwin/tcpwin/clock"
	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
	"github.com/rs/xid"
)

const (
	// srttInitMs is the smoothed RTT estimate assumed before any segment
	// has completed a round trip.
	srttInitMs = 1000
	// srttFloorMs is the lowest value the SRTT estimator is ever clamped
	// to, regardless of how fast acknowledgements arrive.
	srttFloorMs = 50
	// dupAcksBeforeFastRetransmit is the number of out-of-range SACKs a
	// wait-queue segment tolerates before being promoted to the priority
	// queue.
	dupAcksBeforeFastRetransmit = 3
	// transmitCountForWindowShrink is the transmit count (first send
	// included) at which the congestion reaction (shrink tx window to 2*MSS) kicks in.
	transmitCountForWindowShrink = 4
	// maxBackoffShift caps the exponent used in the 2^transmitCount
	// backoff computation. transmitCount is stored in an 8-bit saturating
	// counter; left uncapped, a shift that large produces a backoff with
	// no practical meaning, so implementations are expected to clamp the
	// shift rather than let it grow unchecked.
	maxBackoffShift = 10
)

// Metrics is the narrow observation surface a Window reports through.
// Implementations are expected to wrap Prometheus collectors; nil is a
// valid value and every call becomes a no-op.
type Metrics interface {
	PoolObserved(free, total int)
	RetransmitTimeout()
	RetransmitFast()
	SRTTObserved(windowID string, ms uint32)
	SACKEmitted()
	RXRejected(reason string)
}

// Window is the sliding-window state for one TCP-like connection.
type Window struct {
	id xid.ID

	p     *pool.Pool
	clock clock.Source
	log   *slog.Logger
	mtr   Metrics

	rx struct {
		first, current, highest seq.Value
	}
	tx struct {
		first, current, highest, nextTx seq.Value
	}

	mss     seq.Size
	mssInit seq.Size
	srttMs  uint32

	rxWindowLen seq.Size
	txWindowLen seq.Size

	headSegment pool.Index

	optionsData   [12]byte
	optionsLength int

	userDataLength seq.Size

	txSegs, rxSegs                pool.Side
	priorityQueue, waitQueue, txQ pool.Queue
}

// Config carries the parameters New and Init use to stand up a Window
// from a flat set of fields.
type Config struct {
	RxWindowLen seq.Size
	TxWindowLen seq.Size
	OurISN      seq.Value
	PeerISN     seq.Value
	MSS         seq.Size
	// InitialSRTT seeds the smoothed round-trip estimate before any
	// segment has completed a round trip. Zero means "use the engine
	// default" (srttInitMs).
	InitialSRTT uint32
	Clock       clock.Source
	Logger      *slog.Logger
	Metrics     Metrics
}

// New creates a Window borrowing descriptors from p as needed. p is
// shared by every window the caller creates; the Window never allocates
// descriptors itself.
func New(p *pool.Pool, cfg Config) *Window {
	w := &Window{id: xid.New()}
	w.p = p
	w.reset(cfg)
	return w
}

// Init reinitializes an existing Window for a new connection incarnation,
// first returning every descriptor it currently holds to the pool. This
// mirrors reusing a connection-control-block slot instead of allocating a
// fresh Window object per connection.
func (w *Window) Init(cfg Config) {
	w.destroy()
	w.reset(cfg)
}

func (w *Window) reset(cfg Config) {
	w.clock = cfg.Clock
	w.log = cfg.Logger
	w.mtr = cfg.Metrics

	w.rx.first = cfg.PeerISN
	w.rx.current = cfg.PeerISN
	w.rx.highest = cfg.PeerISN

	w.tx.first = cfg.OurISN
	w.tx.current = cfg.OurISN
	w.tx.highest = cfg.OurISN
	w.tx.nextTx = cfg.OurISN

	w.mss = cfg.MSS
	w.mssInit = cfg.MSS
	w.srttMs = cfg.InitialSRTT
	if w.srttMs == 0 {
		w.srttMs = srttInitMs
	}

	w.rxWindowLen = cfg.RxWindowLen
	w.txWindowLen = cfg.TxWindowLen

	w.headSegment = pool.NilIndex
	w.optionsLength = 0
	w.userDataLength = 0

	w.txSegs = pool.NewSide()
	w.rxSegs = pool.NewSide()
	w.priorityQueue = pool.NewQueue()
	w.waitQueue = pool.NewQueue()
	w.txQ = pool.NewQueue()

	w.observePool()
}

// Destroy releases every descriptor this Window holds back to the shared
// pool. Callers invoke this once, on permanent teardown of the
// connection; the engine never reclaims a descriptor unilaterally
// otherwise.
func (w *Window) Destroy() {
	w.destroy()
}

func (w *Window) destroy() {
	for {
		idx := w.txSegs.Head()
		if idx == pool.NilIndex {
			break
		}
		w.freeTxSegment(idx)
	}
	for {
		idx := w.rxSegs.Head()
		if idx == pool.NilIndex {
			break
		}
		w.p.SideUnlink(&w.rxSegs, idx)
		w.p.Return(idx)
	}
	w.headSegment = pool.NilIndex
	w.observePool()
}

// ID returns the identifier assigned to this Window at construction,
// used only to label logs and metrics so several windows sharing a pool
// are distinguishable.
func (w *Window) ID() string { return w.id.String() }

// MSS returns the maximum segment size configured for this connection.
func (w *Window) MSS() seq.Size { return w.mss }

// SRTTMs returns the current smoothed round-trip time estimate.
func (w *Window) SRTTMs() uint32 { return w.srttMs }

// RxEmpty reports whether any out-of-order RX segments are currently
// buffered.
func (w *Window) RxEmpty() bool { return w.rxSegs.Empty() }

// TxDone reports whether every TX segment has been acknowledged.
func (w *Window) TxDone() bool { return w.txSegs.Empty() }

func (w *Window) freeTxSegment(idx Index) {
	if w.p.SideTagOf(idx) == pool.TagTxSegs {
		w.p.SideUnlink(&w.txSegs, idx)
	}
	if w.p.InQueue(idx) {
		w.unlinkFromItsQueue(idx)
	}
	if w.headSegment == idx {
		w.headSegment = pool.NilIndex
	}
	w.p.Return(idx)
	w.observePool()
}

func (w *Window) unlinkFromItsQueue(idx pool.Index) {
	switch w.p.QueueTagOf(idx) {
	case pool.TagPriority:
		w.p.QueueUnlink(&w.priorityQueue, idx)
	case pool.TagWait:
		w.p.QueueUnlink(&w.waitQueue, idx)
	case pool.TagTx:
		w.p.QueueUnlink(&w.txQ, idx)
	}
}

func (w *Window) observePool() {
	if w.mtr == nil {
		return
	}
	w.mtr.PoolObserved(w.p.Free(), w.p.Cap())
}

type Index = pool.Index
