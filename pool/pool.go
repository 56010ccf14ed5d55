// Package pool implements the process-wide, fixed-capacity segment
// descriptor arena. Every Window borrows descriptors from a Pool rather
// than allocating them; the Pool is passed in explicitly at window
// construction time instead of living behind a package-level global,
// since ambient mutable state of that kind does not fit cleanly into a
// library meant to be embedded by more than one caller.
//
// Descriptors are identified by their index into the arena (an Index),
// never by pointer: every list the package exposes is a pair of indices
// into the same backing slice, and slot ownership always belongs to the
// Pool. This mirrors how a single fixed-size arena can serve several
// logical lists without any per-node heap allocation.
package pool

import (
	"github.com/go-tcpwin/tcpwin/clock"
	"github.com/go-tcpwin/tcpwin/internal"
	"github.com/go-tcpwin/tcpwin/seq"
)

// Index identifies a segment descriptor inside a Pool. NilIndex means
// "no descriptor".
type Index int32

// NilIndex is the sentinel (-1, not Index's zero value) meaning "not
// present in any list".
const NilIndex Index = -1

// container tags which list, if any, currently owns a descriptor's link
// slot. It lets SideTagOf/InQueue answer in O(1) without walking a list,
// and it catches a double-unlink or double-insert as a programmer error
// rather than silent corruption.
type container uint8

const (
	containerNone container = iota
	containerFree
	containerTxSegs
	containerRxSegs
	containerPriority
	containerWait
	containerTx
)

// link is one membership slot: the previous/next descriptor in whichever
// list currently owns it, plus the owning list's tag.
type link struct {
	prev, next Index
	in         container
}

// Segment is a descriptor for one contiguous run of sequence space,
// either arriving (RX) or queued to send (TX). The same struct serves
// both sides; IsRX picks which fields are meaningful.
type Segment struct {
	Seq    seq.Value
	Len    seq.Size
	MaxLen seq.Size // MSS for TX segments, arriving length for RX segments.

	// StreamPos indexes into the caller's circular TX stream buffer.
	// Meaningless for RX segments.
	StreamPos int

	Born clock.Mark

	IsRX          bool
	Outstanding   bool
	Acked         bool
	TransmitCount uint8
	DupAckCount   uint8

	segLink   link // membership in a side list: free / txSegs / rxSegs.
	queueLink link // membership in a queue: priority / wait / tx.
}

func (s *Segment) reset() {
	*s = Segment{}
	// NilIndex is -1, not Go's zero value, so the link fields need
	// explicit resetting: leaving them at their zero value would make
	// an unlinked segment's next/prev look like a link to index 0.
	s.segLink = link{prev: NilIndex, next: NilIndex, in: containerNone}
	s.queueLink = link{prev: NilIndex, next: NilIndex, in: containerNone}
}

// list is a FIFO doubly-linked list of descriptor indices, threaded
// through either a segment's segLink or its queueLink depending on
// which Pool method is used to operate on it.
type list struct {
	head, tail Index
}

func newList() list { return list{head: NilIndex, tail: NilIndex} }

func (l *list) empty() bool { return l.head == NilIndex }

// Pool is the fixed-capacity arena. Its zero value is not usable; build
// one with New. A Pool is not safe for concurrent use.
type Pool struct {
	segs []Segment
	free list
}

// New allocates a Pool with room for n segment descriptors. Allocation
// happens once, here, and nowhere else on the hot path.
func New(n int) *Pool {
	p := &Pool{}
	p.Reset(n)
	return p
}

// Reset reinitializes the pool to hold exactly n segment descriptors,
// with every one of them on the free list. It reuses the existing
// backing array via SliceReuse when its capacity already covers n
// instead of reallocating, the same capacity-reuse discipline a
// reinitialized connection slot gets elsewhere in this module.
//
// Callers must not call Reset while any window still holds descriptors
// borrowed from this pool: doing so would leave those windows pointing
// at indices this call is about to repurpose.
func (p *Pool) Reset(n int) {
	internal.SliceReuse(&p.segs, n)
	p.segs = p.segs[:n]
	p.free = newList()
	for i := range p.segs {
		p.segs[i].reset()
		p.pushTailSeg(&p.free, containerFree, Index(i))
	}
}

// Cap returns the total number of descriptors the pool was built with.
func (p *Pool) Cap() int { return len(p.segs) }

// Free returns the number of descriptors currently unassigned to any
// window.
func (p *Pool) Free() int {
	n := 0
	for i := p.free.head; i != NilIndex; i = p.segs[i].segLink.next {
		n++
	}
	return n
}

// Get returns the descriptor at idx. Valid until the descriptor is
// returned to the pool via Return.
func (p *Pool) Get(idx Index) *Segment { return &p.segs[idx] }

// Take removes a descriptor from the free list and returns its index, or
// NilIndex if the pool is exhausted. Callers must link the descriptor
// into their own side list and (for TX) a queue before releasing it.
func (p *Pool) Take() Index {
	return p.popHeadSeg(&p.free)
}

// Return clears a descriptor's fields and pushes it back onto the free
// list. The caller must already have unlinked idx from its side list
// (Side) and, for TX segments, its queue (Queue) before calling Return —
// the Pool has no reference to those owning lists, only the Window does.
func (p *Pool) Return(idx Index) {
	if idx == NilIndex {
		return
	}
	seg := &p.segs[idx]
	if seg.segLink.in != containerNone || seg.queueLink.in != containerNone {
		panic("pool: Return called on segment still linked into a list")
	}
	seg.reset()
	p.pushTailSeg(&p.free, containerFree, idx)
}

// ---- side-list primitives (operate on segLink, tag with containerTxSegs/RxSegs) ----

func (p *Pool) pushTailSeg(l *list, tag container, idx Index) {
	s := &p.segs[idx].segLink
	s.prev = l.tail
	s.next = NilIndex
	s.in = tag
	if l.tail != NilIndex {
		p.segs[l.tail].segLink.next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
}

func (p *Pool) popHeadSeg(l *list) Index {
	idx := l.head
	if idx == NilIndex {
		return NilIndex
	}
	p.unlinkSegFrom(l, idx)
	return idx
}

func (p *Pool) unlinkSegFrom(l *list, idx Index) {
	s := &p.segs[idx].segLink
	if s.prev != NilIndex {
		p.segs[s.prev].segLink.next = s.next
	} else {
		l.head = s.next
	}
	if s.next != NilIndex {
		p.segs[s.next].segLink.prev = s.prev
	} else {
		l.tail = s.prev
	}
	s.prev, s.next = NilIndex, NilIndex
	s.in = containerNone
}

// Side is a side list (txSegs or rxSegs) threaded through segLink.
type Side struct{ l list }

// NewSide returns an empty side list.
func NewSide() Side { return Side{l: newList()} }

func (s *Side) Empty() bool { return s.l.empty() }

func (p *Pool) SidePushTail(s *Side, tag container, idx Index) { p.pushTailSeg(&s.l, tag, idx) }
func (p *Pool) SidePopHead(s *Side) Index                      { return p.popHeadSeg(&s.l) }
func (p *Pool) SideUnlink(s *Side, idx Index)                  { p.unlinkSegFrom(&s.l, idx) }
func (s *Side) Head() Index                                    { return s.l.head }
func (p *Pool) SideNext(idx Index) Index                       { return p.segs[idx].segLink.next }

// Queue is a priority, wait, or tx queue threaded through queueLink.
type Queue struct{ l list }

func NewQueue() Queue { return Queue{l: newList()} }

func (q *Queue) Empty() bool { return q.l.empty() }
func (q *Queue) Head() Index { return q.l.head }

func (p *Pool) QueuePushTail(q *Queue, tag container, idx Index) {
	s := &p.segs[idx].queueLink
	s.prev = q.l.tail
	s.next = NilIndex
	s.in = tag
	if q.l.tail != NilIndex {
		p.segs[q.l.tail].queueLink.next = idx
	} else {
		q.l.head = idx
	}
	q.l.tail = idx
}

func (p *Pool) QueuePopHead(q *Queue) Index {
	idx := q.l.head
	if idx == NilIndex {
		return NilIndex
	}
	p.QueueUnlink(q, idx)
	return idx
}

func (p *Pool) QueueUnlink(q *Queue, idx Index) {
	s := &p.segs[idx].queueLink
	if s.prev != NilIndex {
		p.segs[s.prev].queueLink.next = s.next
	} else {
		q.l.head = s.next
	}
	if s.next != NilIndex {
		p.segs[s.next].queueLink.prev = s.prev
	} else {
		q.l.tail = s.prev
	}
	s.prev, s.next = NilIndex, NilIndex
	s.in = containerNone
}

// QueueNext returns the next descriptor index in whichever queue idx
// currently belongs to, or NilIndex at the tail.
func (p *Pool) QueueNext(idx Index) Index { return p.segs[idx].queueLink.next }

// InQueue reports whether idx currently belongs to some queue, letting
// callers avoid double-unlinking a descriptor that fast-retransmit or
// tx_get already moved.
func (p *Pool) InQueue(idx Index) bool { return p.segs[idx].queueLink.in != containerNone }

// QueueTagOf exposes which queue currently holds idx, for assertions.
func (p *Pool) QueueTagOf(idx Index) container { return p.segs[idx].queueLink.in }

// SideTagOf exposes which side list currently holds idx, for assertions.
func (p *Pool) SideTagOf(idx Index) container { return p.segs[idx].segLink.in }

const (
	TagPriority = containerPriority
	TagWait     = containerWait
	TagTx       = containerTx
	TagTxSegs   = containerTxSegs
	TagRxSegs   = containerRxSegs
)
