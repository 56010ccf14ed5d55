package window

import (
	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
)

// fastRetransmit walks the wait queue for segments older than first
// that have not yet been acknowledged, incrementing each one's
// duplicate-ack counter. A segment that accumulates three hits is
// promoted straight to the priority queue for unconditional
// retransmission on the next TxGet, with its transmit count reset so
// the retransmit backoff starts over. The duplicate-ack counter itself
// is never cleared here: a second burst of SACKs against the same hole
// should still be able to trigger another promotion.
func (w *Window) fastRetransmit(first seq.Value) {
	idx := w.waitQueue.Head()
	for idx != pool.NilIndex {
		s := w.p.Get(idx)
		next := w.p.QueueNext(idx)
		if !s.Acked && s.Seq.LessThan(first) {
			s.DupAckCount++
			if s.DupAckCount >= dupAcksBeforeFastRetransmit {
				s.TransmitCount = 0
				w.p.QueueUnlink(&w.waitQueue, idx)
				w.p.QueuePushTail(&w.priorityQueue, pool.TagPriority, idx)
				if w.mtr != nil {
					w.mtr.RetransmitFast()
				}
				w.debugf("fast retransmit promoted segment")
			}
		}
		idx = next
	}
}
