package window

import (
	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
)

// TxAck ingests a cumulative ACK. Stale or duplicate acknowledgements
// (seqNum at or behind the current cursor) are not errors; they simply
// retire nothing.
func (w *Window) TxAck(seqNum seq.Value) seq.Size {
	if seqNum.LessThanEq(w.tx.current) {
		return 0
	}
	return w.txCheckAck(w.tx.current, seqNum)
}

// TxSack ingests a selective acknowledgement describing the range
// [first, last): it retires anything cumulative within that range and
// feeds every segment older than first into the fast-retransmit
// duplicate-ack counter.
func (w *Window) TxSack(first, last seq.Value) seq.Size {
	retired := w.txCheckAck(first, last)
	w.fastRetransmit(first)
	return retired
}

// txCheckAck walks the TX segment list in ascending sequence order
// starting at first, marking every fully-covered segment up to last as
// acknowledged. A segment only partially covered by [first,last) halts
// the walk without being marked, and so does a segment TxGet has not
// yet handed out, so tx.current never passes tx.highest. The leftmost outstanding segment
// (seq == tx.current) is freed and advances tx.current as it is
// acknowledged; any other acknowledged segment is pulled out of its
// wait/priority queue but stays in the TX segment list so a later
// cumulative ACK can retire it.
func (w *Window) txCheckAck(first, last seq.Value) seq.Size {
	var retired seq.Size
	cur := first
	idx := w.txSegs.Head()
	for idx != pool.NilIndex {
		s := w.p.Get(idx)
		next := w.p.SideNext(idx)
		if s.Seq.LessThan(cur) {
			idx = next
			continue
		}
		if s.Seq != cur || !s.Seq.LessThan(last) {
			break
		}
		if !s.Outstanding {
			break // never handed out by TxGet: nothing to acknowledge yet.
		}
		end := seq.Add(s.Seq, s.Len)
		if end.GreaterThan(last) {
			break // partial tail: only part of this segment is covered.
		}

		s.Acked = true
		if end == last && s.TransmitCount == 1 {
			w.updateSRTT(s)
		}

		if s.Seq == w.tx.current {
			w.tx.current = end
			retired += s.Len
			w.freeTxSegment(idx)
		} else {
			w.unlinkFromItsQueue(idx)
		}

		cur = end
		idx = next
	}
	w.traceTx("tx ack processed")
	return retired
}

// updateSRTT recomputes the smoothed round-trip estimate from a segment
// that completed a round trip on its first transmission attempt. The
// weights are asymmetric on purpose: the estimate rises fast when a
// round trip takes longer than expected and falls slowly when it
// improves, a deliberately conservative bias so the retransmit timeout
// reacts quickly to congestion and backs off cautiously as it clears.
func (w *Window) updateSRTT(s *pool.Segment) {
	m := s.Born.AgeMs(w.clock)
	if w.srttMs >= m {
		w.srttMs = (1*m + 7*w.srttMs) / 8
	} else {
		w.srttMs = (2*m + 6*w.srttMs) / 8
	}
	if w.srttMs < srttFloorMs {
		w.srttMs = srttFloorMs
	}
	if w.mtr != nil {
		w.mtr.SRTTObserved(w.id.String(), w.srttMs)
	}
}
