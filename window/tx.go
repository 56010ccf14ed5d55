package window

import (
	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
)

// TxAdd registers length bytes of newly written application data,
// starting at streamPos in the caller's circular TX stream buffer of
// streamCapacity bytes, as ready to send. It returns the number of
// bytes actually accepted into segments; this is less than length only
// when the segment pool runs out, in which case the caller should apply
// backpressure on the remainder.
func (w *Window) TxAdd(length int, streamPos int, streamCapacity int) int {
	requested := length
	accepted := 0
	pos := streamPos

	if w.headSegment != pool.NilIndex {
		head := w.p.Get(w.headSegment)
		if !head.Outstanding && head.Len > 0 && head.Len < head.MaxLen {
			fill := int(head.MaxLen - head.Len)
			if fill > length {
				fill = length
			}
			head.Len += seq.Size(fill)
			w.tx.nextTx = seq.Add(w.tx.nextTx, seq.Size(fill))
			pos = incTxPos(pos, fill, streamCapacity)
			accepted += fill
			length -= fill
			if head.Len == head.MaxLen {
				w.headSegment = pool.NilIndex
			}
		}
	}

	for length > 0 {
		idx := w.p.Take()
		if idx == pool.NilIndex {
			break
		}
		n := int(w.mss)
		if n > length {
			n = length
		}
		s := w.p.Get(idx)
		s.Seq = w.tx.nextTx
		s.MaxLen = w.mss
		s.Len = seq.Size(n)
		s.StreamPos = pos
		s.IsRX = false

		w.p.SidePushTail(&w.txSegs, pool.TagTxSegs, idx)
		w.p.QueuePushTail(&w.txQ, pool.TagTx, idx)

		w.tx.nextTx = seq.Add(w.tx.nextTx, seq.Size(n))
		pos = incTxPos(pos, n, streamCapacity)
		accepted += n
		length -= n

		if s.Len < s.MaxLen {
			w.headSegment = idx
		}
	}

	w.observePool()
	if accepted < requested {
		w.debugf("tx_add pool exhausted, partial accept")
	}
	return accepted
}

func incTxPos(pos, n, capacity int) int {
	pos += n
	if pos >= capacity {
		pos -= capacity
	}
	return pos
}

// TxGet selects the next segment eligible to go out, in priority order:
// an unconditionally-due priority-queue segment, a wait-queue segment
// whose retransmit backoff has elapsed, or a fresh tx-queue segment the
// peer's advertised window has room for. It returns 0 and leaves
// outStreamPos untouched when nothing is eligible.
func (w *Window) TxGet(peerWindow seq.Size, outStreamPos *int) seq.Size {
	if idx := w.priorityQueue.Head(); idx != pool.NilIndex {
		w.p.QueuePopHead(&w.priorityQueue)
		return w.promoteToWait(idx, outStreamPos)
	}

	if idx := w.waitQueue.Head(); idx != pool.NilIndex {
		s := w.p.Get(idx)
		if s.Born.AgeMs(w.clock) > backoffMs(s.TransmitCount, w.srttMs) {
			w.p.QueuePopHead(&w.waitQueue)
			s.DupAckCount = 0
			if w.mtr != nil {
				w.mtr.RetransmitTimeout()
			}
			return w.promoteToWait(idx, outStreamPos)
		}
	}

	if idx := w.txQ.Head(); idx != pool.NilIndex {
		s := w.p.Get(idx)
		if !w.txHasSpace(peerWindow, s.Len) {
			return 0
		}
		w.p.QueuePopHead(&w.txQ)
		w.tx.highest = seq.Add(s.Seq, s.Len)
		if w.headSegment == idx {
			w.headSegment = pool.NilIndex
		}
		return w.promoteToWait(idx, outStreamPos)
	}

	return 0
}

// promoteToWait moves a segment already popped from its prior queue
// into the wait queue, marking it outstanding and stamping a fresh born
// tick for the retransmit backoff clock. It applies the congestion
// reaction (shrinking the TX window) once a segment has been
// retransmitted enough times. Counting the retransmission itself
// against Metrics is the caller's job, since only some callers
// (wait-queue backoff expiry) represent an actual timeout retransmit.
func (w *Window) promoteToWait(idx pool.Index, outStreamPos *int) seq.Size {
	s := w.p.Get(idx)
	w.p.QueuePushTail(&w.waitQueue, pool.TagWait, idx)
	s.Outstanding = true
	if s.TransmitCount < 255 {
		s.TransmitCount++
	}
	s.Born.Set(w.clock)

	if s.TransmitCount >= transmitCountForWindowShrink && w.txWindowLen > 2*w.mss {
		w.txWindowLen = 2 * w.mss
	}

	*outStreamPos = s.StreamPos
	w.traceTx("tx segment selected")
	return s.Len
}

// backoffMs computes the retransmit timeout for a segment that has been
// sent transmitCount times: 2^transmitCount * srtt, with the exponent
// capped so an 8-bit saturating transmit count can never produce a
// meaningless shift.
func backoffMs(transmitCount uint8, srttMs uint32) uint32 {
	shift := uint(transmitCount)
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return (uint32(1) << shift) * srttMs
}

// txHasSpace reports whether the peer's advertised window and the local
// TX window both have room for a segment of segLen bytes given what is
// already outstanding.
func (w *Window) txHasSpace(peerWindow, segLen seq.Size) bool {
	outstanding := w.outstandingBytes()
	var nett seq.Size
	if outstanding < peerWindow {
		nett = peerWindow - outstanding
	}
	return nett >= segLen && w.txWindowLen >= outstanding+segLen
}

func (w *Window) outstandingBytes() seq.Size {
	d := seq.Distance(w.tx.current, w.tx.highest)
	if d <= 0 {
		return 0
	}
	return seq.Size(d)
}

// TxHasData reports whether the engine holds anything it could transmit
// right now, and if not due immediately, how many milliseconds of delay
// remain until it is. Nagle-style coalescing and zero-window probing are
// out of scope; the only delay source is retransmit backoff.
func (w *Window) TxHasData(peerWindow seq.Size, outDelayMs *uint32) bool {
	*outDelayMs = 0
	if !w.priorityQueue.Empty() {
		return true
	}
	if idx := w.waitQueue.Head(); idx != pool.NilIndex {
		s := w.p.Get(idx)
		due := backoffMs(s.TransmitCount, w.srttMs)
		age := s.Born.AgeMs(w.clock)
		if age < due {
			*outDelayMs = due - age
		}
		return true
	}
	if idx := w.txQ.Head(); idx != pool.NilIndex {
		s := w.p.Get(idx)
		if w.txHasSpace(peerWindow, s.Len) {
			return true
		}
	}
	return false
}

// TxCurrent returns the oldest unacknowledged TX sequence number.
func (w *Window) TxCurrent() seq.Value { return w.tx.current }

// TxNext returns the next sequence number TxAdd will assign to freshly
// queued bytes.
func (w *Window) TxNext() seq.Value { return w.tx.nextTx }

// TxHighest returns the highest sequence number handed to TxGet so far.
// tx.current never moves ahead of it: outstanding and unacknowledged
// bytes are always bounded by [tx.current, tx.highest).
func (w *Window) TxHighest() seq.Value { return w.tx.highest }
