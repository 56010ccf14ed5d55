package window

import (
	"encoding/binary"
	"log/slog"

	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
)

// RxCheck ingests an arriving segment covering [seqNum, seqNum+length).
// freeSpace is the room left in the caller's application receive
// buffer. It returns 0 when the segment is the next expected run of
// bytes (the caller copies it to offset 0 of its buffer), a positive
// offset d = seqNum-current when the segment is out-of-order but inside
// the window and has been buffered (the caller copies it to offset d),
// or -1 when the segment is rejected: too old, too far ahead, an
// already-stored duplicate, or the pool is exhausted.
//
// On return, Options and UserDataLength report any SACK to send and any
// additional in-order bytes newly deliverable beyond the arriving
// length.
func (w *Window) RxCheck(seqNum seq.Value, length seq.Size, freeSpace seq.Size) int32 {
	w.optionsLength = 0
	w.userDataLength = 0

	switch {
	case seqNum == w.rx.current:
		return w.rxExpected(length, freeSpace)
	case w.rx.current == seq.Add(seqNum, 1):
		// Keep-alive probe: a peer re-sending exactly one already
		// delivered byte triggers the same path. Known, accepted
		// ambiguity; see the accompanying design notes.
		return -1
	default:
		return w.rxUnexpected(seqNum, length, freeSpace)
	}
}

func (w *Window) rxExpected(length, freeSpace seq.Size) int32 {
	if length > freeSpace {
		w.rejectRX(w.rx.current, "receive buffer full")
		return -1
	}
	w.rx.current = seq.Add(w.rx.current, length)
	w.userDataLength = w.absorbBuffered()
	if w.rx.current.GreaterThan(w.rx.highest) {
		w.rx.highest = w.rx.current
	}
	w.traceRx("rx in-order")
	return 0
}

// absorbBuffered repeatedly frees buffered RX segments the in-order
// cursor has now covered or can now extend through, returning the total
// bytes of newly in-order-deliverable data beyond what the caller
// itself already knows it delivered.
func (w *Window) absorbBuffered() seq.Size {
	var delivered seq.Size
	for {
		idx, isDup := w.pickAbsorbable()
		if idx == pool.NilIndex {
			return delivered
		}
		s := w.p.Get(idx)
		if !isDup {
			delivered += s.Len
			w.rx.current = seq.Add(w.rx.current, s.Len)
		}
		w.p.SideUnlink(&w.rxSegs, idx)
		w.p.Return(idx)
	}
}

// pickAbsorbable finds the lowest-sequence buffered RX segment that the
// current cursor has already fully covered (a stored duplicate) or that
// starts exactly at the cursor (its contiguous successor). Ties go to
// the lowest sequence number so overlapping buffered ranges are freed
// one at a time until none remain.
func (w *Window) pickAbsorbable() (idx pool.Index, isDuplicate bool) {
	best := pool.NilIndex
	bestDup := false
	for i := w.rxSegs.Head(); i != pool.NilIndex; i = w.p.SideNext(i) {
		s := w.p.Get(i)
		end := seq.Add(s.Seq, s.Len)
		dup := end.LessThanEq(w.rx.current)
		contiguous := s.Seq == w.rx.current
		if !dup && !contiguous {
			continue
		}
		if best == pool.NilIndex || s.Seq.LessThan(w.p.Get(best).Seq) {
			best, bestDup = i, dup
		}
	}
	return best, bestDup
}

func (w *Window) rxUnexpected(seqNum seq.Value, length, freeSpace seq.Size) int32 {
	arrivalEnd := seq.Add(seqNum, length)
	distance := seq.Distance(w.rx.current, arrivalEnd)
	if distance <= 0 {
		// Old, already-delivered duplicate: silently dropped, no SACK.
		return -1
	}
	if seq.Size(distance) > freeSpace {
		w.rejectRX(seqNum, "too far ahead of window")
		return -1
	}

	last := w.coalesceForward(arrivalEnd)
	w.emitSACK(seqNum, last)

	if w.segmentExistsAt(seqNum) {
		// Already buffered: reject the redundant insert but the SACK
		// describing the run still stands.
		return -1
	}

	idx := w.p.Take()
	if idx == pool.NilIndex {
		w.optionsLength = 0
		if w.mtr != nil {
			w.mtr.RXRejected("pool exhausted")
		}
		w.logerr("rx segment dropped, pool exhausted", slog.String("window", w.id.String()), slog.Uint64("seq", uint64(seqNum)))
		return -1
	}
	s := w.p.Get(idx)
	s.Seq = seqNum
	s.Len = length
	s.MaxLen = length
	s.IsRX = true
	w.p.SidePushTail(&w.rxSegs, pool.TagRxSegs, idx)
	w.traceRx("rx out-of-order buffered")
	return int32(seq.Distance(w.rx.current, seqNum))
}

// coalesceForward extends last forward across any buffered segments
// whose start exactly matches the current end of the run, so the SACK
// describes the full contiguous block rather than just the arriving
// segment.
func (w *Window) coalesceForward(last seq.Value) seq.Value {
	for {
		idx := w.findSegmentAt(last)
		if idx == pool.NilIndex {
			return last
		}
		last = seq.Add(last, w.p.Get(idx).Len)
	}
}

func (w *Window) findSegmentAt(at seq.Value) pool.Index {
	for i := w.rxSegs.Head(); i != pool.NilIndex; i = w.p.SideNext(i) {
		if w.p.Get(i).Seq == at {
			return i
		}
	}
	return pool.NilIndex
}

func (w *Window) segmentExistsAt(at seq.Value) bool {
	return w.findSegmentAt(at) != pool.NilIndex
}

func (w *Window) emitSACK(first, last seq.Value) {
	w.optionsData[0] = 0x01
	w.optionsData[1] = 0x01
	w.optionsData[2] = 0x05
	w.optionsData[3] = 0x0A
	binary.BigEndian.PutUint32(w.optionsData[4:8], uint32(first))
	binary.BigEndian.PutUint32(w.optionsData[8:12], uint32(last))
	w.optionsLength = 12
	if w.mtr != nil {
		w.mtr.SACKEmitted()
	}
}

// Options returns the SACK option block populated by the most recent
// RxCheck call, or nil if none was emitted.
func (w *Window) Options() []byte {
	if w.optionsLength == 0 {
		return nil
	}
	return w.optionsData[:w.optionsLength]
}

// UserDataLength returns the number of bytes, beyond the length passed
// to the most recent RxCheck call, that became newly deliverable by
// absorbing buffered out-of-order segments.
func (w *Window) UserDataLength() seq.Size { return w.userDataLength }

// RxCurrent returns the next sequence number the engine expects to
// receive in order.
func (w *Window) RxCurrent() seq.Value { return w.rx.current }
