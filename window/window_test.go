package window

import (
	"testing"

	"github.com/go-tcpwin/tcpwin/clock"
	"github.com/go-tcpwin/tcpwin/pool"
	"github.com/go-tcpwin/tcpwin/seq"
)

func newTestWindow(t *testing.T, p *pool.Pool, fc *clock.Fake) *Window {
	t.Helper()
	return New(p, Config{
		RxWindowLen: 64000,
		TxWindowLen: 64000,
		OurISN:      2000,
		PeerISN:     1000,
		MSS:         1460,
		Clock:       fc,
	})
}

// S1: an in-order arrival is accepted at offset 0 with no SACK.
func TestRxInOrder(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	off := w.RxCheck(1000, 500, 64000)
	if off != 0 {
		t.Fatalf("want offset 0, got %d", off)
	}
	if w.Options() != nil {
		t.Fatal("in-order arrival must not emit a SACK")
	}
	if w.RxCurrent() != seq.Add(1000, 500) {
		t.Fatalf("rx.current did not advance, got %d", w.RxCurrent())
	}
}

// S2: an out-of-order arrival buffers at a positive offset and emits a
// SACK; once the gap is plugged, the buffered bytes become deliverable
// as UserDataLength and rx.current covers the full run.
func TestRxOutOfOrderThenPlug(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	off := w.RxCheck(seq.Add(1000, 1000), 500, 64000)
	if off != 1000 {
		t.Fatalf("want offset 1000, got %d", off)
	}
	if w.Options() == nil {
		t.Fatal("out-of-order arrival should emit a SACK")
	}

	off = w.RxCheck(1000, 1000, 64000)
	if off != 0 {
		t.Fatalf("want offset 0 for the plugging segment, got %d", off)
	}
	if w.UserDataLength() != 500 {
		t.Fatalf("want 500 bytes newly deliverable, got %d", w.UserDataLength())
	}
	if w.RxCurrent() != seq.Add(1000, 1500) {
		t.Fatalf("rx.current should cover the full run, got %d", w.RxCurrent())
	}
	if !w.RxEmpty() {
		t.Fatal("rx segment list should be empty after absorbing the buffered segment")
	}
}

// S3: an old duplicate, fully covered by what has already been
// delivered, is silently rejected.
func TestRxDuplicateOld(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	w.RxCheck(1000, 500, 64000) // advances rx.current to 1500

	off := w.RxCheck(1000, 500, 64000)
	if off != -1 {
		t.Fatalf("want rejection of an old duplicate, got %d", off)
	}
}

// S4: TxAdd, TxGet, TxAck drive cumulative ACK progress across multiple
// segments.
func TestTxCumulativeAck(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	accepted := w.TxAdd(3000, 0, 64000)
	if accepted != 3000 {
		t.Fatalf("want all 3000 bytes accepted, got %d", accepted)
	}

	var total seq.Size
	for {
		var pos int
		n := w.TxGet(64000, &pos)
		if n == 0 {
			break
		}
		total += n
	}
	if total != 3000 {
		t.Fatalf("want 3000 bytes drained via TxGet, got %d", total)
	}

	// 2000+1500 covers the first segment fully and the second only
	// partially, so only the first 1460 bytes are retired.
	retired := w.TxAck(seq.Add(2000, 1500))
	if retired != 1460 {
		t.Fatalf("want 1460 bytes retired, got %d", retired)
	}
	if w.TxCurrent() != seq.Add(2000, 1460) {
		t.Fatalf("tx.current should advance to 3460, got %d", w.TxCurrent())
	}

	retired = w.TxAck(seq.Add(2000, 3000))
	if retired != 1540 {
		t.Fatalf("want remaining 1540 bytes retired, got %d", retired)
	}
	if !w.TxDone() {
		t.Fatal("every segment should be retired after the full cumulative ack")
	}
}

// S5: three SACKs for a range above the sent segment, leaving it as the
// hole, promote it from the wait queue to the priority queue with its transmit count
// reset, so the next TxGet sends it unconditionally.
func TestFastRetransmit(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	w.TxAdd(1460, 0, 64000)
	var pos int
	if n := w.TxGet(64000, &pos); n == 0 {
		t.Fatal("expected the first segment to be selected")
	}

	holeStart := seq.Add(w.TxCurrent(), 5000)
	for i := 0; i < 3; i++ {
		w.TxSack(holeStart, holeStart)
	}

	if n := w.TxGet(64000, &pos); n == 0 {
		t.Fatal("want the fast-retransmitted segment selected unconditionally")
	}
}

// S6: SRTT rises quickly on a slow round trip, then decays slowly and
// never drops below the floor.
func TestSRTTEvolution(t *testing.T) {
	p := pool.New(16)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)
	defer w.Destroy()

	if w.SRTTMs() != srttInitMs {
		t.Fatalf("want initial srtt %d, got %d", srttInitMs, w.SRTTMs())
	}

	w.TxAdd(500, 0, 64000)
	var pos int
	w.TxGet(64000, &pos)
	fc.Advance(2000)
	w.TxAck(seq.Add(2000, 500))
	if w.SRTTMs() <= srttInitMs {
		t.Fatalf("want srtt to rise above %d after a slow round trip, got %d", srttInitMs, w.SRTTMs())
	}

	w.TxAdd(500, 500, 64000)
	w.TxGet(64000, &pos)
	fc.Advance(20)
	w.TxAck(seq.Add(2000, 1000))
	if w.SRTTMs() < srttFloorMs {
		t.Fatalf("srtt must never drop below the floor %d, got %d", srttFloorMs, w.SRTTMs())
	}
}

// Pool conservation: destroying a window returns every descriptor it
// held back to the shared pool, regardless of how many were buffered
// out-of-order or outstanding on the TX side.
func TestPoolConservationAcrossDestroy(t *testing.T) {
	const capacity = 16
	p := pool.New(capacity)
	fc := &clock.Fake{Now: 0, Period: 1}
	w := newTestWindow(t, p, fc)

	w.RxCheck(seq.Add(1000, 2000), 100, 64000)
	w.RxCheck(seq.Add(1000, 4000), 100, 64000)
	w.TxAdd(5000, 0, 64000)

	if p.Free() == capacity {
		t.Fatal("expected the pool to have lent out descriptors")
	}

	w.Destroy()
	if p.Free() != capacity {
		t.Fatalf("want all %d descriptors back after Destroy, got %d free", capacity, p.Free())
	}
}
