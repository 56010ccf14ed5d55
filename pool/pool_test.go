package pool

import "testing"

func TestTakeReturnConservation(t *testing.T) {
	const n = 8
	p := New(n)
	if p.Free() != n {
		t.Fatalf("want %d free, got %d", n, p.Free())
	}

	var taken []Index
	for i := 0; i < n; i++ {
		idx := p.Take()
		if idx == NilIndex {
			t.Fatalf("pool exhausted early at i=%d", i)
		}
		taken = append(taken, idx)
	}
	if idx := p.Take(); idx != NilIndex {
		t.Fatalf("expected exhaustion, got index %d", idx)
	}
	if p.Free() != 0 {
		t.Fatalf("want 0 free after exhausting pool, got %d", p.Free())
	}

	for _, idx := range taken {
		p.Return(idx)
	}
	if p.Free() != n {
		t.Fatalf("want %d free after returning everything, got %d", n, p.Free())
	}
}

func TestSideAndQueueFIFO(t *testing.T) {
	p := New(4)
	var side Side = NewSide()
	var q Queue = NewQueue()

	idxs := make([]Index, 3)
	for i := range idxs {
		idxs[i] = p.Take()
		p.SidePushTail(&side, TagTxSegs, idxs[i])
		p.QueuePushTail(&q, TagTx, idxs[i])
	}

	for i := range idxs {
		got := p.QueuePopHead(&q)
		if got != idxs[i] {
			t.Fatalf("queue FIFO order broken: want %d got %d", idxs[i], got)
		}
	}
	if !q.Empty() {
		t.Fatal("queue should be empty after draining")
	}

	// Side list membership independent of queue draining.
	if side.Head() != idxs[0] {
		t.Fatalf("side list head should still be %d, got %d", idxs[0], side.Head())
	}

	// Unlink the middle element and confirm the remaining two still chain.
	p.SideUnlink(&side, idxs[1])
	got := []Index{side.Head()}
	got = append(got, p.SideNext(got[0]))
	if got[0] != idxs[0] || got[1] != idxs[2] {
		t.Fatalf("unexpected side list after unlinking middle: %v", got)
	}
}

func TestResetReusesBackingArrayWithinCapacity(t *testing.T) {
	p := New(8)
	before := &p.segs[0]
	idx := p.Take()
	p.Get(idx).TransmitCount = 3 // stale data that a naive reuse could leak through.

	p.Reset(4) // shrinking within the existing capacity must not reallocate.
	if &p.segs[0] != before {
		t.Fatal("Reset(4) reallocated the backing array instead of reusing it")
	}
	if p.Cap() != 4 {
		t.Fatalf("want cap 4 after Reset(4), got %d", p.Cap())
	}
	if p.Free() != 4 {
		t.Fatalf("want every descriptor free after Reset, got %d", p.Free())
	}
	for i := 0; i < p.Cap(); i++ {
		s := p.Get(Index(i))
		if s.TransmitCount != 0 {
			t.Fatalf("segment %d not cleared by Reset: TransmitCount=%d", i, s.TransmitCount)
		}
	}

	p.Reset(16) // growing beyond the old capacity must allocate a fresh backing array.
	if p.Cap() != 16 || p.Free() != 16 {
		t.Fatalf("want cap=free=16 after growing Reset, got cap=%d free=%d", p.Cap(), p.Free())
	}
}

func TestReturnPanicsIfStillLinked(t *testing.T) {
	p := New(2)
	var side Side = NewSide()
	idx := p.Take()
	p.SidePushTail(&side, TagTxSegs, idx)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic returning a still-linked segment")
		}
	}()
	p.Return(idx)
}
