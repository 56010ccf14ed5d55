// Package seq implements wrapping 32-bit TCP sequence number arithmetic.
//
// Value and Size are the only types any other package may use to order
// sequence numbers against one another; comparisons go through the
// half-space rule below rather than a signed cast of the difference, so
// behaviour stays defined across the full range of both operands.
package seq

// Value is a TCP sequence number. It wraps modulo 2^32.
type Value uint32

// Size is a byte count or window size in sequence space.
type Size uint32

// Add returns v advanced by n octets, wrapping as Value does.
func Add(v Value, n Size) Value {
	return v + Value(n)
}

// Sub returns the number of octets between a (earlier) and b (later),
// i.e. the n such that Add(a, n) == b. Only meaningful when a is not
// "after" b in the wrapped sense.
func Sub(a, b Value) Size {
	return Size(b - a)
}

// halfSpace is 2^31, the boundary the wrap-around comparisons test against.
const halfSpace = 1 << 31

// LessThan reports whether a precedes b in sequence space using the
// half-space rule: a < b iff (b-a-1) mod 2^32 < 2^31.
func (a Value) LessThan(b Value) bool {
	return Value(b-a-1) < halfSpace
}

// LessThanEq reports whether a precedes or equals b.
func (a Value) LessThanEq(b Value) bool {
	return a == b || a.LessThan(b)
}

// GreaterThan reports whether a follows b in sequence space.
func (a Value) GreaterThan(b Value) bool {
	return b.LessThan(a)
}

// GreaterThanEq reports whether a follows or equals b.
func (a Value) GreaterThanEq(b Value) bool {
	return a == b || a.GreaterThan(b)
}

// InWindow reports whether a lies in [nxt, nxt+wnd).
func (a Value) InWindow(nxt Value, wnd Size) bool {
	if wnd == 0 {
		return false
	}
	return a.GreaterThanEq(nxt) && a.LessThan(Add(nxt, wnd))
}

// Distance returns b-a as a signed difference in sequence space, useful
// for computing how far ahead or behind b is of a without committing to
// an ordering first. The result is meaningless outside +/-2^31.
func Distance(a, b Value) int64 {
	return int64(int32(b - a))
}
