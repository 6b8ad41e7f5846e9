package router

// successTracker records per-request fill outcomes, parallel to the caller's
// input array. Orders flip to filled as fragments are built and can flip back
// when a dependency fails later in the pipeline, so both directions are
// supported.
type successTracker struct {
	flags  []bool
	failed []bool
}

func newSuccessTracker(n int) *successTracker {
	return &successTracker{
		flags:  make([]bool, n),
		failed: make([]bool, n),
	}
}

// markFilled flips the given original indexes to true.
func (t *successTracker) markFilled(indexes ...int) {
	for _, i := range indexes {
		if i >= 0 && i < len(t.flags) {
			t.flags[i] = true
			t.failed[i] = false
		}
	}
}

// markUnfilled flips the given original indexes to false. The index stays
// unfilled even if a later step would mark it again.
func (t *successTracker) markUnfilled(indexes ...int) {
	for _, i := range indexes {
		if i >= 0 && i < len(t.flags) {
			t.flags[i] = false
			t.failed[i] = true
		}
	}
}

// pending reports whether the index has neither been filled nor failed.
func (t *successTracker) pending(i int) bool {
	return i >= 0 && i < len(t.flags) && !t.flags[i] && !t.failed[i]
}

// slice returns the success array for the result bundle.
func (t *successTracker) slice() []bool {
	out := make([]bool, len(t.flags))
	copy(out, t.flags)
	return out
}
