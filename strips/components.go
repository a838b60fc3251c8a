package strips

// Builder links x-ascending strips into components. Its scratch state is
// reused across frames.
type Builder struct {
	touched    []bool
	components []Index
}

// Build links strips in place and returns the first strip of every component.
//
// Each strip that no earlier strip claimed starts a component. For strip i the
// scan moves forward while the candidate's X is at most X(i)+step; the first
// untouched candidate to the right of i whose vertical extent overlaps i's
// becomes its successor. Ties resolve to the first candidate in scan order,
// so the result is reproducible but not an optimal matching.
//
// The returned slice is owned by the Builder and valid until the next call.
func (b *Builder) Build(arena []Strip, step int) []Index {
	n := len(arena)
	if cap(b.touched) < n {
		b.touched = make([]bool, n)
	}
	b.touched = b.touched[:n]
	clear(b.touched)
	b.components = b.components[:0]

	for i := range arena {
		arena[i].Next = None
	}

	for i := 0; i < n; i++ {
		if !b.touched[i] {
			b.components = append(b.components, Index(i))
		}
		s := arena[i]
		limit := int(s.X) + step
		for j := i + 1; j < n && int(arena[j].X) <= limit; j++ {
			if b.touched[j] || arena[j].X <= s.X {
				continue
			}
			if s.Overlaps(arena[j]) {
				arena[i].Next = Index(j)
				b.touched[j] = true
				break
			}
		}
	}
	return b.components
}
