package history

// stack is a bounded LIFO of snapshots. Pushing onto a full stack drops the
// oldest entry.
type stack struct {
	entries []*Snapshot
	max     int
}

func newStack(max int) stack {
	return stack{max: max}
}

// push adds s and returns how many old entries were dropped.
func (st *stack) push(s *Snapshot) int {
	st.entries = append(st.entries, s)
	return st.trim()
}

func (st *stack) trim() int {
	excess := len(st.entries) - st.max
	if excess <= 0 {
		return 0
	}
	clear(st.entries[:excess])
	st.entries = st.entries[excess:]
	return excess
}

func (st *stack) pop() *Snapshot {
	if len(st.entries) == 0 {
		return nil
	}
	s := st.entries[len(st.entries)-1]
	st.entries[len(st.entries)-1] = nil
	st.entries = st.entries[:len(st.entries)-1]
	return s
}

func (st *stack) top() *Snapshot {
	if len(st.entries) == 0 {
		return nil
	}
	return st.entries[len(st.entries)-1]
}

func (st *stack) len() int { return len(st.entries) }

func (st *stack) clear() { st.entries = nil }

func (st *stack) infos() []Info {
	out := make([]Info, len(st.entries))
	for i, s := range st.entries {
		out[i] = s.info()
	}
	return out
}
