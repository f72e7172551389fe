package job

// SplitSet is a value-typed, copy-on-write set of InputSplit, keyed by
// InputSplit.ID(). Every mutating method returns a new set; the receiver is
// left untouched, so a JobMetadata snapshot never observes a set mutated out
// from under it.
type SplitSet struct {
	m map[string]InputSplit
}

func NewSplitSet(splits ...InputSplit) SplitSet {
	m := make(map[string]InputSplit, len(splits))
	for _, s := range splits {
		m[s.ID()] = s
	}
	return SplitSet{m: m}
}

func (s SplitSet) Len() int { return len(s.m) }

func (s SplitSet) Contains(split InputSplit) bool {
	_, ok := s.m[split.ID()]
	return ok
}

func (s SplitSet) Items() []InputSplit {
	out := make([]InputSplit, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	return out
}

// Without returns a new set with the given splits removed. Removing a split
// that is not present is a no-op for that split, which is what makes
// RemoveMappers idempotent.
func (s SplitSet) Without(splits ...InputSplit) SplitSet {
	m := make(map[string]InputSplit, len(s.m))
	for k, v := range s.m {
		m[k] = v
	}
	for _, sp := range splits {
		delete(m, sp.ID())
	}
	return SplitSet{m: m}
}

// IntSet is a value-typed, copy-on-write set of reducer indices.
type IntSet struct {
	m map[int]struct{}
}

func NewIntSet(ints ...int) IntSet {
	m := make(map[int]struct{}, len(ints))
	for _, i := range ints {
		m[i] = struct{}{}
	}
	return IntSet{m: m}
}

func (s IntSet) Len() int { return len(s.m) }

func (s IntSet) Contains(i int) bool {
	_, ok := s.m[i]
	return ok
}

func (s IntSet) Items() []int {
	out := make([]int, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	return out
}

func (s IntSet) Without(ints ...int) IntSet {
	m := make(map[int]struct{}, len(s.m))
	for k, v := range s.m {
		m[k] = v
	}
	for _, i := range ints {
		delete(m, i)
	}
	return IntSet{m: m}
}
