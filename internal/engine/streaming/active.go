package streaming

// activeSet holds the visible chunks. add and remove are idempotent; callers
// iterate over snapshot, never over the live slice.
type activeSet struct {
	chunks []*Chunk
	index  map[GridCoord]int
}

func newActiveSet() *activeSet {
	return &activeSet{index: make(map[GridCoord]int)}
}

func (s *activeSet) add(c *Chunk) bool {
	if _, ok := s.index[c.coord]; ok {
		return false
	}
	s.index[c.coord] = len(s.chunks)
	s.chunks = append(s.chunks, c)
	return true
}

func (s *activeSet) remove(c *Chunk) bool {
	i, ok := s.index[c.coord]
	if !ok {
		return false
	}
	last := len(s.chunks) - 1
	if i != last {
		moved := s.chunks[last]
		s.chunks[i] = moved
		s.index[moved.coord] = i
	}
	s.chunks[last] = nil
	s.chunks = s.chunks[:last]
	delete(s.index, c.coord)
	return true
}

func (s *activeSet) contains(coord GridCoord) bool {
	_, ok := s.index[coord]
	return ok
}

func (s *activeSet) len() int {
	return len(s.chunks)
}

func (s *activeSet) snapshot() []*Chunk {
	return append([]*Chunk(nil), s.chunks...)
}
