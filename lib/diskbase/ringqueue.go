package diskbase

// ringQueue is an intrusive circular doubly-linked list of entries with a
// sentinel head. The front holds the least recently used entry. An entry is
// a member of at most one ring at a time.
type ringQueue struct {
	head entry
	len  int
}

func (q *ringQueue) init() {
	q.head.prev = &q.head
	q.head.next = &q.head
	q.len = 0
}

// pushBack appends e as the most recently used entry
func (q *ringQueue) pushBack(e *entry) {
	e.prev = q.head.prev
	e.next = &q.head
	q.head.prev.next = e
	q.head.prev = e
	q.len++
}

// remove unlinks e, which must be a member of q
func (q *ringQueue) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	q.len--
}

// front returns the least recently used entry, or nil
func (q *ringQueue) front() *entry {
	if q.head.next == &q.head {
		return nil
	}
	return q.head.next
}

// after returns the entry following e, or nil at the end of the ring
func (q *ringQueue) after(e *entry) *entry {
	if e.next == &q.head {
		return nil
	}
	return e.next
}
