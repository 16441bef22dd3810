package spvcache

// list is a doubly-linked recency list. head is the most recently used
// node and tail the least. It is not safe for concurrent use.
type list struct {
	head *node
	tail *node
}

func (l *list) pushFront(n *node) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *list) moveToFront(n *node) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

func (l *list) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
