// Implements the BlockedQueue, which holds the individuals waiting to enter a
// full node. Entries are appended when an individual is blocked on the node
// and removed, head first, as the node frees space.

package sim

import (
	"fmt"
	"strings"
)

// BlockedEntry identifies a blocked individual by the node it is stuck at.
type BlockedEntry struct {
	NodeID       int // origin node, where the individual still holds a server
	IndividualID int
}

// BlockedQueue is a FIFO queue of individuals blocked on one node. The head is
// always the one that has waited longest.
type BlockedQueue struct {
	queue []BlockedEntry
}

// Enqueue adds an entry to the back of the queue.
func (bq *BlockedQueue) Enqueue(e BlockedEntry) {
	bq.queue = append(bq.queue, e)
}

func (bq *BlockedQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range bq.queue {
		sb.WriteString(fmt.Sprintf("(%d, %d)", e.NodeID, e.IndividualID))
		if i < len(bq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of entries in the queue.
func (bq *BlockedQueue) Len() int {
	return len(bq.queue)
}

// Peek returns the entry at the front without removing it.
// The boolean is false when the queue is empty.
func (bq *BlockedQueue) Peek() (BlockedEntry, bool) {
	if len(bq.queue) == 0 {
		return BlockedEntry{}, false
	}
	return bq.queue[0], true
}

// Dequeue removes and returns the entry at the front.
// The boolean is false when the queue is empty.
func (bq *BlockedQueue) Dequeue() (BlockedEntry, bool) {
	if len(bq.queue) == 0 {
		return BlockedEntry{}, false
	}
	head := bq.queue[0]
	bq.queue = bq.queue[1:]
	return head, true
}

// Items returns the queue contents in FIFO order.
// The returned slice is the queue's internal storage -- callers MUST NOT
// append to or reslice it.
func (bq *BlockedQueue) Items() []BlockedEntry {
	return bq.queue
}
