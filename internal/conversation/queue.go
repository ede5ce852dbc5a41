// Package conversation buffers the prompt and message events the credential
// backend emits until the controller is ready to act on them.
package conversation

import "github.com/Rorical/rorigreet/internal/models"

// Queue is a FIFO of pending conversation messages. It is owned by the
// controller's event loop and is not safe for concurrent use.
type Queue struct {
	items []models.ConversationMessage
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends msg in arrival order.
func (q *Queue) Enqueue(msg models.ConversationMessage) {
	q.items = append(q.items, msg)
}

// Pop removes and returns the oldest message.
func (q *Queue) Pop() (models.ConversationMessage, bool) {
	if len(q.items) == 0 {
		return models.ConversationMessage{}, false
	}
	msg := q.items[0]
	q.items[0] = models.ConversationMessage{}
	q.items = q.items[1:]
	return msg, true
}

// Peek returns the oldest message without removing it.
func (q *Queue) Peek() (models.ConversationMessage, bool) {
	if len(q.items) == 0 {
		return models.ConversationMessage{}, false
	}
	return q.items[0], true
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Empty() bool {
	return len(q.items) == 0
}

// Clear drops every buffered message and returns how many were dropped.
func (q *Queue) Clear() int {
	n := len(q.items)
	for i := range q.items {
		q.items[i] = models.ConversationMessage{}
	}
	q.items = nil
	return n
}
