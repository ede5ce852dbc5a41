package conversation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/rorigreet/internal/models"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(models.NewMessage("first", models.SeverityInfo))
	q.Enqueue(models.NewPrompt("Password: ", models.PromptSecret))
	q.Enqueue(models.NewMessage("third", models.SeverityError))

	require.Equal(t, 3, q.Len())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "first", head.Text)
	assert.Equal(t, 3, q.Len(), "peek must not consume")

	var got []string
	for {
		msg, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, msg.Text)
	}
	assert.Equal(t, []string{"first", "Password: ", "third"}, got)
	assert.True(t, q.Empty())
}

func TestQueue_PopEmpty(t *testing.T) {
	q := NewQueue()
	_, ok := q.Pop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(models.NewMessage("a", models.SeverityInfo))
	q.Enqueue(models.NewMessage("b", models.SeverityInfo))

	assert.Equal(t, 2, q.Clear())
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Clear())
}

// Random interleavings of enqueue and partial drains must still yield every
// message exactly once in arrival order.
func TestQueue_InterleavedDrainsPreserveOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		q := NewQueue()
		next := 0
		var seen []string

		for step := 0; step < 40; step++ {
			if rng.Intn(2) == 0 {
				q.Enqueue(models.NewMessage(fmt.Sprintf("m%d", next), models.SeverityInfo))
				next++
				continue
			}
			for n := rng.Intn(3); n >= 0; n-- {
				msg, ok := q.Pop()
				if !ok {
					break
				}
				seen = append(seen, msg.Text)
			}
		}
		for {
			msg, ok := q.Pop()
			if !ok {
				break
			}
			seen = append(seen, msg.Text)
		}

		require.Len(t, seen, next)
		for i, text := range seen {
			require.Equal(t, fmt.Sprintf("m%d", i), text)
		}
	}
}
