package jsonfile

import (
	"strconv"
	"sync"
)

// IDCounter hands out sequential numeric ids. It is seeded lazily, at most
// once, on the first call to Next.
type IDCounter struct {
	mu     sync.Mutex
	next   int64
	seeded bool
}

func NewIDCounter() *IDCounter {
	return &IDCounter{}
}

// Next returns the current value and advances the counter. seed supplies the
// starting value; once it reports ok the counter never calls it again. A
// failed seed's value is handed out once and the next call seeds afresh.
func (c *IDCounter) Next(seed func() (int64, bool)) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seeded {
		start, ok := seed()
		if start < 1 {
			start = 1
		}
		if !ok {
			return strconv.FormatInt(start, 10)
		}
		c.next = start
		c.seeded = true
	}

	id := c.next
	c.next++
	return strconv.FormatInt(id, 10)
}

// maxNumericID ignores ids that are not base-10 integers.
func maxNumericID(ids []string) int64 {
	var highest int64
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
