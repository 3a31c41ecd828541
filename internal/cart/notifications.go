package cart

// NotificationCounter tracks unseen addition events. Its lifecycle is
// deliberately decoupled from the line-item collection: clearing the cart
// leaves it alone, and only an explicit reset zeroes it.
type NotificationCounter struct {
	n int
}

func (c *NotificationCounter) Increment() { c.n++ }

func (c *NotificationCounter) Add(delta int) {
	c.n += delta
	if c.n < 0 {
		c.n = 0
	}
}

func (c *NotificationCounter) Reset() { c.n = 0 }

func (c *NotificationCounter) Count() int { return c.n }
