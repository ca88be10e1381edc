package analysis

import (
	"sort"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
)

// counter counts keys and remembers the order in which they were first seen
type counter[K comparable] struct {
	order  []K
	counts map[K]int
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

// ranked returns keys by count descending; ties keep first-seen order
func (c *counter[K]) ranked() []K {
	keys := make([]K, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	return keys
}

// top returns at most n keys of ranked()
func (c *counter[K]) top(n int) []K {
	keys := c.ranked()
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func validateN(op string, n int) error {
	if n <= 0 {
		return apperr.InvalidParam(op, "n", n, "must be positive")
	}
	return nil
}

func validateHour(op, field string, hour int) error {
	if hour < 0 || hour > 23 {
		return apperr.InvalidParam(op, field, hour, "must be within [0,23]")
	}
	return nil
}
