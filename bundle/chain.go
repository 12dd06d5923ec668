package bundle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ChainResolver tries resolvers in order and remembers which one served
// each reference, so later lookups of the same reference go straight to it.
//
// Any error from a resolver, not only ErrPayloadNotFound, moves the lookup
// on to the next one. Context errors stop the chain.
type ChainResolver struct {
	resolvers []PayloadResolver

	// source tracks which resolver serves each reference.
	source   map[string]int
	sourceMu sync.RWMutex
}

// NewChainResolver returns a chain over resolvers, highest priority first.
func NewChainResolver(resolvers ...PayloadResolver) (*ChainResolver, error) {
	if len(resolvers) == 0 {
		return nil, errors.New("no payload resolvers provided")
	}
	return &ChainResolver{
		resolvers: resolvers,
		source:    make(map[string]int),
	}, nil
}

// Payload fetches ref from the first resolver that has it.
func (c *ChainResolver) Payload(ctx context.Context, ref string) ([]byte, error) {
	c.sourceMu.RLock()
	idx, found := c.source[ref]
	c.sourceMu.RUnlock()

	if found {
		return c.resolvers[idx].Payload(ctx, ref)
	}

	var failures []string
	notFound := true
	for i, r := range c.resolvers {
		data, err := r.Payload(ctx, ref)
		if err == nil {
			c.sourceMu.Lock()
			if _, exists := c.source[ref]; !exists {
				c.source[ref] = i
			}
			c.sourceMu.Unlock()
			return data, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrPayloadNotFound) {
			notFound = false
		}
		failures = append(failures, fmt.Sprintf("resolver %d: %v", i, err))
	}

	if notFound {
		return nil, fmt.Errorf("%w: %s", ErrPayloadNotFound, ref)
	}
	return nil, fmt.Errorf("payload %s unavailable:\n  %s", ref, strings.Join(failures, "\n  "))
}

// Source reports which resolver index served ref, if it has been fetched.
func (c *ChainResolver) Source(ref string) (int, bool) {
	c.sourceMu.RLock()
	defer c.sourceMu.RUnlock()
	idx, ok := c.source[ref]
	return idx, ok
}
