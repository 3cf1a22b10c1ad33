package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/observability"
)

// Producer computes a value on a cache miss.
type Producer func(ctx context.Context) (any, error)

// ComputeOptions selects the key parameters and TTL for GetOrCompute.
type ComputeOptions struct {
	TTL    time.Duration // DefaultTTL means the namespace default
	Params []any
}

// GetOrCompute returns the cached value for (namespace, opts.Params), or
// runs producer, caches its result and returns it.
//
// Concurrent misses on the same key share one producer call. The producer
// runs detached from ctx cancellation so that a caller giving up does not
// abort a result other callers are waiting on; the abandoned caller gets
// ctx.Err(). A producer error is returned unchanged and nothing is cached.
func (c *Cache) GetOrCompute(ctx context.Context, namespace string, producer Producer, opts ComputeOptions) (any, error) {
	ctx, span := observability.StartSpan(ctx, "cache.GetOrCompute",
		observability.AttrNamespace.String(namespace))
	defer span.End()

	key := BuildKey(namespace, opts.Params...)
	if v, ok := c.getKey(key); ok {
		span.SetAttributes(observability.AttrCacheHit.Bool(true))
		return v, nil
	}
	span.SetAttributes(observability.AttrCacheHit.Bool(false))

	detached := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.compute(detached, namespace, key, producer, opts.TTL)
	})

	select {
	case <-ctx.Done():
		observability.SetSpanError(span, ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		span.SetAttributes(observability.AttrShared.Bool(res.Shared))
		if res.Err != nil {
			observability.SetSpanError(span, res.Err)
			return nil, res.Err
		}
		observability.SetSpanOK(span)
		return res.Val, nil
	}
}

// compute runs inside the flight. A caller that missed just before the
// previous flight stored its value finds it here instead of recomputing.
func (c *Cache) compute(ctx context.Context, namespace, key string, producer Producer, ttl time.Duration) (any, error) {
	if v, ok := c.peek(key); ok {
		return v, nil
	}

	start := c.clock.Now()
	v, err := callProducer(ctx, key, producer)
	if c.observe != nil {
		c.observe(namespace, c.clock.Since(start), err)
	}
	if err != nil {
		traceID, spanID := observability.TraceIDs(ctx)
		logging.OpWithTrace(traceID, spanID).Debug("cache producer failed",
			"cache_id", c.id, "key", key, "error", err)
		return nil, err
	}

	c.storeComputed(namespace, key, v, ttl)
	return v, nil
}

func (c *Cache) storeComputed(namespace, key string, v any, ttl time.Duration) {
	defer c.recoverOp("set")
	c.set(namespace, key, v, ttl)
}

// callProducer converts a producer panic into an error; singleflight would
// otherwise re-panic it on a goroutine nobody can recover.
func callProducer(ctx context.Context, key string, producer Producer) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("cache producer for %q panicked: %v", key, r)
		}
	}()
	return producer(ctx)
}

// Compute is the typed form of GetOrCompute.
func Compute[T any](ctx context.Context, c *Cache, namespace string, producer func(context.Context) (T, error), opts ComputeOptions) (T, error) {
	var zero T
	v, err := c.GetOrCompute(ctx, namespace, func(ctx context.Context) (any, error) {
		t, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		return t, nil
	}, opts)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %q holds %T, want %T", BuildKey(namespace, opts.Params...), v, zero)
	}
	return t, nil
}
