// Package resilience provides the retry and concurrency-limiting primitives
// used by the orchestrator.
//
// This package includes:
//   - Retry: bounded attempts with fixed or exponential backoff
//   - Bulkhead: limits concurrent work, optionally blocking for a slot
//
// Readiness polling uses Retry with a fixed interval:
//
//	cfg := resilience.FixedIntervalConfig(attempts, interval)
//	_, err := resilience.Retry(ctx, cfg, func(ctx context.Context, attempt int) (struct{}, error) {
//	    return struct{}{}, check(ctx)
//	})
//
// Node execution is bounded by a bulkhead that waits for a free slot:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4, MaxWait: resilience.WaitUntilDone})
//	err := bh.Execute(ctx, func() error { return run(ctx) })
package resilience
