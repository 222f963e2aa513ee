// Package observability provides OpenTelemetry tracing and metrics for
// orchestration runs.
//
// Setup:
//
//	shutdown, err := observability.Setup(ctx, cfg)
//	defer shutdown(ctx)
//
// Every node of a run gets a span and duration/outcome metrics:
//
//	ctx, op := observability.StartNode(ctx, "db", "service", metrics)
//	defer op.End(ctx, "ready", nil)
package observability
