package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/stackup/errors"
)

// NodeOperation tracks the span and metrics of one node in a run.
type NodeOperation struct {
	NodeID    string
	Kind      string
	StartTime time.Time
	Metrics   *Metrics

	span trace.Span
}

// StartNode starts the span of a node. If metrics is nil, metric recording
// is skipped.
func StartNode(ctx context.Context, nodeID, kind string, metrics *Metrics) (context.Context, *NodeOperation) {
	ctx, span := StartSpan(ctx, SpanNode, trace.WithAttributes(
		attribute.String(AttrNodeID, nodeID),
		attribute.String(AttrNodeKind, kind),
	))
	op := &NodeOperation{
		NodeID:    nodeID,
		Kind:      kind,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
	if metrics != nil {
		metrics.RecordNodeStart(ctx, kind)
	}
	return ctx, op
}

// End ends the span with the terminal state and records node metrics.
func (op *NodeOperation) End(ctx context.Context, state string, err error) {
	duration := time.Since(op.StartTime)

	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorCode, string(errors.CodeOf(err))))
	}
	op.span.SetAttributes(
		attribute.String(AttrState, state),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.Metrics != nil {
		op.Metrics.RecordNodeEnd(ctx, op.NodeID, op.Kind, state, duration)
	}
}

// Duration returns the elapsed time since the node started.
func (op *NodeOperation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
