package observer

import (
	"context"
	"time"

	sift "github.com/halcyonworks/sift"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedReranker wraps a sift.Reranker with OTEL instrumentation.
type ObservedReranker struct {
	inner     sift.Reranker
	inst      *Instruments
	diversity *float64
}

// WrapReranker returns an instrumented reranker. Rerankers that expose
// their stats get the configured diversity stamped on each span.
func WrapReranker(inner sift.Reranker, inst *Instruments) *ObservedReranker {
	o := &ObservedReranker{inner: inner, inst: inst}
	if s, ok := inner.(interface{ Stats() sift.RerankerStats }); ok {
		d := s.Stats().Diversity
		o.diversity = &d
	}
	return o
}

func (o *ObservedReranker) Rerank(ctx context.Context, query string, results []sift.Result, topK int) ([]sift.Result, error) {
	attrs := []attribute.KeyValue{
		AttrRerankCandidates.Int(len(results)),
		AttrRerankTopK.Int(topK),
	}
	if o.diversity != nil {
		attrs = append(attrs, AttrRerankDiversity.Float64(*o.diversity))
	}
	ctx, span := o.inst.Tracer.Start(ctx, "rerank.mmr", trace.WithAttributes(attrs...))
	defer span.End()
	start := time.Now()

	ranked, err := o.inner.Rerank(ctx, query, results, topK)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.inst.RerankRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	o.inst.RerankDuration.Record(ctx, durationMs)

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("rerank completed"))
	rec.AddAttributes(
		otellog.Int("rerank.candidates", len(results)),
		otellog.Int("rerank.top_k", topK),
		otellog.Float64("rerank.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return ranked, err
}
