package observer

import (
	"context"
	"time"

	sift "github.com/halcyonworks/sift"
	"github.com/halcyonworks/sift/ingest"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedProcessor wraps an ingest.Processor with OTEL instrumentation.
type ObservedProcessor struct {
	inner *ingest.Processor
	inst  *Instruments
}

// WrapProcessor returns an instrumented chunking processor.
func WrapProcessor(inner *ingest.Processor, inst *Instruments) *ObservedProcessor {
	return &ObservedProcessor{inner: inner, inst: inst}
}

// Stats returns the wrapped processor's counters.
func (o *ObservedProcessor) Stats() ingest.Stats { return o.inner.Stats() }

func (o *ObservedProcessor) Process(ctx context.Context, text string, meta sift.Metadata, strategy string) ([]sift.Chunk, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunking.process", trace.WithAttributes(
		AttrChunkStrategy.String(strategy),
		AttrDocBytes.Int(len(text)),
	))
	defer span.End()
	start := time.Now()

	chunks, err := o.inner.Process(ctx, text, meta, strategy)

	o.finish(ctx, span, "chunking completed", strategy, len(chunks), time.Since(start), err)
	return chunks, err
}

func (o *ObservedProcessor) ProcessBatch(ctx context.Context, docs []Document) ([]sift.Chunk, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunking.process_batch", trace.WithAttributes(
		AttrDocCount.Int(len(docs)),
	))
	defer span.End()
	start := time.Now()

	chunks, err := o.inner.ProcessBatch(ctx, docs)

	o.finish(ctx, span, "batch chunking completed", "batch", len(chunks), time.Since(start), err)
	return chunks, err
}

func (o *ObservedProcessor) ProcessFile(ctx context.Context, content []byte, filename string, meta sift.Metadata) ([]sift.Chunk, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunking.process_file", trace.WithAttributes(
		AttrFilePath.String(filename),
		AttrDocBytes.Int(len(content)),
	))
	defer span.End()
	start := time.Now()

	chunks, err := o.inner.ProcessFile(ctx, content, filename, meta)

	o.finish(ctx, span, "file chunking completed", "file", len(chunks), time.Since(start), err)
	return chunks, err
}

// Document aliases the ingest batch input so callers of the wrapper
// don't need a second import just for batch processing.
type Document = ingest.Document

func (o *ObservedProcessor) finish(ctx context.Context, span trace.Span, msg, strategy string, chunkCount int, elapsed time.Duration, err error) {
	durationMs := float64(elapsed.Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(AttrChunkCount.Int(chunkCount))

	o.inst.DocumentsProcessed.Add(ctx, 1, metric.WithAttributes(
		AttrChunkStrategy.String(strategy),
		attribute.String("status", status),
	))
	o.inst.ChunksProduced.Add(ctx, int64(chunkCount), metric.WithAttributes(
		AttrChunkStrategy.String(strategy),
	))
	o.inst.ChunkDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrChunkStrategy.String(strategy),
	))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(msg))
	rec.AddAttributes(
		otellog.String("chunk.strategy", strategy),
		otellog.Int("chunk.count", chunkCount),
		otellog.Float64("chunk.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)
}
