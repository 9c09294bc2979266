// Package trace records what the lowering pipeline is doing.
//
// Spans mark the driver invocation, each pass (lower, verify, emit, write),
// each program of a build and each function being lowered. Events go to a
// stream (text or NDJSON), to an in-memory ring for post-mortem dumps, or
// both.
//
// # Usage
//
//	kestrel build --trace=- --trace-level=phase prog.kast.yaml
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: ring only, dumped on failure
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-program events
//   - LevelDebug: everything including per-function spans
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartSpan(ctx, trace.ScopePass, "lower")
//	defer span.End("")
package trace
