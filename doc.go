// Package strom is an in-process, parallel stream-processing runtime.
// A user-defined DAG of operators is materialized into bounded queues
// (one per edge), operator instances and a pool of worker goroutines
// that a scheduler feeds with ready instances. Sources run on
// dedicated producer goroutines and push into their downstream
// queues; backpressure is the blocking push.
//
// Build a graph, hand it to a runtime, start it:
//
//	builder := strom.NewStreamGraphBuilder()
//	builder.AddSource(operators.NewSequenceSource("numbers", operators.SequenceConfig{Start: 1, Step: 1, Count: 100}))
//	builder.AddOperator(operators.NewIntMap("square", func(v int64) int64 { return v * v }))
//	builder.AddSink(operators.NewCountingSink("count"))
//	builder.Connect("numbers", "square", 0)
//	builder.Connect("square", "count", 0)
//
//	rt := strom.New(strom.DefaultConfig(), strom.WithLog(log.New()))
//	if err := rt.Init(builder); err != nil { ... }
//	if err := rt.Start(); err != nil { ... }
//	rt.AwaitCompletion()
//	if err := rt.Stop(); err != nil { ... }
//
// Stop drains every queue before closing it, so a finite source's
// events all reach their sinks.
package strom
