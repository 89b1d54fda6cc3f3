// Package pkg provides the core libraries for Storyflow graph layout.
//
// # Overview
//
// Storyflow turns murder-mystery design data (characters, story elements,
// puzzles, and timeline events) into positioned, readable graphs. The pkg
// directory is organized into five main areas:
//
//  1. [entity] / [relate] / [graph] - Domain model, relationship
//     extraction, and weighted edge synthesis
//  2. [layout] / [engine] - Layout algorithms and the orchestrating engine
//  3. [layout/quality] - Layout scoring and improvement suggestions
//  4. [cache] / [store] - Layout caching and snapshot persistence
//  5. [pipeline] / [render] - Orchestration and diagram output
//
// # Architecture
//
// The typical data flow through Storyflow:
//
//	Entity Snapshot (JSON or MongoDB)
//	         ↓
//	    [relate] package (extract relationship records)
//	         ↓
//	    [graph] package (weighted edges + virtual ordering edges)
//	         ↓
//	    [engine] package (algorithm selection + layout)
//	         ↓
//	    [layout/quality] package (scoring + suggestions)
//	         ↓
//	    JSON/DOT/SVG/PNG output
//
// # Quick Start
//
// Run the full pipeline over a snapshot:
//
//	entities, err := entity.ReadSnapshotFile("manor.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(ctx, entities, pipeline.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, n := range result.Nodes {
//	    fmt.Printf("%s at (%.0f, %.0f)\n", n.ID, n.X, n.Y)
//	}
package pkg
