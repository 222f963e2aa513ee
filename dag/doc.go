// Package dag models the dependency graph of a stack.
//
// A graph is built once from node declarations and is immutable afterwards.
// Build rejects duplicate ids, dependencies on undeclared nodes and cycles,
// so every *Graph handed out is a valid DAG whose edges all resolve.
//
// Edges point from a node to the nodes it depends on: if "app" depends on
// "db", then db must reach a terminal success state before app may start.
//
//	g, err := dag.Build(nodes)
//	order := g.TopoOrder()   // dependencies first, ties by declaration order
//	levels := g.Levels()     // nodes in one level may run concurrently
package dag
