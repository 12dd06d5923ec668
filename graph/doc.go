// Package graph holds the feature module dependency DAG.
//
// Nodes are stored in registration order and addressed by integer index,
// so nothing here depends on map iteration order. That index doubles as the
// tie-break when ordering: among modules whose dependencies are all placed,
// the one registered first goes next.
//
// # Building a Graph
//
//	g, err := graph.Build([]graph.Spec{
//	    {ID: "es.map.constructor"},
//	    {ID: "es.map.of", Dependencies: []string{"es.map.constructor"}},
//	})
//
// Build rejects duplicate identifiers, dependencies on unknown nodes and
// cycles. A *CycleError carries the full cycle path.
//
// # Closure and Ordering
//
//	closed, _ := g.CloseUnder([]string{"es.map.of"})
//	order, _ := g.Order(closed) // ["es.map.constructor", "es.map.of"]
//
// Order ignores dependencies outside the given set; they are assumed to be
// satisfied some other way.
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON()
//	dot := g.ToDOT()
//	text := g.ToText()
package graph
