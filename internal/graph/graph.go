package graph

import "fmt"

// Direction tags how an edge's rate was derived from a trading pair.
type Direction int

const (
	// Forward converts base→quote at the pair's bid price.
	Forward Direction = 1
	// Inverse converts quote→base at the reciprocal of the pair's ask price.
	Inverse Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Inverse:
		return "inverse"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Edge is a directed conversion with a positive rate.
type Edge struct {
	Rate      float64
	Direction Direction
}

// EdgeExistsError reports an attempt to insert a second edge for an ordered
// currency pair. The original edge is always retained; callers log and
// continue.
type EdgeExistsError struct {
	From, To string
	Existing Edge
	Rejected Edge
}

func (e *EdgeExistsError) Error() string {
	return fmt.Sprintf("edge %s->%s already exists: existing rate=%g direction=%s, rejected rate=%g direction=%s",
		e.From, e.To, e.Existing.Rate, e.Existing.Direction, e.Rejected.Rate, e.Rejected.Direction)
}

// Graph is a directed currency-conversion graph. Node order and per-node
// neighbor order follow first insertion, so enumeration is deterministic.
// A built graph is read-only; concurrent reads need no locking.
type Graph struct {
	nodes []string
	adj   map[string]map[string]Edge
	order map[string][]string
}

func New() *Graph {
	return &Graph{
		adj:   make(map[string]map[string]Edge),
		order: make(map[string][]string),
	}
}

// AddNode inserts the currency if absent. Idempotent.
func (g *Graph) AddNode(c string) {
	if _, ok := g.adj[c]; ok {
		return
	}
	g.nodes = append(g.nodes, c)
	g.adj[c] = make(map[string]Edge)
}

// AddEdge ensures both nodes exist, then inserts the edge unless one is
// already present for (from, to), in which case it returns *EdgeExistsError
// and leaves the original untouched.
func (g *Graph) AddEdge(from, to string, rate float64, dir Direction) error {
	g.AddNode(from)
	g.AddNode(to)
	if existing, ok := g.adj[from][to]; ok {
		return &EdgeExistsError{
			From:     from,
			To:       to,
			Existing: existing,
			Rejected: Edge{Rate: rate, Direction: dir},
		}
	}
	g.adj[from][to] = Edge{Rate: rate, Direction: dir}
	g.order[from] = append(g.order[from], to)
	return nil
}

// Nodes returns currencies in first-insertion order. The slice is shared;
// callers must not mutate it.
func (g *Graph) Nodes() []string { return g.nodes }

// Neighbors returns the outgoing neighbors of c in first-insertion order.
// Unknown currencies yield an empty result, never an error.
func (g *Graph) Neighbors(c string) []string { return g.order[c] }

// Edge looks up the conversion from→to.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.adj[from][to]
	return e, ok
}

// NodeCount returns the number of currencies.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, m := range g.adj {
		n += len(m)
	}
	return n
}
