package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Persistence format:
//
//	{"nodes": ["BTC", ...],
//	 "edges": {"BTC": {"USDT": {"weight": 50000, "direction": 1}}}}
//
// The nodes array carries insertion order; a loaded graph enumerates nodes
// and neighbors in the same order as the one that was saved.

type edgeJSON struct {
	Weight    float64 `json:"weight"`
	Direction int     `json:"direction"`
}

type graphJSON struct {
	Nodes []string                       `json:"nodes"`
	Edges map[string]map[string]edgeJSON `json:"edges"`
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	out := graphJSON{Nodes: g.nodes, Edges: make(map[string]map[string]edgeJSON, len(g.adj))}
	for from, m := range g.adj {
		row := make(map[string]edgeJSON, len(m))
		for to, e := range m {
			row[to] = edgeJSON{Weight: e.Rate, Direction: int(e.Direction)}
		}
		out.Edges[from] = row
	}
	return json.Marshal(out)
}

func (g *Graph) UnmarshalJSON(data []byte) error {
	var in graphJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	fresh := New()
	for _, n := range in.Nodes {
		fresh.AddNode(n)
	}
	// Neighbor order inside a node is driven by the saved node order so the
	// round trip stays deterministic even though JSON objects are unordered.
	for _, from := range in.Nodes {
		row, ok := in.Edges[from]
		if !ok {
			continue
		}
		for _, to := range in.Nodes {
			e, ok := row[to]
			if !ok {
				continue
			}
			if err := fresh.AddEdge(from, to, e.Weight, Direction(e.Direction)); err != nil {
				return fmt.Errorf("load edge %s->%s: %w", from, to, err)
			}
		}
	}
	*g = *fresh
	return nil
}

// Save writes the graph to path as indented JSON.
func (g *Graph) Save(path string) error {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load reads a graph previously written by Save.
func Load(path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := New()
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("decode graph %s: %w", path, err)
	}
	return g, nil
}
