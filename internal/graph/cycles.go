package graph

import "sort"

// Opportunity is a profitable 3-cycle start→mid→end→start.
type Opportunity struct {
	Start         string  `json:"start"`
	Mid           string  `json:"mid"`
	End           string  `json:"end"`
	ProfitPercent float64 `json:"profit_percent"`
}

// Path returns the closed currency path of the cycle.
func (o Opportunity) Path() []string {
	return []string{o.Start, o.Mid, o.End, o.Start}
}

// FindCyclesFrom enumerates 3-cycles through start whose compounded rate
// exceeds minProfit (a multiplier, e.g. 1.0001 for 0.01%). The end currency
// must differ from start; mid==end is not guarded against, so a self-edge
// can surface as a degenerate cycle.
func (g *Graph) FindCyclesFrom(start string, minProfit float64) []Opportunity {
	var out []Opportunity
	for _, mid := range g.order[start] {
		rate1 := g.adj[start][mid].Rate
		for _, end := range g.order[mid] {
			if end == start {
				continue
			}
			back, ok := g.adj[end][start]
			if !ok {
				continue
			}
			total := rate1 * g.adj[mid][end].Rate * back.Rate
			if total > minProfit {
				out = append(out, Opportunity{
					Start:         start,
					Mid:           mid,
					End:           end,
					ProfitPercent: (total - 1) * 100,
				})
			}
		}
	}
	return out
}

// FindAllCycles runs FindCyclesFrom for every node and returns the combined
// list sorted by profit descending. The sort is stable, so ties keep the
// per-node enumeration order. The same physical cycle appears once per
// rotation of its three currencies; rotations are intentionally not
// deduplicated.
func (g *Graph) FindAllCycles(minProfit float64) []Opportunity {
	var all []Opportunity
	for _, start := range g.nodes {
		all = append(all, g.FindCyclesFrom(start, minProfit)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ProfitPercent > all[j].ProfitPercent
	})
	return all
}
