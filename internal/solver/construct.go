package solver

import (
	"math"
	"sort"
)

// cheapestInsertion builds the initial assignment. Stops are processed
// in ascending ID order and placed at the feasible position with the
// smallest distance delta across all vehicles; a stop with no feasible
// position anywhere goes to the unserved pool. The scan order makes the
// seed solution identical across runs for identical input.
func cheapestInsertion(m *routingModel) *plan {
	p := newPlan(len(m.vehicles))

	nodes := make([]int, len(m.stops))
	for i := range m.stops {
		nodes[i] = i + 1
	}
	sort.Slice(nodes, func(a, b int) bool {
		return m.stops[nodes[a]-1].ID < m.stops[nodes[b]-1].ID
	})

	for _, node := range nodes {
		vi, pos, ok := bestInsertion(m, p, node)
		if !ok {
			p.markUnserved(node)
			continue
		}
		p.insertAt(vi, pos, node)
	}
	return p
}

// bestInsertion scans every vehicle and position for the cheapest
// feasible placement of node. Ties keep the first candidate found
// (lowest vehicle index, then lowest position).
func bestInsertion(m *routingModel, p *plan, node int) (vi, pos int, ok bool) {
	bestDelta := math.Inf(1)
	for v := range p.orders {
		if m.load(p.orders[v])+m.demand[node] > m.vehicles[v].Capacity {
			continue
		}
		for i := 0; i <= len(p.orders[v]); i++ {
			d := insertionDelta(m, p.orders[v], node, i)
			if d >= bestDelta {
				continue
			}
			cand := candidateOrder(p.orders[v], node, i)
			if _, _, _, feasible := m.schedule(v, cand); !feasible {
				continue
			}
			bestDelta = d
			vi, pos, ok = v, i, true
		}
	}
	return vi, pos, ok
}

// insertionDelta is the distance increase of inserting node at pos:
// prev->node + node->next - prev->next.
func insertionDelta(m *routingModel, order []int, node, pos int) float64 {
	prev, next := 0, 0
	if pos > 0 {
		prev = order[pos-1]
	}
	if pos < len(order) {
		next = order[pos]
	}
	return m.dist(prev, node) + m.dist(node, next) - m.dist(prev, next)
}

func candidateOrder(order []int, node, pos int) []int {
	cand := make([]int, 0, len(order)+1)
	cand = append(cand, order[:pos]...)
	cand = append(cand, node)
	cand = append(cand, order[pos:]...)
	return cand
}
