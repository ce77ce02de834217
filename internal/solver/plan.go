package solver

import "sort"

// plan is a mutable assignment of stop nodes to vehicles plus the pool
// of nodes no vehicle can serve. Orders index by vehicle position.
type plan struct {
	orders   [][]int
	unserved []int
}

func newPlan(vehicles int) *plan {
	return &plan{orders: make([][]int, vehicles)}
}

func (p *plan) clone() *plan {
	out := &plan{orders: make([][]int, len(p.orders))}
	for i := range p.orders {
		out.orders[i] = append([]int(nil), p.orders[i]...)
	}
	out.unserved = append([]int(nil), p.unserved...)
	return out
}

func (p *plan) served() int {
	n := 0
	for _, ord := range p.orders {
		n += len(ord)
	}
	return n
}

func (p *plan) markUnserved(node int) {
	p.unserved = append(p.unserved, node)
	sort.Ints(p.unserved)
}

func (p *plan) removeUnserved(node int) {
	for i, n := range p.unserved {
		if n == node {
			p.unserved = append(p.unserved[:i], p.unserved[i+1:]...)
			return
		}
	}
}

// insertAt places node at position pos of vehicle vi's order.
func (p *plan) insertAt(vi, pos, node int) {
	ord := p.orders[vi]
	if pos >= len(ord) {
		p.orders[vi] = append(ord, node)
		return
	}
	ord = append(ord[:pos+1], ord[pos:]...)
	ord[pos] = node
	p.orders[vi] = ord
}

// dist is the total driven distance over all routes.
func (p *plan) dist(m *routingModel) float64 {
	total := 0.0
	for _, ord := range p.orders {
		total += m.routeDist(ord)
	}
	return total
}
