package solver

import (
	"math"
	"math/rand"
	"time"
)

const (
	glsAlpha      = 0.3  // penalty weight relative to mean arc cost
	improveEps    = 1e-6 // minimum accepted improvement
	maxStale      = 25   // penalty cycles without a new best before convergence
	progressEvery = 10   // iterations between progress snapshots
)

type arc struct{ from, to int }

// searcher runs guided local search over a plan: repeated descents to a
// local optimum of the penalty-augmented objective, penalizing the most
// expensive utilized arcs between descents to escape local optima. All
// scan orders are index-deterministic; the seeded rng only breaks ties
// when choosing among equally attractive penalization targets.
type searcher struct {
	m         *routingModel
	penalties map[arc]float64
	lambda    float64
	unservedM float64 // cost charged per unserved stop
	rng       *rand.Rand
	deadline  time.Time
	metrics   *SearchMetrics
	progress  func(SearchMetrics)
}

func newSearcher(m *routingModel, seed int64, deadline time.Time, metrics *SearchMetrics, progress func(SearchMetrics)) *searcher {
	maxEntry := 0.0
	n := m.size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if d := m.dist(i, j); d > maxEntry {
				maxEntry = d
			}
		}
	}
	return &searcher{
		m:         m,
		penalties: map[arc]float64{},
		unservedM: 10 * maxEntry * float64(n),
		rng:       rand.New(rand.NewSource(seed)),
		deadline:  deadline,
		metrics:   metrics,
		progress:  progress,
	}
}

func (s *searcher) expired() bool { return !time.Now().Before(s.deadline) }

// trueCost is the unaugmented objective: driven distance plus a large
// charge per unserved stop, so serving more stops always dominates.
func (s *searcher) trueCost(p *plan) float64 {
	return p.dist(s.m) + s.unservedM*float64(len(p.unserved))
}

// augRoute is a route's distance plus its share of arc penalties.
func (s *searcher) augRoute(order []int) float64 {
	if len(order) == 0 {
		return 0
	}
	total := s.m.dist(0, order[0]) + s.lambda*s.penalties[arc{0, order[0]}]
	for k := 1; k < len(order); k++ {
		total += s.m.dist(order[k-1], order[k]) + s.lambda*s.penalties[arc{order[k-1], order[k]}]
	}
	last := order[len(order)-1]
	return total + s.m.dist(last, 0) + s.lambda*s.penalties[arc{last, 0}]
}

// run improves the constructed plan until the time budget expires or the
// search goes stale. It returns the best plan found and whether the
// search converged before the budget ran out.
func (s *searcher) run(initial *plan) (*plan, bool) {
	cur := initial.clone()
	s.insertUnserved(cur)

	s.lambda = s.initialLambda(cur)
	best := cur.clone()
	bestCost := s.trueCost(best)
	s.metrics.BestCost = bestCost

	stale := 0
	for {
		if s.expired() {
			s.metrics.FinalCost = bestCost
			return best, false
		}
		s.metrics.Iterations++

		s.descend(cur)
		s.insertUnserved(cur)

		if c := s.trueCost(cur); c < bestCost-improveEps {
			best = cur.clone()
			bestCost = c
			s.metrics.Improvements++
			s.metrics.BestCost = bestCost
			stale = 0
		} else {
			stale++
		}
		if s.progress != nil && s.metrics.Iterations%progressEvery == 0 {
			s.progress(*s.metrics)
		}
		if stale >= maxStale {
			s.metrics.FinalCost = bestCost
			return best, true
		}
		s.penalize(cur)
	}
}

func (s *searcher) initialLambda(p *plan) float64 {
	arcs := 0
	for _, ord := range p.orders {
		if len(ord) > 0 {
			arcs += len(ord) + 1
		}
	}
	if arcs == 0 {
		return 1
	}
	return glsAlpha * p.dist(s.m) / float64(arcs)
}

// descend applies first-improvement moves (relocate, swap, intra-route
// 2-opt, inter-route tail exchange) until no move improves the augmented
// objective or the budget expires.
func (s *searcher) descend(p *plan) {
	for {
		if s.expired() {
			return
		}
		if s.relocate(p) || s.swap(p) || s.twoOpt(p) || s.tailExchange(p) {
			continue
		}
		return
	}
}

// relocate moves one node to any other position on any route.
func (s *searcher) relocate(p *plan) bool {
	for va := range p.orders {
		for ia := 0; ia < len(p.orders[va]); ia++ {
			node := p.orders[va][ia]
			removed := append(append([]int(nil), p.orders[va][:ia]...), p.orders[va][ia+1:]...)
			baseA := s.augRoute(p.orders[va])
			for vb := range p.orders {
				target := p.orders[vb]
				if vb == va {
					target = removed
				}
				if s.m.load(target)+s.m.demand[node] > s.m.vehicles[vb].Capacity {
					continue
				}
				baseB := s.augRoute(p.orders[vb])
				for pos := 0; pos <= len(target); pos++ {
					if vb == va && (pos == ia) {
						continue
					}
					cand := candidateOrder(target, node, pos)
					var delta float64
					if vb == va {
						delta = s.augRoute(cand) - baseA
					} else {
						delta = s.augRoute(removed) + s.augRoute(cand) - baseA - baseB
					}
					if delta >= -improveEps {
						continue
					}
					if !s.m.feasible(vb, cand) {
						continue
					}
					if vb != va {
						if _, _, _, ok := s.m.schedule(va, removed); len(removed) > 0 && !ok {
							continue
						}
					}
					if vb == va {
						p.orders[va] = cand
					} else {
						p.orders[va] = removed
						p.orders[vb] = cand
					}
					return true
				}
			}
		}
	}
	return false
}

// swap exchanges two nodes between positions (same or different routes).
func (s *searcher) swap(p *plan) bool {
	for va := range p.orders {
		for ia := 0; ia < len(p.orders[va]); ia++ {
			for vb := va; vb < len(p.orders); vb++ {
				jb := 0
				if vb == va {
					jb = ia + 1
				}
				for ; jb < len(p.orders[vb]); jb++ {
					ca := append([]int(nil), p.orders[va]...)
					cb := ca
					if vb != va {
						cb = append([]int(nil), p.orders[vb]...)
					}
					ca[ia], cb[jb] = cb[jb], ca[ia]
					before := s.augRoute(p.orders[va])
					after := s.augRoute(ca)
					if vb != va {
						before += s.augRoute(p.orders[vb])
						after += s.augRoute(cb)
					}
					if after-before >= -improveEps {
						continue
					}
					if !s.m.feasible(va, ca) {
						continue
					}
					if vb != va && !s.m.feasible(vb, cb) {
						continue
					}
					p.orders[va] = ca
					if vb != va {
						p.orders[vb] = cb
					}
					return true
				}
			}
		}
	}
	return false
}

// twoOpt reverses a segment within a single route.
func (s *searcher) twoOpt(p *plan) bool {
	for vi := range p.orders {
		ord := p.orders[vi]
		for i := 0; i < len(ord)-1; i++ {
			for j := i + 1; j < len(ord); j++ {
				cand := append([]int(nil), ord...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if s.augRoute(cand)-s.augRoute(ord) >= -improveEps {
					continue
				}
				if !s.m.feasible(vi, cand) {
					continue
				}
				p.orders[vi] = cand
				return true
			}
		}
	}
	return false
}

// tailExchange swaps route tails between two vehicles (2-opt across
// routes).
func (s *searcher) tailExchange(p *plan) bool {
	for va := 0; va < len(p.orders); va++ {
		for vb := va + 1; vb < len(p.orders); vb++ {
			for i := 0; i <= len(p.orders[va]); i++ {
				for j := 0; j <= len(p.orders[vb]); j++ {
					if i == len(p.orders[va]) && j == len(p.orders[vb]) {
						continue
					}
					ca := append(append([]int(nil), p.orders[va][:i]...), p.orders[vb][j:]...)
					cb := append(append([]int(nil), p.orders[vb][:j]...), p.orders[va][i:]...)
					before := s.augRoute(p.orders[va]) + s.augRoute(p.orders[vb])
					if s.augRoute(ca)+s.augRoute(cb)-before >= -improveEps {
						continue
					}
					if !s.m.feasible(va, ca) || !s.m.feasible(vb, cb) {
						continue
					}
					p.orders[va] = ca
					p.orders[vb] = cb
					return true
				}
			}
		}
	}
	return false
}

// insertUnserved retries the unserved pool with cheapest insertion.
// Serving a stop always beats any distance increase.
func (s *searcher) insertUnserved(p *plan) {
	pool := append([]int(nil), p.unserved...)
	for _, node := range pool {
		if vi, pos, ok := bestInsertion(s.m, p, node); ok {
			p.insertAt(vi, pos, node)
			p.removeUnserved(node)
		}
	}
}

// penalize increments the penalty of the utilized arcs with maximal
// utility dist/(1+penalty), the classic guided local search step. Arcs
// are scanned in route order so the augmentation is reproducible; when
// several arcs tie the rng picks one of them.
func (s *searcher) penalize(p *plan) {
	var tied []arc
	maxUtil := -math.MaxFloat64
	consider := func(a arc) {
		u := s.m.dist(a.from, a.to) / (1 + s.penalties[a])
		switch {
		case u > maxUtil+improveEps:
			maxUtil = u
			tied = tied[:0]
			tied = append(tied, a)
		case u > maxUtil-improveEps:
			tied = append(tied, a)
		}
	}
	for _, ord := range p.orders {
		if len(ord) == 0 {
			continue
		}
		consider(arc{0, ord[0]})
		for k := 1; k < len(ord); k++ {
			consider(arc{ord[k-1], ord[k]})
		}
		consider(arc{ord[len(ord)-1], 0})
	}
	if len(tied) == 0 {
		return
	}
	chosen := tied[s.rng.Intn(len(tied))]
	s.penalties[chosen]++
	s.metrics.PenaltiesApplied++
}
