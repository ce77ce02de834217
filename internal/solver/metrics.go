package solver

// SearchMetrics describes one solve run: how the search spent its
// budget and where the objective ended up. Persisted alongside the
// solution so runs can be compared after the fact.
type SearchMetrics struct {
	Iterations            int     `json:"iterations"`
	Improvements          int     `json:"improvements"`
	PenaltiesApplied      int     `json:"penaltiesApplied"`
	ConstructionCost      float64 `json:"constructionCost"`
	BestCost              float64 `json:"bestCost"`
	FinalCost             float64 `json:"finalCost"`
	ConvergedBeforeBudget bool    `json:"convergedBeforeBudget"`
	ElapsedMS             int64   `json:"elapsedMs"`
	Served                int     `json:"served"`
	Unserved              int     `json:"unserved"`
}
