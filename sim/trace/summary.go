package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalArrivals   int
	AdmittedCount   int
	RejectedCount   int
	TotalRoutings   int
	ExitCount       int
	BlockCount      int
	UnblockCount    int
	MeanBlockedWait float64
	MaxBlockedWait  float64
	// RouteDistribution counts routing draws, keyed by origin node then
	// destination.
	RouteDistribution map[int]map[int]int
	// BlocksByTarget counts blocking events by the full destination node.
	BlocksByTarget map[int]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RouteDistribution: make(map[int]map[int]int),
		BlocksByTarget:    make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalArrivals = len(st.Arrivals)
	for _, a := range st.Arrivals {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
		}
	}

	summary.TotalRoutings = len(st.Routings)
	for _, r := range st.Routings {
		if r.Exit {
			summary.ExitCount++
		}
		row, ok := summary.RouteDistribution[r.From]
		if !ok {
			row = make(map[int]int)
			summary.RouteDistribution[r.From] = row
		}
		row[r.To]++
	}

	summary.BlockCount = len(st.Blocks)
	for _, b := range st.Blocks {
		summary.BlocksByTarget[b.To]++
	}

	if len(st.Unblocks) > 0 {
		total := 0.0
		for _, u := range st.Unblocks {
			total += u.Waited
			if u.Waited > summary.MaxBlockedWait {
				summary.MaxBlockedWait = u.Waited
			}
		}
		summary.UnblockCount = len(st.Unblocks)
		summary.MeanBlockedWait = total / float64(len(st.Unblocks))
	}

	return summary
}
