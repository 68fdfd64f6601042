package sim

// cumulativeRows turns each class's transition probabilities into running
// sums, in the fixed order of the transitive nodes. Whatever the last sum
// falls short of 1 is the probability of leaving the network.
func cumulativeRows(rows [][]float64) [][]float64 {
	cum := make([][]float64, len(rows))
	for class, row := range rows {
		cum[class] = make([]float64, len(row))
		sum := 0.0
		for i, p := range row {
			sum += p
			cum[class][i] = sum
		}
	}
	return cum
}

// pickDestination returns the 0-based index of the first transitive node
// whose cumulative probability exceeds draw, or -1 for the exit node.
func pickDestination(cumRow []float64, draw float64) int {
	for i, p := range cumRow {
		if draw < p {
			return i
		}
	}
	return -1
}
