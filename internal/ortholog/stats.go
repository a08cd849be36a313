package ortholog

import "sort"

// SpeciesCount pairs an ortholog species code with how many genes
// resolved to it.
type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// Summary aggregates a batch of resolution results.
type Summary struct {
	TotalGenes         int            `json:"total_genes"`
	GenesWithOrthologs int            `json:"genes_with_orthologs"`
	CoveragePercent    float64        `json:"coverage_percent"`
	TopSpecies         []SpeciesCount `json:"top_ortholog_species"`
}

// Summarize computes coverage statistics and the five most common
// ortholog species for a batch of results.
func Summarize(results []Result) Summary {
	summary := Summary{TotalGenes: len(results)}

	counts := make(map[string]int)
	for _, res := range results {
		if res.HasOrtholog() {
			summary.GenesWithOrthologs++
			counts[res.OrthologSpecies]++
		}
	}

	if summary.TotalGenes > 0 {
		summary.CoveragePercent = float64(summary.GenesWithOrthologs) / float64(summary.TotalGenes) * 100
	}

	top := make([]SpeciesCount, 0, len(counts))
	for species, count := range counts {
		top = append(top, SpeciesCount{Species: species, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Species < top[j].Species
	})
	if len(top) > 5 {
		top = top[:5]
	}
	summary.TopSpecies = top

	return summary
}
