package ortholog

// modelOrganismWeights ranks well-studied species by annotation
// quality. Candidates from unlisted organisms score zero from this
// table but remain eligible.
var modelOrganismWeights = map[string]float64{
	"hsa": 100, // Homo sapiens
	"mmu": 95,  // Mus musculus
	"dme": 90,  // Drosophila melanogaster
	"cel": 90,  // Caenorhabditis elegans
	"rno": 90,  // Rattus norvegicus
	"sce": 85,  // Saccharomyces cerevisiae
	"dre": 85,  // Danio rerio
	"ath": 80,  // Arabidopsis thaliana
	"eco": 80,  // Escherichia coli
	"bsu": 75,  // Bacillus subtilis
}

// scoreCandidate computes the preference score for an ortholog
// candidate. Model organisms score by their table weight, and
// cross-domain pairs get an extra bonus because distant orthologs show
// deeper functional conservation.
func scoreCandidate(sourceOrg, candidateOrg string) float64 {
	score := modelOrganismWeights[candidateOrg]

	if sourceOrg == "eco" && candidateOrg == "hsa" {
		score += 10
	}
	if (sourceOrg == "eco" || sourceOrg == "bsu") &&
		(candidateOrg == "hsa" || candidateOrg == "mmu" || candidateOrg == "dme") {
		score += 5
	}

	return score
}
