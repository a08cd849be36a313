// Package ortholog implements cross-species ortholog resolution over
// KEGG Orthology (KO) groups.
//
// A KO group collects genes from many species that share one molecular
// function. Genes from the same organism inside a group are paralogs,
// not orthologs, and are excluded. Among the remaining candidates the
// resolver picks the highest-scoring one, preferring well-annotated
// model organisms and evolutionarily distant matches.
package ortholog
