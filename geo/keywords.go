package geo

import (
	"regexp"
	"strings"
)

// Special column names. A platform maps each of these onto one of its own
// column titles when it can find a confident match.
const (
	GeneSymbol   = "GENE_SYMBOL"
	EntrezGeneID = "ENTREZ_GENE_ID"
	EnsemblID    = "ENSEMBL_ID"
	RefSeqAcc    = "REFSEQ_ACC"
	GenBankAcc   = "GENBANK_ACC"
	SNPID        = "SNP_ID"
	Chromosome   = "CHROMOSOME"
	Location     = "LOCATION"

	// meta keywords are matched against platform attributes, not columns.
	meta = "META"
)

type keywordSet map[string]struct{}

func words(ws ...string) keywordSet {
	out := make(keywordSet, len(ws))
	for _, w := range ws {
		out[w] = struct{}{}
	}
	return out
}

var keywords = map[StudyType]map[string]keywordSet{
	StudyExpression: {
		meta:         words("expression", "eqtl", "transcript", "mrna"),
		GeneSymbol:   words("gene", "symbol", "sym", "genesym", "genesymbol"),
		EntrezGeneID: words("entrez", "entrezid"),
		EnsemblID:    words("ensembl", "ensemblid"),
		RefSeqAcc:    words("refseq", "refseqacc", "refseqaccession"),
		GenBankAcc:   words("gb", "acc", "genbank", "accession", "genbankaccession"),
	},
	StudySNP: {
		meta:       words("snp", "nucleotide", "genotyping", "polymorphism"),
		SNPID:      words("snp", "id", "rs", "snpid", "ncbi"),
		Chromosome: words("chromosome", "chrom", "chr", "ch"),
		Location:   words("mapinfo", "map", "info", "loci", "locus", "loc", "location", "pos", "position"),
	},
}

// Preferred order when looking for something that names a gene.
var geneNameOrder = []string{GeneSymbol, EntrezGeneID, EnsemblID, RefSeqAcc, GenBankAcc}

// Evaluated in a fixed order so ties resolve the same way on every run.
var guessOrder = []StudyType{StudyExpression, StudySNP}

var rxNonLetters = regexp.MustCompile(`[^a-z]+`)

func wordSet(s string) keywordSet {
	out := make(keywordSet)
	for _, w := range rxNonLetters.Split(strings.ToLower(s), -1) {
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

func overlap(a, b keywordSet) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// keywordScore weighs hits in a column title twice as heavily as hits in its
// description.
func keywordScore(title, desc string, kw keywordSet) int {
	return 2*overlap(kw, wordSet(title)) + overlap(kw, wordSet(desc))
}
