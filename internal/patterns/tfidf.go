package patterns

import (
	"math"
	"strings"
	"unicode"
)

type sparseVec = map[int]float64

// tfidfIndex is a TF-IDF model over past entry descriptions, used to judge
// topical similarity between an issue's logged work and an account's
// history.
type tfidfIndex struct {
	vocab map[string]int
	idf   []float64
	vecs  []sparseVec
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// buildTFIDFIndex indexes one document per entry description. The vector at
// position i corresponds to docs[i].
func buildTFIDFIndex(docs []string) *tfidfIndex {
	if len(docs) == 0 {
		return &tfidfIndex{vocab: make(map[string]int)}
	}

	vocab := make(map[string]int)
	for _, doc := range docs {
		for _, tok := range tokenize(doc) {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
	}

	df := make([]int, len(vocab))
	vecs := make([]sparseVec, len(docs))
	n := float64(len(docs))

	for i, doc := range docs {
		tf := make(map[int]int)
		for _, tok := range tokenize(doc) {
			if idx, ok := vocab[tok]; ok {
				tf[idx]++
			}
		}
		vec := make(sparseVec, len(tf))
		for idx, count := range tf {
			vec[idx] = float64(count)
			df[idx]++
		}
		vecs[i] = vec
	}

	idf := make([]float64, len(vocab))
	for i, d := range df {
		if d > 0 {
			idf[i] = math.Log(n/float64(d)) + 1.0
		}
	}

	for _, vec := range vecs {
		for idx := range vec {
			vec[idx] *= idf[idx]
		}
	}

	return &tfidfIndex{vocab: vocab, idf: idf, vecs: vecs}
}

// queryVec projects arbitrary text onto the index vocabulary.
func (idx *tfidfIndex) queryVec(query string) sparseVec {
	tf := make(map[int]int)
	for _, tok := range tokenize(query) {
		if i, ok := idx.vocab[tok]; ok {
			tf[i]++
		}
	}
	vec := make(sparseVec, len(tf))
	for i, count := range tf {
		vec[i] = float64(count) * idx.idf[i]
	}
	return vec
}

func cosineSim(a, b sparseVec) float64 {
	var dot, normA, normB float64
	for i, va := range a {
		if vb, ok := b[i]; ok {
			dot += va * vb
		}
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
