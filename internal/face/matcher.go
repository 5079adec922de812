// Package face implements visitor enrollment and verification on top of an
// external face-embedding extractor.
package face

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns the directional closeness of two embeddings,
// in [-1, 1].
func CosineSimilarity(a, b []float64) float64 {
	return floats.Dot(a, b) / (math.Sqrt(floats.Dot(a, a)) * math.Sqrt(floats.Dot(b, b)))
}

// FindBestMatch scans the gallery linearly and returns the identifier with
// the highest cosine similarity to the query.
//
// The running best starts at 0.0, not -1.0: a gallery where every candidate
// scores negative reports ("", 0.0) rather than the true best negative
// score. The unknown-visitor boundary depends on this, so it stays.
func FindBestMatch(query []float64, gallery map[string][]float64) (string, float64) {
	bestID, bestSim := "", 0.0
	for id, emb := range gallery {
		if len(emb) != len(query) {
			continue
		}
		sim := CosineSimilarity(query, emb)
		if sim > bestSim {
			bestID, bestSim = id, sim
		}
	}
	return bestID, bestSim
}
