package efl

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

//GenerateCluster returns rows drawn from a standard normal distribution in w dimensions.
func GenerateCluster(rows, w int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewPCG(seed, 0))
	data := make([]float64, rows*w)
	for ind := range data {
		data[ind] = rnd.NormFloat64()
	}
	return mat.NewDense(rows, w, data)
}

//GenerateClusterWithOutliers appends outliers rows placed at center (plus jitter) to a standard normal cluster.
func GenerateClusterWithOutliers(rows, outliers int, center []float64, jitter float64, seed uint64) *mat.Dense {
	w := len(center)
	rnd := rand.New(rand.NewPCG(seed, 1))
	featuresMatrix := mat.NewDense(rows+outliers, w, nil)
	featuresMatrix.Slice(0, rows, 0, w).(*mat.Dense).Copy(GenerateCluster(rows, w, seed))
	for p := rows; p < rows+outliers; p++ {
		for q := 0; q < w; q++ {
			featuresMatrix.Set(p, q, center[q]+jitter*rnd.NormFloat64())
		}
	}
	return featuresMatrix
}

func intPtr(val int) *int { return &val }

func seedPtr(val uint64) *uint64 { return &val }

func mean(values []float64) float64 {
	sum := 0.0
	for _, val := range values {
		sum += val
	}
	return sum / float64(len(values))
}

func countNonZero(values []float64) int {
	count := 0
	for _, val := range values {
		if val != 0 {
			count++
		}
	}
	return count
}
