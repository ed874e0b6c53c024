package efl

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

//Hyperplane is a random split of the feature space. Points with x·Normal < Pdotn belong to the left side,
//all the other points (ties included) belong to the right side.
type Hyperplane struct {
	Normal []float64
	Pdotn  float64
}

//GoesLeft checks whether x lies strictly on the left side of the hyperplane.
func (hp Hyperplane) GoesLeft(x []float64) bool {
	return floats.Dot(x, hp.Normal) < hp.Pdotn
}

//SampleHyperplane draws a random hyperplane crossing the bounding box of the rows of sub listed in rows.
//The normal vector is drawn from the standard normal distribution and then D-extensionLevel-1 of its
//components, selected without replacement, are set to zero. The intercept point is drawn uniformly from
//the bounding box.
func SampleHyperplane(sub *mat.Dense, rows []int, extensionLevel int, rnd *rand.Rand) Hyperplane {
	_, d := sub.Dims()

	normal := make([]float64, d)
	for q := range normal {
		normal[q] = rnd.NormFloat64()
	}

	if zeroed := d - extensionLevel - 1; zeroed > 0 {
		zeroIndices := make([]int, zeroed)
		sampleuv.WithoutReplacement(zeroIndices, d, rnd)
		for _, q := range zeroIndices {
			normal[q] = 0
		}
	}

	mins, maxs := boundingBox(sub, rows)
	point := make([]float64, d)
	for q := range point {
		point[q] = mins[q] + rnd.Float64()*(maxs[q]-mins[q])
	}

	return Hyperplane{Normal: normal, Pdotn: floats.Dot(point, normal)}
}

//boundingBox returns per-feature minimums and maximums over the selected rows.
func boundingBox(sub *mat.Dense, rows []int) (mins, maxs []float64) {
	_, d := sub.Dims()
	mins = make([]float64, d)
	maxs = make([]float64, d)
	copy(mins, sub.RawRowView(rows[0]))
	copy(maxs, mins)

	for _, r := range rows[1:] {
		row := sub.RawRowView(r)
		for q, val := range row {
			if val < mins[q] {
				mins[q] = val
			}
			if val > maxs[q] {
				maxs[q] = val
			}
		}
	}
	return
}

//partitionRows reorders rows in place so that the rows going left of hp come first.
func partitionRows(sub *mat.Dense, rows []int, hp Hyperplane) (left, right []int) {
	k := 0
	for p := range rows {
		if hp.GoesLeft(sub.RawRowView(rows[p])) {
			rows[k], rows[p] = rows[p], rows[k]
			k++
		}
	}
	return rows[:k], rows[k:]
}
