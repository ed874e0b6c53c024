package efl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//EulerGamma is the Euler–Mascheroni constant.
const EulerGamma = 0.5772156649

//CFactor is the average path length of an unsuccessful search in a binary search tree built over n points.
//It is defined for n >= 2 only.
func CFactor(n int) float64 {
	if n <= 1 {
		panic(fmt.Sprintf("c factor is undefined for %d points", n))
	}
	nd := float64(n)
	return 2.0*(math.Log(nd-1.0)+EulerGamma) - 2.0*(nd-1.0)/nd
}

//correction estimates the remaining path length inside a terminal node holding size points.
func correction(size int) float64 {
	if size > 1 {
		return CFactor(size)
	}
	return 0
}

//PathLength returns the depth of the terminal node reached by x plus the correction for its size.
func (tree OneTree) PathLength(x []float64) float64 {
	return tree.pathFrom(0, x, 0)
}

func (tree OneTree) pathFrom(ind int, x []float64, e int) float64 {
	node := tree.TreeNodes[ind]
	if node.IsTerminal() {
		return float64(e) + correction(node.Size)
	}
	if floats.Dot(x, node.Normal) < node.Pdotn {
		return tree.pathFrom(node.LeftIndex, x, e+1)
	}
	return tree.pathFrom(node.RightIndex, x, e+1)
}

//BatchPathLengths evaluates path lengths for all rows of featuresMatrix at once, moving every row one level
//down per pass. The path length of row p is written into dst[p*stride].
func (tree OneTree) BatchPathLengths(featuresMatrix *mat.Dense, dst []float64, stride int) {
	h, _ := featuresMatrix.Dims()

	root := tree.TreeNodes[0]
	if root.IsTerminal() {
		for p := 0; p < h; p++ {
			dst[p*stride] = correction(root.Size)
		}
		return
	}

	active := make([]int, h)
	position := make([]int, h)
	for p := range active {
		active[p] = p
	}

	for e := 0; len(active) > 0; e++ {
		if e >= tree.DepthLimit {
			panic(fmt.Sprintf("%d rows are still active at the depth limit %d", len(active), tree.DepthLimit))
		}
		stillActive := active[:0]
		for _, p := range active {
			node := tree.TreeNodes[position[p]]
			child := node.RightIndex
			if floats.Dot(featuresMatrix.RawRowView(p), node.Normal) < node.Pdotn {
				child = node.LeftIndex
			}
			if childNode := tree.TreeNodes[child]; childNode.IsTerminal() {
				dst[p*stride] = float64(e+1) + correction(childNode.Size)
				continue
			}
			position[p] = child
			stillActive = append(stillActive, p)
		}
		active = stillActive
	}
}
