package efl

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//TreeNode is a node of a tree. Tree is stored in an array in pre-order. LeftIndex and RightIndex are equal to -1
//when the current node is terminal otherwise they contain array indices of children.
//Size is the number of subsample points that reached the node.
type TreeNode struct {
	TreeNodeId int       `json:"id"`
	Normal     []float64 `json:"normal,omitempty"`
	Pdotn      float64   `json:"pdotn"`
	LeftIndex  int       `json:"left"`  // -1 if it is a terminal node
	RightIndex int       `json:"right"` // -1 if it is a terminal node
	Depth      int       `json:"depth"`
	Size       int       `json:"size"`
}

//NewTerminalNode creates a node that keeps only the number of points that reached it.
func NewTerminalNode(treeNodeId, depth, size int) TreeNode {
	return TreeNode{TreeNodeId: treeNodeId, LeftIndex: -1, RightIndex: -1, Depth: depth, Size: size}
}

//NewTreeNodeFromHyperplane creates an internal node splitting its points by the hyperplane.
//Children indices are filled in by BuildTree.
func NewTreeNodeFromHyperplane(hp Hyperplane, treeNodeId, depth, size int) TreeNode {
	treeNode := NewTerminalNode(treeNodeId, depth, size)
	treeNode.Normal = hp.Normal
	treeNode.Pdotn = hp.Pdotn
	return treeNode
}

//IsTerminal returns whether this node has no children.
func (node TreeNode) IsTerminal() bool {
	return node.LeftIndex == -1
}

//Hyperplane returns the split of an internal node.
func (node TreeNode) Hyperplane() Hyperplane {
	return Hyperplane{Normal: node.Normal, Pdotn: node.Pdotn}
}

//GraphDescription returns the description of a tree node for tree rendering as a graph
func (node TreeNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("#", node.Size))
	sb.WriteString(fmt.Sprintln("id: ", node.TreeNodeId))
	sb.WriteString(fmt.Sprintln("e: ", node.Depth))
	if node.IsTerminal() {
		return sb.String()
	}
	sb.WriteString("n = [")
	for ind, val := range node.Normal {
		if ind > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%.3f", val))
	}
	sb.WriteString("]\n")
	sb.WriteString(fmt.Sprintf("x·n < %6.5f", node.Pdotn))
	return sb.String()
}

//OneTree describes one tree in a forest.
type OneTree struct {
	D          int // the number of features
	DepthLimit int
	TreeNodes  []TreeNode
}

//NewTree builds one new tree from the subsample sub. The tree refers to sub only during the construction.
func NewTree(sub *mat.Dense, depthLimit, extensionLevel int, rnd *rand.Rand) (oneTree OneTree) {
	h, d := sub.Dims()
	oneTree.D = d
	oneTree.DepthLimit = depthLimit
	oneTree.TreeNodes = make([]TreeNode, 0, nodesCapacity(depthLimit, h))

	rows := make([]int, h)
	for p := range rows {
		rows[p] = p
	}

	(&oneTree).BuildTree(sub, rows, 0, extensionLevel, rnd)

	return
}

//nodesCapacity estimates the arena size; a tree never has more than 2^(depthLimit+1)-1 nodes.
func nodesCapacity(depthLimit, h int) int {
	full := math.MaxInt
	if depthLimit < 32 {
		full = 1<<(depthLimit+1) - 1
	}
	return min(full, 4*h)
}

//BuildTree recurrently builds a tree node for the rows of sub and returns its index.
//A node becomes terminal when the depth limit is reached or fewer than two points are left.
func (oneTree *OneTree) BuildTree(
	sub *mat.Dense,
	rows []int,
	currentDepth int,
	extensionLevel int,
	rnd *rand.Rand,
) int {
	treeNodeId := len(oneTree.TreeNodes)
	if currentDepth >= oneTree.DepthLimit || len(rows) < 2 {
		oneTree.TreeNodes = append(oneTree.TreeNodes, NewTerminalNode(treeNodeId, currentDepth, len(rows)))
		return treeNodeId
	}

	hp := SampleHyperplane(sub, rows, extensionLevel, rnd)
	oneTree.TreeNodes = append(oneTree.TreeNodes, NewTreeNodeFromHyperplane(hp, treeNodeId, currentDepth, len(rows)))

	leftRows, rightRows := partitionRows(sub, rows, hp)

	leftNodeId := oneTree.BuildTree(sub, leftRows, currentDepth+1, extensionLevel, rnd)
	oneTree.TreeNodes[treeNodeId].LeftIndex = leftNodeId

	rightNodeId := oneTree.BuildTree(sub, rightRows, currentDepth+1, extensionLevel, rnd)
	oneTree.TreeNodes[treeNodeId].RightIndex = rightNodeId

	return treeNodeId
}

//TerminalCount returns the number of terminal nodes.
func (tree OneTree) TerminalCount() int {
	count := 0
	for _, node := range tree.TreeNodes {
		if node.IsTerminal() {
			count++
		}
	}
	return count
}

//DecisionPath returns the sequence of turns ('L' or 'R') x takes from the root to a terminal node.
func (tree OneTree) DecisionPath(x []float64) string {
	var sb strings.Builder
	ind := 0
	for !tree.TreeNodes[ind].IsTerminal() {
		node := tree.TreeNodes[ind]
		if node.Hyperplane().GoesLeft(x) {
			sb.WriteByte('L')
			ind = node.LeftIndex
		} else {
			sb.WriteByte('R')
			ind = node.RightIndex
		}
	}
	return sb.String()
}

//Validate checks the structure of a tree: children are stored after their parent, children partition the
//points of their parent, depths do not exceed the limit and terminal sizes sum to sampleSize.
func (tree OneTree) Validate(sampleSize int) error {
	if len(tree.TreeNodes) == 0 {
		return errors.New("tree has no nodes")
	}
	terminalSum := 0
	for ind, node := range tree.TreeNodes {
		if node.Depth > tree.DepthLimit {
			return errors.Errorf("node %d has depth %d over the limit %d", ind, node.Depth, tree.DepthLimit)
		}
		if node.IsTerminal() {
			if node.RightIndex != -1 {
				return errors.Errorf("node %d has only one child", ind)
			}
			terminalSum += node.Size
			continue
		}
		if len(node.Normal) != tree.D {
			return errors.Errorf("node %d has a normal of length %d, expected %d", ind, len(node.Normal), tree.D)
		}
		for _, child := range []int{node.LeftIndex, node.RightIndex} {
			if child <= ind || child >= len(tree.TreeNodes) {
				return errors.Errorf("node %d refers to a child %d out of order", ind, child)
			}
			if tree.TreeNodes[child].Depth != node.Depth+1 {
				return errors.Errorf("node %d has a child %d at depth %d", ind, child, tree.TreeNodes[child].Depth)
			}
		}
		if tree.TreeNodes[node.LeftIndex].Size+tree.TreeNodes[node.RightIndex].Size != node.Size {
			return errors.Errorf("children of node %d do not partition its %d points", ind, node.Size)
		}
	}
	if terminalSum != sampleSize {
		return errors.Errorf("terminal sizes sum to %d, expected %d", terminalSum, sampleSize)
	}
	return nil
}

func recurrentDraw(g *cgraph.Graph, tree OneTree, nodeNumber int, parentNode *cgraph.Node) error {
	currentNode, err := g.CreateNode(fmt.Sprint(tree.TreeNodes[nodeNumber].TreeNodeId))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err := g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	currentNode.SetLabel(tree.TreeNodes[nodeNumber].GraphDescription())
	if tree.TreeNodes[nodeNumber].IsTerminal() {
		currentNode.SetShape(cgraph.BoxShape)
		return nil
	}
	if err := recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].LeftIndex, currentNode); err != nil {
		return err
	}
	return recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].RightIndex, currentNode)
}

//DrawGraph renders the tree into a graphviz graph. The caller closes both returned objects.
func (tree OneTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		return nil, nil, err
	}

	if err := recurrentDraw(graph, tree, 0, nil); err != nil {
		_ = graph.Close()
		_ = graphViz.Close()
		return nil, nil, err
	}

	return graphViz, graph, nil
}
