package efl

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
	"gorgonia.org/tensor"
)

const (
	DefaultTreesNumber = 200
	DefaultSampleSize  = 256
	DefaultCutoff      = 0.5
)

//SampleSizePolicy decides what Fit does when the requested sample size exceeds the number of rows.
type SampleSizePolicy int

const (
	//SampleSizeClamp reduces the sample size to the number of rows.
	SampleSizeClamp SampleSizePolicy = iota
	//SampleSizeReject fails with a ConfigurationError.
	SampleSizeReject
)

//Params collect arguments required to construct a forest. Zero values of SampleSize and DepthLimit and nil
//ExtensionLevel and Seed select the defaults.
type Params struct {
	NTrees           int
	SampleSize       int  // min(256, N) when zero
	DepthLimit       int  // ceil(log2(SampleSize)) when zero
	ExtensionLevel   *int // D-1 when nil
	Seed             *uint64
	SampleSizePolicy SampleSizePolicy
	ThreadsNum       int // GOMAXPROCS when zero
	Logger           *zap.Logger
}

//DefaultParams returns parameters of a fully extended forest of 200 trees.
func DefaultParams() Params {
	return Params{NTrees: DefaultTreesNumber}
}

//forestShape is a validated configuration for a dataset of a known shape.
type forestShape struct {
	dim            int
	sampleSize     int
	depthLimit     int
	extensionLevel int
}

func (params Params) resolve(h, w int) (shape forestShape, err error) {
	if h == 0 || w == 0 {
		return shape, errors.WithStack(ErrEmptyDataset)
	}
	if params.NTrees <= 0 {
		return shape, configurationErrorf("ntrees", "number of trees must be positive, got %d", params.NTrees)
	}

	shape.dim = w
	shape.sampleSize = params.SampleSize
	switch {
	case shape.sampleSize < 0:
		return shape, configurationErrorf("sample_size", "sample size must be an integer between 2 and %d, got %d", h, shape.sampleSize)
	case shape.sampleSize == 0:
		shape.sampleSize = min(DefaultSampleSize, h)
	case shape.sampleSize > h:
		if params.SampleSizePolicy == SampleSizeReject {
			return shape, configurationErrorf("sample_size", "no. of data points is %d, sample size cannot be larger than %d", h, h)
		}
		shape.sampleSize = h
	}
	if shape.sampleSize <= 1 {
		return shape, configurationErrorf("sample_size", "sample size must be an integer between 2 and %d, got %d", h, shape.sampleSize)
	}

	shape.extensionLevel = w - 1
	if params.ExtensionLevel != nil {
		shape.extensionLevel = *params.ExtensionLevel
	}
	if shape.extensionLevel < 0 || shape.extensionLevel > w-1 {
		return shape, configurationErrorf("extension_level", "extension level has to be an integer between 0 and %d, got %d", w-1, shape.extensionLevel)
	}

	switch {
	case params.DepthLimit < 0:
		return shape, configurationErrorf("depth_limit", "depth limit must not be negative, got %d", params.DepthLimit)
	case params.DepthLimit == 0:
		shape.depthLimit = DefaultDepthLimit(shape.sampleSize)
	default:
		shape.depthLimit = params.DepthLimit
	}
	return shape, nil
}

//DefaultDepthLimit is the average depth of an unsuccessful search, ceil(log2(sampleSize)).
func DefaultDepthLimit(sampleSize int) int {
	return int(math.Ceil(math.Log2(float64(sampleSize))))
}

//Forest is the model class. Trees are immutable once Fit returns, so a fitted forest can be scored from many
//goroutines at once.
type Forest struct {
	params Params
	logger *zap.Logger

	shape forestShape
	seed  uint64
	c     float64
	trees []OneTree
}

//NewForest creates an unfitted forest.
func NewForest(params Params) *Forest {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forest{params: params, logger: logger}
}

//Fit builds the trees on the rows of featuresMatrix.
func (forest *Forest) Fit(featuresMatrix *mat.Dense) error {
	return forest.FitContext(context.Background(), featuresMatrix)
}

//FitContext builds the trees checking ctx between trees. Trees are built concurrently; tree treeInd draws
//all its randomness from a PCG stream seeded by (seed, treeInd), so the result does not depend on
//ThreadsNum. On failure the forest keeps its previous state.
func (forest *Forest) FitContext(ctx context.Context, featuresMatrix *mat.Dense) error {
	h, w := featuresMatrix.Dims()
	shape, err := forest.params.resolve(h, w)
	if err != nil {
		return err
	}

	seed := rand.Uint64()
	if forest.params.Seed != nil {
		seed = *forest.params.Seed
	}

	trees := make([]OneTree, forest.params.NTrees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(forest.threadsNum())
	for treeInd := range trees {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewPCG(seed, uint64(treeInd)))
			sub := drawSubsample(featuresMatrix, shape.sampleSize, rnd)
			trees[treeInd] = NewTree(sub, shape.depthLimit, shape.extensionLevel, rnd)
			forest.logger.Debug("tree built",
				zap.Int("tree", treeInd),
				zap.Int("nodes", len(trees[treeInd].TreeNodes)),
				zap.Int("terminals", trees[treeInd].TerminalCount()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "fit interrupted")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "fit interrupted")
	}

	forest.install(shape, seed, trees)
	forest.logger.Info("forest fitted",
		zap.Int("trees", len(trees)),
		zap.Int("sample_size", shape.sampleSize),
		zap.Int("depth_limit", shape.depthLimit),
		zap.Int("extension_level", shape.extensionLevel),
		zap.Uint64("seed", seed),
	)
	return nil
}

func (forest *Forest) install(shape forestShape, seed uint64, trees []OneTree) {
	forest.shape = shape
	forest.seed = seed
	forest.c = CFactor(shape.sampleSize)
	forest.trees = trees
}

func (forest *Forest) threadsNum() int {
	if forest.params.ThreadsNum > 0 {
		return forest.params.ThreadsNum
	}
	return runtime.GOMAXPROCS(0)
}

//drawSubsample copies sampleSize rows of featuresMatrix chosen uniformly without replacement.
func drawSubsample(featuresMatrix *mat.Dense, sampleSize int, rnd *rand.Rand) *mat.Dense {
	h, w := featuresMatrix.Dims()
	recordIds := make([]int, sampleSize)
	sampleuv.WithoutReplacement(recordIds, h, rnd)

	sub := mat.NewDense(sampleSize, w, nil)
	for p, recordId := range recordIds {
		sub.SetRow(p, featuresMatrix.RawRowView(recordId))
	}
	return sub
}

//IsFitted reports whether the forest holds trees.
func (forest *Forest) IsFitted() bool { return len(forest.trees) > 0 }

func (forest *Forest) Dim() int            { return forest.shape.dim }
func (forest *Forest) SampleSize() int     { return forest.shape.sampleSize }
func (forest *Forest) DepthLimit() int     { return forest.shape.depthLimit }
func (forest *Forest) ExtensionLevel() int { return forest.shape.extensionLevel }
func (forest *Forest) Seed() uint64        { return forest.seed }

//Trees returns the fitted trees. They must not be modified.
func (forest *Forest) Trees() []OneTree { return forest.trees }

//Tree returns the tree number treeInd.
func (forest *Forest) Tree(treeInd int) (OneTree, error) {
	if treeInd < 0 || treeInd >= len(forest.trees) {
		return OneTree{}, errors.Wrapf(ErrTreeIndex, "tree %d of %d", treeInd, len(forest.trees))
	}
	return forest.trees[treeInd], nil
}

func (forest *Forest) checkQuery(featuresMatrix *mat.Dense) (int, error) {
	if !forest.IsFitted() {
		return 0, errors.WithStack(ErrNotFitted)
	}
	h, w := featuresMatrix.Dims()
	if h == 0 || w == 0 {
		return 0, errors.WithStack(ErrEmptyDataset)
	}
	if w != forest.shape.dim {
		return 0, errors.Wrapf(ErrDimensionMismatch, "got %d features, expected %d", w, forest.shape.dim)
	}
	return h, nil
}

//PathLengths returns the path lengths of every row in every tree as a tensor of shape (rows, trees).
func (forest *Forest) PathLengths(featuresMatrix *mat.Dense) (*tensor.Dense, error) {
	return forest.PathLengthsContext(context.Background(), featuresMatrix)
}

//PathLengthsContext evaluates trees concurrently, checking ctx between trees. Every tree writes only its own
//column of the result.
func (forest *Forest) PathLengthsContext(ctx context.Context, featuresMatrix *mat.Dense) (*tensor.Dense, error) {
	h, err := forest.checkQuery(featuresMatrix)
	if err != nil {
		return nil, err
	}

	treesNumber := len(forest.trees)
	backing := make([]float64, h*treesNumber)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(forest.threadsNum())
	for treeInd, tree := range forest.trees {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree.BatchPathLengths(featuresMatrix, backing[treeInd:], treesNumber)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scoring interrupted")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "scoring interrupted")
	}

	return tensor.New(tensor.WithShape(h, treesNumber), tensor.WithBacking(backing)), nil
}

//TreePathLengths returns the path lengths of every row in the tree number treeInd.
func (forest *Forest) TreePathLengths(featuresMatrix *mat.Dense, treeInd int) ([]float64, error) {
	h, err := forest.checkQuery(featuresMatrix)
	if err != nil {
		return nil, err
	}
	tree, err := forest.Tree(treeInd)
	if err != nil {
		return nil, err
	}
	pathLengths := make([]float64, h)
	tree.BatchPathLengths(featuresMatrix, pathLengths, 1)
	return pathLengths, nil
}

//AveragePathLengths returns the path length of every row averaged over trees.
func (forest *Forest) AveragePathLengths(featuresMatrix *mat.Dense) ([]float64, error) {
	return forest.AveragePathLengthsContext(context.Background(), featuresMatrix)
}

//AveragePathLengthsContext is AveragePathLengths with cooperative cancellation.
func (forest *Forest) AveragePathLengthsContext(ctx context.Context, featuresMatrix *mat.Dense) ([]float64, error) {
	pathLengths, err := forest.PathLengthsContext(ctx, featuresMatrix)
	if err != nil {
		return nil, err
	}

	shape := pathLengths.Shape()
	h, treesNumber := shape[0], shape[1]
	data := pathLengths.Float64s()

	averages := make([]float64, h)
	for p := range averages {
		sum := 0.0
		for _, val := range data[p*treesNumber : (p+1)*treesNumber] {
			sum += val
		}
		averages[p] = sum / float64(treesNumber)
	}
	return averages, nil
}

//ScoreSamples returns the anomaly score 2^(-E[h(x)]/c(sampleSize)) of every row. Scores close to 1 mark
//anomalies, scores well below 0.5 mark normal points.
func (forest *Forest) ScoreSamples(featuresMatrix *mat.Dense) ([]float64, error) {
	return forest.ScoreSamplesContext(context.Background(), featuresMatrix)
}

//ScoreSamplesContext is ScoreSamples with cooperative cancellation.
func (forest *Forest) ScoreSamplesContext(ctx context.Context, featuresMatrix *mat.Dense) ([]float64, error) {
	scores, err := forest.AveragePathLengthsContext(ctx, featuresMatrix)
	if err != nil {
		return nil, err
	}
	for p, avg := range scores {
		scores[p] = math.Pow(2.0, -avg/forest.c)
	}
	return scores, nil
}

//Predict marks rows with a score not less than cutoff as anomalies.
func (forest *Forest) Predict(featuresMatrix *mat.Dense, cutoff float64) ([]bool, error) {
	scores, err := forest.ScoreSamples(featuresMatrix)
	if err != nil {
		return nil, err
	}
	return Threshold(scores, cutoff), nil
}

//Threshold converts scores into anomaly flags.
func Threshold(scores []float64, cutoff float64) []bool {
	anomalies := make([]bool, len(scores))
	for p, score := range scores {
		anomalies[p] = score >= cutoff
	}
	return anomalies
}
