package efl

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//ForestState is the plain content of a fitted forest: its shape and the node arrays of all trees.
type ForestState struct {
	Dim            int       `json:"dim"`
	SampleSize     int       `json:"sample_size"`
	DepthLimit     int       `json:"depth_limit"`
	ExtensionLevel int       `json:"extension_level"`
	Seed           uint64    `json:"seed"`
	Trees          []OneTree `json:"trees"`
}

//State returns the content of a fitted forest.
func (forest *Forest) State() (ForestState, error) {
	if !forest.IsFitted() {
		return ForestState{}, errors.WithStack(ErrNotFitted)
	}
	return ForestState{
		Dim:            forest.shape.dim,
		SampleSize:     forest.shape.sampleSize,
		DepthLimit:     forest.shape.depthLimit,
		ExtensionLevel: forest.shape.extensionLevel,
		Seed:           forest.seed,
		Trees:          forest.trees,
	}, nil
}

//NewForestFromState restores a fitted forest. Only ThreadsNum and Logger of params are used.
//Every tree is validated before the forest is returned.
func NewForestFromState(state ForestState, params Params) (*Forest, error) {
	if len(state.Trees) == 0 {
		return nil, errors.WithStack(ErrNotFitted)
	}
	if state.SampleSize < 2 {
		return nil, configurationErrorf("sample_size", "sample size must be at least 2, got %d", state.SampleSize)
	}
	if state.ExtensionLevel < 0 || state.ExtensionLevel > state.Dim-1 {
		return nil, configurationErrorf("extension_level", "extension level has to be an integer between 0 and %d, got %d", state.Dim-1, state.ExtensionLevel)
	}
	for treeInd, tree := range state.Trees {
		if tree.D != state.Dim || tree.DepthLimit != state.DepthLimit {
			return nil, errors.Errorf("tree %d has shape (%d, %d), expected (%d, %d)", treeInd, tree.D, tree.DepthLimit, state.Dim, state.DepthLimit)
		}
		if err := tree.Validate(state.SampleSize); err != nil {
			return nil, errors.Wrapf(err, "tree %d", treeInd)
		}
	}

	params.NTrees = len(state.Trees)
	forest := NewForest(params)
	forest.install(forestShape{
		dim:            state.Dim,
		sampleSize:     state.SampleSize,
		depthLimit:     state.DepthLimit,
		extensionLevel: state.ExtensionLevel,
	}, state.Seed, state.Trees)
	forest.logger.Debug("forest restored", zap.Int("trees", len(state.Trees)))
	return forest, nil
}
