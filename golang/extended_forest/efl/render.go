package efl

import (
	"fmt"
	"path"

	"github.com/goccy/go-graphviz"
	"github.com/pkg/errors"
)

var graphvizFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
}

//RenderTrees draws every tree of the forest into picturesDirectory as <dumpPrefix>_<tree>.<figureType>.
func (forest *Forest) RenderTrees(dumpPrefix, figureType, picturesDirectory string) error {
	graphvizType, ok := graphvizFormats[figureType]
	if !ok {
		return errors.Errorf("unsupported figure type %q", figureType)
	}

	for graphInd, currentTree := range forest.trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		if err := renderTree(currentTree, graphvizType, path.Join(picturesDirectory, filename)); err != nil {
			return errors.Wrapf(err, "render tree %d", graphInd)
		}
	}
	return nil
}

func renderTree(tree OneTree, format graphviz.Format, filename string) error {
	graphViz, graph, err := tree.DrawGraph()
	if err != nil {
		return err
	}
	defer func() {
		_ = graph.Close()
		_ = graphViz.Close()
	}()
	return graphViz.RenderFilename(graph, format, filename)
}
