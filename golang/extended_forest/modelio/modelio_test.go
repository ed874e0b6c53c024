package modelio

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/extended_isolation_forest/golang/extended_forest/efl"
)

func generateDataset(rows, w int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewPCG(seed, 0))
	data := make([]float64, rows*w)
	for ind := range data {
		data[ind] = rnd.NormFloat64()
	}
	return mat.NewDense(rows, w, data)
}

func fittedForest(t *testing.T, featuresMatrix *mat.Dense) *efl.Forest {
	seed := uint64(3)
	forest := efl.NewForest(efl.Params{NTrees: 12, Seed: &seed})
	require.NoError(t, forest.Fit(featuresMatrix))
	return forest
}

func TestSaveLoad(t *testing.T) {
	featuresMatrix := generateDataset(300, 3, 1)
	forest := fittedForest(t, featuresMatrix)

	modelFileName := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, Save(modelFileName, forest))

	restored, err := Load(modelFileName, efl.Params{ThreadsNum: 1})
	require.NoError(t, err)
	assert.Equal(t, forest.Trees(), restored.Trees())
	assert.Equal(t, forest.Seed(), restored.Seed())
	assert.Equal(t, forest.DepthLimit(), restored.DepthLimit())

	expected, err := forest.ScoreSamples(featuresMatrix)
	require.NoError(t, err)
	actual, err := restored.ScoreSamples(featuresMatrix)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestSaveUnfitted(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "model.json"), efl.NewForest(efl.DefaultParams()))
	assert.ErrorIs(t, err, efl.ErrNotFitted)
}

func TestLoadBrokenModel(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"), efl.Params{})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{\"trees\": ["), 0o644))
	_, err = Load(garbage, efl.Params{})
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"dim": 2, "sample_size": 10, "trees": []}`), 0o644))
	_, err = Load(empty, efl.Params{})
	assert.ErrorIs(t, err, efl.ErrNotFitted)
}

func TestMatrixRoundTrip(t *testing.T) {
	featuresMatrix := generateDataset(20, 4, 2)
	fileName := filepath.Join(t.TempDir(), "features.npy")
	require.NoError(t, WriteMatrix(fileName, featuresMatrix))

	read, err := ReadNpy(fileName)
	require.NoError(t, err)
	assert.True(t, mat.Equal(featuresMatrix, read))
}

func TestReadNpyRejectsVectors(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "scores.npy")
	require.NoError(t, WriteScores(fileName, []float64{0.1, 0.2, 0.3}))

	_, err := ReadNpy(fileName)
	assert.Error(t, err)
}

func TestWriteScores(t *testing.T) {
	scores := []float64{0.25, 0.5, 0.75}
	fileName := filepath.Join(t.TempDir(), "scores.npy")
	require.NoError(t, WriteScores(fileName, scores))

	f, err := os.Open(fileName)
	require.NoError(t, err)
	defer f.Close()

	var read []float64
	require.NoError(t, npyio.Read(f, &read))
	assert.Equal(t, scores, read)
}

func TestWriteTensor(t *testing.T) {
	featuresMatrix := generateDataset(40, 2, 4)
	forest := fittedForest(t, featuresMatrix)

	pathLengths, err := forest.PathLengths(featuresMatrix)
	require.NoError(t, err)
	fileName := filepath.Join(t.TempDir(), "paths.npy")
	require.NoError(t, WriteTensor(fileName, pathLengths))

	read, err := ReadNpy(fileName)
	require.NoError(t, err)
	h, w := read.Dims()
	require.Equal(t, 40, h)
	require.Equal(t, 12, w)

	column, err := forest.TreePathLengths(featuresMatrix, 5)
	require.NoError(t, err)
	assert.Equal(t, column, mat.Col(nil, 5, read))
}
