package modelio

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//ReadNpy reads a two-dimensional float64 array stored in an npy file.
func ReadNpy(fileName string) (denseMat *mat.Dense, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open npy")
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read npy header of %s", fileName)
	}
	if len(r.Header.Descr.Shape) != 2 {
		return nil, errors.Errorf("%s holds an array of shape %v, a matrix is expected", fileName, r.Header.Descr.Shape)
	}

	denseMat = &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, errors.Wrapf(err, "read npy data of %s", fileName)
	}
	return denseMat, nil
}

func writeNpy(fileName string, val interface{}) (err error) {
	dst, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "create npy")
	}
	defer func() {
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
	}()
	return errors.Wrapf(npyio.Write(dst, val), "write npy %s", fileName)
}

//WriteScores stores one score per row.
func WriteScores(fileName string, scores []float64) error {
	return writeNpy(fileName, scores)
}

//WriteLabels stores one anomaly flag per row.
func WriteLabels(fileName string, labels []bool) error {
	return writeNpy(fileName, labels)
}

//WriteMatrix stores a matrix, e.g. a dataset generated for experiments.
func WriteMatrix(fileName string, m *mat.Dense) error {
	return writeNpy(fileName, m)
}

//WriteTensor stores a tensor such as the path length table of a forest.
func WriteTensor(fileName string, t *tensor.Dense) (err error) {
	dst, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "create npy")
	}
	defer func() {
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
	}()
	return errors.Wrapf(t.WriteNpy(dst), "write npy %s", fileName)
}
