package modelio

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/tarstars/extended_isolation_forest/golang/extended_forest/efl"
)

//Save stores the node arrays of a fitted forest as JSON.
func Save(filename string, forest *efl.Forest) (err error) {
	state, err := forest.State()
	if err != nil {
		return err
	}

	dest, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "can't open file %s to write", filename)
	}
	defer func() {
		if closeErr := dest.Close(); err == nil {
			err = closeErr
		}
	}()

	modelByteRepr, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode model")
	}
	_, err = dest.Write(modelByteRepr)
	return errors.Wrap(err, "write model")
}

//Load restores a forest saved by Save. Only ThreadsNum and Logger of params are used.
func Load(filename string, params efl.Params) (*efl.Forest, error) {
	source, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer func() { _ = source.Close() }()

	var state efl.ForestState
	if err := json.NewDecoder(source).Decode(&state); err != nil {
		return nil, errors.Wrapf(err, "decode model %s", filename)
	}
	return efl.NewForestFromState(state, params)
}
