package efl

import (
	"fmt"

	"github.com/pkg/errors"
)

//ConfigurationError reports an invalid forest parameter. It is returned by Fit before any tree is built,
//retrying with the same parameters fails the same way.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func configurationErrorf(param, format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{Param: param, Reason: fmt.Sprintf(format, args...)})
}

var (
	ErrNotFitted         = errors.New("forest is not fitted")
	ErrDimensionMismatch = errors.New("number of features differs from the training data")
	ErrTreeIndex         = errors.New("tree index out of range")
	ErrEmptyDataset      = errors.New("dataset is empty")
)
