package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tarstars/extended_isolation_forest/golang/extended_forest/efl"
)

//ForestConfig holds the hyper parameters of a forest. Omitted extension_level and seed select the defaults.
type ForestConfig struct {
	NTrees           int     `mapstructure:"ntrees"`
	SampleSize       int     `mapstructure:"sample_size"`
	DepthLimit       int     `mapstructure:"depth_limit"`
	ExtensionLevel   *int    `mapstructure:"extension_level"`
	Seed             *uint64 `mapstructure:"seed"`
	RejectOversample bool    `mapstructure:"reject_oversample"`
	ThreadsNum       int     `mapstructure:"threads_num"`
}

type TrainConfig struct {
	FileNameTrain  string `mapstructure:"filename_train"`
	FileNameModel  string `mapstructure:"filename_model"`
	FileNameScores string `mapstructure:"filename_scores"`
	ForestConfig   `mapstructure:",squash"`
}

type ScoreConfig struct {
	DataFileName      string  `mapstructure:"filename_features"`
	ModelFileName     string  `mapstructure:"filename_model"`
	ScoresFileName    string  `mapstructure:"filename_scores"`
	HistogramFileName string  `mapstructure:"filename_histogram"`
	Cutoff            float64 `mapstructure:"cutoff"`
	ThreadsNum        int     `mapstructure:"threads_num"`
}

type PredictConfig struct {
	DataFileName   string  `mapstructure:"filename_features"`
	ModelFileName  string  `mapstructure:"filename_model"`
	LabelsFileName string  `mapstructure:"filename_labels"`
	Cutoff         float64 `mapstructure:"cutoff"`
	ThreadsNum     int     `mapstructure:"threads_num"`
}

type PathsConfig struct {
	DataFileName  string `mapstructure:"filename_features"`
	ModelFileName string `mapstructure:"filename_model"`
	PathsFileName string `mapstructure:"filename_paths"`
	ThreadsNum    int    `mapstructure:"threads_num"`
}

type GraphConfig struct {
	ModelFileName     string `mapstructure:"filename_model"`
	FigureType        string `mapstructure:"figure_type"`
	PicturesDirectory string `mapstructure:"pictures_directory"`
	DumpPrefix        string `mapstructure:"dump_prefix"`
}

var configDefaults = map[string]interface{}{
	"filename_train":     "",
	"filename_features":  "",
	"filename_model":     "model.eif.json",
	"filename_scores":    "",
	"filename_histogram": "",
	"filename_labels":    "labels.npy",
	"filename_paths":     "paths.npy",
	"ntrees":             efl.DefaultTreesNumber,
	"sample_size":        0,
	"depth_limit":        0,
	"reject_oversample":  false,
	"threads_num":        0,
	"cutoff":             efl.DefaultCutoff,
	"figure_type":        "svg",
	"pictures_directory": ".",
	"dump_prefix":        "tree",
}

//decodeConfig fills out from the config file srcConfig (JSON or YAML, optional) on top of the defaults.
//Every key can be overridden by an EIF_<KEY> environment variable.
func decodeConfig(srcConfig string, out interface{}) error {
	v := viper.New()
	v.SetEnvPrefix("eif")
	v.AutomaticEnv()
	for key, val := range configDefaults {
		v.SetDefault(key, val)
	}

	if srcConfig != "" {
		v.SetConfigFile(srcConfig)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", srcConfig)
		}
	}
	return errors.Wrap(v.Unmarshal(out), "decode config")
}

//Params converts the config into forest parameters.
func (cfg ForestConfig) Params() efl.Params {
	params := efl.Params{
		NTrees:         cfg.NTrees,
		SampleSize:     cfg.SampleSize,
		DepthLimit:     cfg.DepthLimit,
		ExtensionLevel: cfg.ExtensionLevel,
		Seed:           cfg.Seed,
		ThreadsNum:     cfg.ThreadsNum,
	}
	if cfg.RejectOversample {
		params.SampleSizePolicy = efl.SampleSizeReject
	}
	return params
}
