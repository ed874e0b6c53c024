package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/extended_isolation_forest/golang/extended_forest/efl"
	"github.com/tarstars/extended_isolation_forest/golang/extended_forest/modelio"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "fit a forest on an npy dataset and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		var trainConfig TrainConfig
		if err := decodeConfig(configFile, &trainConfig); err != nil {
			return err
		}
		return train(cmd, trainConfig)
	},
}

func train(cmd *cobra.Command, trainConfig TrainConfig) error {
	logger.Info("load train", zap.String("filename", trainConfig.FileNameTrain))
	featuresMatrix, err := modelio.ReadNpy(trainConfig.FileNameTrain)
	if err != nil {
		return err
	}

	params := trainConfig.Params()
	params.Logger = logger
	forest := efl.NewForest(params)
	if err := forest.FitContext(cmd.Context(), featuresMatrix); err != nil {
		return err
	}

	if err := modelio.Save(trainConfig.FileNameModel, forest); err != nil {
		return err
	}
	logger.Info("model saved", zap.String("filename", trainConfig.FileNameModel))

	if trainConfig.FileNameScores == "" {
		return nil
	}
	scores, err := forest.ScoreSamplesContext(cmd.Context(), featuresMatrix)
	if err != nil {
		return err
	}
	logSummary("train", efl.Summarize(scores, efl.DefaultCutoff))
	return modelio.WriteScores(trainConfig.FileNameScores, scores)
}

//loadForestAndData reads a saved forest and a dataset to evaluate.
func loadForestAndData(modelFileName, dataFileName string, threadsNum int) (*efl.Forest, *mat.Dense, error) {
	forest, err := modelio.Load(modelFileName, efl.Params{ThreadsNum: threadsNum, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	featuresMatrix, err := modelio.ReadNpy(dataFileName)
	if err != nil {
		return nil, nil, err
	}
	return forest, featuresMatrix, nil
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "compute anomaly scores of an npy dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		var scoreConfig ScoreConfig
		if err := decodeConfig(configFile, &scoreConfig); err != nil {
			return err
		}
		if scoreConfig.ScoresFileName == "" {
			return errors.New("filename_scores is required")
		}

		forest, featuresMatrix, err := loadForestAndData(scoreConfig.ModelFileName, scoreConfig.DataFileName, scoreConfig.ThreadsNum)
		if err != nil {
			return err
		}
		scores, err := forest.ScoreSamplesContext(cmd.Context(), featuresMatrix)
		if err != nil {
			return err
		}
		logSummary("score", efl.Summarize(scores, scoreConfig.Cutoff))

		if err := modelio.WriteScores(scoreConfig.ScoresFileName, scores); err != nil {
			return err
		}
		if scoreConfig.HistogramFileName != "" {
			return plotHistogram(scoreConfig.HistogramFileName, scores, scoreConfig.Cutoff)
		}
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "flag anomalies of an npy dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		var predictConfig PredictConfig
		if err := decodeConfig(configFile, &predictConfig); err != nil {
			return err
		}

		forest, featuresMatrix, err := loadForestAndData(predictConfig.ModelFileName, predictConfig.DataFileName, predictConfig.ThreadsNum)
		if err != nil {
			return err
		}
		labels, err := forest.Predict(featuresMatrix, predictConfig.Cutoff)
		if err != nil {
			return err
		}
		return modelio.WriteLabels(predictConfig.LabelsFileName, labels)
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "dump path lengths of every row in every tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		var pathsConfig PathsConfig
		if err := decodeConfig(configFile, &pathsConfig); err != nil {
			return err
		}

		forest, featuresMatrix, err := loadForestAndData(pathsConfig.ModelFileName, pathsConfig.DataFileName, pathsConfig.ThreadsNum)
		if err != nil {
			return err
		}
		pathLengths, err := forest.PathLengthsContext(cmd.Context(), featuresMatrix)
		if err != nil {
			return err
		}
		return modelio.WriteTensor(pathsConfig.PathsFileName, pathLengths)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "render trees of a saved forest",
	RunE: func(cmd *cobra.Command, args []string) error {
		var graphConfig GraphConfig
		if err := decodeConfig(configFile, &graphConfig); err != nil {
			return err
		}

		forest, err := modelio.Load(graphConfig.ModelFileName, efl.Params{Logger: logger})
		if err != nil {
			return err
		}
		return forest.RenderTrees(graphConfig.DumpPrefix, graphConfig.FigureType, graphConfig.PicturesDirectory)
	},
}

func logSummary(stage string, summary efl.ScoreSummary) {
	logger.Info("scores",
		zap.String("stage", stage),
		zap.Int("count", summary.Count),
		zap.Float64("mean", summary.Mean),
		zap.Float64("std", summary.StdDev),
		zap.Float64("min", summary.Min),
		zap.Float64("median", summary.Median),
		zap.Float64("q95", summary.Q95),
		zap.Float64("max", summary.Max),
		zap.Int("anomalies", summary.Anomalies),
	)
}
