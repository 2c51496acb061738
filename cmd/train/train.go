package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/drakos74/astroturf/infra/config"
	"github.com/drakos74/astroturf/internal/dataset"
	"github.com/drakos74/astroturf/internal/metric"
	"github.com/drakos74/astroturf/internal/metrics"
	"github.com/drakos74/astroturf/internal/model"
	"github.com/drakos74/astroturf/internal/registry"
	"github.com/drakos74/astroturf/internal/report"
	"github.com/drakos74/astroturf/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type args struct {
	Data      string `arg:"help:CSV file with the feature columns and a label column.,required"`
	Label     string `arg:"help:Name of the label column."`
	Config    string `arg:"help:Registry config file (json or yaml). Defaults to infra/config/registry.json."`
	Models    string `arg:"help:Directory to save and load the models."`
	History   string `arg:"help:Directory to export the neural training history."`
	Validate  bool   `arg:"help:Cross validate every classical model."`
	Load      bool   `arg:"help:Load the saved models and predict on the dataset."`
	Classical bool   `arg:"help:Only run the classical models."`
	Metrics   int    `arg:"help:Port to expose the prometheus metrics on."`
	Level     string `arg:"help:Log level."`
}

func (args) Version() string {
	return "astroturf train 0.1.0"
}

func (args) Description() string {
	return `Train and evaluate the astroturf detection models on a labelled feature matrix.`
}

func main() {
	a := args{
		Label:   "label",
		Models:  fmt.Sprintf("%s/models", storage.DefaultDir),
		History: fmt.Sprintf("%s/history", storage.DefaultDir),
		Level:   "info",
	}
	arg.MustParse(&a)

	level, err := zerolog.ParseLevel(a.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", a.Level).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	cfg := registry.DefaultConfig()
	if a.Config != "" {
		if err := config.Load(a.Config, &cfg); err != nil {
			log.Fatal().Err(err).Msg("could not load config")
		}
	} else {
		config.MustLoad("registry", &cfg)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if a.Metrics > 0 {
		go func() {
			if err := metrics.Serve(a.Metrics); err != nil {
				log.Error().Err(err).Int("port", a.Metrics).Msg("metrics server stopped")
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ds, err := dataset.Load(ctx, a.Data, a.Label)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load dataset")
	}

	classical, err := registry.NewClassical(cfg.Classical)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create classical registry")
	}
	var neural *registry.Neural
	if !a.Classical {
		neural, err = registry.NewNeural(ds.Dim(), cfg.Neural)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create neural registry")
		}
	}

	if a.Load {
		if err := predict(classical, neural, a.Models, ds); err != nil {
			log.Fatal().Err(err).Msg("could not predict")
		}
		return
	}

	if a.Validate {
		for _, name := range classical.Names() {
			folds, err := classical.Validate(ctx, name, ds)
			if err != nil {
				log.Fatal().Err(err).Str("model", name).Msg("could not validate")
			}
			fmt.Printf("\n%s cross validation\n", name)
			table := folds.Table()
			table.Add("mean", folds.Mean())
			table.Render(os.Stdout)
		}
	}

	table, err := classical.RunModels(ctx, ds)
	if err != nil {
		log.Fatal().Err(err).Msg("could not run classical models")
	}
	fmt.Println("\nclassical models")
	table.Render(os.Stdout)
	if err := classical.SaveModels(a.Models); err != nil {
		log.Error().Err(err).Str("dir", a.Models).Msg("could not save classical models")
	}

	if neural == nil {
		return
	}
	histories, err := neural.RunModels(ctx, ds)
	if err != nil {
		log.Fatal().Err(err).Msg("could not run neural models")
	}
	summary, err := neural.SaveHistory(histories, a.History)
	if err != nil {
		log.Error().Err(err).Str("dir", a.History).Msg("could not save history")
	}
	for _, h := range histories {
		fmt.Println(report.Chart(h.Name, h.History))
	}
	fmt.Println("\nneural models")
	summary.Render(os.Stdout)
	if err := neural.SaveModels(a.Models); err != nil {
		log.Error().Err(err).Str("dir", a.Models).Msg("could not save neural models")
	}
}

// predict loads the saved models and scores their predictions on the dataset.
func predict(classical *registry.Classical, neural *registry.Neural, dir string, ds model.Dataset) error {
	if err := classical.LoadModels(dir); err != nil {
		return err
	}
	predictions, err := classical.Predict(ds.X)
	if err != nil {
		return err
	}
	if neural != nil {
		if err := neural.LoadModels(dir); err != nil {
			return err
		}
		np, err := neural.Predict(ds.X)
		if err != nil {
			return err
		}
		predictions = append(predictions, np...)
	}
	table := model.NewTable()
	for _, p := range predictions {
		table.Add(p.Name, metric.Compute(ds.Y, p.Labels, nil))
	}
	fmt.Println("\nloaded models")
	table.Render(os.Stdout)
	return nil
}
