package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-partition-service/pkg/config"
	"github.com/gilchrisn/graph-partition-service/pkg/graph"
	"github.com/gilchrisn/graph-partition-service/pkg/output"
	"github.com/gilchrisn/graph-partition-service/pkg/pipeline"
)

func main() {
	var (
		input       = flag.String("input", "", "edge-list CSV file (node_a,node_b,weight)")
		n           = flag.Int("n", 0, "number of partitions")
		headerSkip  = flag.Int("header-skip", -1, "number of leading header lines to skip (required)")
		configPath  = flag.String("config", "", "optional config file (yaml, json or toml)")
		strategy    = flag.String("type", "", "partitioning strategy: community or round-robin")
		backend     = flag.String("backend", "", "detector backend: louvain or gonum")
		distributor = flag.String("distributor", "", "distributor: scan or heap")
		weights     = flag.String("weights", "", "comma-separated target partition weights summing to 1")
		blocksize   = flag.Int("blocksize", 0, "round-robin block size")
		format      = flag.String("format", "", "output format: csv, json or yaml")
		out         = flag.String("out", "", "output file (default stdout)")
		metisDir    = flag.String("metis-dir", "", "write one METIS file per partition into this directory")
		dotPath     = flag.String("dot", "", "write the graph coloured by partition as graphviz DOT")
		hierarchy   = flag.String("hierarchy", "", "write every detected level to this file")
		logLevel    = flag.String("log-level", "", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -input <file> -n <partitions> -header-skip <lines> [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewConfig()
	if *configPath != "" {
		if err := cfg.LoadFromFile(*configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	if *headerSkip >= 0 {
		cfg.Set("input.header_skip", *headerSkip)
	}
	if *n > 0 {
		cfg.Set("partitioning.count", *n)
	}
	if *blocksize > 0 {
		cfg.Set("partitioning.blocksize", *blocksize)
	}
	setIfNotEmpty(cfg, "partitioning.type", *strategy)
	setIfNotEmpty(cfg, "detector.backend", *backend)
	setIfNotEmpty(cfg, "partitioning.distributor", *distributor)
	setIfNotEmpty(cfg, "partitioning.weights", *weights)
	setIfNotEmpty(cfg, "output.format", *format)
	setIfNotEmpty(cfg, "logging.level", *logLevel)

	settings, err := cfg.Settings()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := cfg.CreateLogger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := graph.BuildFromFile(*input, *settings.Input.HeaderSkip)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build graph")
	}
	logger.Info().
		Str("input", *input).
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Msg("Graph loaded")

	opts := settings.PipelineOptions()
	opts.LouvainConfig = cfg.LouvainConfig()
	opts.Logger = logger

	report, err := pipeline.RunGraph(ctx, g, settings.Partitioning.Count, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Partitioning failed")
	}

	if err := writeReport(report, settings.Output.Format, *out); err != nil {
		log.Fatal().Err(err).Msg("Failed to write partitions")
	}

	if settings.Output.Dir != "" {
		paths, err := output.NewFileWriter(settings.Output.Dir, report.RunID).WriteAll(report)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to write report files")
		}
		logger.Info().Strs("files", paths).Msg("Report files written")
	}

	if *metisDir != "" {
		paths, err := output.WriteMETISFiles(*metisDir, "partition", g, report.Partitions)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to write METIS files")
		}
		logger.Info().Strs("files", paths).Msg("METIS files written")
	}

	if *dotPath != "" {
		if err := writeFile(*dotPath, func(w io.Writer) error {
			return output.WriteGraphviz(w, g, report.Partitions)
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to write graphviz file")
		}
	}

	if *hierarchy != "" {
		if report.Dendrogram == nil {
			logger.Warn().Msg("No hierarchy detected for this strategy, skipping hierarchy file")
		} else if err := writeFile(*hierarchy, func(w io.Writer) error {
			return output.WriteHierarchy(w, report.Dendrogram)
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to write hierarchy file")
		}
	}

	logger.Info().
		Str("run_id", report.RunID).
		Ints("loads", report.Loads).
		Float64("imbalance", report.Stats.Imbalance).
		Msg("Partitioning completed")
}

func setIfNotEmpty(cfg *config.Config, key, value string) {
	if value != "" {
		cfg.Set(key, value)
	}
}

func writeReport(report *pipeline.Report, format, path string) error {
	if path == "" {
		return output.WriteReport(os.Stdout, report, format)
	}
	return writeFile(path, func(w io.Writer) error {
		return output.WriteReport(w, report, format)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
