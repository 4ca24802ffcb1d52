// auracast-score scores day files offline and prints one JSON line per file
//
//	auracast-score -k 3 -workers 4 days/2026-10-*.json
//	auracast-score -keep-going days/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/core/model"
	"auracast/internal/core/version"
	"auracast/internal/modkit"
	"auracast/internal/modkit/module"
	"auracast/internal/platform/config"
	"auracast/internal/platform/logger"

	inferencemod "auracast/internal/services/api/inference/module"
	scoremod "auracast/internal/services/score/module"
)

const serviceName = "auracast-score"

// expand turns directory arguments into their sorted *.json entries
func expand(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil || !fi.IsDir() {
			// missing files are reported per line by the runner
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func main() {
	dotErr := config.LoadDotenv()
	lopts := logger.FromEnv()
	if lopts.Service == "" {
		lopts.Service = serviceName
	}
	// stdout carries the scored lines
	lopts.Writer = os.Stderr
	logger.Init(lopts)
	if dotErr != nil {
		logger.Get().Warn().Err(dotErr).Msg("dotenv not loaded")
	}
	root := config.New()
	opts := inferencemod.FromConfig(root)
	defaults := scoremod.FromConfig(root)

	var (
		modelPath = flag.String("model", opts.ModelPath, "weights file (empty uses the embedded model)")
		k         = flag.Int("k", defaults.K, "hours to schedule (0 uses the engine default)")
		workers   = flag.Int("workers", defaults.Workers, "concurrency (>=1)")
		keepGoing = flag.Bool("keep-going", defaults.KeepGoing, "report failed files and continue")
		timeout   = flag.Duration("timeout", defaults.Timeout, "per file deadline (0 uses the engine budget)")
		showVer   = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.Info(serviceName).String())
		return
	}
	if *workers < 1 {
		log.Fatal("-workers must be >= 1")
	}
	if *k < 0 || *k > model.Hours {
		log.Fatalf("-k must be within 0..%d", model.Hours)
	}
	if flag.NArg() == 0 {
		log.Fatal("usage: auracast-score [flags] FILE|DIR ...")
	}
	paths, err := expand(flag.Args())
	if err != nil {
		log.Fatalf("bad path: %v", err)
	}

	l := logger.Named("score")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(opts.Engine)
	if err != nil {
		l.Fatal().Err(err).Msg("engine config invalid")
	}
	if err := eng.Load(*modelPath); err != nil {
		l.Fatal().Err(err).Str("path", *modelPath).Msg("model load failed")
	}

	mod := scoremod.New(modkit.Deps{Cfg: root, Log: *l, Engine: eng}, scoremod.Options{
		Workers:   *workers,
		KeepGoing: *keepGoing,
		K:         *k,
		Timeout:   *timeout,
	})
	runner := module.MustPortsOf[scoremod.Ports](mod).Runner

	out := bufio.NewWriter(os.Stdout)
	start := time.Now()
	sum, runErr := runner.Run(ctx, paths, out)
	if err := out.Flush(); err != nil {
		l.Error().Err(err).Msg("flush stdout")
	}

	l.Info().
		Int("files", sum.Files).
		Int("ok", sum.OK).
		Int("failed", sum.Failed).
		Dur("took", time.Since(start)).
		Msg("score complete")

	if runErr != nil {
		l.Error().Err(runErr).Msg("score aborted")
		stop()
		os.Exit(1)
	}
}
