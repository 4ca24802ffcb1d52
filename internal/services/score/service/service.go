// Package service scores day files in parallel and writes one JSON line each
package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"auracast/internal/core/engine"
	"auracast/internal/core/features"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
	"auracast/internal/services/score/domain"
)

// Config controls a run
type Config struct {
	Workers   int
	KeepGoing bool
	// K is nil for the engine default
	K *int
	// Timeout bounds each file; zero leaves only the engine budget
	Timeout time.Duration
}

// Service runs scoring jobs
type Service struct {
	Eng domain.EnginePort
	Cfg Config
}

// New returns a Service; workers below 1 become 1
func New(eng domain.EnginePort, cfg Config) *Service {
	if eng == nil {
		panic("score.Service requires a non nil engine")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Service{Eng: eng, Cfg: cfg}
}

// Run scores every path and writes lines in input order
// without KeepGoing the first failure cancels the rest and is returned;
// lines finished before it are still written
func (s *Service) Run(ctx context.Context, paths []string, w io.Writer) (domain.Summary, error) {
	sum := domain.Summary{Files: len(paths)}
	out := make([]*domain.Line, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			line, err := s.scoreFile(gctx, p)
			if err != nil {
				if !s.Cfg.KeepGoing {
					return perr.WithOp(err, p)
				}
				logger.Named("score").Warn().Err(err).Str("file", p).Msg("file failed")
				line.Error = lineError(err)
			}
			out[i] = &line
			return nil
		})
	}
	runErr := g.Wait()

	enc := json.NewEncoder(w)
	for _, l := range out {
		if l == nil {
			continue
		}
		if l.Error != nil {
			sum.Failed++
		} else {
			sum.OK++
		}
		if err := enc.Encode(l); err != nil {
			return sum, err
		}
	}
	if runErr != nil {
		sum.Failed++
	}
	return sum, runErr
}

func (s *Service) scoreFile(ctx context.Context, path string) (domain.Line, error) {
	line := domain.Line{File: path}
	day, err := readDay(path)
	if err != nil {
		return line, err
	}
	req := engine.Request{ID: day.RequestID, Features: day.Features}
	if req.ID == "" {
		req.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	line.RequestID = req.ID
	line.Digest = features.Digest(day.Features)

	if s.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Cfg.Timeout)
		defer cancel()
	}

	rr, err := s.Eng.Risk(ctx, req)
	if err != nil {
		return line, err
	}
	tk, err := s.Eng.TopK(ctx, req, s.Cfg.K)
	if err != nil {
		return line, err
	}

	hours := make([]int, len(tk.Hours))
	for i, h := range tk.Hours {
		hours[i] = h.Hour
	}
	line.ModelVersion = rr.ModelVersion
	line.Risk = &domain.Risk{Mean: rr.Risk.Mean, Lower: rr.Risk.Lower, Upper: rr.Risk.Upper}
	line.TopK = &domain.TopK{K: tk.K, Hours: hours}
	return line, nil
}

func readDay(path string) (domain.DayFile, error) {
	var day domain.DayFile
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return day, perr.Wrapf(err, perr.ErrorCodeNotFound, "open %s", path)
		}
		return day, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&day); err != nil {
		return day, perr.JSONErrf("decode %s: %v", path, err)
	}
	return day, nil
}

func lineError(err error) *domain.LineError {
	w := perr.WireFrom(err)
	return &domain.LineError{Code: int(w.Code), Kind: w.Kind, Message: w.Message}
}
