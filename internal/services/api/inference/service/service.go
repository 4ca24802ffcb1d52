// Package service adapts engine results to API responses and records every call
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"auracast/internal/core/engine"
	"auracast/internal/core/features"
	perr "auracast/internal/platform/errors"
	auditdom "auracast/internal/services/audit/domain"
	"auracast/internal/services/api/inference/domain"
)

// Service defines the inference service contract
type Service interface {
	domain.ServicePort
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, auditdom.Record) {}

// Svc implements the inference service
type Svc struct {
	eng   domain.EnginePort
	audit auditdom.WriterPort
	newID func() string
	now   func() time.Time
}

// New constructs an inference service; audit may be nil
func New(eng domain.EnginePort, audit auditdom.WriterPort) *Svc {
	if eng == nil {
		panic("inference.Service requires a non nil engine")
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &Svc{eng: eng, audit: audit, newID: uuid.NewString, now: time.Now}
}

// Risk returns the daily risk estimate
func (s *Svc) Risk(ctx context.Context, in domain.RiskInput) (domain.RiskOutput, error) {
	ctx, req, done := s.begin(ctx, engine.OpRisk, in.DayInput)
	res, err := s.eng.Risk(ctx, req)
	if err != nil {
		done(nil, err)
		return domain.RiskOutput{}, err
	}
	done(func(rec *auditdom.Record) {
		rec.ModelVersion = res.ModelVersion
		rec.Mean, rec.Lower, rec.Upper = &res.Risk.Mean, &res.Risk.Lower, &res.Risk.Upper
	}, nil)
	return domain.RiskOutput{
		Meta:    meta(res.Meta),
		Risk:    domain.Risk{Mean: res.Risk.Mean, Lower: res.Risk.Lower, Upper: res.Risk.Upper},
		Samples: res.Risk.Samples,
	}, nil
}

// Posteriors returns the hourly latent posteriors keyed by latent name
func (s *Svc) Posteriors(ctx context.Context, in domain.PosteriorsInput) (domain.PosteriorsOutput, error) {
	ctx, req, done := s.begin(ctx, engine.OpPosteriors, in.DayInput)
	res, err := s.eng.Posteriors(ctx, req)
	if err != nil {
		done(nil, err)
		return domain.PosteriorsOutput{}, err
	}
	done(func(rec *auditdom.Record) { rec.ModelVersion = res.ModelVersion }, nil)

	hours := make([]domain.HourPosterior, len(res.Hours))
	for i, p := range res.Hours {
		hp := domain.HourPosterior{
			Hour: p.Hour,
			Mean: make(map[string]float64, len(res.Latents)),
			Std:  make(map[string]float64, len(res.Latents)),
		}
		for d, name := range res.Latents {
			hp.Mean[name] = p.Mean[d]
			hp.Std[name] = p.Std[d]
		}
		hours[i] = hp
	}
	return domain.PosteriorsOutput{Meta: meta(res.Meta), Latents: res.Latents, Hours: hours}, nil
}

// TopK returns the k hours worth measuring, best first
func (s *Svc) TopK(ctx context.Context, in domain.TopKInput) (domain.TopKOutput, error) {
	ctx, req, done := s.begin(ctx, engine.OpTopK, in.DayInput)
	res, err := s.eng.TopK(ctx, req, in.K)
	if err != nil {
		done(func(rec *auditdom.Record) {
			if in.K != nil {
				rec.K = *in.K
			}
		}, err)
		return domain.TopKOutput{}, err
	}

	hours := make([]domain.HourPriority, len(res.Hours))
	picked := make([]int, len(res.Hours))
	for i, h := range res.Hours {
		hours[i] = domain.HourPriority{
			Hour:        h.Hour,
			Score:       h.Score,
			Entropy:     h.Entropy,
			Uncertainty: h.Uncertainty,
			Sensitivity: h.Sensitivity,
		}
		picked[i] = h.Hour
	}
	done(func(rec *auditdom.Record) {
		rec.ModelVersion = res.ModelVersion
		rec.K = res.K
		rec.TopHours = picked
	}, nil)
	return domain.TopKOutput{Meta: meta(res.Meta), K: res.K, Hours: hours}, nil
}

// begin resolves the request id, applies the caller's timeout and returns a finisher
// that writes the audit record; the finisher also releases the timeout
func (s *Svc) begin(ctx context.Context, op string, in domain.DayInput) (context.Context, engine.Request, func(func(*auditdom.Record), error)) {
	start := s.now()
	id := in.RequestID
	if id == "" {
		id = s.newID()
	}
	cancel := context.CancelFunc(func() {})
	if in.TimeoutMS > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(in.TimeoutMS)*time.Millisecond)
	}
	req := engine.Request{ID: id, Features: in.Features}

	done := func(fill func(*auditdom.Record), err error) {
		defer cancel()
		rec := auditdom.Record{
			RequestID: id,
			Op:        op,
			Digest:    features.Digest(in.Features),
			Code:      auditdom.CodeOK,
			Latency:   s.now().Sub(start),
			CreatedAt: start.UTC(),
		}
		if err != nil {
			rec.Code = perr.CodeOf(err).String()
		}
		if fill != nil {
			fill(&rec)
		}
		s.audit.Record(ctx, rec)
	}
	return ctx, req, done
}

func meta(m engine.Meta) domain.Meta {
	return domain.Meta{RequestID: m.RequestID, ModelVersion: m.ModelVersion, Digest: m.Digest, ProducedAt: m.ProducedAt}
}
