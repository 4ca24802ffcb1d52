// Package repo persists the inference audit trail
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auracast/internal/modkit/repokit"
	"auracast/internal/platform/store"
	"auracast/internal/services/audit/domain"
)

// Repo is the postgres surface of the audit trail
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, xs []domain.Record) error
	Recent(ctx context.Context, limit int) ([]domain.Record, error)
	ByRequest(ctx context.Context, requestID string) (domain.Record, error)
}

type (
	// PG binds the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements Repo
	queries struct{ q repokit.Queryer }
)

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

var schema = []string{`
create table if not exists inference_audit (
	id            bigserial primary key,
	request_id    text not null,
	op            text not null,
	digest        text not null default '',
	model_version text not null default '',
	code          text not null,
	k             integer not null default 0,
	top_hours     integer[] not null default '{}',
	risk_mean     double precision,
	risk_lower    double precision,
	risk_upper    double precision,
	latency_us    bigint not null,
	created_at    timestamptz not null default now()
)`,
	`create index if not exists inference_audit_created_at_idx on inference_audit (created_at desc)`,
	`create index if not exists inference_audit_request_id_idx on inference_audit (request_id)`,
}

func (r *queries) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := store.Exec(ctx, r.q, stmt); err != nil {
			return err
		}
	}
	return nil
}

const insertCols = 12

func (r *queries) Insert(ctx context.Context, xs []domain.Record) error {
	if len(xs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`insert into inference_audit
		(request_id, op, digest, model_version, code, k, top_hours,
		risk_mean, risk_lower, risk_upper, latency_us, created_at) values `)

	args := make([]any, 0, len(xs)*insertCols)
	for i, x := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*insertCols + 1
		sb.WriteByte('(')
		for c := 0; c < insertCols; c++ {
			if c > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", base+c)
		}
		sb.WriteByte(')')

		args = append(args,
			x.RequestID, x.Op, x.Digest, x.ModelVersion, x.Code, int32(x.K), hours32(x.TopHours),
			x.Mean, x.Lower, x.Upper, x.Latency.Microseconds(), x.CreatedAt.UTC(),
		)
	}
	_, err := store.Exec(ctx, r.q, sb.String(), args...)
	return err
}

const selectCols = `
select request_id, op, digest, model_version, code, k, top_hours,
	risk_mean, risk_lower, risk_upper, latency_us, created_at
from inference_audit
`

func (r *queries) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	return store.Many(ctx, r.q, scanRecord, selectCols+`
order by created_at desc, id desc
limit $1`, limit)
}

// ByRequest returns the newest record for requestID
func (r *queries) ByRequest(ctx context.Context, requestID string) (domain.Record, error) {
	return store.One(ctx, r.q, scanRecord, selectCols+`
where request_id = $1
order by created_at desc, id desc
limit 1`, requestID)
}

func scanRecord(row store.Row) (domain.Record, error) {
	var (
		rec     domain.Record
		k       int32
		hours   []int32
		latency int64
	)
	if err := row.Scan(
		&rec.RequestID, &rec.Op, &rec.Digest, &rec.ModelVersion, &rec.Code, &k, &hours,
		&rec.Mean, &rec.Lower, &rec.Upper, &latency, &rec.CreatedAt,
	); err != nil {
		return rec, err
	}
	rec.K = int(k)
	rec.Latency = time.Duration(latency) * time.Microsecond
	if len(hours) > 0 {
		rec.TopHours = make([]int, len(hours))
		for i, h := range hours {
			rec.TopHours[i] = int(h)
		}
	}
	return rec, nil
}

func hours32(xs []int) []int32 {
	out := make([]int32, len(xs))
	for i, h := range xs {
		out[i] = int32(h)
	}
	return out
}
