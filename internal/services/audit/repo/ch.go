package repo

import (
	"context"
	"errors"

	"auracast/internal/platform/store"
	"auracast/internal/services/audit/domain"
)

// RiskTable is the analytics table fed by CH
const RiskTable = "risk_estimates"

const chSchema = `
CREATE TABLE IF NOT EXISTS risk_estimates (
	produced_at   DateTime64(3, 'UTC'),
	request_id    String,
	op            LowCardinality(String),
	model_version LowCardinality(String),
	digest        String,
	code          LowCardinality(String),
	k             UInt16,
	top_hours     Array(UInt16),
	risk_mean     Nullable(Float64),
	risk_lower    Nullable(Float64),
	risk_upper    Nullable(Float64),
	latency_us    UInt64
)
ENGINE = MergeTree
ORDER BY (produced_at, request_id)
`

// CH writes audit rows to clickhouse for analytics
type CH struct {
	db store.Clickhouse
}

// NewCH wraps the clickhouse seam
func NewCH(db store.Clickhouse) *CH { return &CH{db: db} }

// EnsureSchema creates the analytics table if missing
func (c *CH) EnsureSchema(ctx context.Context) error {
	if c == nil || c.db == nil {
		return errors.New("audit: nil clickhouse")
	}
	return c.db.Exec(ctx, chSchema)
}

// Insert appends xs as one batch
func (c *CH) Insert(ctx context.Context, xs []domain.Record) error {
	if len(xs) == 0 {
		return nil
	}
	return c.db.Insert(ctx, RiskTable, Rows(xs))
}

// Rows lays records out in risk_estimates column order
func Rows(xs []domain.Record) [][]any {
	out := make([][]any, 0, len(xs))
	for _, x := range xs {
		hours := make([]uint16, len(x.TopHours))
		for i, h := range x.TopHours {
			hours[i] = uint16(h)
		}
		out = append(out, []any{
			x.CreatedAt.UTC(),
			x.RequestID,
			x.Op,
			x.ModelVersion,
			x.Digest,
			x.Code,
			uint16(x.K),
			hours,
			x.Mean,
			x.Lower,
			x.Upper,
			uint64(x.Latency.Microseconds()),
		})
	}
	return out
}
