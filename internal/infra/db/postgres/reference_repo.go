package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const referenceLimit = 10

type ReferenceRepository struct{ db *sql.DB }

func NewReferenceRepository(db *sql.DB) *ReferenceRepository { return &ReferenceRepository{db: db} }

func (r *ReferenceRepository) Lookup(ctx context.Context, req domain.Request) (*domain.ReferenceRecord, error) {
	keywords := domain.Keywords(req)
	if len(keywords) == 0 {
		return nil, nil
	}
	const q = `
SELECT name, MAX(similarity) AS similarity, MAX(source) AS source, MAX(market_note) AS market_note
FROM reference_services
WHERE keyword = ANY($1)
GROUP BY name
ORDER BY similarity DESC, name ASC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(keywords), referenceLimit)
	if err != nil {
		return nil, fmt.Errorf("querying reference services: %w", err)
	}
	defer rows.Close()

	var ref domain.ReferenceRecord
	for rows.Next() {
		var s domain.ReferenceService
		var source, note sql.NullString
		if err := rows.Scan(&s.Name, &s.Similarity, &source, &note); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		s.Source = source.String
		s.Similarity = math.Max(0, math.Min(1, s.Similarity))
		if ref.MarketSize == "" {
			ref.MarketSize = note.String
		}
		ref.Services = append(ref.Services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ref.Services) == 0 {
		return nil, nil
	}
	return &ref, nil
}
