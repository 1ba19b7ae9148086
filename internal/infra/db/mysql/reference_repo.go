package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const referenceLimit = 10

// ReferenceRepository matches curated comparable services by keyword.
type ReferenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Lookup returns nil when the request has no usable keywords or nothing matches.
func (r *ReferenceRepository) Lookup(ctx context.Context, req domain.Request) (*domain.ReferenceRecord, error) {
	keywords := domain.Keywords(req)
	if len(keywords) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keywords)), ",")
	q := `
SELECT name, MAX(similarity) AS similarity, MAX(source) AS source, MAX(market_note) AS market_note
FROM reference_services
WHERE keyword IN (` + placeholders + `)
GROUP BY name
ORDER BY similarity DESC, name ASC
LIMIT ?;`

	args := make([]any, 0, len(keywords)+1)
	for _, k := range keywords {
		args = append(args, k)
	}
	args = append(args, referenceLimit)

	rows, err := r.db.QueryContext(ctx, q, args...)
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
		s.Similarity = clamp01(s.Similarity)
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

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
