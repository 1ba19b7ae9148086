package sink

import (
	"context"
	"errors"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

// Multi writes every record to each sink in order. All sinks are attempted;
// their errors are joined.
type Multi []analysis.Sink

func (m Multi) Write(ctx context.Context, rec analysis.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
