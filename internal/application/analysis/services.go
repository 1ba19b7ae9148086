package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/bryanwahyu/sparklens/internal/application"
	"github.com/bryanwahyu/sparklens/internal/domain/ai"
	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
	"github.com/bryanwahyu/sparklens/internal/infra/ai/prompt"
)

const (
	DefaultCacheTTL     = 10 * time.Minute
	SummaryFallback     = "summary unavailable"
	analysisMaxTokens   = 1500
	analysisTemperature = 0.7
	maxFailureBody      = 4096
)

var (
	// ErrPersist wraps sink and run index failures after a successful analysis.
	ErrPersist = errors.New("persist failed")
	// ErrRunIndexDisabled is returned by run queries when no repository is configured.
	ErrRunIndexDisabled = errors.New("run index not configured")
)

// Summarizer produces the short derived summary of a request.
type Summarizer interface {
	Summarize(ctx context.Context, req domain.Request) (string, error)
}

// Service implements the analyze use case. Only Client is required; every
// other collaborator is optional. Safe for concurrent use.
type Service struct {
	Client     ai.Client
	Schema     domain.Schema
	Cache      domain.Cache
	CacheTTL   time.Duration
	Sink       domain.Sink
	Runs       domain.Repository
	Failures   domain.FailureRepository
	References domain.ReferenceSource
	Summaries  Summarizer
	Clock      application.Clock
	NewID      func() string

	flight singleflight.Group
	locks  keyedMutex
}

// Outcome is what one Analyze call produced.
type Outcome struct {
	RunID         string
	UserID        string
	Fingerprint   string
	SchemaVersion string
	Result        domain.Result
	Summary       string
	Cached        bool
}

func (s *Service) Analyze(ctx context.Context, userID string, req domain.Request) (Outcome, error) {
	log := zerolog.Ctx(ctx)

	valid, err := domain.Validate(req)
	if err != nil {
		return Outcome{}, err
	}
	clean := domain.SanitizeRequest(valid)
	if err := domain.RequireContent(clean); err != nil {
		return Outcome{}, err
	}
	ref := s.reference(ctx, clean)
	fp := domain.Fingerprint(clean, ref)

	out := Outcome{UserID: userID, Fingerprint: fp, SchemaVersion: s.schema().Version}

	a, hit := s.cached(ctx, fp)
	if hit {
		log.Debug().Str("fingerprint", fp).Msg("analysis cache hit")
	} else {
		// Only the caller whose function runs made the upstream call; callers
		// that joined it are served like a hit.
		leader := false
		v, err, shared := s.flight.Do(fp, func() (any, error) {
			leader = true
			return s.compute(context.WithoutCancel(ctx), userID, clean, ref, fp)
		})
		if err != nil {
			return Outcome{}, err
		}
		a, hit = v.(domain.Analysis), !leader
		if shared && hit {
			log.Debug().Str("fingerprint", fp).Msg("joined in-flight analysis")
		}
	}
	out.Result, out.Summary, out.Cached = a.Result, a.Summary, hit
	out.RunID = s.newID()

	if err := s.persist(ctx, out); err != nil {
		s.recordFailure(ctx, &domain.Failure{UserID: userID, Fingerprint: fp, Phase: "persist", Message: err.Error()})
		return out, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return out, nil
}

func (s *Service) reference(ctx context.Context, req domain.Request) *domain.ReferenceRecord {
	if req.Reference != nil {
		return req.Reference
	}
	if s.References == nil {
		return nil
	}
	ref, err := s.References.Lookup(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("reference lookup failed, continuing without reference data")
		return nil
	}
	return domain.SanitizeReference(ref)
}

func (s *Service) cached(ctx context.Context, fp string) (domain.Analysis, bool) {
	if s.Cache == nil {
		return domain.Analysis{}, false
	}
	a, ok, err := s.Cache.Get(ctx, fp)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("fingerprint", fp).Msg("cache read failed")
		return domain.Analysis{}, false
	}
	return a, ok
}

// compute runs the upstream call for one fingerprint and stores the mapped result.
func (s *Service) compute(ctx context.Context, userID string, req domain.Request, ref *domain.ReferenceRecord, fp string) (domain.Analysis, error) {
	log := zerolog.Ctx(ctx)
	schema := s.schema()

	raw, err := s.Client.Complete(ctx, ai.CompletionRequest{
		System:      prompt.SystemPrompt(schema),
		User:        prompt.BuildAnalysisPrompt(req, ref, schema),
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
		JSON:        true,
	})
	if err != nil {
		f := &domain.Failure{UserID: userID, Fingerprint: fp, Phase: "upstream", Kind: ai.KindName(err), Message: err.Error()}
		var up *ai.UpstreamError
		if errors.As(err, &up) {
			f.DetailsJSON = detailsJSON(map[string]any{"status": up.StatusCode, "body": truncate(up.Body)})
			log.Error().Err(err).Int("upstream_status", up.StatusCode).Str("upstream_body", up.Body).Msg("analysis upstream call failed")
		} else {
			log.Error().Err(err).Msg("analysis upstream call failed")
		}
		s.recordFailure(ctx, f)
		return domain.Analysis{}, err
	}

	result, err := domain.MapResponse(raw, schema)
	if err != nil {
		kind := "malformed_response"
		if errors.Is(err, domain.ErrIncompleteResponse) {
			kind = "incomplete_response"
		}
		log.Error().Err(err).Str("kind", kind).Msg("analysis response rejected")
		s.recordFailure(ctx, &domain.Failure{
			UserID: userID, Fingerprint: fp, Phase: "mapping", Kind: kind,
			Message: err.Error(), DetailsJSON: detailsJSON(map[string]any{"raw": truncate(raw)}),
		})
		return domain.Analysis{}, err
	}

	a := domain.Analysis{Result: result, Summary: s.summarize(ctx, req)}
	if s.Cache != nil {
		if err := s.Cache.Put(ctx, fp, a, s.ttl()); err != nil {
			log.Warn().Err(err).Str("fingerprint", fp).Msg("cache write failed")
		}
	}
	return a, nil
}

func (s *Service) summarize(ctx context.Context, req domain.Request) string {
	if s.Summaries == nil {
		return ""
	}
	out, err := s.Summaries.Summarize(ctx, req)
	if err != nil || out == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("summary generation failed")
		return SummaryFallback
	}
	return out
}

// persist writes the sink records and the run index entry while holding the
// per-user lock, so runs of one user never interleave.
func (s *Service) persist(ctx context.Context, out Outcome) error {
	if s.Sink == nil && s.Runs == nil {
		return nil
	}
	unlock := s.locks.Lock(out.UserID)
	defer unlock()

	now := s.now()
	if s.Sink != nil {
		err := s.Sink.Write(ctx, domain.Record{
			UserID:    out.UserID,
			RunID:     out.RunID,
			Sections:  s.schema().Sections(out.Result),
			Summary:   out.Summary,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("write records: %w", err)
		}
	}
	if s.Runs != nil {
		body, err := json.Marshal(out.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		err = s.Runs.Save(ctx, &domain.Run{
			ID:            out.RunID,
			UserID:        out.UserID,
			Fingerprint:   out.Fingerprint,
			SchemaVersion: out.SchemaVersion,
			Summary:       out.Summary,
			Result:        body,
			Cached:        out.Cached,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, f *domain.Failure) {
	if s.Failures == nil {
		return
	}
	f.CreatedAt = s.now()
	if err := s.Failures.Save(ctx, f); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("phase", f.Phase).Msg("failed to record analysis failure")
	}
}

func (s *Service) ListRuns(ctx context.Context, userID string, page, pageSize int) ([]*domain.Run, error) {
	if s.Runs == nil {
		return nil, ErrRunIndexDisabled
	}
	return s.Runs.Paginate(ctx, userID, page, pageSize)
}

// ListFailures returns the recorded upstream, mapping and persist failures of one user.
func (s *Service) ListFailures(ctx context.Context, userID string, limit int) ([]*domain.Failure, error) {
	if s.Failures == nil {
		return nil, ErrRunIndexDisabled
	}
	return s.Failures.ListByUser(ctx, userID, limit)
}

func (s *Service) GetRun(ctx context.Context, userID, runID string) (*domain.Run, error) {
	if s.Runs == nil {
		return nil, ErrRunIndexDisabled
	}
	return s.Runs.Get(ctx, userID, runID)
}

func (s *Service) schema() domain.Schema {
	if s.Schema.Version == "" {
		return domain.SchemaV2
	}
	return s.Schema
}

func (s *Service) ttl() time.Duration {
	if s.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return s.CacheTTL
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func detailsJSON(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func truncate(s string) string {
	if len(s) <= maxFailureBody {
		return s
	}
	return s[:maxFailureBody]
}
