package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/metrics"
)

// ValidationError reports a malformed research request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ResearchOptions bounds the work a single research run may do.
type ResearchOptions struct {
	AdapterTimeout time.Duration
	Retries        int
	RetryBaseDelay time.Duration
	// MaxParallel limits concurrently running adapters; 1 runs them in
	// priority order one after another.
	MaxParallel int
}

// ResearchService runs the enabled research methods for a company and
// aggregates their findings.
type ResearchService struct {
	adapters   []adapter.Adapter
	normalizer *Normalizer
	opts       ResearchOptions
	logger     *zap.Logger
	now        func() time.Time
}

// NewResearchService wires adapters, which must be in method priority order.
func NewResearchService(adapters []adapter.Adapter, normalizer *Normalizer, opts ResearchOptions, logger *zap.Logger) *ResearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 2 * time.Minute
	}
	return &ResearchService{
		adapters:   adapters,
		normalizer: normalizer,
		opts:       opts,
		logger:     logger.Named("research"),
		now:        time.Now,
	}
}

// Prepare validates req and fills in defaults. Every malformed field is
// reported as a *ValidationError.
func Prepare(req entity.ResearchRequest) (entity.ResearchRequest, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Website = strings.TrimSpace(req.Website)
	req.Country = strings.TrimSpace(req.Country)
	req.Industry = strings.TrimSpace(req.Industry)

	if req.CompanyName == "" {
		return req, &ValidationError{Field: "company_name", Message: "is required"}
	}
	if req.Website == "" {
		return req, &ValidationError{Field: "website", Message: "is required"}
	}
	if _, err := entity.WebsiteURL(req.Website); err != nil {
		return req, &ValidationError{Field: "website", Message: fmt.Sprintf("is not a valid URL: %v", err)}
	}

	depth, err := entity.ParseSearchDepth(string(req.SearchDepth))
	if err != nil {
		return req, &ValidationError{Field: "search_depth", Message: err.Error()}
	}
	req.SearchDepth = depth

	methods := make([]entity.MethodKind, 0, len(req.Methods))
	for _, m := range req.Methods {
		kind, err := entity.ParseMethodKind(string(m))
		if err != nil {
			return req, &ValidationError{Field: "methods", Message: err.Error()}
		}
		if !containsMethod(methods, kind) {
			methods = append(methods, kind)
		}
	}
	req.Methods = methods

	switch {
	case req.MaxPages == 0:
		req.MaxPages = entity.DefaultPages
	case req.MaxPages < entity.MinPages || req.MaxPages > entity.MaxPages:
		return req, &ValidationError{
			Field:   "max_pages",
			Message: fmt.Sprintf("must be between %d and %d", entity.MinPages, entity.MaxPages),
		}
	}
	return req, nil
}

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the API request that started a run so
// the run's log lines can be correlated with the access log.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type methodRun struct {
	outcome entity.MethodOutcome
	raws    []entity.RawContact
}

// Run executes the enabled methods and returns the aggregated result. Method
// failures are recorded in the metadata and never fail the run; only an
// invalid request returns an error. When ctx is cancelled the contacts found
// so far are returned with Metadata.Cancelled set.
func (s *ResearchService) Run(ctx context.Context, req entity.ResearchRequest) (*entity.ResearchResult, error) {
	req, err := Prepare(req)
	if err != nil {
		return nil, err
	}

	result := &entity.ResearchResult{
		ID:      uuid.New(),
		Request: req,
		Metadata: entity.ResearchMetadata{
			StartedAt: s.now().UTC(),
		},
	}
	logger := s.logger.With(
		zap.String("research_id", result.ID.String()),
		zap.String("company", req.CompanyName),
		zap.String("website", req.Website),
	)
	if rid := requestIDFrom(ctx); rid != "" {
		logger = logger.With(zap.String("request_id", rid))
	}

	outcomes := make(map[entity.MethodKind]*methodRun)
	var runnable []adapter.Adapter
	for _, kind := range req.Methods {
		outcomes[kind] = &methodRun{outcome: entity.MethodOutcome{Method: kind}}
	}
	for _, a := range s.adapters {
		run, enabled := outcomes[a.Kind()]
		if !enabled {
			continue
		}
		if err := a.Available(req); err != nil {
			run.outcome.Status = entity.StatusSkipped
			run.outcome.ErrorKind = string(adapter.KindOf(err))
			run.outcome.Error = err.Error()
			metrics.RecordAdapterRun(string(a.Kind()), string(entity.StatusSkipped), run.outcome.ErrorKind, 0, 0)
			logger.Info("research method skipped", zap.String("method", string(a.Kind())), zap.Error(err))
			continue
		}
		runnable = append(runnable, a)
	}
	for kind, run := range outcomes {
		if run.outcome.Status == "" && !s.registered(kind) {
			run.outcome.Status = entity.StatusSkipped
			run.outcome.ErrorKind = string(adapter.KindUnavailable)
			run.outcome.Error = "method is not available in this deployment"
		}
	}

	results := make(chan methodRun, len(runnable))
	go s.dispatch(ctx, req, runnable, results, logger)

	pending := len(runnable)
collect:
	for pending > 0 {
		select {
		case <-ctx.Done():
			result.Metadata.Cancelled = true
			break collect
		case r := <-results:
			pending--
			*outcomes[r.outcome.Method] = r
		}
	}
	if result.Metadata.Cancelled {
		// keep methods that finished before the cancellation was observed
		for drained := false; !drained; {
			select {
			case r := <-results:
				*outcomes[r.outcome.Method] = r
			default:
				drained = true
			}
		}
	}

	var raws []entity.RawContact
	for _, kind := range entity.AllMethods {
		run, ok := outcomes[kind]
		if !ok {
			continue
		}
		if run.outcome.Status == "" {
			run.outcome.Status = entity.StatusCancelled
			run.outcome.ErrorKind = "cancelled"
		}
		// a cancelled method can be collected before ctx.Done is selected
		if run.outcome.Status == entity.StatusCancelled {
			result.Metadata.Cancelled = true
		}
		result.Metadata.Methods = append(result.Metadata.Methods, run.outcome)
		raws = append(raws, run.raws...)
	}

	result.Contacts = s.normalizer.Normalize(context.WithoutCancel(ctx), req, raws)
	result.Metadata.Notices = notices(result)
	if req.IncludePatterns {
		result.EmailPatterns = EmailPatterns(req.Domain(), req.Country, req.Industry)
	}
	result.Metadata.FinishedAt = s.now().UTC()

	metrics.RecordResearch(result.Metadata.Cancelled, len(result.Contacts))
	logger.Info("research finished",
		zap.Int("contacts", len(result.Contacts)),
		zap.Bool("cancelled", result.Metadata.Cancelled),
		zap.Duration("took", result.Metadata.FinishedAt.Sub(result.Metadata.StartedAt)),
	)
	return result, nil
}

// dispatch runs adapters with bounded parallelism. It never blocks on
// results because the channel has room for every adapter.
func (s *ResearchService) dispatch(ctx context.Context, req entity.ResearchRequest, runnable []adapter.Adapter, results chan<- methodRun, logger *zap.Logger) {
	var g errgroup.Group
	g.SetLimit(s.opts.MaxParallel)
	for _, a := range runnable {
		g.Go(func() error {
			results <- s.runAdapter(ctx, a, req, logger)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *ResearchService) runAdapter(ctx context.Context, a adapter.Adapter, req entity.ResearchRequest, logger *zap.Logger) methodRun {
	kind := a.Kind()
	run := methodRun{outcome: entity.MethodOutcome{Method: kind, StartedAt: s.now().UTC()}}
	if ctx.Err() != nil {
		run.outcome.Status = entity.StatusCancelled
		run.outcome.ErrorKind = "cancelled"
		run.outcome.FinishedAt = run.outcome.StartedAt
		return run
	}

	actx, cancel := context.WithTimeout(ctx, s.opts.AdapterTimeout)
	defer cancel()

	policy := adapter.ExponentialPolicy(s.opts.Retries, s.opts.RetryBaseDelay)
	raws, attempts, err := adapter.Retry(actx, policy, func(ctx context.Context, attempt int) ([]entity.RawContact, error) {
		if attempt > 1 {
			logger.Debug("retrying research method", zap.String("method", string(kind)), zap.Int("attempt", attempt))
		}
		found, err := a.Discover(ctx, req)
		if err != nil {
			return nil, adapter.Classify(kind, err)
		}
		return found, nil
	})

	run.outcome.Attempts = attempts
	run.outcome.FinishedAt = s.now().UTC()
	took := run.outcome.FinishedAt.Sub(run.outcome.StartedAt)

	switch {
	case err != nil && ctx.Err() != nil:
		run.outcome.Status = entity.StatusCancelled
		run.outcome.ErrorKind = "cancelled"
	case err != nil:
		run.outcome.Status = entity.StatusFailed
		run.outcome.ErrorKind = string(adapter.KindOf(err))
		run.outcome.Error = err.Error()
		logger.Warn("research method failed",
			zap.String("method", string(kind)),
			zap.String("error_kind", run.outcome.ErrorKind),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
	default:
		run.outcome.Status = entity.StatusSucceeded
		run.outcome.ContactsFound = len(raws)
		run.raws = raws
		logger.Info("research method finished",
			zap.String("method", string(kind)),
			zap.Int("raw_contacts", len(raws)),
			zap.Int("attempts", attempts),
			zap.Duration("took", took),
		)
	}
	metrics.RecordAdapterRun(string(kind), string(run.outcome.Status), run.outcome.ErrorKind, len(raws), took)
	return run
}

func (s *ResearchService) registered(kind entity.MethodKind) bool {
	for _, a := range s.adapters {
		if a.Kind() == kind {
			return true
		}
	}
	return false
}

// notices builds the informational messages shown next to the contacts.
func notices(result *entity.ResearchResult) []string {
	var out []string
	if len(result.Request.Methods) == 0 {
		out = append(out, "No research methods were selected.")
	}
	if len(result.Contacts) == 0 && len(result.Request.Methods) > 0 {
		out = append(out, "No contacts found. Try a deeper search depth, a higher page limit or additional research methods.")
	}
	for _, o := range result.Metadata.Methods {
		switch {
		case o.ErrorKind == string(adapter.KindBlocked):
			out = append(out, fmt.Sprintf("%s was blocked by the target site's bot protection; web search or the AI assistant may still find contacts.", o.Method.Label()))
		case o.ErrorKind == string(adapter.KindMissingAPIKey):
			out = append(out, fmt.Sprintf("%s was skipped because no API key is configured.", o.Method.Label()))
		case o.ErrorKind == string(adapter.KindRateLimited):
			out = append(out, fmt.Sprintf("%s was rate limited; try again later.", o.Method.Label()))
		case o.ErrorKind == string(adapter.KindAuthFailure):
			out = append(out, fmt.Sprintf("%s rejected the configured credentials.", o.Method.Label()))
		}
	}
	if result.Metadata.Cancelled {
		out = append(out, "Research was cancelled; results are partial.")
	}
	return out
}

func containsMethod(methods []entity.MethodKind, kind entity.MethodKind) bool {
	for _, m := range methods {
		if m == kind {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
