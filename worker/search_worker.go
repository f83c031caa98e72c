package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/index"
	"github.com/poiesic/retrievit/provider"
)

// SearchWorkerType is the specialization name reported by SearchWorker.
const SearchWorkerType = "search"

// recencyWindow is the age under which a web result earns the freshness boost.
const recencyWindow = 30 * 24 * time.Hour

// snippetLength bounds the excerpt taken from indexed document content.
const snippetLength = 200

// authorityDomains earn the high-authority relevance boost for web results.
// Domains ending in .gov or .edu qualify as well.
var authorityDomains = map[string]bool{
	"en.wikipedia.org": true,
	"wikipedia.org":    true,
	"arxiv.org":        true,
	"github.com":       true,
	"nature.com":       true,
	"acm.org":          true,
	"ieee.org":         true,
}

// SearchWorker executes web, vector, and hybrid retrieval tasks.
type SearchWorker struct {
	base
	embedder  provider.Embedder
	searcher  provider.WebSearcher
	documents index.DocumentRepository
	logger    *slog.Logger
	now       func() time.Time
}

var _ Worker = (*SearchWorker)(nil)

// Option configures a SearchWorker.
type Option func(*SearchWorker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *SearchWorker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithMonitor subscribes a status monitor to the worker's lifecycle
// notifications. Default is a no-op monitor.
func WithMonitor(monitor StatusMonitor) Option {
	return func(w *SearchWorker) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		w.monitor = monitor
		return nil
	}
}

// WithCapabilities restricts the worker to a subset of task types.
// Default is all three retrieval modes.
func WithCapabilities(caps ...core.TaskType) Option {
	return func(w *SearchWorker) error {
		for _, c := range caps {
			if err := core.ValidateTaskType(c); err != nil {
				return err
			}
		}
		w.caps = caps
		return nil
	}
}

// WithClock sets the time source used for the recency boost.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *SearchWorker) error {
		if now == nil {
			now = time.Now
		}
		w.now = now
		return nil
	}
}

// NewSearchWorker creates a search worker over the given retrieval services.
// The worker is not usable until Initialize succeeds.
func NewSearchWorker(
	id string,
	embedder provider.Embedder,
	searcher provider.WebSearcher,
	documents index.DocumentRepository,
	opts ...Option,
) (*SearchWorker, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: worker id required", ErrInitialization)
	}

	w := &SearchWorker{
		base: base{
			id:         id,
			workerType: SearchWorkerType,
			caps: []core.TaskType{
				core.TaskTypeWebSearch,
				core.TaskTypeVectorSearch,
				core.TaskTypeHybridSearch,
			},
			monitor: &noopMonitor{},
		},
		embedder:  embedder,
		searcher:  searcher,
		documents: documents,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	w.logger = w.logger.With("worker", id)
	return w, nil
}

// Initialize verifies the worker's retrieval services. On failure the worker
// enters StatusError and must not be placed in the registry.
func (w *SearchWorker) Initialize(ctx context.Context) error {
	missing := w.missingServices()
	if len(missing) > 0 {
		w.setStatus(StatusError)
		return fmt.Errorf("%w: missing %s", ErrInitialization, strings.Join(missing, ", "))
	}

	w.setStatus(StatusIdle)
	w.logger.Debug("search worker initialized", "capabilities", w.caps)
	return nil
}

// missingServices lists the services the worker's capability set needs but
// were not provided.
func (w *SearchWorker) missingServices() []string {
	var missing []string
	needsWeb := w.CanHandle(core.TaskTypeWebSearch) || w.CanHandle(core.TaskTypeHybridSearch)
	needsVector := w.CanHandle(core.TaskTypeVectorSearch) || w.CanHandle(core.TaskTypeHybridSearch)

	if needsWeb && w.searcher == nil {
		missing = append(missing, "web searcher")
	}
	if needsVector {
		if w.embedder == nil {
			missing = append(missing, "embedder")
		}
		if w.documents == nil {
			missing = append(missing, "document index")
		}
	}
	return missing
}

// Execute runs the task's retrieval mode and fuses the results.
func (w *SearchWorker) Execute(ctx context.Context, task *core.Task) (*core.TaskResult, error) {
	w.setStatus(StatusBusy)
	defer w.setStatus(StatusIdle)

	query := task.Payload.Query
	limit := task.Payload.MaxResults
	if limit <= 0 {
		limit = core.DefaultMaxResults
	}

	var (
		results []core.SearchResult
		err     error
	)
	switch task.Type {
	case core.TaskTypeWebSearch:
		results, err = w.searchWeb(ctx, query, limit)
	case core.TaskTypeVectorSearch:
		results, err = w.searchVector(ctx, query, limit, task.Payload.Filters)
	case core.TaskTypeHybridSearch:
		results, err = w.searchHybrid(ctx, task.Payload, limit)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedTaskType, task.Type)
	}
	if err != nil {
		return nil, err
	}

	fused := fuseResults(results, limit)
	if len(fused) == 0 {
		w.logger.Info("retrieval produced no results", "task", task.Id, "query", query)
		return &core.TaskResult{
			Results:    []core.SearchResult{},
			Confidence: NoResultsConfidence,
			Found:      false,
			Message:    NoResultsMessage,
		}, nil
	}

	return &core.TaskResult{
		Results:    fused,
		Confidence: ConfidenceScore(fused),
		Found:      true,
	}, nil
}

// Shutdown marks the worker as done. The retrieval services are shared and
// owned by the coordinator, so there is nothing to release here; the method
// exists to satisfy the Worker contract and is idempotent.
func (w *SearchWorker) Shutdown(ctx context.Context) error {
	w.logger.Debug("search worker shut down")
	return nil
}

// searchWeb queries the web search provider and scores hits by rank decay
// with authority and recency boosts.
func (w *SearchWorker) searchWeb(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	hits, err := w.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, &ProviderError{Provider: "web-search", Err: err}
	}

	results := make([]core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		score := 1.0 - 0.1*float64(hit.Rank)
		if isAuthoritativeDomain(hit.Domain) {
			score += 0.1
		}
		if w.isRecent(hit.PublishedAt) {
			score += 0.05
		}
		score = clamp(score, 0.1, 1.0)

		results = append(results, core.SearchResult{
			Id:             core.IDFromContent(hit.URL),
			Title:          hit.Title,
			URL:            hit.URL,
			Snippet:        hit.Snippet,
			RelevanceScore: score,
			SourceType:     core.SourceWeb,
			Metadata: map[string]string{
				"domain": hit.Domain,
				"rank":   strconv.Itoa(hit.Rank),
			},
		})
	}
	return results, nil
}

// searchVector embeds the query and maps the index's cosine similarities
// directly to relevance scores.
func (w *SearchWorker) searchVector(ctx context.Context, query string, limit int, filters map[string]string) ([]core.SearchResult, error) {
	vector, err := w.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, &ProviderError{Provider: "embedding", Err: err}
	}

	matches, err := w.documents.FindSimilar(ctx, vector, limit, filters)
	if err != nil {
		return nil, &ProviderError{Provider: "vector-index", Err: err}
	}

	results := make([]core.SearchResult, 0, len(matches))
	for _, match := range matches {
		doc := match.Document
		results = append(results, core.SearchResult{
			Id:             doc.Id,
			Title:          doc.Title,
			URL:            doc.URL,
			Snippet:        excerpt(doc.Content, snippetLength),
			RelevanceScore: clamp(float64(match.Score), 0, 1),
			SourceType:     core.SourceVector,
			Metadata:       doc.Metadata,
		})
	}
	return results, nil
}

// searchHybrid splits the result budget between web and vector retrieval and
// runs both concurrently. A single failing mode is logged and tolerated; the
// task fails only when both modes fail.
func (w *SearchWorker) searchHybrid(ctx context.Context, payload core.SearchPayload, limit int) ([]core.SearchResult, error) {
	webLimit := limit / 2
	vectorLimit := limit - webLimit

	// A budget of 1 leaves web with no share; the whole request goes to
	// the vector side and web is never queried.
	if webLimit == 0 {
		return w.searchVector(ctx, payload.Query, vectorLimit, payload.Filters)
	}

	var (
		wg            sync.WaitGroup
		webResults    []core.SearchResult
		vectorResults []core.SearchResult
		webErr        error
		vectorErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		webResults, webErr = w.searchWeb(ctx, payload.Query, webLimit)
	}()
	go func() {
		defer wg.Done()
		vectorResults, vectorErr = w.searchVector(ctx, payload.Query, vectorLimit, payload.Filters)
	}()
	wg.Wait()

	if webErr != nil && vectorErr != nil {
		return nil, fmt.Errorf("%w: web: %v; vector: %v", ErrAllModesFailed, webErr, vectorErr)
	}
	if webErr != nil {
		w.logger.Warn("web retrieval failed, degrading to vector results", "err", webErr)
	}
	if vectorErr != nil {
		w.logger.Warn("vector retrieval failed, degrading to web results", "err", vectorErr)
	}

	return append(webResults, vectorResults...), nil
}

// isRecent reports whether ts falls within the recency window of the
// worker's clock.
func (w *SearchWorker) isRecent(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	age := w.now().Sub(ts)
	return age >= 0 && age <= recencyWindow
}

// isAuthoritativeDomain reports whether a domain earns the authority boost.
func isAuthoritativeDomain(domain string) bool {
	if domain == "" {
		return false
	}
	if authorityDomains[domain] {
		return true
	}
	return strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".edu")
}

// excerpt truncates content at a word boundary near max runes.
func excerpt(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
