package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"agent-assist/internal/domain"
)

// Fanout embeds each probe, queries the vector index in parallel, and merges
// the results into one ranked, deduplicated passage set.
type Fanout struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	cfg      Config
	logger   *slog.Logger
}

// NewFanout wires the probe fan-out with explicit provider dependencies.
func NewFanout(embedder domain.Embedder, index domain.VectorIndex, cfg Config, logger *slog.Logger) *Fanout {
	return &Fanout{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve runs one embed+search round-trip per probe and returns the merged
// ranked set. An empty result is a valid terminal state, not an error.
//
// Failure policy: with PartialResults disabled, the first probe error cancels
// the remaining probes and aborts the call, so answer quality never depends
// on which probe happened to fail. With PartialResults enabled, failed probes
// are logged and skipped as long as at least one succeeds.
func (f *Fanout) Retrieve(ctx context.Context, probes []string, comprehensive bool) ([]domain.PassageCandidate, error) {
	breadth := f.cfg.ProbeBreadth
	finalMax := f.cfg.MaxPassages
	if comprehensive {
		breadth = f.cfg.WideProbeBreadth
		finalMax = f.cfg.WideMaxPassages
	}

	start := time.Now()
	perProbe := make([][]domain.PassageCandidate, len(probes))
	probeErrs := make([]error, len(probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		i, probe := i, probe
		g.Go(func() error {
			candidates, err := f.runProbe(gctx, probe, breadth)
			if err != nil {
				if f.cfg.PartialResults {
					probeErrs[i] = err
					f.logger.Warn("probe_failed_skipped",
						slog.String("probe", probe),
						slog.String("error", err.Error()))
					return nil
				}
				return err
			}
			perProbe[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if f.cfg.PartialResults {
		if err := firstErrorIfAllFailed(probeErrs); err != nil {
			return nil, err
		}
	}

	merged := f.merge(perProbe, finalMax)

	f.logger.Info("fanout_completed",
		slog.Int("probe_count", len(probes)),
		slog.Int("breadth", breadth),
		slog.Bool("comprehensive", comprehensive),
		slog.Int("passage_count", len(merged)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return merged, nil
}

func (f *Fanout) runProbe(ctx context.Context, probe string, breadth int) ([]domain.PassageCandidate, error) {
	vector, err := f.embedder.Embed(ctx, probe)
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderEmbedding, err)
	}

	matches, err := f.index.Query(ctx, vector, breadth)
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderSearch, err)
	}

	kept := make([]domain.PassageCandidate, 0, len(matches))
	for _, m := range matches {
		if m.Score > f.cfg.ScoreThreshold {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// merge deduplicates across probes in probe order, so the first-seen score
// wins deterministically even though the searches ran in parallel, then
// ranks by kind priority and score and truncates.
func (f *Fanout) merge(perProbe [][]domain.PassageCandidate, finalMax int) []domain.PassageCandidate {
	seen := make(map[string]bool)
	var merged []domain.PassageCandidate
	for _, candidates := range perProbe {
		for _, c := range candidates {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}

	// Curated synthetic passages sort ahead of raw excerpts regardless of
	// score: they consolidate the answer to broad questions.
	sort.SliceStable(merged, func(i, j int) bool {
		if pi, pj := merged[i].KindPriority(), merged[j].KindPriority(); pi != pj {
			return pi > pj
		}
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > finalMax {
		merged = merged[:finalMax]
	}
	return merged
}

func firstErrorIfAllFailed(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			return nil
		}
		if first == nil {
			first = err
		}
	}
	return first
}
