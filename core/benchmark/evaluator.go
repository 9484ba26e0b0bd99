package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/siherrmann/preserver/core/retrieval"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// ErrEmptyAccumulator marks aggregation over a session that has not
// evaluated a single query yet.
var ErrEmptyAccumulator = errors.New("no evaluation records to aggregate")

// Session evaluates ranking quality query by query and accumulates the
// per-query records. The accumulator only grows, aggregation never resets
// it, so re-aggregating without new evaluations returns the same means.
type Session struct {
	searcher retrieval.Searcher
	k        int
	records  []*model.MetricRecord
	log      *slog.Logger
}

// NewSession creates an evaluation session over the given searcher. Every
// evaluated query requests 2*k results and scores the fixed 5 and 10 rank
// cutoffs over that one retrieved list. A k of 0 defaults to 5.
func NewSession(searcher retrieval.Searcher, k int, logger *slog.Logger) (*Session, error) {
	if searcher == nil {
		return nil, helper.NewError("create benchmark session", fmt.Errorf("searcher must not be nil"))
	}
	if k == 0 {
		k = 5
	}
	if k < 1 {
		return nil, helper.NewError("create benchmark session", fmt.Errorf("k must be positive, got %d", k))
	}
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}

	return &Session{
		searcher: searcher,
		k:        k,
		log:      logger,
	}, nil
}

// Evaluate runs one judged query through the searcher and records its
// ranking metrics. Duplicate relevant ids count once. A searcher failure is
// forwarded as is and records nothing.
func (s *Session) Evaluate(ctx context.Context, query string, relevantIDs []string) (*model.MetricRecord, error) {
	retrieved, err := s.searcher.Search(ctx, query, 2*s.k)
	if err != nil {
		return nil, err
	}

	numRelevant := len(relevantSet(relevantIDs))
	record := &model.MetricRecord{
		Query:         query,
		NumRelevant:   numRelevant,
		NumRetrieved:  len(retrieved),
		PrecisionAt5:  PrecisionAtK(retrieved, relevantIDs, 5),
		PrecisionAt10: PrecisionAtK(retrieved, relevantIDs, 10),
		RecallAt5:     RecallAtK(retrieved, relevantIDs, 5),
		RecallAt10:    RecallAtK(retrieved, relevantIDs, 10),
		MRR:           MRR(retrieved, relevantIDs),
		NDCGAt5:       NDCGAtK(retrieved, relevantIDs, 5),
		NDCGAt10:      NDCGAtK(retrieved, relevantIDs, 10),
		AvgSimilarity: avgSimilarity(retrieved),
		Degenerate:    numRelevant == 0,
	}

	if record.Degenerate {
		s.log.Warn("Query judged against an empty relevant set", "query", query)
	}

	s.records = append(s.records, record)
	return record, nil
}

// EvaluateAll evaluates the judgments in order and returns the aggregate
// over every record accumulated in this session so far.
func (s *Session) EvaluateAll(ctx context.Context, judgments []model.QueryJudgment) (*model.AggregateMetrics, error) {
	for _, judgment := range judgments {
		_, err := s.Evaluate(ctx, judgment.Query, judgment.RelevantIDs)
		if err != nil {
			return nil, err
		}
	}
	return s.Aggregate()
}

// Aggregate returns the arithmetic mean of every accumulated record, each
// value rounded to 4 decimal digits.
func (s *Session) Aggregate() (*model.AggregateMetrics, error) {
	if len(s.records) == 0 {
		return nil, ErrEmptyAccumulator
	}

	sum := model.AggregateMetrics{}
	for _, record := range s.records {
		sum.AvgPrecisionAt5 += record.PrecisionAt5
		sum.AvgPrecisionAt10 += record.PrecisionAt10
		sum.AvgRecallAt5 += record.RecallAt5
		sum.AvgRecallAt10 += record.RecallAt10
		sum.AvgMRR += record.MRR
		sum.AvgNDCGAt5 += record.NDCGAt5
		sum.AvgNDCGAt10 += record.NDCGAt10
		sum.AvgSimilarity += record.AvgSimilarity
	}

	n := float64(len(s.records))
	return &model.AggregateMetrics{
		TotalQueries:     len(s.records),
		AvgPrecisionAt5:  roundFour(sum.AvgPrecisionAt5 / n),
		AvgPrecisionAt10: roundFour(sum.AvgPrecisionAt10 / n),
		AvgRecallAt5:     roundFour(sum.AvgRecallAt5 / n),
		AvgRecallAt10:    roundFour(sum.AvgRecallAt10 / n),
		AvgMRR:           roundFour(sum.AvgMRR / n),
		AvgNDCGAt5:       roundFour(sum.AvgNDCGAt5 / n),
		AvgNDCGAt10:      roundFour(sum.AvgNDCGAt10 / n),
		AvgSimilarity:    roundFour(sum.AvgSimilarity / n),
	}, nil
}

// Records returns a copy of the accumulated per-query records in
// evaluation order.
func (s *Session) Records() []*model.MetricRecord {
	records := make([]*model.MetricRecord, len(s.records))
	copy(records, s.records)
	return records
}

func avgSimilarity(retrieved []*model.SearchResult) float64 {
	if len(retrieved) == 0 {
		return 0
	}

	sum := 0.0
	for _, result := range retrieved {
		sum += result.SimilarityScore
	}
	return sum / float64(len(retrieved))
}

func roundFour(value float64) float64 {
	return math.Round(value*10000) / 10000
}
