package model

// QueryJudgment pairs a query with the chunk ids considered correct
// answers. RelevantIDs may contain duplicates (treated as a set) and may
// be empty, which marks the query as degenerate during evaluation.
type QueryJudgment struct {
	Query       string   `json:"query"`
	RelevantIDs []string `json:"relevant_ids"`
}

// MetricRecord holds one query's ranking-quality scores. Per-query values
// keep full float precision; rounding happens at the aggregation boundary
// only.
type MetricRecord struct {
	Query         string  `json:"query"`
	NumRelevant   int     `json:"num_relevant"`
	NumRetrieved  int     `json:"num_retrieved"`
	PrecisionAt5  float64 `json:"precision_at_5"`
	PrecisionAt10 float64 `json:"precision_at_10"`
	RecallAt5     float64 `json:"recall_at_5"`
	RecallAt10    float64 `json:"recall_at_10"`
	MRR           float64 `json:"mrr"`
	NDCGAt5       float64 `json:"ndcg_at_5"`
	NDCGAt10      float64 `json:"ndcg_at_10"`
	AvgSimilarity float64 `json:"avg_similarity_score"`
	// Degenerate flags a query judged against an empty relevant set: its
	// zero recall and NDCG say nothing about retrieval quality.
	Degenerate bool `json:"degenerate,omitempty"`
}

// AggregateMetrics is the arithmetic mean of every numeric field across all
// records accumulated in one evaluation session, each rounded to 4 decimal
// digits.
type AggregateMetrics struct {
	TotalQueries     int     `json:"total_queries"`
	AvgPrecisionAt5  float64 `json:"avg_precision_at_5"`
	AvgPrecisionAt10 float64 `json:"avg_precision_at_10"`
	AvgRecallAt5     float64 `json:"avg_recall_at_5"`
	AvgRecallAt10    float64 `json:"avg_recall_at_10"`
	AvgMRR           float64 `json:"avg_mrr"`
	AvgNDCGAt5       float64 `json:"avg_ndcg_at_5"`
	AvgNDCGAt10      float64 `json:"avg_ndcg_at_10"`
	AvgSimilarity    float64 `json:"avg_similarity_score"`
}
