// Package relicbench runs and scores literary-evidence retrieval
// benchmarks: given a literary-analysis excerpt whose quoted evidence
// has been masked out, a model must recover the quotation (or its line
// number) from the primary source.
//
// The pipeline is a small number of composable packages:
//
//   - Dataset: CSV/Parquet input tables, the book-sentence corpus,
//     typed input rows, balanced sampling (pkg/dataset).
//
//   - Prompts: versioned templates for the four benchmark tasks, with
//     placeholder expansion for book text and line numbering
//     (pkg/prompts).
//
//   - Provider: completion clients for OpenRouter's OpenAI-compatible
//     API and for Anthropic directly (pkg/provider).
//
//   - Executor: bounded-concurrency batch driver with retries,
//     per-call timeouts, and exactly one log record per input row
//     (pkg/executor).
//
//   - Runlog: the append-only JSONL system of record, its
//     last-write-wins logical view, and token/cost accounting
//     (pkg/runlog).
//
//   - Align: joins log records back onto the input table and extracts
//     tagged response spans into columns, merging additively with
//     earlier passes (pkg/align).
//
//   - Scoring: fuzzy validity against the source text, fuzzy
//     correctness against ground truth, and line-number distance
//     buckets, with per-model per-subset reports (pkg/scoring).
//
// Typical use is through the relic-cli binary:
//
//	relic-cli run -i data/relic.csv -l logs/raw.jsonl -b data/books.json \
//	    -m google/gemini-2.5-pro -t 1 -p v1_relic_simple
//
//	relic-cli extract -i data/relic.csv -l logs/raw.jsonl \
//	    -o data/aligned.csv -m google/gemini-2.5-pro \
//	    --window-col response_google/gemini-2.5-pro
//
//	relic-cli eval -i data/aligned.csv -b data/books.json \
//	    -o data/aligned_RESULTS.csv --metrics metrics.json
//
// Runs are resumable: the executor skips rows that already have a
// successful record in the target log, and the log itself is never
// rewritten, only appended to. Interrupting a run loses at most the
// batch in flight.
package relicbench
