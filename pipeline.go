package veritas

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Options configures one processing run.
type Options struct {
	// Workers bounds the matching parallelism. Zero means one worker per
	// CPU. Parallelism never changes the output: results are collected in
	// input order.
	Workers int
	// DeepAudit keeps the full per-rule evaluation outcome of every record
	// in the audit trail, not just the applied rules.
	DeepAudit bool
	// MinDate and MaxDate bound acceptable record dates (zero disables).
	MinDate, MaxDate time.Time
	// KnownTypes whitelists record types; empty accepts any.
	KnownTypes []string
}

// Result is the complete output of one run.
type Result struct {
	Postings []Posting
	Totals   *Totals
	Findings []Finding
	Summary  Summary
	Audit    *AuditTrail
}

// Process runs the full pipeline over a batch: input validation,
// rule matching and transformation per record, transformation
// validation, aggregation, output validation, and finding
// classification. Individual record problems become findings, never
// errors; Process returns an error only on cancellation or when the
// rule set or hierarchy is missing.
//
// For identical input the postings, totals and findings are identical
// across runs regardless of worker count.
func Process(ctx context.Context, records []Record, rules *RuleSet, h *Hierarchy, opts Options) (*Result, error) {
	if rules == nil {
		return nil, fmt.Errorf("process: nil rule set")
	}
	if h == nil {
		return nil, fmt.Errorf("process: nil hierarchy")
	}
	log := Logger(ctx)
	start := time.Now()

	var findings []Finding
	findings = append(findings, rules.UnknownAccounts(h)...)

	iv := InputValidator{MinDate: opts.MinDate, MaxDate: opts.MaxDate, KnownTypes: opts.KnownTypes}
	inputFindings := iv.Validate(records)
	findings = append(findings, inputFindings...)
	log.Info().Int("records", len(records)).Int("findings", len(inputFindings)).Msg("input validated")

	results, postings, err := matchAll(ctx, records, rules, h, opts.Workers)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		findings = append(findings, res.Findings...)
	}
	log.Info().Int("postings", len(postings)).Msg("records matched and transformed")

	tv := NewTransformationValidator(rules, h)
	findings = append(findings, tv.Validate(results)...)

	totals := Aggregate(postings, h)

	ov := NewOutputValidator(h)
	findings = append(findings, ov.Validate(records, results, postings, totals)...)

	classifier := NewClassifier(h, opts.KnownTypes)
	findings = classifier.Classify(findings)
	summary := Summarize(findings, len(records))

	audit := NewAuditTrail(opts.DeepAudit)
	byRecord := make(map[string][]Posting, len(records))
	for _, p := range postings {
		byRecord[p.RecordID] = append(byRecord[p.RecordID], p)
	}
	for _, res := range results {
		audit.Record(res, byRecord[res.Record.ID])
	}

	log.Info().
		Str("status", summary.Status).
		Str("confidence", summary.Confidence.String()).
		Int("findings", len(findings)).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")

	return &Result{
		Postings: postings,
		Totals:   totals,
		Findings: findings,
		Summary:  summary,
		Audit:    audit,
	}, nil
}

// matchAll matches and transforms all records, fanning the work out over
// a bounded worker pool. Each record is independent; results land in an
// indexed slice so the output order is the input order.
func matchAll(ctx context.Context, records []Record, rules *RuleSet, h *Hierarchy, workers int) ([]MatchResult, []Posting, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(records) {
		workers = len(records)
	}
	tr := NewTransformer(h)
	results := make([]MatchResult, len(records))
	posted := make([][]Posting, len(records))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range max(workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				res := rules.Match(records[i])
				ps, fs := tr.Transform(records[i], res.Drafts)
				res.Findings = append(res.Findings, fs...)
				results[i] = res
				posted[i] = ps
			}
		}()
	}

	var cancelled error
feed:
	for i := range records {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break feed
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
	if cancelled != nil {
		return nil, nil, cancelled
	}

	var postings []Posting
	for _, ps := range posted {
		postings = append(postings, ps...)
	}
	return results, postings, nil
}
