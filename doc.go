// Package veritas converts dated, typed financial records (journal
// entries) into a normalized, hierarchically organized set of ledger
// postings, using a configurable table of conditional mapping rules, then
// aggregates the result by period and validates correctness at every
// stage.
//
// The core functionalities include:
//   - Rule Matching: Evaluating compiled rule conditions against each
//     record, resolving priority and one-to-many split semantics, and
//     emitting posting drafts with exact amount conservation.
//   - Transformation: Turning drafts into immutable Postings resolved
//     against a 4-level account hierarchy, with full provenance back to
//     the source record and the rule that produced each posting.
//   - Period Aggregation: Totals per account and period (year and
//     year+quarter) with rollups through the hierarchy.
//   - Validation Cascade: Three sequential validators (input,
//     transformation, output) accumulating categorized findings without
//     ever halting the batch.
//   - Error Classification: Deduplicated findings with severity and
//     confidence, plus reviewable auto-fix suggestions that are never
//     applied without explicit approval.
//   - Audit Trail: An append-only record → rules → postings log that can
//     be reconstructed into a human-reviewable view without re-running
//     the pipeline.
//
// This package serves as the foundational logic for the `vrt`
// command-line tool. Excel I/O, report layout and argument parsing are
// external collaborators: the core consumes typed records, rules and
// accounts, and produces typed postings, totals, findings and audit
// entries.
package veritas
