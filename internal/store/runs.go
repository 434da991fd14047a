package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JunkyDeveloper/flint-core/internal/results"
)

var (
	// ErrRunNotFound is returned by GetRun for an unknown ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrDigestMismatch is returned by GetRun when a stored report no
	// longer hashes to its recorded digest.
	ErrDigestMismatch = errors.New("report digest mismatch")
)

// RunRecord is a finished run to store.
type RunRecord struct {
	// ID is the run ID. If empty, the store's IDGenerator assigns one.
	ID     string
	Report *results.RunReport
}

// Run is a stored run. Report is only populated by GetRun.
type Run struct {
	Seq          int64               `json:"seq"`
	ID           string              `json:"id"`
	Scenario     string              `json:"scenario"`
	Server       string              `json:"server"`
	Verdict      results.Verdict     `json:"verdict"`
	FailureKind  results.FailureKind `json:"failure_kind,omitempty"`
	TicksElapsed uint64              `json:"ticks_elapsed"`
	Steps        int                 `json:"steps"`
	Digest       string              `json:"digest"`
	Report       *results.RunReport  `json:"report,omitempty"`
}

// ListOptions filters ListRuns.
type ListOptions struct {
	// Scenario restricts the listing to one scenario name.
	Scenario string
	// Limit caps the number of runs returned. Zero means no limit.
	Limit int
}

// RecordRun stores a finished run and returns its ID.
//
// The report is stored as zstd-compressed canonical JSON next to its
// digest. Recording the same ID twice is an error.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.Report == nil {
		return "", errors.New("record run: report is nil")
	}

	data, err := rec.Report.Canonical()
	if err != nil {
		return "", fmt.Errorf("record run: marshal report: %w", err)
	}
	digest, err := rec.Report.Digest()
	if err != nil {
		return "", fmt.Errorf("record run: digest: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = s.ids.Generate()
	}

	var failureKind string
	if rec.Report.Failure != nil {
		failureKind = string(rec.Report.Failure.Kind)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, server, verdict, failure_kind, ticks_elapsed, steps, digest, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		rec.Report.Scenario,
		rec.Report.Server.Version,
		string(rec.Report.Verdict),
		failureKind,
		int64(rec.Report.TicksElapsed),
		len(rec.Report.Steps),
		digest,
		s.encoder.EncodeAll(data, nil),
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	return id, nil
}

// ListRuns returns stored runs newest first, without reports.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	query := `
		SELECT seq, id, scenario, server, verdict, failure_kind, ticks_elapsed, steps, digest
		FROM runs`
	var args []any
	if opts.Scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, opts.Scenario)
	}
	query += ` ORDER BY seq DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with the given ID including its report.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, scenario, server, verdict, failure_kind, ticks_elapsed, steps, digest, report
		FROM runs
		WHERE id = ?
	`, id)

	var (
		run     Run
		ticks   int64
		payload []byte
	)
	err := row.Scan(&run.Seq, &run.ID, &run.Scenario, &run.Server, &run.Verdict,
		&run.FailureKind, &ticks, &run.Steps, &run.Digest, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.TicksElapsed = uint64(ticks)

	report, err := s.decodeReport(payload)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	digest, err := report.Digest()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	if digest != run.Digest {
		return nil, fmt.Errorf("run %s: %w", id, ErrDigestMismatch)
	}
	run.Report = report
	return &run, nil
}

func (s *Store) decodeReport(payload []byte) (*results.RunReport, error) {
	data, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress report: %w", err)
	}
	var report results.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// scanRun scans one listing row.
func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run   Run
		ticks int64
	)
	if err := rows.Scan(&run.Seq, &run.ID, &run.Scenario, &run.Server, &run.Verdict,
		&run.FailureKind, &ticks, &run.Steps, &run.Digest); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.TicksElapsed = uint64(ticks)
	return run, nil
}
