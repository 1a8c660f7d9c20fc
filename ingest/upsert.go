// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docvault/core"
)

// VectorWriter is the write half of the vector index. Upsert must be
// idempotent by record id: a batch may partially land server side even on an
// observed client failure, which is what makes blind retries safe.
type VectorWriter interface {
	Upsert(ctx context.Context, records []core.VectorRecord) error
}

// UpsertConfig tunes the batch upsert engine.
type UpsertConfig struct {
	BatchSize        int
	MaxBatchAttempts int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	RecoveryBatches  int     // run the per-record recovery pass when failed batches <= this
	RecoveryAttempts int     // attempts per record during recovery
	FailureThreshold float64 // unrecovered/total above this fails the ingestion
}

// DefaultUpsertConfig returns the standard engine tuning.
func DefaultUpsertConfig() UpsertConfig {
	return UpsertConfig{
		BatchSize:        100,
		MaxBatchAttempts: 5,
		BaseDelay:        500 * time.Millisecond,
		MaxDelay:         30 * time.Second,
		RecoveryBatches:  5,
		RecoveryAttempts: 3,
		FailureThreshold: 0.70,
	}
}

// FailedRecord is one record that could not be written after every retry and
// recovery attempt.
type FailedRecord struct {
	Record core.VectorRecord
	Err    error
}

// Report accounts for one engine invocation. Attempted and Stored are
// surfaced to the document record so partial loss is never hidden.
type Report struct {
	Attempted int
	Stored    int
	Failed    []FailedRecord
}

// failedBatch is a batch that exhausted its attempts.
type failedBatch struct {
	index   int
	records []core.VectorRecord
	err     error
}

// Engine writes vector records in resilient batches. It holds no state
// across invocations; it is a retry strategy over an idempotent write.
type Engine struct {
	writer VectorWriter
	cfg    UpsertConfig
	logger *slog.Logger
}

// NewEngine returns an engine over the given writer.
func NewEngine(writer VectorWriter, cfg UpsertConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		writer: writer,
		cfg:    cfg,
		logger: logger.With("component", "upsert"),
	}
}

// Upsert writes records in batches, retrying each batch with exponential
// backoff, recovering small residual failures record by record, and failing
// the whole run only when unrecovered loss exceeds the configured threshold.
// The returned report is valid even when the error is non-nil.
func (e *Engine) Upsert(ctx context.Context, records []core.VectorRecord) (Report, error) {
	report := Report{Attempted: len(records)}
	if len(records) == 0 {
		return report, ErrNoRecords
	}

	policy := Policy{
		MaxAttempts: e.cfg.MaxBatchAttempts,
		BaseDelay:   e.cfg.BaseDelay,
		MaxDelay:    e.cfg.MaxDelay,
		Classify:    ClassifyFault,
	}

	var failed []failedBatch
	for i := 0; i < len(records); i += e.cfg.BatchSize {
		end := min(i+e.cfg.BatchSize, len(records))
		batch := records[i:end]
		batchIdx := i / e.cfg.BatchSize

		err := policy.Do(ctx, func() error {
			return e.writer.Upsert(ctx, batch)
		})
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			e.logger.Warn("batch permanently failed",
				"batch", batchIdx, "records", len(batch), "error", err)
			failed = append(failed, failedBatch{index: batchIdx, records: batch, err: err})
			continue
		}
		report.Stored += len(batch)
	}

	if len(failed) > 0 && len(failed) <= e.cfg.RecoveryBatches {
		recovered := e.recover(ctx, failed, &report)
		e.logger.Info("recovery pass finished",
			"failedBatches", len(failed), "recovered", recovered)
	} else if len(failed) > 0 {
		for _, fb := range failed {
			for _, r := range fb.records {
				report.Failed = append(report.Failed, FailedRecord{Record: r, Err: fb.err})
			}
		}
	}

	rate := float64(len(report.Failed)) / float64(report.Attempted)
	if rate > e.cfg.FailureThreshold {
		return report, fmt.Errorf(
			"%w: %d of %d records unrecovered (%.0f%% loss exceeds %.0f%% threshold); check vector index connectivity and rate limits: last error: %v",
			ErrIngestionFailed, len(report.Failed), report.Attempted,
			rate*100, e.cfg.FailureThreshold*100, lastFailureCause(report.Failed))
	}
	if len(report.Failed) > 0 {
		e.logger.Warn("partial upsert",
			"attempted", report.Attempted, "stored", report.Stored,
			"unrecovered", len(report.Failed))
	}
	return report, nil
}

// recover retries every record of the failed batches individually, at finer
// granularity than the batch pass. Returns the count recovered.
func (e *Engine) recover(ctx context.Context, failed []failedBatch, report *Report) int {
	policy := Policy{
		MaxAttempts: e.cfg.RecoveryAttempts,
		BaseDelay:   e.cfg.BaseDelay,
		MaxDelay:    e.cfg.MaxDelay,
		Classify:    ClassifyFault,
	}

	recovered := 0
	for _, fb := range failed {
		for _, record := range fb.records {
			record := record
			err := policy.Do(ctx, func() error {
				return e.writer.Upsert(ctx, []core.VectorRecord{record})
			})
			if err != nil {
				report.Failed = append(report.Failed, FailedRecord{Record: record, Err: err})
				continue
			}
			report.Stored++
			recovered++
		}
	}
	return recovered
}

func lastFailureCause(failed []FailedRecord) error {
	if len(failed) == 0 {
		return nil
	}
	return failed[len(failed)-1].Err
}
