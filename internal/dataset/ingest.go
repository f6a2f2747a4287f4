// Package dataset reads chat fine-tuning datasets in JSONL form.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/tokens"
	"github.com/vedanthq/SLMGen/internal/validation"
)

// MinExamples is the smallest number of valid records accepted for fine-tuning.
const MinExamples = 50

// maxLineBytes bounds a single JSONL line.
const maxLineBytes = 16 << 20

// maxLoggedErrors caps how many per-line problems are logged at warn level.
const maxLoggedErrors = 5

// ErrBadExtension is returned when a dataset name does not end in .jsonl
// (optionally followed by .gz or .zst).
var ErrBadExtension = errors.New("file must have .jsonl extension")

// InsufficientDataError reports a dataset that parsed but kept too few
// valid records.
type InsufficientDataError struct {
	Valid    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Need at least %d examples for fine-tuning. You only have %d. Maybe try adding more data?", e.Required, e.Valid)
}

// Result is the outcome of a successful ingestion.
type Result struct {
	Records []models.Conversation
	Stats   *models.DatasetStats
	// Errors lists every skipped line with its reason, in file order.
	Errors []string
	// Raw is the valid records re-serialized as JSONL.
	Raw []byte
}

// Ingester parses datasets. The zero value is not usable; use NewIngester.
type Ingester struct {
	MinExamples int
	Counter     tokens.Counter
	Logger      *slog.Logger
}

// NewIngester returns an Ingester with the default minimum and the
// 4-characters-per-token estimate.
func NewIngester() *Ingester {
	return &Ingester{
		MinExamples: MinExamples,
		Counter:     tokens.NewEstimatingCounter(),
		Logger:      slog.Default(),
	}
}

// Ingest reads and validates the dataset at path with default settings.
func Ingest(path string) (*Result, error) {
	return NewIngester().Ingest(path)
}

// IngestReader reads a dataset from r with default settings. name is used
// for the extension check and to pick a decompressor.
func IngestReader(r io.Reader, name string) (*Result, error) {
	return NewIngester().IngestReader(r, name)
}

// Ingest opens path and parses it.
func (in *Ingester) Ingest(path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("dataset: stat %s: %w", path, err)
	}
	if _, err := compressionFor(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	return in.IngestReader(f, path)
}

// IngestReader parses a JSONL stream. Blank lines are skipped, malformed or
// structurally invalid lines are recorded in Result.Errors and skipped.
func (in *Ingester) IngestReader(r io.Reader, name string) (*Result, error) {
	kind, err := compressionFor(name)
	if err != nil {
		return nil, err
	}
	body, closeFn, err := decompress(r, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer closeFn()

	log := in.logger()
	log.Info("Starting ingestion", "file", filepath.Base(name))

	res := &Result{}
	var raw bytes.Buffer

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var doc any
		if err := json.Unmarshal(line, &doc); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Line %d: Invalid JSON - %v", lineNum, err))
			continue
		}
		if err := validation.ValidateRecord(doc); err != nil {
			var re *validation.RecordError
			if errors.As(err, &re) {
				res.Errors = append(res.Errors, re.At(lineNum))
			} else {
				res.Errors = append(res.Errors, fmt.Sprintf("Line %d: %v", lineNum, err))
			}
			continue
		}

		conv := toConversation(doc)
		res.Records = append(res.Records, conv)
		enc, err := json.Marshal(conv)
		if err != nil {
			return nil, fmt.Errorf("dataset: encode line %d: %w", lineNum, err)
		}
		raw.Write(enc)
		raw.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		log.Error("Failed to read file", "error", err)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(res.Records) < in.MinExamples {
		return nil, &InsufficientDataError{Valid: len(res.Records), Required: in.MinExamples}
	}

	if len(res.Errors) > 0 {
		log.Warn("Found validation issues", "count", len(res.Errors))
		for _, e := range res.Errors[:min(len(res.Errors), maxLoggedErrors)] {
			log.Warn("  - " + e)
		}
	}

	stats := ComputeStats(res.Records, in.counter())
	res.Stats = &stats
	res.Raw = raw.Bytes()

	log.Info("Ingested dataset", "examples", stats.TotalExamples, "tokens", stats.TotalTokens)
	return res, nil
}

// ComputeStats derives DatasetStats from already validated records. The
// quality fields start at 1.0 and empty, to be filled in by the validator.
func ComputeStats(records []models.Conversation, counter tokens.Counter) models.DatasetStats {
	if counter == nil {
		counter = tokens.NewEstimatingCounter()
	}
	var totalTokens, singleTurn int
	hasSystem := false
	for _, rec := range records {
		for _, m := range rec.Messages {
			totalTokens += counter.Count(m.Content)
			if m.Role == models.RoleSystem {
				hasSystem = true
			}
		}
		if rec.NonSystemCount() == 2 {
			singleTurn++
		}
	}

	stats := models.DatasetStats{
		TotalExamples:    len(records),
		TotalTokens:      totalTokens,
		HasSystemPrompts: hasSystem,
		QualityScore:     1.0,
		QualityIssues:    []string{},
	}
	if total := len(records); total > 0 {
		stats.SingleTurnPct = singleTurn * 100 / total
		stats.AvgTokensPerExample = totalTokens / total
	}
	stats.MultiTurnPct = 100 - stats.SingleTurnPct
	return stats
}

// toConversation converts a record that already passed validation.
func toConversation(doc any) models.Conversation {
	msgs := doc.(map[string]any)["messages"].([]any)
	conv := models.Conversation{Messages: make([]models.Message, 0, len(msgs))}
	for _, raw := range msgs {
		m := raw.(map[string]any)
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		conv.Messages = append(conv.Messages, models.Message{Role: models.Role(role), Content: content})
	}
	return conv
}

func (in *Ingester) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

func (in *Ingester) counter() tokens.Counter {
	if in.Counter != nil {
		return in.Counter
	}
	return tokens.NewEstimatingCounter()
}

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionZstd
)

// IsDatasetName reports whether name has an accepted dataset extension.
func IsDatasetName(name string) bool {
	_, err := compressionFor(name)
	return err == nil
}

// compressionFor checks the dataset name and reports how to decode it.
func compressionFor(name string) (compression, error) {
	lower := strings.ToLower(name)
	kind := compressionNone
	switch {
	case strings.HasSuffix(lower, ".gz"):
		kind = compressionGzip
		lower = strings.TrimSuffix(lower, ".gz")
	case strings.HasSuffix(lower, ".zst"):
		kind = compressionZstd
		lower = strings.TrimSuffix(lower, ".zst")
	}
	if filepath.Ext(lower) != ".jsonl" {
		return kind, ErrBadExtension
	}
	return kind, nil
}

func decompress(r io.Reader, kind compression) (io.Reader, func(), error) {
	switch kind {
	case compressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case compressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}
