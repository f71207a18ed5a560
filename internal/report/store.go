package report

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang/snappy"
	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/storage"
)

const (
	runsPrefix       = "runs"
	reportObject     = "report.json"
	transcriptSuffix = ".json.sz"
)

// Store writes and reads reports in object storage. Each run lives under
// runs/<run id>/.
type Store struct {
	storage     storage.ObjectStorage
	log         *zap.Logger
	concurrency int
}

// NewStore creates a store over s.
func NewStore(s storage.ObjectStorage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{storage: s, log: log, concurrency: 8}
}

// ReportPath is the object path of a run's summary.
func ReportPath(runID string) string {
	return path.Join(runsPrefix, runID, reportObject)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// transcriptPath names a scenario's transcript object. The index keeps names
// that sanitize alike apart.
func transcriptPath(runID string, index int, name string) string {
	file := fmt.Sprintf("%03d-%s%s", index, unsafeChars.ReplaceAllString(name, "_"), transcriptSuffix)
	return path.Join(runsPrefix, runID, "transcripts", file)
}

// Save writes the transcript of every result, then the summary. results must
// be the ones r was built from. A run id is written once: saving it again
// fails with storage.ErrPreconditionFailed.
func (s *Store) Save(ctx context.Context, r *Report, results []scenario.Result) error {
	if len(results) != len(r.Scenarios) {
		return fmt.Errorf("report has %d scenarios, got %d results", len(r.Scenarios), len(results))
	}

	for i, res := range results {
		if len(res.Transcript) == 0 {
			continue
		}
		data, err := EncodeTranscript(res.Transcript)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", res.Scenario, err)
		}
		p := transcriptPath(r.RunID, i, res.Scenario)
		if err := s.storage.Put(ctx, p, data); err != nil {
			return oerrors.NewStorageError(oerrors.CodeUploadFailed,
				fmt.Sprintf("scenario %s: write transcript", res.Scenario), err)
		}
		r.Scenarios[i].Transcript = p
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := s.storage.PutIfAbsent(ctx, ReportPath(r.RunID), data); err != nil {
		return oerrors.NewStorageError(oerrors.CodeUploadFailed, "write report "+r.RunID, err)
	}

	s.log.Info("Report saved",
		zap.String("run_id", r.RunID),
		zap.String("path", ReportPath(r.RunID)),
		zap.Int("scenarios", r.Summary.Total),
		zap.Int("failed", r.Summary.Failed+r.Summary.Errors))
	return nil
}

// Load reads the summary of one run.
func (s *Store) Load(ctx context.Context, runID string) (*Report, error) {
	data, err := s.storage.Get(ctx, ReportPath(runID))
	if err != nil {
		return nil, readError("read report "+runID, err)
	}
	return decodeReport(data)
}

func readError(message string, err error) error {
	code := oerrors.CodeDownloadFailed
	if errors.Is(err, storage.ErrObjectNotFound) {
		code = oerrors.CodeObjectNotFound
	}
	return oerrors.NewStorageError(code, message, err)
}

func decodeReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// Transcript reads a scenario transcript saved with a report.
func (s *Store) Transcript(ctx context.Context, objectPath string) ([]endpoint.Entry, error) {
	data, err := s.storage.Get(ctx, objectPath)
	if err != nil {
		return nil, readError("read transcript "+objectPath, err)
	}
	return DecodeTranscript(data)
}

// Runs loads every saved run, oldest first. Summaries that cannot be read
// are logged and skipped.
func (s *Store) Runs(ctx context.Context) ([]*Report, error) {
	objects, err := s.storage.ListObjects(ctx, runsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var paths []string
	for _, o := range objects {
		if strings.HasSuffix(o, "/"+reportObject) {
			paths = append(paths, o)
		}
	}

	fetched := storage.NewBatchFetcher(s.storage, s.concurrency).Fetch(ctx, paths)
	for p, err := range fetched.Errors {
		s.log.Warn("Skipping unreadable report", zap.String("path", p), zap.Error(err))
	}

	reports := make([]*Report, 0, len(fetched.Objects))
	for p, data := range fetched.Objects {
		r, err := decodeReport(data)
		if err != nil {
			s.log.Warn("Skipping malformed report", zap.String("path", p), zap.Error(err))
			continue
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].StartedAt.Equal(reports[j].StartedAt) {
			return reports[i].RunID < reports[j].RunID
		}
		return reports[i].StartedAt.Before(reports[j].StartedAt)
	})
	return reports, nil
}

// EncodeTranscript serializes a transcript as snappy-compressed JSON.
func EncodeTranscript(entries []endpoint.Entry) ([]byte, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeTranscript reverses EncodeTranscript.
func DecodeTranscript(data []byte) ([]endpoint.Entry, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress transcript: %w", err)
	}
	var entries []endpoint.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return entries, nil
}
