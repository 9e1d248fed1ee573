package batch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Report summarizes a batch run.
type Report struct {
	RunID   string        `json:"run_id"`
	Mesh    string        `json:"mesh"`
	Policy  string        `json:"policy"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Queries int           `json:"queries"`
	Hits    int           `json:"hits"`
	Failed  int           `json:"failed"`
	Results []Result      `json:"results"`
}

// NewRunID returns a random identifier for a batch run.
func NewRunID() string {
	return uuid.NewString()
}

// NewReport tallies results into a report.
func NewReport(runID, meshName string, nearest bool, started time.Time, results []Result) Report {
	r := Report{
		RunID:   runID,
		Mesh:    meshName,
		Policy:  "order",
		Started: started,
		Elapsed: time.Since(started),
		Queries: len(results),
		Results: results,
	}
	if nearest {
		r.Policy = "nearest"
	}
	for _, res := range results {
		if res.Hit {
			r.Hits++
		}
		if res.Error != "" {
			r.Failed++
		}
	}
	return r
}

// WriteReport writes the report as indented JSON, creating parent
// directories as needed.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.New("encoding report failed").Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New("creating report directory failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("writing report failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
