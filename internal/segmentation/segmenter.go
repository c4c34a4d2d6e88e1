// Package segmentation wraps the external brain-MRI segmentation tooling.
// The call is opaque, long-running and blocking; callers are responsible for
// keeping it off the request-handling path.
package segmentation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/neuroseg/neuroseg/internal/types"
)

// Inputs holds the resolved file paths for the four MRI modalities of one
// study.
type Inputs struct {
	T1c string
	T1n string
	T2f string
	T2w string
}

// Map returns the inputs keyed by modality name, for the result payload
func (in Inputs) Map() map[string]string {
	return map[string]string{
		"t1c": in.T1c,
		"t1n": in.T1n,
		"t2f": in.T2f,
		"t2w": in.T2w,
	}
}

// ResolveInputs locates the modality files for studyCode under studiesDir.
// Each modality must match exactly one "*<suffix>" file.
func ResolveInputs(studiesDir, studyCode string) (Inputs, error) {
	studyDir := filepath.Join(studiesDir, studyCode)

	paths := make(map[string]string, len(types.RequiredSuffixes))
	for _, suffix := range types.RequiredSuffixes {
		matches, err := filepath.Glob(filepath.Join(studyDir, "*"+suffix))
		if err != nil {
			return Inputs{}, fmt.Errorf("glob %s: %w", suffix, err)
		}
		if len(matches) == 0 {
			return Inputs{}, fmt.Errorf("missing %s in %s", suffix, studyDir)
		}
		paths[suffix] = matches[0]
	}

	return Inputs{
		T1c: paths["t1c.nii.gz"],
		T1n: paths["t1n.nii.gz"],
		T2f: paths["t2f.nii.gz"],
		T2w: paths["t2w.nii.gz"],
	}, nil
}

// Segmenter runs one segmentation inference. Implementations block for the
// duration of the run, which may be minutes.
type Segmenter interface {
	Segment(ctx context.Context, in Inputs, outputFile string) error
}

// SimulatedSegmenter stands in for the real model: it sleeps for Delay and
// writes an empty output file. Used for requests with the simulate flag set
// and in tests.
type SimulatedSegmenter struct {
	Delay time.Duration
}

// Segment writes a placeholder output file after Delay
func (s *SimulatedSegmenter) Segment(ctx context.Context, _ Inputs, outputFile string) error {
	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outputFile, nil, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
