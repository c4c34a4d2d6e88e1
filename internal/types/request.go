package types

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RequiredSuffixes are the MRI modality file suffixes every study
// directory must contain exactly once each.
var RequiredSuffixes = []string{"t1c.nii.gz", "t1n.nii.gz", "t2f.nii.gz", "t2w.nii.gz"}

// ValidationError is returned when a segmentation request is malformed.
// No task record is ever created for a rejected request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// SegmentationRequest represents a request to segment one study
type SegmentationRequest struct {
	StudyCode  string `json:"study_code"`
	Simulate   bool   `json:"simulate,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// Validate checks that the study directory exists under studiesDir and
// contains one file per required modality suffix.
func (r *SegmentationRequest) Validate(studiesDir string) error {
	if r.StudyCode == "" {
		return &ValidationError{Msg: "study_code is required"}
	}
	studyDir := filepath.Join(studiesDir, r.StudyCode)
	info, err := os.Stat(studyDir)
	if err != nil || !info.IsDir() {
		return &ValidationError{Msg: fmt.Sprintf("study directory not found: %s", studyDir)}
	}

	var missing []string
	for _, suffix := range RequiredSuffixes {
		matches, err := filepath.Glob(filepath.Join(studyDir, "*"+suffix))
		if err != nil || len(matches) == 0 {
			missing = append(missing, suffix)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Msg: fmt.Sprintf("missing required files in %s: %s", studyDir, strings.Join(missing, ", ")),
		}
	}

	return nil
}
