package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ExecSegmenter invokes the segmentation tooling as an external command,
// passing the modality paths and output file as flags:
//
//	<command> --t1c <path> --t1n <path> --t2f <path> --t2w <path> --output <path>
type ExecSegmenter struct {
	// Command is the executable followed by any fixed leading arguments.
	Command []string
}

// NewExecSegmenter builds a segmenter around command
func NewExecSegmenter(command []string) (*ExecSegmenter, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("segmentation command is empty")
	}
	return &ExecSegmenter{Command: command}, nil
}

// Segment runs the command and blocks until it exits. Stderr is folded into
// the returned error on failure.
func (s *ExecSegmenter) Segment(ctx context.Context, in Inputs, outputFile string) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := append([]string{}, s.Command[1:]...)
	args = append(args,
		"--t1c", in.T1c,
		"--t1n", in.T1n,
		"--t2f", in.T2f,
		"--t2w", in.T2w,
		"--output", outputFile,
	)

	cmd := exec.CommandContext(ctx, s.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("segmentation command failed: %w: %s", err, stderr.String())
		}
		return fmt.Errorf("segmentation command failed: %w", err)
	}
	return nil
}
