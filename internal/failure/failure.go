package failure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrLipSync       = errors.New("lip-sync failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage types.Stage, operation, message string, err error) error {
	detail := buildDetail(string(stage), operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StageFailure aborts a run. Reached is the last state the run got to and
// Artifacts lists what exists on disk for manual resumption.
type StageFailure struct {
	Stage     types.Stage
	Reached   types.State
	Artifacts []types.Artifact
	Cause     error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed (reached %s): %v", f.Stage, f.Reached, f.Cause)
}

func (f *StageFailure) Unwrap() error { return f.Cause }

// AsStageFailure extracts the stage failure from an error chain.
func AsStageFailure(err error) (*StageFailure, bool) {
	var sf *StageFailure
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return 2
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
