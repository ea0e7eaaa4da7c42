package protocol

import "errors"

// Errors handlers surface to the runner. The runner decides task fate
// from these: generation failures leave the step retryable, NoTargets is
// terminal for the task instance until upstream selection is fixed.
var (
	ErrGenerationFailed = errors.New("content generation failed")
	ErrNoTargets        = errors.New("no targets selected for reply generation")
)
