package pipeline

import (
	"errors"
	"fmt"

	"github.com/you/tg-encoder/internal/encoder"
)

// Job-level failure classes. Every failure is terminal: the user resubmits
// the source video, nothing is retried.
var (
	ErrDownload = errors.New("download failed")
	ErrEncode   = errors.New("encode failed")
	ErrUpload   = errors.New("upload failed")
)

// userMessage turns a pipeline error into the chat text shown to the user.
// Encoder exits include the tool's diagnostic tail.
func userMessage(err error) string {
	var exit *encoder.ExitError
	if errors.As(err, &exit) {
		return fmt.Sprintf("❌ Encoding failed (code %d):\n\n%s", exit.ExitCode, exit.Stderr)
	}
	switch {
	case errors.Is(err, ErrDownload):
		return "❌ Could not download your video. Please send it again."
	case errors.Is(err, ErrEncode):
		return fmt.Sprintf("❌ Encoding failed:\n\n%v", err)
	case errors.Is(err, ErrUpload):
		return "❌ Encoding finished but the upload failed. Please send the video again."
	default:
		return fmt.Sprintf("❌ An error occurred:\n\n%v", err)
	}
}
