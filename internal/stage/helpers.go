package stage

import (
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// RequireAudio returns the record's downloaded audio path.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func RequireAudio(record *catalog.Record) (string, error) {
	if record == nil || strings.TrimSpace(record.AudioPath) == "" {
		return "", services.Wrap(
			services.ErrValidation, "stage", "require audio",
			"Audio path missing from record; rerun the download stage", nil)
	}
	return record.AudioPath, nil
}

// RequireTranscript returns the record's transcript text.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func RequireTranscript(record *catalog.Record) (string, error) {
	if record == nil || strings.TrimSpace(record.TranscriptText) == "" {
		return "", services.Wrap(
			services.ErrValidation, "stage", "require transcript",
			"Transcript missing from record; rerun the transcription stage", nil)
	}
	return record.TranscriptText, nil
}
