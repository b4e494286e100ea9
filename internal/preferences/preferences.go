// Package preferences holds the scanner's persisted settings and the audio
// feedback they select.
package preferences

import "context"

// KeyAlternateAudio switches the success tone to the alternate one.
const KeyAlternateAudio = "alternate_audio"

// Tone names the device plays after a scan.
const (
	ToneSuccess          = "success"
	ToneSuccessAlternate = "bronco"
	ToneFailure          = "failure"
)

// Feedback is the pair of tones for the current settings.
type Feedback struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
}

// Tones returns the feedback tones for the alternate audio setting.
func Tones(alternate bool) Feedback {
	if alternate {
		return Feedback{Success: ToneSuccessAlternate, Failure: ToneFailure}
	}
	return Feedback{Success: ToneSuccess, Failure: ToneFailure}
}

// Source reads and writes boolean preferences.
type Source interface {
	GetBool(ctx context.Context, key string, fallback bool) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// CurrentTones reads the alternate audio setting and returns its tones.
// A read failure falls back to the default tones along with the error.
func CurrentTones(ctx context.Context, src Source) (Feedback, error) {
	alt, err := src.GetBool(ctx, KeyAlternateAudio, false)
	if err != nil {
		return Tones(false), err
	}
	return Tones(alt), nil
}
