// Package stretch changes playback tempo of inner material.
//
// Resampler changes duration and pitch together by asking the inner
// supplier for a scaled destination rate. Stretcher preserves pitch by
// driving a time-stretch Engine with small chunks of inner material.
package stretch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned when tempo mode cannot be parsed.
var ErrInvalidMode = errors.New("invalid tempo mode")

// Mode selects which stage applies the tempo factor.
type Mode int

const (
	// Resample changes pitch together with tempo.
	Resample Mode = iota
	// Stretch preserves pitch.
	Stretch
)

// ParseMode parses mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "resample":
		return Resample, nil
	case "stretch":
		return Stretch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) String() string {
	switch m {
	case Resample:
		return "resample"
	case Stretch:
		return "stretch"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid returns true for known modes.
func (m Mode) Valid() bool {
	return m == Resample || m == Stretch
}

// tempo holds the state shared by both stages.
type tempo struct {
	enabled     bool
	responsible bool
	factor      float64
}

func (t *tempo) active() bool {
	return t.enabled && t.responsible && t.factor > 0 && t.factor != 1
}

// SetEnabled toggles the stage.
func (t *tempo) SetEnabled(enabled bool) {
	t.enabled = enabled
}

// SetTempoFactor sets ratio of playback tempo to material tempo.
// Non-positive values are ignored.
func (t *tempo) SetTempoFactor(factor float64) {
	if factor > 0 {
		t.factor = factor
	}
}

// TempoFactor returns current ratio.
func (t *tempo) TempoFactor() float64 {
	return t.factor
}

// SetResponsibleForTempo decides if this stage applies the tempo factor.
func (t *tempo) SetResponsibleForTempo(responsible bool) {
	t.responsible = responsible
}
