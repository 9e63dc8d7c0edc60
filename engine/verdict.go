package engine

import "strings"

// Mode is the process-wide enforcement mode, read at the start of each scan
// attempt and only observed, never mutated, by the engine.
type Mode string

const (
	// ModeHard blocks execution on rejected scans and on errors.
	ModeHard Mode = "hard"
	// ModeSoft reports statuses truthfully but never recommends halting.
	ModeSoft Mode = "soft"
	// ModeOff skips evaluation entirely: no model built, no rules run.
	ModeOff Mode = "off"
)

// ParseMode normalizes a raw mode string. Anything that is not hard or soft
// disables enforcement.
func ParseMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeHard:
		return ModeHard
	case ModeSoft:
		return ModeSoft
	}
	return ModeOff
}

// Decision separates the truthful scan status from the enforcement action.
// Soft mode reports rejected results honestly while Halt stays false;
// severities are never downgraded by mode.
type Decision struct {
	Status Status
	Halt   bool
}

// Decide maps a scan result to the enforced decision for the given mode.
func Decide(mode Mode, result *ScanResult) Decision {
	d := Decision{Status: result.Status}
	if mode == ModeHard && result.Status == StatusRejected {
		d.Halt = true
	}
	return d
}

// DecideError is the decision for scans that failed with a parse or
// configuration error: hard mode blocks, soft mode reports and proceeds.
func DecideError(mode Mode) Decision {
	return Decision{Status: StatusRejected, Halt: mode == ModeHard}
}
