package models

import (
	"strings"

	dErrors "custodian/pkg/domain-errors"
)

// Mode gates whether the engine may act autonomously.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomated Mode = "automated"
)

// ParseMode is the only place raw mode strings are interpreted.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeManual:
		return ModeManual, nil
	case ModeAutomated:
		return ModeAutomated, nil
	default:
		return ModeManual, dErrors.New(dErrors.CodeValidation, "mode must be one of [manual automated]")
	}
}

// NormalizeMode maps anything that is not a valid mode to manual.
func NormalizeMode(raw string) Mode {
	m, err := ParseMode(raw)
	if err != nil {
		return ModeManual
	}
	return m
}

func (m Mode) IsAutomated() bool { return m == ModeAutomated }

func (m Mode) String() string { return string(m) }
