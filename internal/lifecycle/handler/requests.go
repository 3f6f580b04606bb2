package handler

import (
	"strings"

	"custodian/pkg/validation"
)

type SetModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=manual automated"`
}

func (r *SetModeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
}

func (r *SetModeRequest) Validate() error {
	return validation.Validate(r)
}
