package handler

import (
	"custodian/internal/lifecycle/models"
)

type ModeResponse struct {
	Mode models.Mode `json:"mode"`
}

// RunResponse wraps a run summary. Note explains why a manual-mode run
// changed nothing.
type RunResponse struct {
	*models.RunResult
	Note string `json:"note,omitempty"`
}

type AccountListResponse struct {
	Accounts []models.AccountReport `json:"accounts"`
	Count    int                    `json:"count"`
}

func toAccountList(reports []models.AccountReport) *AccountListResponse {
	if reports == nil {
		reports = []models.AccountReport{}
	}
	return &AccountListResponse{Accounts: reports, Count: len(reports)}
}
