// Package handler exposes the administrator endpoints for the lifecycle engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodian/internal/lifecycle/models"
	id "custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/httputil"
	"custodian/pkg/platform/middleware/admin"
	request "custodian/pkg/platform/middleware/request"
)

const manualRunNote = "automation mode is manual: accounts were classified but no action was taken"

// Service runs the lifecycle engine and the manual per-account actions.
type Service interface {
	Run(ctx context.Context, mode models.Mode) (*models.RunResult, error)
	Preview(ctx context.Context) ([]models.AccountReport, error)
	InactiveAccounts(ctx context.Context) ([]models.AccountReport, error)
	LowAccuracyAccounts(ctx context.Context) ([]models.AccountReport, error)
	WarnInactive(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error)
	WarnLowAccuracy(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error)
	DeleteAccount(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error)
}

// Settings reads and changes the automation mode.
type Settings interface {
	Mode(ctx context.Context) models.Mode
	SetMode(ctx context.Context, raw string, actor string) (models.Mode, error)
}

type Handler struct {
	service  Service
	settings Settings
	logger   *slog.Logger
}

func New(service Service, settings Settings, logger *slog.Logger) *Handler {
	return &Handler{service: service, settings: settings, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/automation/settings", h.HandleGetSettings)
	r.Put("/admin/automation/settings", h.HandleSetSettings)
	r.Post("/admin/automation/run", h.HandleRun)
	r.Get("/admin/automation/preview", h.HandlePreview)
	r.Get("/admin/accounts/inactive", h.HandleListInactive)
	r.Get("/admin/accounts/low-accuracy", h.HandleListLowAccuracy)
	r.Post("/admin/accounts/{id}/warn-inactive", h.HandleWarnInactive)
	r.Post("/admin/accounts/{id}/warn-low-accuracy", h.HandleWarnLowAccuracy)
	r.Post("/admin/accounts/{id}/delete", h.HandleDelete)
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &ModeResponse{Mode: h.settings.Mode(r.Context())})
}

// HandleSetSettings switches between manual and automated mode.
func (h *Handler) HandleSetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetModeRequest](w, r, h.logger)
	if !ok {
		return
	}

	mode, err := h.settings.SetMode(ctx, req.Mode, admin.GetAdminActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "set automation mode failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ModeResponse{Mode: mode})
}

// HandleRun triggers a run in the current mode. An aborted run still
// returns its partial summary, with the status taken from the error.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	mode := h.settings.Mode(ctx)
	result, err := h.service.Run(ctx, mode)
	if err != nil && result == nil {
		h.logger.ErrorContext(ctx, "automation run failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	resp := &RunResponse{RunResult: result}
	if !result.Mode.IsAutomated() {
		resp.Note = manualRunNote
	}
	status := http.StatusOK
	if err != nil {
		h.logger.ErrorContext(ctx, "automation run aborted", "error", err, "request_id", requestID)
		status = httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err))
	}
	httputil.WriteJSON(w, status, resp)
}

// HandlePreview lists what an automated run would do now, without acting.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "automation preview failed", h.service.Preview)
}

func (h *Handler) HandleListInactive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list inactive accounts failed", h.service.InactiveAccounts)
}

func (h *Handler) HandleListLowAccuracy(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "list low accuracy accounts failed", h.service.LowAccuracyAccounts)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, failure string, fetch func(context.Context) ([]models.AccountReport, error)) {
	ctx := r.Context()
	reports, err := fetch(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, failure, "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountList(reports))
}

func (h *Handler) HandleWarnInactive(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "warn inactive account failed", h.service.WarnInactive)
}

func (h *Handler) HandleWarnLowAccuracy(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "warn low accuracy account failed", h.service.WarnLowAccuracy)
}

// HandleDelete soft-deletes an account regardless of the automation mode.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "delete account failed", h.service.DeleteAccount)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, failure string, do func(context.Context, id.AccountID) (*models.ActionReport, error)) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	accountID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	report, err := do(ctx, accountID)
	if err != nil {
		h.logger.ErrorContext(ctx, failure, "error", err, "request_id", requestID, "account_id", accountID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
