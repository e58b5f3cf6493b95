// Package handler wires the credential API endpoints to the credential
// service and renders the public JSON envelopes.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/credential/service"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/platform/httputil"
	"github.com/UltraQuamfy/contentify/pkg/requestcontext"
)

// Service defines the credential operations the HTTP layer exposes.
type Service interface {
	Issue(ctx context.Context, params service.IssueParams) (*service.IssueResult, error)
	Verify(ctx context.Context, params service.VerifyParams) (*service.VerifyResult, error)
	GetCredential(ctx context.Context, rawID string) (*credmodels.EnrichedCredential, error)
	UserCredentials(ctx context.Context, apiKey string) (*service.UserCredentialsResult, error)
	Stats(ctx context.Context) (*service.StatsResult, error)
	ListProviders(ctx context.Context) ([]*providermodels.Provider, error)
}

// Handler wires credential endpoints to the credential service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the credential API on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/credentials/create", h.HandleCreateCredential)
	r.Get("/api/credentials/{id}", h.HandleGetCredential)
	r.Post("/api/credentials/{id}/verify", h.HandleVerifyCredential)
	r.Get("/api/user/credentials", h.HandleUserCredentials)
	r.Get("/api/stats", h.HandleStats)
	r.Get("/api/providers", h.HandleListProviders)
}

// HandleCreateCredential handles POST /api/credentials/create.
func (h *Handler) HandleCreateCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Issue(ctx, req.toParams())
	if err != nil {
		h.logFailure(ctx, "create credential failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential created",
		"request_id", requestID,
		"credential_id", result.Credential.ID.String(),
		"provider", result.Provider.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromIssueResult(result))
}

// HandleGetCredential handles GET /api/credentials/{id}.
func (h *Handler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	enriched, err := h.service.GetCredential(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "get credential failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEnriched(enriched))
}

// HandleVerifyCredential handles POST /api/credentials/{id}/verify.
func (h *Handler) HandleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, req.toParams(chi.URLParam(r, "id")))
	if err != nil {
		h.logFailure(ctx, "verify credential failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromVerifyResult(result))
}

// HandleUserCredentials handles GET /api/user/credentials.
func (h *Handler) HandleUserCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.UserCredentials(ctx, r.URL.Query().Get("apiKey"))
	if err != nil {
		h.logFailure(ctx, "list user credentials failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromUserCredentials(result))
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logFailure(ctx, "stats aggregation failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromStats(stats))
}

// HandleListProviders handles GET /api/providers.
func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providers, err := h.service.ListProviders(ctx)
	if err != nil {
		h.logFailure(ctx, "list providers failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromProviders(providers))
}

// logFailure records a failed operation, at warn level for client mistakes
// and error level for everything that indicates trouble on our side.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	level := slog.LevelError
	switch httputil.DomainCodeToHTTPStatus(domainCode(err)) {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized, http.StatusConflict:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestID,
		"error", err,
	)
}

func domainCode(err error) dErrors.Code {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return dErrors.CodeInternal
}
