package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	negotiationservice "trueque/contexts/exchange/negotiation-service"
	"trueque/contexts/exchange/negotiation-service/domain/entities"
	domainerrors "trueque/contexts/exchange/negotiation-service/domain/errors"
	negotiationhttp "trueque/contexts/exchange/negotiation-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "trueque/internal/platform/httpserver/docs"
)

type Server struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	addr           string
	negotiation    negotiationservice.Module
	requestTimeout time.Duration
}

func New(
	negotiation negotiationservice.Module,
	logger *slog.Logger,
	addr string,
	requestTimeout time.Duration,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}

	s := &Server{
		mux:            http.NewServeMux(),
		logger:         logger,
		addr:           addr,
		negotiation:    negotiation,
		requestTimeout: requestTimeout,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/publications", s.handleCreatePublication)
	s.mux.HandleFunc("GET /v1/publications", s.handleListPublications)
	s.mux.HandleFunc("GET /v1/publications/{publication_id}", s.handleGetPublication)
	s.mux.HandleFunc("GET /v1/publications/{publication_id}/summary", s.handleSummary)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/offers", s.handleSubmitOffer)
	s.mux.HandleFunc("GET /v1/publications/{publication_id}/offers", s.handleListOffers)
	s.mux.HandleFunc("GET /v1/publications/{publication_id}/offers/{offer_id}", s.handleGetOffer)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/offers/{offer_id}/accept", s.handleAcceptOffer)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/offers/{offer_id}/reject", s.handleRejectOffer)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/close", s.handleCloseNegotiation)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/cancel", s.handleCancelNegotiation)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/pause", s.handlePausePublication)
	s.mux.HandleFunc("POST /v1/publications/{publication_id}/resume", s.handleResumePublication)
}

// currentActor resolves the authenticated identity forwarded by the gateway.
// Credential validation happens upstream; by the time a request reaches this
// process the headers are trusted.
func currentActor(r *http.Request) (entities.Actor, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return entities.Actor{}, false
	}
	return entities.Actor{
		ID:    id,
		Admin: r.Header.Get("X-User-Role") == "admin",
	}, true
}

func (s *Server) handleCreatePublication(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req negotiationhttp.CreatePublicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid json")
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	resp, err := s.negotiation.Handler.CreatePublicationHandler(ctx, actor.ID, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.negotiation.Handler.ListPublicationsHandler(r.Context(), query.Get("owner_id"), query.Get("state"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	resp, err := s.negotiation.Handler.GetPublicationHandler(r.Context(), r.PathValue("publication_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.negotiation.Handler.SummaryHandler(r.Context(), r.PathValue("publication_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req negotiationhttp.SubmitOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid json")
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	resp, err := s.negotiation.Handler.SubmitOfferHandler(ctx, actor.ID, r.PathValue("publication_id"), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.negotiation.Handler.ListOffersHandler(
		r.Context(),
		r.PathValue("publication_id"),
		query.Get("bidder_id"),
		query.Get("state"),
	)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.negotiation.Handler.GetOfferHandler(r.Context(), r.PathValue("publication_id"), r.PathValue("offer_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.AcceptOfferHandler(ctx, actor, r.PathValue("publication_id"), r.PathValue("offer_id"))
	})
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.RejectOfferHandler(ctx, actor, r.PathValue("publication_id"), r.PathValue("offer_id"))
	})
}

func (s *Server) handleCloseNegotiation(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.CloseNegotiationHandler(ctx, actor, r.PathValue("publication_id"))
	})
}

func (s *Server) handleCancelNegotiation(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.CancelNegotiationHandler(ctx, actor, r.PathValue("publication_id"))
	})
}

func (s *Server) handlePausePublication(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.PausePublicationHandler(ctx, actor, r.PathValue("publication_id"))
	})
}

func (s *Server) handleResumePublication(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(ctx context.Context, actor entities.Actor) error {
		return s.negotiation.Handler.ResumePublicationHandler(ctx, actor, r.PathValue("publication_id"))
	})
}

func (s *Server) moderate(w http.ResponseWriter, r *http.Request, op func(context.Context, entities.Actor) error) {
	actor, ok := currentActor(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	if err := op(ctx, actor); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// opContext bounds every mutating operation so a caller stuck behind a busy
// negotiation gets a clean busy answer instead of hanging.
func (s *Server) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrPublicationNotFound):
		writeError(w, http.StatusNotFound, "publication_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "offer_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrActorNotAllowed):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateOffer):
		writeError(w, http.StatusConflict, "duplicate_offer", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPublicationInput),
		errors.Is(err, domainerrors.ErrInvalidOfferInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domainerrors.ErrNegotiationBusy):
		writeError(w, http.StatusServiceUnavailable, "negotiation_busy", err.Error())
	default:
		s.logger.Error("unhandled negotiation error",
			"event", "http_unhandled_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, negotiationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
