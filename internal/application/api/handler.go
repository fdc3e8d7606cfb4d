package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caterrides-core/internal/application"
	"caterrides-core/internal/auth"
	"caterrides-core/internal/directory"
	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
	"caterrides-core/internal/pass"
	"caterrides-core/internal/utils"
)

type Handler struct {
	ApplicationService *application.Service
	DirectoryService   *directory.Service
	PassGenerator      *pass.Generator
	Logger             *logger.Logger
}

func NewHandler(applicationService *application.Service, directoryService *directory.Service, passGenerator *pass.Generator, log *logger.Logger) *Handler {
	return &Handler{
		ApplicationService: applicationService,
		DirectoryService:   directoryService,
		PassGenerator:      passGenerator,
		Logger:             log,
	}
}

// Apply handles POST /api/rider/apply/{eventId}.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())
	h.Logger.Info("API", fmt.Sprintf("Apply: eventId=%s rider=%s", eventID, caller.Subject))

	_, err := h.ApplicationService.Apply(eventID, caller.Subject)
	if err != nil {
		h.Logger.Info("API", fmt.Sprintf("Apply: rejected: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Applied successfully!")
}

// Withdraw handles DELETE /api/rider/apply/{eventId}.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())
	h.Logger.Info("API", fmt.Sprintf("Withdraw: eventId=%s rider=%s", eventID, caller.Subject))

	if err := h.ApplicationService.Withdraw(eventID, caller.Subject); err != nil {
		h.Logger.Info("API", fmt.Sprintf("Withdraw: rejected: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Application withdrawn")
}

// MyApplications handles GET /api/rider/applications.
func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())

	applied, err := h.ApplicationService.MyApplications(caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyApplications: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, applied)
}

// RiderProfile handles GET /api/rider/profile: the rider's public profile
// plus their applied events, the shape the dashboard renders.
func (h *Handler) RiderProfile(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())

	rider, err := h.DirectoryService.RiderProfile(caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RiderProfile: %v", err))
		utils.WriteError(w, err)
		return
	}

	applied, err := h.ApplicationService.MyApplications(caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RiderProfile: applications: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, struct {
		*models.Rider
		AppliedEvents []models.AppliedEvent `json:"appliedEvents"`
	}{Rider: rider, AppliedEvents: applied})
}

// MyApplicants handles GET /api/organizer/myapplicants/{eventId}.
func (h *Handler) MyApplicants(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())

	applicants, err := h.ApplicationService.Applicants(eventID, caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyApplicants: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, struct {
		Applicants []models.Applicant `json:"applicants"`
	}{Applicants: applicants})
}

// Respond handles PUT /api/organizer/event/{eventId}/respond/{riderId}.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	riderID := chi.URLParam(r, "riderId")
	caller := auth.Caller(r.Context())

	var req models.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !models.ValidDecision(req.Action) {
		utils.WriteMessage(w, http.StatusBadRequest, fmt.Sprintf("action must be %q or %q", models.StatusAccepted, models.StatusRejected))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Respond: eventId=%s riderId=%s action=%s", eventID, riderID, req.Action))

	app, err := h.ApplicationService.Respond(eventID, caller.Subject, riderID, req.Action)
	if err != nil {
		h.Logger.Info("API", fmt.Sprintf("Respond: rejected: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, app)
}

// WorkPass handles GET /api/rider/pass/{eventId}: an encrypted QR image for
// an accepted application.
func (h *Handler) WorkPass(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())

	app, err := h.ApplicationService.AcceptedApplication(eventID, caller.Subject)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	png, err := h.PassGenerator.GenerateWorkPass(*app)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("WorkPass: failed to generate pass: %v", err))
		utils.WriteMessage(w, http.StatusInternalServerError, "failed to generate pass")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
