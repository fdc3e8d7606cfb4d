package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caterrides-core/internal/auth"
	"caterrides-core/internal/directory"
	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
	"caterrides-core/internal/utils"
)

type Handler struct {
	DirectoryService *directory.Service
	Logger           *logger.Logger
}

func NewHandler(directoryService *directory.Service, log *logger.Logger) *Handler {
	return &Handler{DirectoryService: directoryService, Logger: log}
}

// ListEvents handles GET /api/rider/events?place=&sortBy=&order=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	place := r.URL.Query().Get("place")
	sortBy := r.URL.Query().Get("sortBy")
	order := r.URL.Query().Get("order")

	events, err := h.DirectoryService.ListEvents(place, sortBy, order)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, events)
}

// EventInfo handles GET /api/rider/eventinfo/{eventId}.
func (h *Handler) EventInfo(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	info, err := h.DirectoryService.EventInfo(eventID)
	if err != nil {
		h.Logger.Info("API", fmt.Sprintf("EventInfo: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, info)
}

// PostEvent handles POST /api/organizer/post-event.
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())

	var req models.PostEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.DirectoryService.CreateEvent(caller.Subject, req)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidEvent) {
			utils.WriteMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("API", fmt.Sprintf("PostEvent: %v", err))
		utils.WriteError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("PostEvent: organizer %s posted event %s", caller.Subject, event.ID))
	utils.WriteJSON(w, http.StatusCreated, struct {
		Message string        `json:"message"`
		Event   *models.Event `json:"event"`
	}{Message: "Event posted successfully", Event: event})
}

// UpdateEvent handles PUT /api/organizer/updateevent/{eventId}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())

	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.DirectoryService.UpdateEvent(eventID, caller.Subject, req)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidEvent) {
			utils.WriteMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Info("API", fmt.Sprintf("UpdateEvent: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/organizer/deleteevent/{eventId}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())

	if err := h.DirectoryService.DeleteEvent(eventID, caller.Subject); err != nil {
		h.Logger.Info("API", fmt.Sprintf("DeleteEvent: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Event deleted")
}

// MyEvents handles GET /api/organizer/myevents.
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())

	events, err := h.DirectoryService.MyEvents(caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyEvents: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, events)
}

// EventDetails handles GET /api/organizer/eventdetails/{eventId}.
func (h *Handler) EventDetails(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.Caller(r.Context())

	event, err := h.DirectoryService.EventDetails(eventID, caller.Subject)
	if err != nil {
		h.Logger.Info("API", fmt.Sprintf("EventDetails: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

// OrganizerProfile handles GET /api/organizer/profile.
func (h *Handler) OrganizerProfile(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())

	organizer, err := h.DirectoryService.OrganizerProfile(caller.Subject)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OrganizerProfile: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, organizer)
}
