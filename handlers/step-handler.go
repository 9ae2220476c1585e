package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/services"
)

type StepHandler struct {
	service *services.StepService
}

func NewStepHandler(service *services.StepService) *StepHandler {
	return &StepHandler{service: service}
}

func (h *StepHandler) CreateStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var input services.CreateStepInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.New(apperrors.ValidationFailed, "invalid request payload"))
		return
	}

	step, err := h.service.CreateStep(r.Context(), actor, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (h *StepHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	stepID, ok := pathID(w, r, "stepID")
	if !ok {
		return
	}

	step, err := h.service.GetStep(r.Context(), actor, stepID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *StepHandler) GetStepsByTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	steps, err := h.service.GetStepsByTask(r.Context(), actor, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"steps": steps})
}

func (h *StepHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	stepID, ok := pathID(w, r, "stepID")
	if !ok {
		return
	}

	var input services.UpdateStepInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.New(apperrors.ValidationFailed, "invalid request payload"))
		return
	}

	step, err := h.service.UpdateStep(r.Context(), actor, stepID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"result": "Your information was updated successfully",
		"data":   step,
	})
}

func (h *StepHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	stepID, ok := pathID(w, r, "stepID")
	if !ok {
		return
	}

	if err := h.service.DeleteStep(r.Context(), actor, stepID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "The Step was deleted"})
}
