package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cardtrack/internal/bootstrap/logging"
	domaincard "cardtrack/internal/domain/card"
	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
	"cardtrack/internal/usecase/card"
)

// cardAPIService is the part of card.Service the HTTP API calls.
type cardAPIService interface {
	CreateCard(ctx context.Context, input card.CreateCardInput) (ports.Card, error)
	ApplyProvisionalSolution(ctx context.Context, input card.SolutionInput) (ports.Card, error)
	ApplyDefinitiveSolution(ctx context.Context, input card.SolutionInput) (ports.Card, error)
	ChangePriority(ctx context.Context, input card.ChangePriorityInput) (ports.Card, bool, error)
	ChangeMechanic(ctx context.Context, input card.ChangeMechanicInput) (ports.Card, bool, error)
	ListBySite(ctx context.Context, siteID uint64) ([]ports.Card, error)
	ListByNode(ctx context.Context, siteID uint64, nodeID uint64) ([]ports.Card, error)
	ListByLevelMachineID(ctx context.Context, siteID uint64, machineID string) ([]ports.Card, error)
	ListByResponsible(ctx context.Context, responsibleID uint64) ([]ports.Card, error)
	ListByParentNode(ctx context.Context, parentID uint64, siteID uint64) ([]ports.Card, error)
	GetByCorrelationID(ctx context.Context, cardUUID string) (ports.Card, error)
	StatusByCorrelationID(ctx context.Context, cardUUID string) (domaincard.Status, error)
	GetByIDWithEvidences(ctx context.Context, cardID uint64) (card.CardWithEvidences, error)
	ListNotes(ctx context.Context, cardID uint64) ([]ports.CardNote, error)
	CountBy(ctx context.Context, siteID uint64, by ports.GroupBy) ([]ports.GroupCount, error)
	WeeklySeries(ctx context.Context, siteID uint64) ([]domaincard.WeeklyPoint, error)
}

type cardAPIHandler struct {
	svc cardAPIService
}

type createCardRequest struct {
	CardUUID        string                     `json:"cardUUID"`
	SiteID          uint64                     `json:"siteId"`
	AreaID          uint64                     `json:"areaId"`
	PriorityID      uint64                     `json:"priorityId"`
	CardTypeID      uint64                     `json:"cardTypeId"`
	PreclassifierID uint64                     `json:"preclassifierId"`
	CreatorID       uint64                     `json:"creatorId"`
	ResponsibleID   uint64                     `json:"responsibleId"`
	CardTypeValue   string                     `json:"cardTypeValue"`
	Comments        string                     `json:"comments"`
	Evidences       []domaincard.EvidenceInput `json:"evidences"`
}

type provisionalSolutionRequest struct {
	CardID                       uint64                     `json:"cardId"`
	UserProvisionalSolutionID    uint64                     `json:"userProvisionalSolutionId"`
	UserAppProvisionalSolutionID uint64                     `json:"userAppProvisionalSolutionId"`
	Comments                     string                     `json:"comments"`
	Evidences                    []domaincard.EvidenceInput `json:"evidences"`
}

type definitiveSolutionRequest struct {
	CardID                      uint64                     `json:"cardId"`
	UserDefinitiveSolutionID    uint64                     `json:"userDefinitiveSolutionId"`
	UserAppDefinitiveSolutionID uint64                     `json:"userAppDefinitiveSolutionId"`
	Comments                    string                     `json:"comments"`
	Evidences                   []domaincard.EvidenceInput `json:"evidences"`
}

type changePriorityRequest struct {
	CardID        uint64 `json:"cardId"`
	PriorityID    uint64 `json:"priorityId"`
	IDOfUpdatedBy uint64 `json:"idOfUpdatedBy"`
}

type changeMechanicRequest struct {
	CardID        uint64 `json:"cardId"`
	MechanicID    uint64 `json:"mechanicId"`
	IDOfUpdatedBy uint64 `json:"idOfUpdatedBy"`
}

type reassignResponse struct {
	Card    ports.Card `json:"card"`
	Changed bool       `json:"changed"`
}

type cardStatusResponse struct {
	CardUUID string            `json:"cardUUID"`
	Status   domaincard.Status `json:"status"`
	Label    string            `json:"label"`
}

type cardAPIErrorResponse struct {
	Error string `json:"error"`
}

func newCardAPIHandler(svc cardAPIService) http.Handler {
	h := &cardAPIHandler{svc: svc}

	r := chi.NewRouter()
	r.Route("/card", func(r chi.Router) {
		r.Get("/all/level-machine/{siteId}/{levelMachineId}", h.listByLevelMachine)
		r.Get("/all/node/{siteId}/{nodeId}", h.listByNode)
		r.Get("/all/zone/{superiorId}/{siteId}", h.listByZone)
		r.Get("/all/{siteId}", h.listBySite)
		r.Get("/uuid/{uuid}", h.getByUUID)
		r.Get("/status/{uuid}", h.statusByUUID)
		r.Get("/responsible/{responsibleId}", h.listByResponsible)
		r.Get("/site/weeks/{siteId}", h.weeklySeries)
		r.Get("/site/{kind}/{siteId}", h.countBy)
		r.Get("/notes/{cardId}", h.listNotes)
		r.Get("/{cardId}", h.getByID)
		r.Post("/create", h.create)
		r.Put("/update/provisional-solution", h.provisionalSolution)
		r.Put("/update/definitive-solution", h.definitiveSolution)
		r.Post("/update/priority", h.changePriority)
		r.Post("/update/mechanic", h.changeMechanic)
	})
	return r
}

func (h *cardAPIHandler) listBySite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	cards, err := h.svc.ListBySite(r.Context(), siteID)
	h.respond(w, r, http.StatusOK, cards, err)
}

func (h *cardAPIHandler) listByNode(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	nodeID, ok := pathID(w, r, "nodeId")
	if !ok {
		return
	}
	cards, err := h.svc.ListByNode(r.Context(), siteID, nodeID)
	h.respond(w, r, http.StatusOK, cards, err)
}

func (h *cardAPIHandler) listByLevelMachine(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	cards, err := h.svc.ListByLevelMachineID(r.Context(), siteID, chi.URLParam(r, "levelMachineId"))
	h.respond(w, r, http.StatusOK, cards, err)
}

func (h *cardAPIHandler) listByZone(w http.ResponseWriter, r *http.Request) {
	superiorID, ok := pathID(w, r, "superiorId")
	if !ok {
		return
	}
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	cards, err := h.svc.ListByParentNode(r.Context(), superiorID, siteID)
	h.respond(w, r, http.StatusOK, cards, err)
}

func (h *cardAPIHandler) getByUUID(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetByCorrelationID(r.Context(), chi.URLParam(r, "uuid"))
	h.respond(w, r, http.StatusOK, c, err)
}

func (h *cardAPIHandler) statusByUUID(w http.ResponseWriter, r *http.Request) {
	cardUUID := chi.URLParam(r, "uuid")
	status, err := h.svc.StatusByCorrelationID(r.Context(), cardUUID)
	h.respond(w, r, http.StatusOK, cardStatusResponse{CardUUID: cardUUID, Status: status, Label: status.Label()}, err)
}

func (h *cardAPIHandler) listByResponsible(w http.ResponseWriter, r *http.Request) {
	responsibleID, ok := pathID(w, r, "responsibleId")
	if !ok {
		return
	}
	cards, err := h.svc.ListByResponsible(r.Context(), responsibleID)
	h.respond(w, r, http.StatusOK, cards, err)
}

func (h *cardAPIHandler) getByID(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	out, err := h.svc.GetByIDWithEvidences(r.Context(), cardID)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *cardAPIHandler) listNotes(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardId")
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(r.Context(), cardID)
	h.respond(w, r, http.StatusOK, notes, err)
}

func (h *cardAPIHandler) countBy(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	counts, err := h.svc.CountBy(r.Context(), siteID, ports.GroupBy(chi.URLParam(r, "kind")))
	h.respond(w, r, http.StatusOK, counts, err)
}

func (h *cardAPIHandler) weeklySeries(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteId")
	if !ok {
		return
	}
	series, err := h.svc.WeeklySeries(r.Context(), siteID)
	h.respond(w, r, http.StatusOK, series, err)
}

func (h *cardAPIHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCard(r.Context(), card.CreateCardInput{
		CardUUID:        req.CardUUID,
		SiteID:          req.SiteID,
		NodeID:          req.AreaID,
		PriorityID:      req.PriorityID,
		CardTypeID:      req.CardTypeID,
		PreclassifierID: req.PreclassifierID,
		CreatorID:       req.CreatorID,
		ResponsibleID:   req.ResponsibleID,
		CardTypeValue:   req.CardTypeValue,
		Comments:        req.Comments,
		Evidences:       req.Evidences,
	})
	h.respond(w, r, http.StatusCreated, c, err)
}

func (h *cardAPIHandler) provisionalSolution(w http.ResponseWriter, r *http.Request) {
	var req provisionalSolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.svc.ApplyProvisionalSolution(r.Context(), card.SolutionInput{
		CardID:            req.CardID,
		ResponsibleUserID: req.UserProvisionalSolutionID,
		AppUserID:         req.UserAppProvisionalSolutionID,
		Comments:          req.Comments,
		Evidences:         req.Evidences,
	})
	h.respond(w, r, http.StatusOK, c, err)
}

func (h *cardAPIHandler) definitiveSolution(w http.ResponseWriter, r *http.Request) {
	var req definitiveSolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.svc.ApplyDefinitiveSolution(r.Context(), card.SolutionInput{
		CardID:            req.CardID,
		ResponsibleUserID: req.UserDefinitiveSolutionID,
		AppUserID:         req.UserAppDefinitiveSolutionID,
		Comments:          req.Comments,
		Evidences:         req.Evidences,
	})
	h.respond(w, r, http.StatusOK, c, err)
}

func (h *cardAPIHandler) changePriority(w http.ResponseWriter, r *http.Request) {
	var req changePriorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, changed, err := h.svc.ChangePriority(r.Context(), card.ChangePriorityInput{
		CardID:     req.CardID,
		PriorityID: req.PriorityID,
		ActorID:    req.IDOfUpdatedBy,
	})
	h.respond(w, r, http.StatusOK, reassignResponse{Card: c, Changed: changed}, err)
}

func (h *cardAPIHandler) changeMechanic(w http.ResponseWriter, r *http.Request) {
	var req changeMechanicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, changed, err := h.svc.ChangeMechanic(r.Context(), card.ChangeMechanicInput{
		CardID:     req.CardID,
		MechanicID: req.MechanicID,
		ActorID:    req.IDOfUpdatedBy,
	})
	h.respond(w, r, http.StatusOK, reassignResponse{Card: c, Changed: changed}, err)
}

func (h *cardAPIHandler) respond(w http.ResponseWriter, r *http.Request, status int, value any, err error) {
	if err != nil {
		code := statusForError(err)
		if code == http.StatusInternalServerError {
			logging.Error(
				logging.WithAttrs(r.Context(), slog.String("component", "cmd.card_api")),
				"card request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("err", errs.Loggable(err)),
			)
		}
		writeAPIError(w, code, err.Error())
		return
	}
	writeAPIJSON(w, status, value)
}

func statusForError(err error) int {
	var ve *domaincard.ValidationError
	switch {
	case errors.As(err, &ve):
		if ve.Kind == domaincard.InvalidInput {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case errors.Is(err, domaincard.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domaincard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domaincard.ErrResolution):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		writeAPIError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, cardAPIErrorResponse{Error: message})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
