package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/service"
)

// RMAHandler exposes the return workflow over HTTP.
type RMAHandler struct {
	rmaSvc  service.RMAService
	noteSvc service.NotificationService
}

func NewRMAHandler(rmaSvc service.RMAService, noteSvc service.NotificationService) *RMAHandler {
	return &RMAHandler{rmaSvc: rmaSvc, noteSvc: noteSvc}
}

func (h *RMAHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rma", h.Submit).Methods("POST")
	api.HandleFunc("/rma/number/{number}", h.GetByNumber).Methods("GET")
	api.HandleFunc("/rma/{id:[0-9]+}", h.Get).Methods("GET")
	api.HandleFunc("/rma/{id:[0-9]+}/validate", h.Validate).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/shipping", h.UpdateShipping).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/receive", h.MarkReceived).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/inspection/start", h.StartInspection).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/inspection/complete", h.CompleteInspection).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/disposition", h.MakeDisposition).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/refund", h.ProcessRefund).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/replacement", h.ProcessReplacement).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/store-credit", h.ProcessStoreCredit).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/repair/start", h.ProcessRepair).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/repair/complete", h.CompleteRepair).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/reject", h.ProcessRejection).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/cancel", h.Cancel).Methods("POST")
	api.HandleFunc("/rma/{id:[0-9]+}/close", h.Close).Methods("POST")
	api.HandleFunc("/refunds/{id:[0-9]+}/complete", h.CompleteRefund).Methods("POST")
	api.HandleFunc("/users/{userID:[0-9]+}/rma", h.ListUserRMAs).Methods("GET")
	api.HandleFunc("/users/{userID:[0-9]+}/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/users/{userID:[0-9]+}/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods("POST")
	api.HandleFunc("/metrics/daily", h.GetMetrics).Methods("GET")
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid %s", name)
	}
	return id, nil
}

func (h *RMAHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.SubmitInput
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rma)
}

func (h *RMAHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.rmaSvc.GetRMA(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RMAHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	view, err := h.rmaSvc.GetRMAByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RMAHandler) ListUserRMAs(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.RmaStatus(r.URL.Query().Get("status"))
	rmas, err := h.rmaSvc.ListUserRMAs(r.Context(), userID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rmas": rmas})
}

func (h *RMAHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ValidateInput
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.Validate(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"tracking_number"`
		Actor          string `json:"actor"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.UpdateShipping(r.Context(), id, in.Carrier, in.TrackingNumber, in.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) MarkReceived(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.MarkReceived(r.Context(), id, in.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) StartInspection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Inspector string `json:"inspector"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.StartInspection(r.Context(), id, in.Inspector)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) CompleteInspection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Result    string `json:"result"`
		Notes     string `json:"notes"`
		Inspector string `json:"inspector"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.CompleteInspection(r.Context(), id, domain.InspectionResult(in.Result), in.Notes, in.Inspector)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) MakeDisposition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Disposition string `json:"disposition"`
		Reason      string `json:"reason"`
		DecidedBy   string `json:"decided_by"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.MakeDisposition(r.Context(), id, domain.Disposition(in.Disposition), in.Reason, in.DecidedBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		AmountCents int64  `json:"amount_cents"`
		Method      string `json:"method"`
		Actor       string `json:"actor"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	refund, err := h.rmaSvc.ProcessRefund(r.Context(), id, in.AmountCents, domain.RefundMethod(in.Method), in.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, refund)
}

func (h *RMAHandler) CompleteRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Success      bool   `json:"success"`
		Reference    string `json:"reference"`
		ErrorMessage string `json:"error_message"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	refund, err := h.rmaSvc.CompleteRefund(r.Context(), id, in.Reference, in.Success, in.ErrorMessage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refund)
}

func (h *RMAHandler) ProcessReplacement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	saleID, err := h.rmaSvc.ProcessReplacement(r.Context(), id, in.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"replacement_sale_id": saleID})
}

func (h *RMAHandler) ProcessStoreCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		AmountCents int64  `json:"amount_cents"`
		Actor       string `json:"actor"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.ProcessStoreCredit(r.Context(), id, in.AmountCents, in.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) ProcessRepair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.ProcessRepair(r.Context(), id, in.Actor, in.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) CompleteRepair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.CompleteRepair(r.Context(), id, in.Actor, in.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) ProcessRejection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.ProcessRejection(r.Context(), id, in.Actor, in.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor  string `json:"actor"`
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.Cancel(r.Context(), id, in.Actor, in.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Actor string `json:"actor"`
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	rma, err := h.rmaSvc.Close(r.Context(), id, in.Actor, in.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rma)
}

func (h *RMAHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	notes, err := h.noteSvc.ListNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes})
}

func (h *RMAHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.noteSvc.MarkNotificationRead(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

func (h *RMAHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.rmaSvc.GetMetrics(r.Context(), r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": metrics})
}
