package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/normalize"
	"hospital-records-server/internal/records"
	"hospital-records-server/internal/utils"
)

// AppointmentHandler serves canonical appointment views built from the raw
// records of the configured source.
type AppointmentHandler struct {
	Source  records.Source
	Metrics *metrics.Collector
	Log     *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(src records.Source, m *metrics.Collector, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{Source: src, Metrics: m, Log: log}
}

// AppointmentFilter holds the list query parameters.
type AppointmentFilter struct {
	Status string
	Doctor string
	Date   string
	Query  string
}

func appointmentFilterFrom(c *gin.Context) AppointmentFilter {
	return AppointmentFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Doctor: strings.TrimSpace(c.Query("doctor")),
		Date:   strings.TrimSpace(c.Query("date")),
		Query:  strings.TrimSpace(c.Query("q")),
	}
}

// Match reports whether v passes every non-empty filter.
func (f AppointmentFilter) Match(v normalize.AppointmentView) bool {
	if f.Status != "" && !strings.EqualFold(v.Status, f.Status) {
		return false
	}
	if f.Doctor != "" && !containsFold(f.Doctor, v.DoctorName) {
		return false
	}
	if f.Date != "" && v.Date != f.Date {
		return false
	}
	if f.Query != "" && !containsFold(f.Query, v.PatientName, v.PatientCode, v.PhoneNumber, v.PatientEmail) {
		return false
	}
	return true
}

// GetAppointments lists canonical appointments. Records are normalized in
// fetch order before filtering so index-derived fallbacks stay stable.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	raws, err := h.Source.FetchAppointments(c.Request.Context())
	if err != nil {
		respondSourceError(c, h.Log, err, "Appointments")
		return
	}

	views, res := normalize.NormalizeAppointmentsTraced(raws)
	h.observe(c, views, res)

	filter := appointmentFilterFrom(c)
	matched := make([]normalize.AppointmentView, 0, len(views))
	for _, v := range views {
		if filter.Match(v) {
			matched = append(matched, v)
		}
	}

	from, to := page(c, len(matched))
	utils.List(c, "Appointments fetched successfully", matched[from:to], len(matched), to-from)
}

// GetAppointmentByID returns the canonical view shown by the view modal.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	view, ok := h.fetchView(c, c.Param("id"))
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", view)
}

// GetAppointmentForm returns the edit form prefilled from the canonical view.
func (h *AppointmentHandler) GetAppointmentForm(c *gin.Context) {
	view, ok := h.fetchView(c, c.Param("id"))
	if !ok {
		return
	}
	utils.Success(c, "Appointment form fetched successfully", normalize.FormFromView(view))
}

// UpdateAppointment sends the sparse payload built from the submitted form
// and answers with the view re-derived from the stored record.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id := c.Param("id")

	var form normalize.AppointmentForm
	if !utils.BindAndValidate(c, &form) {
		return
	}
	payload := normalize.BuildUpdatePayload(form)
	if len(payload) == 0 {
		utils.BadRequest(c, "No fields to update")
		return
	}

	if err := h.Source.UpdateAppointment(c.Request.Context(), id, payload); err != nil {
		respondSourceError(c, h.Log, err, "Appointment")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	h.Log.Info("appointment updated",
		zap.String("appointment_id", id),
		zap.String("user_id", userID),
		zap.Strings("fields", fields),
	)

	view, ok := h.fetchView(c, id)
	if !ok {
		return
	}
	utils.Success(c, "Appointment updated successfully", view)
}

func (h *AppointmentHandler) fetchView(c *gin.Context, id string) (normalize.AppointmentView, bool) {
	raw, err := h.Source.FetchAppointmentByID(c.Request.Context(), id)
	if err != nil {
		respondSourceError(c, h.Log, err, "Appointment")
		return normalize.AppointmentView{}, false
	}
	view, res := normalize.NormalizeAppointmentTraced(raw, 0)
	if res.PatientCode == normalize.SourceDefault {
		// The synthesized PT-{index} code must match what the list shows.
		if i, found := h.listPosition(c, normalize.RecordID(raw)); found {
			view, res = normalize.NormalizeAppointmentTraced(raw, i)
		}
	}
	h.observe(c, []normalize.AppointmentView{view}, []normalize.Resolution{res})
	return view, true
}

// listPosition finds a record's index in the source list. A failed lookup
// leaves the caller on index 0.
func (h *AppointmentHandler) listPosition(c *gin.Context, id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	raws, err := h.Source.FetchAppointments(c.Request.Context())
	if err != nil {
		h.Log.Debug("list lookup for fallback patient code failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("appointment_id", id),
			zap.Error(err),
		)
		return 0, false
	}
	for i, r := range raws {
		if normalize.RecordID(r) == id {
			return i, true
		}
	}
	return 0, false
}

func (h *AppointmentHandler) observe(c *gin.Context, views []normalize.AppointmentView, res []normalize.Resolution) {
	h.Metrics.ObserveAppointments(res)
	for i, r := range res {
		if r.StartAtInvalid {
			h.Log.Debug("unparseable startAt ignored",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("appointment_id", views[i].ID),
			)
		}
		if r.Gender == normalize.SourceDefault {
			h.Log.Debug("gender defaulted",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("appointment_id", views[i].ID),
			)
		}
	}
}
