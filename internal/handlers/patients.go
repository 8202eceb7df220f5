package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/normalize"
	"hospital-records-server/internal/records"
	"hospital-records-server/internal/utils"
)

// PatientHandler serves canonical patient views.
type PatientHandler struct {
	Source  records.Source
	Metrics *metrics.Collector
	Log     *zap.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(src records.Source, m *metrics.Collector, log *zap.Logger) *PatientHandler {
	return &PatientHandler{Source: src, Metrics: m, Log: log}
}

// GetPatients lists canonical patients. ?q= matches name, code, phone and
// email; ?status= and ?category= match exactly, ignoring case.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	raws, err := h.Source.FetchPatients(c.Request.Context())
	if err != nil {
		respondSourceError(c, h.Log, err, "Patients")
		return
	}

	views := normalize.NormalizePatients(raws)
	h.Metrics.ObservePatients(len(views))

	q := strings.TrimSpace(c.Query("q"))
	status := strings.TrimSpace(c.Query("status"))
	category := strings.TrimSpace(c.Query("category"))

	matched := make([]normalize.PatientView, 0, len(views))
	for _, p := range views {
		if q != "" && !containsFold(q, p.Name, p.PatientCode, p.PhoneNumber, p.Email) {
			continue
		}
		if status != "" && !strings.EqualFold(p.Status, status) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		matched = append(matched, p)
	}

	from, to := page(c, len(matched))
	utils.List(c, "Patients fetched successfully", matched[from:to], len(matched), to-from)
}

// GetPatientByID returns one canonical patient.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	raw, err := h.Source.FetchPatientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSourceError(c, h.Log, err, "Patient")
		return
	}
	h.Metrics.ObservePatients(1)
	utils.Success(c, "Patient fetched successfully", normalize.NormalizePatient(raw, 0))
}
