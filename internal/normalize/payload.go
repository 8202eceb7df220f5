package normalize

import "strings"

// AppointmentForm is the state of the edit and intake forms. Only these
// fields are owned by the forms; everything else on the record belongs to
// the backend.
type AppointmentForm struct {
	ClientName      string `json:"clientName" binding:"omitempty,max=200"`
	PatientID       string `json:"patientId" binding:"omitempty,max=64"`
	PhoneNumber     string `json:"phoneNumber" binding:"omitempty,max=32"`
	Gender          string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Date            string `json:"date" binding:"omitempty,isodate"`
	Time            string `json:"time" binding:"omitempty,hhmm"`
	AppointmentType string `json:"appointmentType" binding:"omitempty,max=64"`
	Mode            string `json:"mode" binding:"omitempty,max=32"`
	Priority        string `json:"priority" binding:"omitempty,max=32"`
	Status          string `json:"status" binding:"omitempty,max=32"`
	DurationMinutes int    `json:"durationMinutes" binding:"omitempty,min=1,max=1440"`
	Location        string `json:"location" binding:"omitempty,max=128"`
	ChiefComplaint  string `json:"chiefComplaint" binding:"omitempty,max=1000"`
	Notes           string `json:"notes" binding:"omitempty,max=4000"`
	HeightCm        string `json:"heightCm" binding:"omitempty,numeric"`
	WeightKg        string `json:"weightKg" binding:"omitempty,numeric"`
	BP              string `json:"bp" binding:"omitempty,max=16"`
	HeartRate       string `json:"heartRate" binding:"omitempty,numeric"`
	SpO2            string `json:"spo2" binding:"omitempty,numeric"`
}

// FormFromView prefills a form from a canonical view. Values that only exist
// for display (Unknown patient, Not set time, the default location and any
// reason derived from other fields) are left blank so saving the form never
// writes them back as data.
func FormFromView(v AppointmentView) AppointmentForm {
	f := AppointmentForm{
		PatientID:       v.PatientRefID,
		PhoneNumber:     v.PhoneNumber,
		Gender:          v.Gender,
		Date:            v.Date,
		AppointmentType: v.AppointmentType,
		Mode:            v.Mode,
		Priority:        v.Priority,
		Status:          v.Status,
		DurationMinutes: v.DurationMinutes,
		ChiefComplaint:  v.ChiefComplaint,
		Notes:           v.Notes,
		HeightCm:        v.HeightCm,
		WeightKg:        v.WeightKg,
		BP:              v.BP,
		HeartRate:       v.HeartRate,
		SpO2:            v.SpO2,
	}
	if v.PatientName != UnknownPatient {
		f.ClientName = v.PatientName
	}
	if v.Time != NotSet {
		f.Time = v.Time
	}
	if v.Location != DefaultLocation {
		f.Location = v.Location
	}
	return f
}

// BuildUpdatePayload maps a submitted form onto the sparse raw update the
// backend accepts. Blank fields are omitted so they never overwrite backend
// state; gender is written under metadata, the authoritative gender source.
func BuildUpdatePayload(f AppointmentForm) map[string]any {
	out := make(map[string]any)
	set := func(key, value string) {
		if s := strings.TrimSpace(value); s != "" {
			out[key] = s
		}
	}

	set("clientName", f.ClientName)
	set("patientId", f.PatientID)
	set("phoneNumber", f.PhoneNumber)
	if g := CanonicalGender(f.Gender); g != "" {
		out["metadata"] = map[string]any{"gender": g}
	}
	set("date", f.Date)
	set("time", f.Time)
	set("appointmentType", f.AppointmentType)
	set("mode", f.Mode)
	set("priority", f.Priority)
	set("status", f.Status)
	if f.DurationMinutes > 0 {
		out["durationMinutes"] = f.DurationMinutes
	}
	set("location", f.Location)
	set("chiefComplaint", f.ChiefComplaint)
	set("notes", f.Notes)
	set("heightCm", f.HeightCm)
	set("weightKg", f.WeightKg)
	set("bp", f.BP)
	set("heartRate", f.HeartRate)
	set("spo2", f.SpO2)
	return out
}
