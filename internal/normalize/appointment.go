package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Defaults substituted for absent appointment values.
const (
	UnknownPatient    = "Unknown"
	DoctorNotAssigned = "Not Assigned"
	DefaultGender     = GenderMale
	DefaultReason     = "Consultation"
	DefaultStatus     = "Scheduled"
	DefaultType       = "Consultation"
	DefaultMode       = "In-person"
	DefaultPriority   = "Normal"
	DefaultLocation   = "Not specified"
	DefaultDuration   = 30
	NotAvailable      = "N/A"
	patientCodePrefix = "PT-"
)

// Canonical gender values.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Resolution source labels.
const (
	SourceAppointmentMetadata = "appointment_metadata"
	SourceAppointment         = "appointment"
	SourcePatient             = "patient"
	SourcePatientMetadata     = "patient_metadata"
	SourceClientName          = "client_name"
	SourcePatientID           = "patient_id"
	SourceStartAt             = "start_at"
	SourceDefault             = "default"
)

// AppointmentView is the canonical appointment shown by list, view, edit and
// intake screens. Every field is always populated with its declared type.
type AppointmentView struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	PatientCode     string `json:"patientCode"`
	PatientRefID    string `json:"patientRefId"`
	PhoneNumber     string `json:"phoneNumber"`
	PatientEmail    string `json:"patientEmail"`
	Gender          string `json:"gender"`
	Address         string `json:"address"`
	Profession      string `json:"profession"`
	DoctorName      string `json:"doctorName"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ReasonForVisit  string `json:"reasonForVisit"`
	ChiefComplaint  string `json:"chiefComplaint"`
	Notes           string `json:"notes"`
	Status          string `json:"status"`
	AppointmentType string `json:"appointmentType"`
	Mode            string `json:"mode"`
	Priority        string `json:"priority"`
	DurationMinutes int    `json:"durationMinutes"`
	Location        string `json:"location"`
	HeightCm        string `json:"heightCm"`
	WeightKg        string `json:"weightKg"`
	BP              string `json:"bp"`
	HeartRate       string `json:"heartRate"`
	SpO2            string `json:"spo2"`
	BMI             string `json:"bmi"`

	Display Display `json:"display"`
}

// Display holds the screen renderings of values that are allowed to be
// empty in the canonical view.
type Display struct {
	Date         string `json:"date"`
	PhoneNumber  string `json:"phoneNumber"`
	PatientEmail string `json:"patientEmail"`
}

// Resolution records which candidate source produced each contested field.
type Resolution struct {
	PatientName    string `json:"patientName"`
	PatientCode    string `json:"patientCode"`
	Gender         string `json:"gender"`
	Doctor         string `json:"doctor"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Reason         string `json:"reason"`
	StartAtInvalid bool   `json:"startAtInvalid"`
}

// NormalizeAppointment converts one raw appointment into its canonical view.
// index is the record's position in the source list and is only used to
// synthesize stable fallbacks.
func NormalizeAppointment(raw Raw, index int) AppointmentView {
	v, _ := NormalizeAppointmentTraced(raw, index)
	return v
}

// NormalizeAppointmentTraced is NormalizeAppointment that also reports where
// each contested value came from.
func NormalizeAppointmentTraced(raw Raw, index int) (AppointmentView, Resolution) {
	var res Resolution
	v := AppointmentView{
		ID:              firstNonEmpty(RecordID(raw), strconv.Itoa(index)),
		ChiefComplaint:  raw.str("chiefComplaint"),
		Notes:           raw.str("notes"),
		Status:          firstNonEmpty(raw.str("status"), DefaultStatus),
		AppointmentType: firstNonEmpty(raw.str("appointmentType"), DefaultType),
		Mode:            firstNonEmpty(raw.str("mode"), DefaultMode),
		Priority:        firstNonEmpty(raw.str("priority"), DefaultPriority),
		DurationMinutes: duration(raw["durationMinutes"]),
		Location:        firstNonEmpty(raw.str("location"), DefaultLocation),
		HeightCm:        raw.str("heightCm"),
		WeightKg:        raw.str("weightKg"),
		BP:              raw.str("bp"),
		HeartRate:       raw.str("heartRate"),
		SpO2:            raw.str("spo2"),
	}

	v.DoctorName, res.Doctor = resolveDoctor(raw)
	resolvePatient(raw, index, &v, &res)
	v.Gender, res.Gender = resolveGender(raw)
	resolveSchedule(raw, &v, &res)
	v.ReasonForVisit, res.Reason = resolveReason(raw)
	v.BMI = BMI(raw["heightCm"], raw["weightKg"])

	v.Display = Display{
		Date:         FormatDisplayDate(v.Date),
		PhoneNumber:  firstNonEmpty(v.PhoneNumber, NotAvailable),
		PatientEmail: firstNonEmpty(v.PatientEmail, NotAvailable),
	}
	return v, res
}

// NormalizeAppointments normalizes a fetched list in order.
func NormalizeAppointments(raws []Raw) []AppointmentView {
	out := make([]AppointmentView, len(raws))
	for i, r := range raws {
		out[i] = NormalizeAppointment(r, i)
	}
	return out
}

// NormalizeAppointmentsTraced is NormalizeAppointments with per-record
// resolutions, index-aligned with the views.
func NormalizeAppointmentsTraced(raws []Raw) ([]AppointmentView, []Resolution) {
	views := make([]AppointmentView, len(raws))
	res := make([]Resolution, len(raws))
	for i, r := range raws {
		views[i], res[i] = NormalizeAppointmentTraced(r, i)
	}
	return views, res
}

func resolveDoctor(raw Raw) (string, string) {
	switch ref := ParseDoctorRef(raw["doctorId"]).(type) {
	case *EmbeddedDoctor:
		if name := joinName(ref.FirstName, ref.LastName); name != "" {
			return name, "doctor_object"
		}
	case DoctorID:
		return string(ref), "doctor_id"
	}
	if s := raw.str("doctor"); s != "" {
		return s, "doctor"
	}
	if s := raw.str("doctorName"); s != "" {
		return s, "doctor_name"
	}
	return DoctorNotAssigned, SourceDefault
}

func resolvePatient(raw Raw, index int, v *AppointmentView, res *Resolution) {
	var name, code, codeSource, email string
	switch ref := ParsePatientRef(raw["patientId"]).(type) {
	case *EmbeddedPatient:
		v.PatientRefID = ref.ObjectID
		name = ref.FullName()
		email = ref.Email
		v.PhoneNumber = ref.Phone
		v.Address = ref.Address
		v.Profession = ref.Profession
		if ref.PatientCode != "" {
			code, codeSource = ref.PatientCode, SourcePatientMetadata
		} else if ref.ObjectID != "" {
			code, codeSource = ref.ObjectID, SourcePatientID
		}
	case PatientID:
		v.PatientRefID = string(ref)
		code, codeSource = string(ref), SourcePatientID
	}

	res.PatientName = SourcePatient
	if name == "" {
		name, res.PatientName = raw.str("clientName"), SourceClientName
	}
	if name == "" {
		name, res.PatientName = raw.str("patientName"), SourceAppointment
	}
	if name == "" {
		name, res.PatientName = UnknownPatient, SourceDefault
	}
	v.PatientName = name

	if code == "" {
		code, codeSource = raw.str("patientCode"), SourceAppointment
	}
	if code == "" {
		code, codeSource = patientCodePrefix+strconv.Itoa(index), SourceDefault
	}
	v.PatientCode, res.PatientCode = code, codeSource

	if v.PatientRefID == "" {
		v.PatientRefID = raw.str("patientRefId")
	}
	v.PhoneNumber = firstNonEmpty(flatten(raw["phoneNumber"], "phone", "number"), v.PhoneNumber)
	v.PatientEmail = firstNonEmpty(email, flatten(raw["email"], "email", "address"), raw.str("patientEmail"))
	v.Address = firstNonEmpty(v.Address, raw.str("address"))
	v.Profession = firstNonEmpty(v.Profession, raw.str("profession"), raw.str("occupation"))
}

// resolveGender applies the precedence appointment metadata, appointment
// top level, patient document, patient metadata, then the Male default.
func resolveGender(raw Raw) (string, string) {
	if g := CanonicalGender(raw.path("metadata", "gender")); g != "" {
		return g, SourceAppointmentMetadata
	}
	if g := CanonicalGender(raw.str("gender")); g != "" {
		return g, SourceAppointment
	}
	if p, ok := ParsePatientRef(raw["patientId"]).(*EmbeddedPatient); ok {
		if g := CanonicalGender(p.Gender); g != "" {
			return g, SourcePatient
		}
		if g := CanonicalGender(p.MetadataGender); g != "" {
			return g, SourcePatientMetadata
		}
	}
	return DefaultGender, SourceDefault
}

// CanonicalGender maps free-form gender values onto Male, Female or Other.
// Empty input yields "" so callers can fall through to the next source.
func CanonicalGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "m", "male", "man":
		return GenderMale
	case "f", "female", "woman":
		return GenderFemale
	}
	return GenderOther
}

func resolveSchedule(raw Raw, v *AppointmentView, res *Resolution) {
	v.Date = canonicalDate(raw.str("date"))
	v.Time = canonicalTime(raw.str("time"))
	res.Date, res.Time = SourceAppointment, SourceAppointment

	if v.Date == "" || v.Time == "" {
		if startAt, ok := raw["startAt"]; ok && startAt != nil {
			if ts, ok := parseTimestamp(startAt); ok {
				ts = ts.UTC()
				if v.Date == "" {
					v.Date, res.Date = ts.Format(isoDate), SourceStartAt
				}
				if v.Time == "" {
					v.Time, res.Time = ts.Format(wallClock), SourceStartAt
				}
			} else {
				res.StartAtInvalid = true
			}
		}
	}

	if v.Date == "" {
		res.Date = SourceDefault
	}
	if v.Time == "" {
		v.Time, res.Time = NotSet, SourceDefault
	}
}

func resolveReason(raw Raw) (string, string) {
	candidates := []struct {
		value, source string
	}{
		{raw.str("chiefComplaint"), "chief_complaint"},
		{raw.str("reason"), "reason"},
		{raw.path("metadata", "chiefComplaint"), "metadata_chief_complaint"},
		{raw.path("metadata", "reason"), "metadata_reason"},
		{raw.str("reasonForVisit"), "reason_for_visit"},
		{raw.str("notes"), "notes"},
		{raw.str("appointmentType"), "appointment_type"},
	}
	for _, c := range candidates {
		if c.value != "" {
			return c.value, c.source
		}
	}
	return DefaultReason, SourceDefault
}

func duration(v any) int {
	if n, ok := asInt(v); ok && n > 0 {
		return n
	}
	return DefaultDuration
}

// BMI computes weight / (height in metres)^2 rounded to one decimal place.
// It returns "" unless both inputs are present and positive.
func BMI(heightCm, weightKg any) string {
	h, ok := asFloat(heightCm)
	if !ok || h <= 0 {
		return ""
	}
	w, ok := asFloat(weightKg)
	if !ok || w <= 0 {
		return ""
	}
	m := h / 100
	bmi := math.Round(w/(m*m)*10) / 10
	return strconv.FormatFloat(bmi, 'f', 1, 64)
}
