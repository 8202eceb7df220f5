package models

// AppointmentDocument stores one backend appointment exactly as received:
// a JSON body whose shape is not trusted. The normalize package turns it into
// a canonical view on every read.
type AppointmentDocument struct {
	BaseModel
	// PatientRef mirrors a string patientId in Body so the patient document
	// can be joined without parsing every body.
	PatientRef string `gorm:"size:64;index" json:"patientRef"`
	DoctorRef  string `gorm:"size:64;index" json:"doctorRef"`
	Body       []byte `gorm:"type:json;not null" json:"body"`
}

// PatientDocument stores one backend patient record as received.
type PatientDocument struct {
	BaseModel
	Body []byte `gorm:"type:json;not null" json:"body"`
}
