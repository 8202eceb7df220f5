package normalize

// PatientRef is the patientId of an appointment: either a bare id
// (PatientID) or a populated patient document (*EmbeddedPatient).
type PatientRef interface {
	patientRef()
}

// PatientID is an unpopulated patient reference.
type PatientID string

func (PatientID) patientRef() {}

// EmbeddedPatient is a populated patient reference.
type EmbeddedPatient struct {
	ObjectID       string
	FirstName      string
	LastName       string
	Phone          string
	Email          string
	Gender         string
	MetadataGender string
	PatientCode    string
	Address        string
	Profession     string
}

func (*EmbeddedPatient) patientRef() {}

// FullName is first and last name joined and trimmed.
func (p *EmbeddedPatient) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// ParsePatientRef resolves the polymorphic patientId value. It returns nil
// when v is absent, empty, or of an unusable type.
func ParsePatientRef(v any) PatientRef {
	if o := asObject(v); o != nil {
		meta := o.obj("metadata")
		return &EmbeddedPatient{
			ObjectID:       firstNonEmpty(flatten(o["_id"], "$oid"), o.str("id")),
			FirstName:      o.str("firstName"),
			LastName:       o.str("lastName"),
			Phone:          firstNonEmpty(flatten(o["phone"], "phone", "number"), flatten(o["phoneNumber"], "phone", "number")),
			Email:          flatten(o["email"], "email", "address"),
			Gender:         o.str("gender"),
			MetadataGender: meta.str("gender"),
			PatientCode:    meta.str("patientCode"),
			Address:        flattenAddress(o["address"]),
			Profession:     firstNonEmpty(o.str("profession"), o.str("occupation")),
		}
	}
	if s := asString(v); s != "" {
		return PatientID(s)
	}
	return nil
}

// DoctorRef is the doctorId of an appointment: a bare id or display string
// (DoctorID) or a populated doctor document (*EmbeddedDoctor).
type DoctorRef interface {
	doctorRef()
}

// DoctorID is an unpopulated doctor reference. Backends commonly store the
// doctor's display name here.
type DoctorID string

func (DoctorID) doctorRef() {}

// EmbeddedDoctor is a populated doctor reference.
type EmbeddedDoctor struct {
	FirstName string
	LastName  string
}

func (*EmbeddedDoctor) doctorRef() {}

// ParseDoctorRef resolves the polymorphic doctorId value.
func ParseDoctorRef(v any) DoctorRef {
	if o := asObject(v); o != nil {
		return &EmbeddedDoctor{FirstName: o.str("firstName"), LastName: o.str("lastName")}
	}
	if s := asString(v); s != "" {
		return DoctorID(s)
	}
	return nil
}
