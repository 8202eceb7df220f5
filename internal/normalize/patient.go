package normalize

import "strconv"

// Patient list defaults.
const (
	DefaultPatientStatus   = "Active"
	DefaultPatientCategory = "Outpatient"
)

// PatientView is the canonical patient used by list and search screens.
type PatientView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PatientCode string `json:"patientCode"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Profession  string `json:"profession"`
	BloodGroup  string `json:"bloodGroup"`
	Age         int    `json:"age"`
	Visits      int    `json:"visits"`
	Status      string `json:"status"`
	Category    string `json:"category"`

	Display PatientDisplay `json:"display"`
}

// PatientDisplay mirrors Display for patient screens.
type PatientDisplay struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// NormalizePatient converts one raw patient record. An explicit name field
// overrides the first/last name assembly.
func NormalizePatient(raw Raw, index int) PatientView {
	id := RecordID(raw)
	first, last := raw.str("firstName"), raw.str("lastName")

	p := PatientView{
		ID:          firstNonEmpty(id, strconv.Itoa(index)),
		Name:        firstNonEmpty(raw.str("name"), joinName(first, last), UnknownPatient),
		FirstName:   first,
		LastName:    last,
		PatientCode: firstNonEmpty(raw.path("metadata", "patientCode"), raw.str("patientCode"), id, patientCodePrefix+strconv.Itoa(index)),
		Gender: firstNonEmpty(
			CanonicalGender(raw.path("metadata", "gender")),
			CanonicalGender(raw.str("gender")),
			DefaultGender,
		),
		PhoneNumber: firstNonEmpty(flatten(raw["phone"], "phone", "number"), flatten(raw["phoneNumber"], "phone", "number")),
		Email:       flatten(raw["email"], "email", "address"),
		Address:     flattenAddress(raw["address"]),
		Profession:  firstNonEmpty(raw.str("profession"), raw.str("occupation")),
		BloodGroup:  raw.str("bloodGroup"),
		Age:         count(raw["age"]),
		Visits:      count(raw["visits"]),
		Status:      firstNonEmpty(raw.str("status"), DefaultPatientStatus),
		Category:    firstNonEmpty(raw.str("category"), DefaultPatientCategory),
	}
	p.Display = PatientDisplay{
		PhoneNumber: firstNonEmpty(p.PhoneNumber, NotAvailable),
		Email:       firstNonEmpty(p.Email, NotAvailable),
	}
	return p
}

// NormalizePatients normalizes a fetched list in order.
func NormalizePatients(raws []Raw) []PatientView {
	out := make([]PatientView, len(raws))
	for i, r := range raws {
		out[i] = NormalizePatient(r, i)
	}
	return out
}

// count coerces an age-like value; absent, unparseable and negative values
// become 0.
func count(v any) int {
	if n, ok := asInt(v); ok && n > 0 {
		return n
	}
	return 0
}
