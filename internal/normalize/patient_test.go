package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatient_Defaults(t *testing.T) {
	p := NormalizePatient(Raw{}, 7)

	assert.Equal(t, "7", p.ID)
	assert.Equal(t, UnknownPatient, p.Name)
	assert.Equal(t, "PT-7", p.PatientCode)
	assert.Equal(t, GenderMale, p.Gender)
	assert.Equal(t, 0, p.Age)
	assert.Equal(t, 0, p.Visits)
	assert.Equal(t, DefaultPatientStatus, p.Status)
	assert.Equal(t, DefaultPatientCategory, p.Category)
	assert.Equal(t, NotAvailable, p.Display.PhoneNumber)
	assert.Equal(t, NotAvailable, p.Display.Email)
}

func TestNormalizePatient_NameOverride(t *testing.T) {
	p := NormalizePatient(rawFromJSON(t, `{"name":"Dr. Who","firstName":"John","lastName":"Smith"}`), 0)
	assert.Equal(t, "Dr. Who", p.Name)
	assert.Equal(t, "John", p.FirstName)

	p = NormalizePatient(rawFromJSON(t, `{"firstName":"John","lastName":"Smith"}`), 0)
	assert.Equal(t, "John Smith", p.Name)
}

func TestNormalizePatient_Coercion(t *testing.T) {
	p := NormalizePatient(rawFromJSON(t, `{
		"_id": "p-1",
		"age": "42",
		"visits": -3,
		"gender": "FEMALE",
		"phoneNumber": {"phone": "555-0101"},
		"email": "j@example.com",
		"metadata": {"patientCode": "PT-12"},
		"status": "Discharged"
	}`), 0)

	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, 42, p.Age)
	assert.Equal(t, 0, p.Visits)
	assert.Equal(t, GenderFemale, p.Gender)
	assert.Equal(t, "555-0101", p.PhoneNumber)
	assert.Equal(t, "j@example.com", p.Email)
	assert.Equal(t, "PT-12", p.PatientCode)
	assert.Equal(t, "Discharged", p.Status)
	assert.Equal(t, DefaultPatientCategory, p.Category)
}

func TestNormalizePatient_CodeFallsBackToID(t *testing.T) {
	assert.Equal(t, "p-9", NormalizePatient(Raw{"id": "p-9"}, 0).PatientCode)
}

func TestNormalizePatient_CanonicalInputIsStable(t *testing.T) {
	first := NormalizePatient(rawFromJSON(t, `{"_id":"p-1","firstName":"Ada","lastName":"Lovelace","metadata":{"gender":"f","patientCode":"PT-1"},"age":36}`), 0)
	b, err := json.Marshal(first)
	require.NoError(t, err)

	assert.Equal(t, first, NormalizePatient(rawFromJSON(t, string(b)), 0))
}

func TestNormalizePatients(t *testing.T) {
	views := NormalizePatients([]Raw{{"name": "A"}, {}})
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].Name)
	assert.Equal(t, "PT-1", views[1].PatientCode)
}
