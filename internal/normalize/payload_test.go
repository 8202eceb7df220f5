package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdatePayload_IsSparse(t *testing.T) {
	payload := BuildUpdatePayload(AppointmentForm{
		ClientName: "Ada Lovelace",
		Gender:     "female",
		Time:       "  ",
		HeightCm:   "170",
	})

	assert.Equal(t, map[string]any{
		"clientName": "Ada Lovelace",
		"metadata":   map[string]any{"gender": GenderFemale},
		"heightCm":   "170",
	}, payload)
}

func TestBuildUpdatePayload_EmptyForm(t *testing.T) {
	assert.Empty(t, BuildUpdatePayload(AppointmentForm{}))
}

func TestFormFromView_SkipsPlaceholders(t *testing.T) {
	f := FormFromView(NormalizeAppointment(Raw{}, 0))
	assert.Equal(t, "", f.ClientName)
	assert.Equal(t, "", f.Time)
	assert.Equal(t, "", f.PatientID)
	assert.Equal(t, "", f.Location)
	assert.Equal(t, "", f.ChiefComplaint)
}

func TestFormFromView_DerivedReasonIsNotWrittenBack(t *testing.T) {
	raw := Raw{"notes": "bring old x-rays", "appointmentType": "Follow-up"}
	view := NormalizeAppointment(raw, 0)
	require.Equal(t, "bring old x-rays", view.ReasonForVisit)

	form := FormFromView(view)
	payload := BuildUpdatePayload(form)
	assert.NotContains(t, payload, "chiefComplaint")
	assert.NotContains(t, payload, "location")
	assert.Equal(t, "bring old x-rays", payload["notes"])

	// The reason keeps following notes after an edit.
	form.Notes = "new note"
	b, err := json.Marshal(BuildUpdatePayload(form))
	require.NoError(t, err)
	assert.Equal(t, "new note", NormalizeAppointment(rawFromJSON(t, string(b)), 0).ReasonForVisit)
}

func TestFormFromView_KeepsStoredChiefComplaint(t *testing.T) {
	view := NormalizeAppointment(Raw{"chiefComplaint": "chest pain", "notes": "x", "location": "Ward 2"}, 0)
	form := FormFromView(view)
	assert.Equal(t, "chest pain", form.ChiefComplaint)
	assert.Equal(t, "Ward 2", form.Location)
}

func TestUpdatePayload_RoundTrip(t *testing.T) {
	fixtures := []string{
		`{
			"_id": "apt-1",
			"patientId": {"_id": "p-1", "firstName": "Ada", "lastName": "Lovelace", "phone": "555-0101", "gender": "Female"},
			"doctorId": "Dr. X",
			"date": "2024-03-05", "time": "09:00",
			"chiefComplaint": "Checkup", "notes": "fasting",
			"status": "Confirmed", "mode": "Video", "priority": "High", "durationMinutes": 45, "location": "Room 4",
			"heightCm": 165, "weightKg": 60, "bp": "118/76", "heartRate": 70, "spo2": 99
		}`,
		`{"patientId": "p-2", "clientName": "Walk In", "startAt": "2024-03-05T14:30:00Z", "metadata": {"gender": "Other"}}`,
		`{}`,
	}

	for _, fixture := range fixtures {
		view := NormalizeAppointment(rawFromJSON(t, fixture), 2)
		payload := BuildUpdatePayload(FormFromView(view))

		// Feed the payload back the way a backend would store and return it.
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		back := NormalizeAppointment(rawFromJSON(t, string(b)), 2)

		assert.Equal(t, view.PatientName, back.PatientName, fixture)
		assert.Equal(t, view.PhoneNumber, back.PhoneNumber, fixture)
		assert.Equal(t, view.Gender, back.Gender, fixture)
		assert.Equal(t, view.Date, back.Date, fixture)
		assert.Equal(t, view.Time, back.Time, fixture)
		assert.Equal(t, view.AppointmentType, back.AppointmentType, fixture)
		assert.Equal(t, view.Mode, back.Mode, fixture)
		assert.Equal(t, view.Priority, back.Priority, fixture)
		assert.Equal(t, view.Status, back.Status, fixture)
		assert.Equal(t, view.DurationMinutes, back.DurationMinutes, fixture)
		assert.Equal(t, view.Location, back.Location, fixture)
		assert.Equal(t, view.ChiefComplaint, back.ChiefComplaint, fixture)
		if _, ok := payload["chiefComplaint"]; ok {
			assert.Equal(t, view.ReasonForVisit, back.ReasonForVisit, fixture)
		}
		assert.Equal(t, view.Notes, back.Notes, fixture)
		assert.Equal(t, view.HeightCm, back.HeightCm, fixture)
		assert.Equal(t, view.WeightKg, back.WeightKg, fixture)
		assert.Equal(t, view.BP, back.BP, fixture)
		assert.Equal(t, view.HeartRate, back.HeartRate, fixture)
		assert.Equal(t, view.SpO2, back.SpO2, fixture)
		assert.Equal(t, view.BMI, back.BMI, fixture)
	}
}
