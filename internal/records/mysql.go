package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-records-server/internal/models"
	"hospital-records-server/internal/normalize"
)

// MySQLSource reads raw JSON documents stored by the legacy backend in
// MySQL. String patientId and doctorId references are populated from the
// patient documents and doctor accounts, the way the backend's own list
// endpoint does it.
type MySQLSource struct {
	DB *gorm.DB
}

// NewMySQLSource creates a new MySQLSource.
func NewMySQLSource(db *gorm.DB) *MySQLSource {
	return &MySQLSource{DB: db}
}

func (s *MySQLSource) FetchAppointments(ctx context.Context) ([]normalize.Raw, error) {
	var docs []models.AppointmentDocument
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("%w: list appointments: %v", ErrUnavailable, err)
	}
	return s.populate(ctx, docs)
}

func (s *MySQLSource) FetchAppointmentByID(ctx context.Context, id string) (normalize.Raw, error) {
	var doc models.AppointmentDocument
	if err := s.DB.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "appointment "+id)
	}
	out, err := s.populate(ctx, []models.AppointmentDocument{doc})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *MySQLSource) FetchPatients(ctx context.Context) ([]normalize.Raw, error) {
	var docs []models.PatientDocument
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("%w: list patients: %v", ErrUnavailable, err)
	}
	out := make([]normalize.Raw, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeBody(d.ID, d.Body))
	}
	return out, nil
}

func (s *MySQLSource) FetchPatientByID(ctx context.Context, id string) (normalize.Raw, error) {
	var doc models.PatientDocument
	if err := s.DB.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "patient "+id)
	}
	return decodeBody(doc.ID, doc.Body), nil
}

// UpdateAppointment merges the payload into the stored body inside a
// transaction so concurrent edits of different fields are not lost.
func (s *MySQLSource) UpdateAppointment(ctx context.Context, id string, payload map[string]any) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.AppointmentDocument
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&doc, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "appointment "+id)
		}

		body := map[string]any(decodeBody(doc.ID, doc.Body))
		mergeInto(body, payload)
		delete(body, "_id")

		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode appointment %s: %v", ErrRejected, id, err)
		}
		doc.Body = b
		if ref, ok := body["patientId"].(string); ok {
			doc.PatientRef = ref
		}
		if ref, ok := body["doctorId"].(string); ok {
			doc.DoctorRef = ref
		}
		if err := tx.Save(&doc).Error; err != nil {
			return fmt.Errorf("%w: save appointment %s: %v", ErrUnavailable, id, err)
		}
		return nil
	})
}

// populate swaps string patient and doctor references for the referenced
// documents. References that match nothing are left as strings.
func (s *MySQLSource) populate(ctx context.Context, docs []models.AppointmentDocument) ([]normalize.Raw, error) {
	var patientIDs, doctorIDs []string
	for _, d := range docs {
		if d.PatientRef != "" {
			patientIDs = append(patientIDs, d.PatientRef)
		}
		if d.DoctorRef != "" {
			doctorIDs = append(doctorIDs, d.DoctorRef)
		}
	}

	patients := make(map[string]normalize.Raw)
	if len(patientIDs) > 0 {
		var pdocs []models.PatientDocument
		if err := s.DB.WithContext(ctx).Where("id IN ?", patientIDs).Find(&pdocs).Error; err != nil {
			return nil, fmt.Errorf("%w: load patients: %v", ErrUnavailable, err)
		}
		for _, p := range pdocs {
			patients[p.ID] = decodeBody(p.ID, p.Body)
		}
	}

	doctors := make(map[string]map[string]any)
	if len(doctorIDs) > 0 {
		var users []models.User
		if err := s.DB.WithContext(ctx).Where("id IN ? AND role = ?", doctorIDs, models.RoleDoctor).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("%w: load doctors: %v", ErrUnavailable, err)
		}
		for _, u := range users {
			doctors[u.ID] = map[string]any{"_id": u.ID, "firstName": u.FirstName, "lastName": u.LastName}
		}
	}

	out := make([]normalize.Raw, 0, len(docs))
	for _, d := range docs {
		raw := decodeBody(d.ID, d.Body)
		if p, ok := patients[d.PatientRef]; ok {
			if _, isString := raw["patientId"].(string); isString {
				raw["patientId"] = map[string]any(p)
			}
		}
		if doc, ok := doctors[d.DoctorRef]; ok {
			if _, isString := raw["doctorId"].(string); isString {
				raw["doctorId"] = doc
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

// decodeBody never fails: a body that is not a JSON object yields a record
// holding only its id, which still normalizes to a complete view.
func decodeBody(id string, body []byte) normalize.Raw {
	raw := normalize.Raw{}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err == nil && m != nil {
		raw = normalize.Raw(m)
	}
	raw["_id"] = id
	return raw
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, what, err)
}
