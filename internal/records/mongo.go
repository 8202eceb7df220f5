package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/normalize"
)

// MongoSource reads the collections of the document-store backend.
type MongoSource struct {
	client       *mongo.Client
	appointments *mongo.Collection
	patients     *mongo.Collection
	doctors      *mongo.Collection
	timeout      time.Duration
}

// ConnectMongo dials and pings the configured deployment.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*MongoSource, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &MongoSource{
		client:       client,
		appointments: db.Collection(cfg.AppointmentsCollection),
		patients:     db.Collection(cfg.PatientsCollection),
		doctors:      db.Collection(cfg.DoctorsCollection),
		timeout:      cfg.Timeout,
	}, nil
}

// Close disconnects the client.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSource) FetchAppointments(ctx context.Context) ([]normalize.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.appointments.Aggregate(ctx, s.populatePipeline(nil))
	if err != nil {
		return nil, classify(err, "list appointments")
	}
	return decodeCursor(ctx, cur, "list appointments")
}

func (s *MongoSource) FetchAppointmentByID(ctx context.Context, id string) (normalize.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.appointments.Aggregate(ctx, s.populatePipeline(idFilter(id)))
	if err != nil {
		return nil, classify(err, "appointment "+id)
	}
	out, err := decodeCursor(ctx, cur, "appointment "+id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return out[0], nil
}

func (s *MongoSource) FetchPatients(ctx context.Context) ([]normalize.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.patients.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(err, "list patients")
	}
	return decodeCursor(ctx, cur, "list patients")
}

func (s *MongoSource) FetchPatientByID(ctx context.Context, id string) (normalize.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc bson.M
	if err := s.patients.FindOne(ctx, idFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: patient %s", ErrNotFound, id)
		}
		return nil, classify(err, "patient "+id)
	}
	return fromDocument(doc), nil
}

// UpdateAppointment applies the payload with $set on dotted paths so nested
// fields the payload does not name are kept.
func (s *MongoSource) UpdateAppointment(ctx context.Context, id string, payload map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := dottedSet(payload)
	for _, ref := range []string{"patientId", "doctorId"} {
		if hex, ok := set[ref].(string); ok {
			if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
				set[ref] = oid
			}
		}
	}
	set["updatedAt"] = time.Now().UTC()

	res, err := s.appointments.UpdateOne(ctx, idFilter(id), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return classify(err, "update appointment "+id)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return nil
}

// populatePipeline replaces patientId and doctorId references with the
// referenced documents. Unmatched references keep their original value.
func (s *MongoSource) populatePipeline(match bson.D) mongo.Pipeline {
	var p mongo.Pipeline
	if match != nil {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}
	return append(p,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		lookupStage(s.patients.Name(), "patientId", "_patient"),
		lookupStage(s.doctors.Name(), "doctorId", "_doctor"),
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "patientId", Value: firstOrOriginal("_patient", "patientId")},
			{Key: "doctorId", Value: firstOrOriginal("_doctor", "doctorId")},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_patient", Value: 0},
			{Key: "_doctor", Value: 0},
		}}},
	)
}

func lookupStage(from, local, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: local},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func firstOrOriginal(joined, field string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{
		bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + joined, 0}}},
		"$" + field,
	}}}
}

// idFilter matches an ObjectID or a string _id, since both exist in
// migrated collections.
func idFilter(id string) bson.D {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{oid, id}}}}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

func decodeCursor(ctx context.Context, cur *mongo.Cursor, what string) ([]normalize.Raw, error) {
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, what)
	}
	out := make([]normalize.Raw, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, nil
}

func fromDocument(doc bson.M) normalize.Raw {
	m, _ := fromBSON(doc).(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return normalize.Raw(m)
}

// fromBSON converts driver types to the plain JSON-like values the
// normalizer reads: ObjectIDs become hex strings and dates become UTC times.
func fromBSON(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case primitive.M:
		return fromMap(t)
	case map[string]any:
		return fromMap(t)
	case primitive.A:
		return fromSlice(t)
	case []any:
		return fromSlice(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.Decimal128:
		return t.String()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}

func fromMap(in map[string]any) map[string]any {
	m := make(map[string]any, len(in))
	for k, v := range in {
		m[k] = fromBSON(v)
	}
	return m
}

func fromSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = fromBSON(v)
	}
	return out
}

func classify(err error, what string) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		return fmt.Errorf("%w: %s: %v", ErrRejected, what, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, what, err)
}
