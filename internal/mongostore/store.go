// Package mongostore serves birthday scan pages from MongoDB "routes" and "users" collections.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/crucial707/birthday-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RoutesCollection = "routes"
	UsersCollection  = "users"
)

// Connector dials a new client for every run.
type Connector struct {
	URL      string
	Database string
}

// Connect implements birthday.Connector.
func (c *Connector) Connect(ctx context.Context) (birthday.Store, error) {
	return Open(ctx, c.URL, c.Database)
}

// Open dials and pings the server. The caller owns the returned Store.
func Open(ctx context.Context, url, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Store reads pages with skip/limit, sorted by _id so offsets stay stable between pages.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore wraps an existing database handle. Close is a no-op when client is nil.
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

type routeDoc struct {
	ID   bson.RawValue `bson:"_id"`
	Name string        `bson:"name"`
}

type metadataDoc struct {
	ID    bson.RawValue `bson:"_id"`
	Name  string        `bson:"name"`
	Value bson.RawValue `bson:"value"`
}

type userDoc struct {
	ID        bson.RawValue `bson:"_id"`
	RouteID   bson.RawValue `bson:"routeId"`
	Email     string        `bson:"email"`
	FirstName string        `bson:"firstName"`
	LastName  string        `bson:"lastName"`
	CellPhone string        `bson:"cellPhone"`
	Country   string        `bson:"country"`
	Metadata  []metadataDoc `bson:"metadata"`
}

func pageOptions(limit, offset int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}

func (s *Store) ListRoutes(ctx context.Context, limit, offset int) ([]models.Route, error) {
	cur, err := s.db.Collection(RoutesCollection).Find(ctx, bson.D{}, pageOptions(limit, offset))
	if err != nil {
		return nil, err
	}
	var docs []routeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	routes := make([]models.Route, 0, len(docs))
	for _, d := range docs {
		routes = append(routes, models.Route{ID: idString(d.ID), Name: d.Name})
	}
	return routes, nil
}

func (s *Store) ListUsersByRoute(ctx context.Context, routeID string, limit, offset int) ([]models.User, error) {
	cur, err := s.db.Collection(UsersCollection).Find(ctx, routeFilter(routeID), pageOptions(limit, offset))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u := models.User{
			ID:        idString(d.ID),
			RouteID:   idString(d.RouteID),
			Email:     d.Email,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			CellPhone: d.CellPhone,
			Country:   d.Country,
		}
		for _, m := range d.Metadata {
			u.Metadata = append(u.Metadata, models.MetadataEntry{ID: metadataID(m.ID), Name: m.Name, Value: valueString(m.Value)})
		}
		users = append(users, u)
	}
	return users, nil
}

// CreateRoute inserts a route and returns its ObjectID in hex, the form users reference.
func (s *Store) CreateRoute(ctx context.Context, name string) (string, error) {
	res, err := s.db.Collection(RoutesCollection).InsertOne(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// CreateUsers inserts users of one route. Metadata values that parse as dates are stored
// as BSON dates at noon UTC, which reads back as the same calendar day in any zone.
func (s *Store) CreateUsers(ctx context.Context, routeID string, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(users))
	for _, u := range users {
		meta := bson.A{}
		for _, m := range u.Metadata {
			var value interface{} = m.Value
			if t, ok := birthday.ParseDate(m.Value, time.UTC); ok {
				value = primitive.NewDateTimeFromTime(time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC))
			}
			meta = append(meta, bson.D{{Key: "_id", Value: m.ID}, {Key: "name", Value: m.Name}, {Key: "value", Value: value}})
		}
		docs = append(docs, bson.D{
			{Key: "routeId", Value: routeID},
			{Key: "email", Value: u.Email},
			{Key: "firstName", Value: u.FirstName},
			{Key: "lastName", Value: u.LastName},
			{Key: "cellPhone", Value: u.CellPhone},
			{Key: "country", Value: u.Country},
			{Key: "metadata", Value: meta},
		})
	}
	_, err := s.db.Collection(UsersCollection).InsertMany(ctx, docs)
	return err
}

// Close disconnects the client opened by Connector.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func idString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return fmt.Sprint(v.Int32())
	case bson.TypeInt64:
		return fmt.Sprint(v.Int64())
	}
	return ""
}

// routeFilter matches routeId stored either as the id string or as the ObjectID it encodes.
func routeFilter(routeID string) bson.D {
	if oid, err := primitive.ObjectIDFromHex(routeID); err == nil {
		return bson.D{{Key: "routeId", Value: bson.D{{Key: "$in", Value: bson.A{routeID, oid}}}}}
	}
	return bson.D{{Key: "routeId", Value: routeID}}
}

// metadataID keeps numeric metadata ids; any other id type reads as 0.
func metadataID(v bson.RawValue) int {
	switch v.Type {
	case bson.TypeInt32:
		return int(v.Int32())
	case bson.TypeInt64:
		return int(v.Int64())
	case bson.TypeDouble:
		return int(v.Double())
	}
	return 0
}

// valueString turns a metadata value into the string form birthday.ParseDate reads.
// BSON dates become RFC3339 timestamps.
func valueString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeDateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeTimestamp:
		t, _ := v.Timestamp()
		return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
	}
	return ""
}
