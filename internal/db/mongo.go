package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxdrive/internal/models"
)

const (
	usersCollection    = "users"
	bookingsCollection = "bookings"
	carsCollection     = "cars"
)

// mongoBackend implements Store on MongoDB.
type mongoBackend struct {
	client   *mongo.Client
	users    *mongo.Collection
	bookings *mongo.Collection
	cars     *mongo.Collection
}

// NewMongoBackend connects to uri, pings the server and makes sure the indexes
// the repositories rely on exist.
func NewMongoBackend(ctx context.Context, uri, dbName string) (Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	database := client.Database(dbName)
	b := &mongoBackend{
		client:   client,
		users:    database.Collection(usersCollection),
		bookings: database.Collection(bookingsCollection),
		cars:     database.Collection(carsCollection),
	}
	if err := b.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return b, nil
}

func (b *mongoBackend) ensureIndexes(ctx context.Context) error {
	_, err := b.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	_, err = b.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "tracking_code", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (b *mongoBackend) Users() UserRepository { return &mongoUserRepository{col: b.users} }

func (b *mongoBackend) Bookings() BookingRepository { return &mongoBookingRepository{col: b.bookings} }

func (b *mongoBackend) Cars() CarRepository { return &mongoCarRepository{col: b.cars} }

func (b *mongoBackend) Close(ctx context.Context) error { return b.client.Disconnect(ctx) }

type mongoUserRepository struct {
	col *mongo.Collection
}

func (r *mongoUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user with email '%s': %w", email, err)
	}
	return &u, nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user with email '%s': %w", user.Email, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user '%s': %w", user.ID, err)
	}
	return user, nil
}

type mongoBookingRepository struct {
	col *mongo.Collection
}

func (r *mongoBookingRepository) FindAll(ctx context.Context) ([]models.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	bookings := []models.Booking{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": id}, "ID", id)
}

func (r *mongoBookingRepository) FindByTrackingCode(ctx context.Context, code string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"tracking_code": code}, "tracking code", code)
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M, field, value string) (*models.Booking, error) {
	var b models.Booking
	err := r.col.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("booking with %s '%s': %w", field, value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking with %s '%s': %w", field, value, err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if _, err := r.col.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("booking with ID '%s': %w", booking.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert booking '%s': %w", booking.ID, err)
	}
	return booking, nil
}

// Update replaces the document only if it still carries the status it was read
// with, retrying a few times when another writer got there first.
func (r *mongoBookingRepository) Update(ctx context.Context, id string, mutate BookingMutator) (*models.Booking, error) {
	for attempt := 0; attempt < 3; attempt++ {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		previous := current.Status
		if err := mutate(current); err != nil {
			return nil, err
		}
		current.ID = id

		res, err := r.col.ReplaceOne(ctx, bson.M{"id": id, "status": previous}, current)
		if err != nil {
			return nil, fmt.Errorf("failed to update booking '%s': %w", id, err)
		}
		if res.MatchedCount == 1 {
			return current, nil
		}
	}
	return nil, fmt.Errorf("failed to update booking '%s': concurrent modification", id)
}

type mongoCarRepository struct {
	col *mongo.Collection
}

func (r *mongoCarRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	cars := []models.Car{}
	if err := cur.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}
	return cars, nil
}

func (r *mongoCarRepository) ReplaceAll(ctx context.Context, cars []models.Car) error {
	if _, err := r.col.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear cars: %w", err)
	}
	if len(cars) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(cars))
	for i, c := range cars {
		docs = append(docs, bson.M{
			"position":     i,
			"name":         c.Name,
			"category":     c.Category,
			"image":        c.Image,
			"price":        c.Price,
			"seats":        c.Seats,
			"fuel":         c.Fuel,
			"transmission": c.Transmission,
		})
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert cars: %w", err)
	}
	return nil
}
