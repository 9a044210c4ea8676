package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"luxdrive/internal/config"
	"luxdrive/internal/models"
)

// NewFirestoreClient initializes the Firebase Admin SDK and returns a Firestore
// client, using credentials and project ID from appConfig.
func NewFirestoreClient(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*firestore.Client, error) {
	if appConfig == nil {
		return nil, errors.New("NewFirestoreClient: appConfig cannot be nil")
	}

	var credsOption option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			// The SDK may still find Application Default Credentials.
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		credsOption = option.WithCredentialsFile(appConfig.GoogleApplicationCredentials)
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		credsOption = option.WithCredentialsJSON(decodedJSON)
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	firebaseAppConfig := &firebase.Config{ProjectID: appConfig.FirebaseProjectID}

	var opts []option.ClientOption
	if credsOption != nil {
		opts = append(opts, credsOption)
	}
	app, err := firebase.NewApp(ctx, firebaseAppConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	logger.Info("Firestore client initialized successfully")
	return client, nil
}

// firestoreBackend implements Store on Cloud Firestore. Users and bookings use
// their own IDs as document IDs.
type firestoreBackend struct {
	client *firestore.Client
}

// NewFirestoreBackend wraps an initialized Firestore client.
func NewFirestoreBackend(client *firestore.Client) (Store, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized")
	}
	return &firestoreBackend{client: client}, nil
}

func (b *firestoreBackend) Users() UserRepository { return &firestoreUserRepository{client: b.client} }

func (b *firestoreBackend) Bookings() BookingRepository {
	return &firestoreBookingRepository{client: b.client}
}

func (b *firestoreBackend) Cars() CarRepository { return &firestoreCarRepository{client: b.client} }

func (b *firestoreBackend) Close(ctx context.Context) error { return b.client.Close() }

type firestoreUserRepository struct {
	client *firestore.Client
}

func (r *firestoreUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	docs, err := r.client.Collection(usersCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			return nil, fmt.Errorf("failed to decode user '%s': %w", doc.Ref.ID, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *firestoreUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user with email '%s': %w", email, err)
	}
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user with email '%s': %w", email, err)
	}
	return &u, nil
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		return nil, errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("user with ID '%s': %w", user.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return user, nil
}

type firestoreBookingRepository struct {
	client *firestore.Client
}

func (r *firestoreBookingRepository) FindAll(ctx context.Context) ([]models.Booking, error) {
	return r.query(ctx, r.client.Collection(bookingsCollection).OrderBy("created_at", firestore.Asc))
}

func (r *firestoreBookingRepository) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.query(ctx, r.client.Collection(bookingsCollection).Where("user_id", "==", userID))
}

func (r *firestoreBookingRepository) query(ctx context.Context, q firestore.Query) ([]models.Booking, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	bookings := make([]models.Booking, 0, len(docs))
	for _, doc := range docs {
		var b models.Booking
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking '%s': %w", doc.Ref.ID, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (r *firestoreBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, fmt.Errorf("booking with empty ID: %w", ErrNotFound)
	}
	docSnap, err := r.client.Collection(bookingsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("booking with ID '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking with ID '%s': %w", id, err)
	}
	var b models.Booking
	if err := docSnap.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode booking '%s': %w", id, err)
	}
	return &b, nil
}

func (r *firestoreBookingRepository) FindByTrackingCode(ctx context.Context, code string) (*models.Booking, error) {
	iter := r.client.Collection(bookingsCollection).Where("tracking_code", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("booking with tracking code '%s': %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking with tracking code '%s': %w", code, err)
	}
	var b models.Booking
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode booking '%s': %w", doc.Ref.ID, err)
	}
	return &b, nil
}

func (r *firestoreBookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	_, err := r.client.Collection(bookingsCollection).Doc(booking.ID).Create(ctx, booking)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("booking with ID '%s': %w", booking.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create booking '%s': %w", booking.ID, err)
	}
	return booking, nil
}

func (r *firestoreBookingRepository) Update(ctx context.Context, id string, mutate BookingMutator) (*models.Booking, error) {
	ref := r.client.Collection(bookingsCollection).Doc(id)
	var updated models.Booking
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("booking with ID '%s': %w", id, ErrNotFound)
			}
			return err
		}
		var b models.Booking
		if err := snap.DataTo(&b); err != nil {
			return fmt.Errorf("failed to decode booking '%s': %w", id, err)
		}
		if err := mutate(&b); err != nil {
			return err
		}
		b.ID = id
		updated = b
		return tx.Set(ref, &b)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

type firestoreCarRepository struct {
	client *firestore.Client
}

func (r *firestoreCarRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	docs, err := r.client.Collection(carsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	cars := make([]models.Car, len(docs))
	for _, doc := range docs {
		pos, err := strconv.Atoi(doc.Ref.ID)
		if err != nil || pos < 0 || pos >= len(docs) {
			return nil, fmt.Errorf("unexpected car document ID '%s'", doc.Ref.ID)
		}
		if err := doc.DataTo(&cars[pos]); err != nil {
			return nil, fmt.Errorf("failed to decode car '%s': %w", doc.Ref.ID, err)
		}
	}
	return cars, nil
}

// ReplaceAll stores the catalog with the list position as document ID.
func (r *firestoreCarRepository) ReplaceAll(ctx context.Context, cars []models.Car) error {
	col := r.client.Collection(carsCollection)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(col).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range existing {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		for i := range cars {
			if err := tx.Set(col.Doc(strconv.Itoa(i)), &cars[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
