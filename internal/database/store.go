package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"branch-inventory-api-server/internal/apperrors"
	"branch-inventory-api-server/internal/models"
)

// Store wraps the Mongo collections behind the operations the handlers need.
type Store struct {
	DB *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{DB: db}
}

// --- Identity accounts ---

// Account is the identity-provider record: credentials only, no role. The
// profile row in "users" carries the role and must exist for every account.
type Account struct {
	UserID    string    `bson:"userID"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"createdAt"`
}

// CreateAccount registers a new identity. Duplicate emails are rejected with
// the friendly registration message.
func (s *Store) CreateAccount(ctx context.Context, account Account) error {
	accounts := s.DB.Collection("accounts")

	count, err := accounts.CountDocuments(ctx, bson.M{"email": account.Email})
	if err != nil {
		return &apperrors.PersistenceError{Op: "check existing account", Err: err}
	}
	if count > 0 {
		return apperrors.ErrDuplicateEmail
	}

	if _, err := accounts.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateEmail
		}
		return &apperrors.PersistenceError{Op: "create account", Err: err}
	}
	return nil
}

// DeleteAccount removes an identity. Used as the compensating action when the
// profile insert fails after the account was created.
func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	_, err := s.DB.Collection("accounts").DeleteOne(ctx, bson.M{"userID": userID})
	if err != nil {
		return &apperrors.PersistenceError{Op: "delete account", Err: err}
	}
	return nil
}

// AccountByEmail looks up an identity for sign-in.
func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := s.DB.Collection("accounts").FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return Account{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, &apperrors.PersistenceError{Op: "find account", Err: err}
	}
	return account, nil
}

// --- Profiles ---

// CreateProfile inserts the profile row created alongside a new account.
func (s *Store) CreateProfile(ctx context.Context, user models.User) error {
	if _, err := s.DB.Collection("users").InsertOne(ctx, user); err != nil {
		return &apperrors.PersistenceError{Op: "create profile", Err: err}
	}
	return nil
}

// ProfileByUserID returns the profile for an authenticated identity. Absence
// is a fatal auth error: every session must map to exactly one profile.
func (s *Store) ProfileByUserID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.DB.Collection("users").FindOne(ctx, bson.M{"userID": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, apperrors.ErrProfileMissing
	}
	if err != nil {
		return models.User{}, &apperrors.PersistenceError{Op: "find profile", Err: err}
	}
	return user, nil
}

// --- Products ---

// ListProducts returns the catalog ordered by name. A non-empty search term
// narrows it with a case-insensitive substring match over name or
// description.
func (s *Store) ListProducts(ctx context.Context, search string) ([]models.Product, error) {
	filter := bson.M{}
	if term := strings.TrimSpace(search); term != "" {
		regex := bson.M{"$regex": escapeRegex(term), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"description": regex},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.DB.Collection("products").Find(ctx, filter, opts)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "query products", Err: err}
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, &apperrors.PersistenceError{Op: "decode products", Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *Store) ProductByID(ctx context.Context, productID string) (models.Product, error) {
	var product models.Product
	err := s.DB.Collection("products").FindOne(ctx, bson.M{"productID": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Product{}, &apperrors.PersistenceError{Op: "find product", Err: err}
	}
	return product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product models.Product) error {
	if _, err := s.DB.Collection("products").InsertOne(ctx, product); err != nil {
		return &apperrors.PersistenceError{Op: "create product", Err: err}
	}
	return nil
}

// UpdateProduct applies a partial edit and returns the updated record.
func (s *Store) UpdateProduct(ctx context.Context, productID string, fields map[string]interface{}) (models.Product, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.DB.Collection("products").FindOneAndUpdate(ctx,
		bson.M{"productID": productID},
		bson.M{"$set": set},
		opts,
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Product{}, &apperrors.PersistenceError{Op: "update product", Err: err}
	}
	return product, nil
}

// SetProductImage stores the uploaded image URL on the product record.
func (s *Store) SetProductImage(ctx context.Context, productID, imageURL string) error {
	result, err := s.DB.Collection("products").UpdateOne(ctx,
		bson.M{"productID": productID},
		bson.M{"$set": bson.M{"image": imageURL}},
	)
	if err != nil {
		return &apperrors.PersistenceError{Op: "update product image", Err: err}
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// --- Requests & notifications ---

// SubmitRequest persists the request (items embedded) and its pending
// notification in one transaction, so a failure of either write leaves
// nothing behind. Deployments without transaction support (standalone
// servers) fall back to a saga with a compensating delete.
func (s *Store) SubmitRequest(ctx context.Context, request models.InventoryRequest, notification models.Notification) error {
	sess, err := s.DB.Client().StartSession()
	if err != nil {
		return &apperrors.PersistenceError{Op: "start session", Err: err}
	}
	defer sess.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := s.DB.Collection("inventory_requests").InsertOne(sessCtx, request); err != nil {
			return nil, err
		}
		if _, err := s.DB.Collection("notifications").InsertOne(sessCtx, notification); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if _, err := sess.WithTransaction(ctx, callback); err != nil {
		if transactionsUnsupported(err) {
			return s.submitRequestSaga(ctx, request, notification)
		}
		return &apperrors.PersistenceError{Op: "submit request", Err: err}
	}
	return nil
}

// submitRequestSaga is the non-transactional path: insert the request, then
// the notification, and delete the request again if the second insert fails.
func (s *Store) submitRequestSaga(ctx context.Context, request models.InventoryRequest, notification models.Notification) error {
	if _, err := s.DB.Collection("inventory_requests").InsertOne(ctx, request); err != nil {
		return &apperrors.PersistenceError{Op: "submit request", Err: err}
	}

	if _, err := s.DB.Collection("notifications").InsertOne(ctx, notification); err != nil {
		if _, delErr := s.DB.Collection("inventory_requests").DeleteOne(ctx, bson.M{"requestID": request.RequestID}); delErr != nil {
			return &apperrors.PartialSubmissionError{
				RequestID:   request.RequestID,
				Step:        "notification insert",
				Compensated: false,
				Err:         err,
			}
		}
		return &apperrors.PartialSubmissionError{
			RequestID:   request.RequestID,
			Step:        "notification insert",
			Compensated: true,
			Err:         err,
		}
	}
	return nil
}

// transactionsUnsupported reports whether the deployment rejected the
// transaction outright, as standalone mongod instances do.
func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IllegalOperation: "Transaction numbers are only allowed on a
		// replica set member or mongos".
		return cmdErr.Code == 20
	}
	return false
}

// RequestsForUser lists a user's requests, newest first, optionally filtered
// by status.
func (s *Store) RequestsForUser(ctx context.Context, userID, status string) ([]models.InventoryRequest, error) {
	filter := bson.M{"userID": userID}
	if status != "" {
		filter["status"] = status
	}
	return s.findRequests(ctx, filter)
}

// AllRequests lists every request, newest first, optionally filtered by
// status.
func (s *Store) AllRequests(ctx context.Context, status string) ([]models.InventoryRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.findRequests(ctx, filter)
}

func (s *Store) findRequests(ctx context.Context, filter bson.M) ([]models.InventoryRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.DB.Collection("inventory_requests").Find(ctx, filter, opts)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "query requests", Err: err}
	}
	defer cursor.Close(ctx)

	var requests []models.InventoryRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, &apperrors.PersistenceError{Op: "decode requests", Err: err}
	}
	if requests == nil {
		requests = []models.InventoryRequest{}
	}
	return requests, nil
}

// ReviewRequest moves a pending request to requestStatus and updates its
// notification to notificationStatus in the same transaction. Returns the
// updated notification for delivery through the change feed.
func (s *Store) ReviewRequest(ctx context.Context, requestID, requestStatus, notificationStatus, message string) (models.Notification, error) {
	sess, err := s.DB.Client().StartSession()
	if err != nil {
		return models.Notification{}, &apperrors.PersistenceError{Op: "start session", Err: err}
	}
	defer sess.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		requests := s.DB.Collection("inventory_requests")
		result, err := requests.UpdateOne(sessCtx,
			bson.M{"requestID": requestID, "status": models.RequestStatusPending},
			bson.M{"$set": bson.M{"status": requestStatus}},
		)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, mongo.ErrNoDocuments
		}

		notifications := s.DB.Collection("notifications")
		update := bson.M{"$set": bson.M{
			"status":  notificationStatus,
			"message": message,
			"read":    false,
		}}
		var updated models.Notification
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := notifications.FindOneAndUpdate(sessCtx, bson.M{"requestID": requestID}, update, opts).Decode(&updated); err != nil {
			return nil, err
		}
		return updated, nil
	}

	result, err := sess.WithTransaction(ctx, callback)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Notification{}, err
		}
		return models.Notification{}, &apperrors.PersistenceError{Op: "review request", Err: err}
	}
	return result.(models.Notification), nil
}

// NotificationsForUser lists a user's notifications, most recent first.
func (s *Store) NotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.DB.Collection("notifications").Find(ctx, bson.M{"userID": userID}, opts)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "query notifications", Err: err}
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, &apperrors.PersistenceError{Op: "decode notifications", Err: err}
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag to true. The filter includes the
// recipient, so a caller can only mark their own notifications; anyone else's
// id reads as not found.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	result, err := s.DB.Collection("notifications").UpdateOne(ctx,
		bson.M{"notificationID": notificationID, "userID": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return &apperrors.PersistenceError{Op: "mark notification read", Err: err}
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// --- Inventory audit log ---

// CreateAdjustment appends one audit row. The log is append-only; stock
// levels on the product record are not touched here.
func (s *Store) CreateAdjustment(ctx context.Context, adjustment models.InventoryAdjustment) error {
	if _, err := s.DB.Collection("inventory_management").InsertOne(ctx, adjustment); err != nil {
		return &apperrors.PersistenceError{Op: "create adjustment", Err: err}
	}
	return nil
}

// AdjustmentsForProduct lists a product's audit rows, newest first.
func (s *Store) AdjustmentsForProduct(ctx context.Context, productID string) ([]models.InventoryAdjustment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.DB.Collection("inventory_management").Find(ctx, bson.M{"productID": productID}, opts)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "query adjustments", Err: err}
	}
	defer cursor.Close(ctx)

	var adjustments []models.InventoryAdjustment
	if err = cursor.All(ctx, &adjustments); err != nil {
		return nil, &apperrors.PersistenceError{Op: "decode adjustments", Err: err}
	}
	if adjustments == nil {
		adjustments = []models.InventoryAdjustment{}
	}
	return adjustments, nil
}

// escapeRegex quotes regex metacharacters so a search term is matched
// literally.
func escapeRegex(term string) string {
	var b strings.Builder
	for _, r := range term {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
