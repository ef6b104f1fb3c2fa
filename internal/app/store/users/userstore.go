// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/normalize"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when another account uses the email.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	errBadRole        = errors.New("invalid role")
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Search string
	Role   models.Role
}

// List returns one page of users ordered by folded name.
func (s *Store) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.User, int64, error) {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Search != "" {
		folded := regexp.QuoteMeta(text.Fold(f.Search))
		q["$or"] = bson.A{
			bson.M{"name_ci": primitive.Regex{Pattern: folded}},
			bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(normalize.Email(f.Search))}},
		}
	}
	sort := bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}
	return storeutil.FindPage[models.User](ctx, s.c, q, p, sort)
}

// CountByRole counts accounts holding role.
func (s *Store) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthPassword
	}
	if !u.Role.Valid() {
		return models.User{}, errBadRole
	}
	if !validStatus(u.Status) {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if storeutil.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func validStatus(st string) bool {
	return st == models.StatusActive || st == models.StatusDisabled
}

// UpdateInput holds profile fields. Nil means unchanged.
type UpdateInput struct {
	Name   *string
	Avatar *string
	Role   *models.Role
	Status *string
}

// Update applies in and returns the updated user.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Name != nil {
		name := normalize.Name(*in.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if in.Avatar != nil {
		set["avatar"] = *in.Avatar
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, errBadRole
		}
		set["role"] = *in.Role
	}
	if in.Status != nil {
		st := normalize.Status(*in.Status)
		if !validStatus(st) {
			return nil, errBadStatus
		}
		set["status"] = st
	}
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return s.Update(ctx, id, UpdateInput{Role: &role})
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.User, error) {
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// SetPassword replaces the password hash and marks the account as a
// password account.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"auth_method":   models.AuthPassword,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// LinkGoogle records the Google account id of a user who signed in with
// Google. The auth method is left alone so password sign-in keeps working.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"google_id":  googleID,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete deletes a user by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
