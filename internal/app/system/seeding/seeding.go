// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/noorhub/internal/app/fallback"
	navbarstore "github.com/dalemusser/noorhub/internal/app/store/navbar"
	userstore "github.com/dalemusser/noorhub/internal/app/store/users"
	"github.com/dalemusser/noorhub/internal/app/system/authutil"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Admin describes the account to ensure on startup. An empty Email
// disables admin seeding.
type Admin struct {
	Email    string
	Name     string
	Password string
}

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, admin Admin, logger *zap.Logger) error {
	if err := seedAdmin(ctx, db, admin, logger); err != nil {
		return err
	}
	if err := seedNavbar(ctx, db, logger); err != nil {
		return err
	}
	return nil
}

// seedAdmin promotes an existing account with the configured email, or
// creates a password account when a password is configured.
func seedAdmin(ctx context.Context, db *mongo.Database, admin Admin, logger *zap.Logger) error {
	if admin.Email == "" {
		return nil
	}
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, admin.Email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			logger.Debug("admin user already configured", zap.String("email", existing.Email))
			return nil
		}
		if _, err := users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin",
			zap.String("email", existing.Email),
			zap.String("user_id", existing.ID.Hex()),
			zap.String("previous_role", string(existing.Role)))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	if admin.Password == "" {
		logger.Warn("seed admin email set without a password; no admin created",
			zap.String("email", admin.Email))
		return nil
	}
	name := admin.Name
	if name == "" {
		name = "Admin"
	}
	u, err := authutil.Resolve(authutil.Registration{Name: name, Email: admin.Email, Password: admin.Password})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	u.Role = models.RoleAdmin
	created, err := users.Create(ctx, u)
	if err != nil {
		return err
	}
	logger.Info("created admin user",
		zap.String("email", created.Email),
		zap.String("user_id", created.ID.Hex()))
	return nil
}

// seedNavbar installs the default menu into an empty navbar collection.
func seedNavbar(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := navbarstore.New(db)
	existing, err := store.List(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	items := fallback.New().NavbarItems()
	ids := make(map[primitive.ObjectID]primitive.ObjectID, len(items))
	var created int

	// Top-level items first so children can point at the new ids.
	for _, pass := range []bool{false, true} {
		for _, it := range items {
			if (it.ParentID != nil) != pass {
				continue
			}
			old := it.ID
			if it.ParentID != nil {
				parent, ok := ids[*it.ParentID]
				if !ok {
					continue
				}
				it.ParentID = &parent
			}
			saved, err := store.Create(ctx, it)
			if err != nil {
				return err
			}
			ids[old] = saved.ID
			created++
		}
	}

	logger.Info("seeded default navbar", zap.Int("items", created))
	return nil
}
