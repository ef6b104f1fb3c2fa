// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists every collection noorhub owns with its JSON-Schema
// validator. A nil schema means the collection is created unvalidated.
var collections = []struct {
	name   string
	schema func() bson.M
}{
	{"users", usersSchema},
	{"news", newsSchema},
	{"videos", videosSchema},
	{"products", productsSchema},
	{"orders", ordersSchema},
	{"bookings", bookingsSchema},
	{"bookmarks", bookmarksSchema},
	{"questions", questionsSchema},
	{"surahs", surahsSchema},
	{"hadiths", hadithsSchema},
	{"navbar_items", navbarSchema},
	{"oauth_states", nil},
	{"audit_logs", nil},
	{"rate_limits", nil},
}

// EnsureAll creates missing collections and attaches their validators.
// Deployments without collMod support (some DocumentDB versions) keep the
// collections unvalidated.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range collections {
		if _, err := ensureCollection(ctx, db, c.name); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		err := setValidator(ctx, db, c.name, c.schema())
		switch {
		case err == nil:
		case isNoSuchCommand(err) || isNotImplemented(err):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection reports created only when this call made the collection.
// A failed listing falls through to CreateCollection.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	if exists, err := collectionExists(ctx, db, name); err == nil && exists {
		return false, nil
	}
	err := db.CreateCollection(ctx, name)
	switch {
	case err == nil:
		zap.L().Info("created collection", zap.String("collection", name))
		return true, nil
	case isNamespaceExistsErr(err):
		return false, nil
	default:
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// matchesCommandError reports whether err carries one of codes or mentions
// any of the phrases.
func matchesCommandError(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return matchesCommandError(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return matchesCommandError(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return matchesCommandError(err, []int32{115}, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches strings with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(values ...string) bson.M {
	a := make(bson.A, 0, len(values))
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func schema(required []string, props bson.M) bson.M {
	req := make(bson.A, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   req,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return schema([]string{"name", "email", "role", "status", "auth_method"}, bson.M{
		"name":        nonBlank,
		"email":       nonBlank,
		"role":        enumOf("user", "admin"),
		"status":      enumOf("active", "disabled"),
		"auth_method": enumOf("password", "google"),
	})
}

func newsSchema() bson.M {
	return schema([]string{"title", "content", "published", "views"}, bson.M{
		"title":     bson.M{"bsonType": "string", "minLength": 1, "maxLength": 200},
		"excerpt":   bson.M{"bsonType": "string", "maxLength": 500},
		"content":   nonBlank,
		"published": bson.M{"bsonType": "bool"},
		"views":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
	})
}

func videosSchema() bson.M {
	return schema([]string{"title", "video_url"}, bson.M{
		"title":     nonBlank,
		"video_url": bson.M{"bsonType": "string", "pattern": "^https?://"},
		"comments":  bson.M{"bsonType": "array", "maxItems": 500},
	})
}

func productsSchema() bson.M {
	return schema([]string{"name", "price", "stock", "sku"}, bson.M{
		"name":  nonBlank,
		"sku":   nonBlank,
		"price": bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
		"stock": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
	})
}

func ordersSchema() bson.M {
	return schema([]string{"user_id", "items", "total_amount", "status", "payment_method", "payment_status"}, bson.M{
		"items":          bson.M{"bsonType": "array", "minItems": 1},
		"total_amount":   bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
		"status":         enumOf("pending", "processing", "shipped", "delivered", "cancelled"),
		"payment_method": enumOf("cash_on_delivery", "bkash"),
		"payment_status": enumOf("unpaid", "paid", "failed"),
	})
}

func bookingsSchema() bson.M {
	return schema([]string{"user_id", "video_id", "status"}, bson.M{
		"status": enumOf("pending", "confirmed", "cancelled", "completed"),
	})
}

func bookmarksSchema() bson.M {
	return schema([]string{"user_id", "content_type", "content_id"}, bson.M{
		"content_type": enumOf("news", "video", "product", "quran", "hadith"),
		"content_id":   nonBlank,
	})
}

func questionsSchema() bson.M {
	return schema([]string{"text", "status"}, bson.M{
		"text":   bson.M{"bsonType": "string", "minLength": 10, "maxLength": 1000},
		"status": enumOf("pending", "answered"),
	})
}

func surahsSchema() bson.M {
	return schema([]string{"surah_number", "name"}, bson.M{
		"surah_number":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 114},
		"name":            nonBlank,
		"revelation_type": enumOf("Meccan", "Medinan"),
	})
}

func hadithsSchema() bson.M {
	return schema([]string{"collection_name", "hadith_number"}, bson.M{
		"collection_name": enumOf("bukhari", "muslim", "abudawud", "tirmidhi", "nasai", "ibnmajah"),
		"hadith_number":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
	})
}

func navbarSchema() bson.M {
	return schema([]string{"title", "href", "type"}, bson.M{
		"title": nonBlank,
		"type":  enumOf("main", "location", "dropdown"),
	})
}
