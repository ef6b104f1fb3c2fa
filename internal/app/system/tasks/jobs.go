// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"strconv"
	"sync"
	"time"

	bookingstore "github.com/dalemusser/noorhub/internal/app/store/bookings"
	bookmarkstore "github.com/dalemusser/noorhub/internal/app/store/bookmarks"
	"github.com/dalemusser/noorhub/internal/app/store/oauthstate"
	quranstore "github.com/dalemusser/noorhub/internal/app/store/quran"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Job names.
const (
	OrphanSweep       = "orphan-sweep"
	OAuthStateCleanup = "oauth-state-cleanup"
	SchemaEnsure      = "schema-ensure"
)

// collections addressed by ObjectID, per bookmark content type.
var contentCollections = map[models.ContentType]string{
	models.ContentNews:    "news",
	models.ContentVideo:   "videos",
	models.ContentProduct: "products",
	models.ContentHadith:  "hadiths",
}

// OrphanSweepJob removes bookmarks and bookings whose target no longer
// exists. Deletes cascade synchronously; this catches whatever a failed
// cascade left behind.
func OrphanSweepJob(db *mongo.Database, logger *zap.Logger) Job {
	bookmarks := bookmarkstore.New(db)
	bookings := bookingstore.New(db)
	surahs := quranstore.New(db)

	return Job{
		Name:     OrphanSweep,
		Interval: 6 * time.Hour,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			var removed int64

			for ct, coll := range contentCollections {
				n, err := sweepBookmarks(ctx, bookmarks, ct, db.Collection(coll))
				if err != nil {
					return err
				}
				removed += n
			}

			n, err := sweepQuranBookmarks(ctx, bookmarks, surahs)
			if err != nil {
				return err
			}
			removed += n

			n, err = sweepBookings(ctx, bookings, db.Collection("videos"))
			if err != nil {
				return err
			}
			removed += n

			if removed > 0 {
				logger.Info("removed orphaned references", zap.Int64("deleted", removed))
			}
			return nil
		},
	}
}

func sweepBookmarks(ctx context.Context, bm *bookmarkstore.Store, ct models.ContentType, target *mongo.Collection) (int64, error) {
	ids, err := bm.ContentIDs(ctx, ct)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	var orphans []string
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			orphans = append(orphans, id)
			continue
		}
		oids = append(oids, oid)
	}
	existing, err := storeutil.ExistingIDs(ctx, target, oids)
	if err != nil {
		return 0, err
	}
	for _, oid := range oids {
		if !existing[oid] {
			orphans = append(orphans, oid.Hex())
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	return bm.DeleteByContentIDs(ctx, ct, orphans)
}

func sweepQuranBookmarks(ctx context.Context, bm *bookmarkstore.Store, surahs *quranstore.Store) (int64, error) {
	ids, err := bm.ContentIDs(ctx, models.ContentQuran)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	numbers, err := surahs.Numbers(ctx)
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		present[strconv.Itoa(n)] = true
	}
	var orphans []string
	for _, id := range ids {
		if !present[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	return bm.DeleteByContentIDs(ctx, models.ContentQuran, orphans)
}

func sweepBookings(ctx context.Context, bk *bookingstore.Store, videos *mongo.Collection) (int64, error) {
	ids, err := bk.VideoIDs(ctx)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	existing, err := storeutil.ExistingIDs(ctx, videos, ids)
	if err != nil {
		return 0, err
	}
	var orphans []primitive.ObjectID
	for _, id := range ids {
		if !existing[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	return bk.DeleteByVideoIDs(ctx, orphans)
}

// OAuthStateCleanupJob removes expired Google sign-in state tokens.
func OAuthStateCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	states := oauthstate.New(db)
	return Job{
		Name:     OAuthStateCleanup,
		Interval: time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := states.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cleaned up expired oauth states", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}

// SchemaEnsureJob retries ensure until it succeeds once, for a database
// that was unreachable at startup. Later runs do nothing.
func SchemaEnsureJob(ensure func(ctx context.Context) error, interval time.Duration, logger *zap.Logger) Job {
	var (
		mu   sync.Mutex
		done bool
	)
	return Job{
		Name:     SchemaEnsure,
		Interval: interval,
		Timeout:  2 * time.Minute,
		Run: func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return nil
			}
			if err := ensure(ctx); err != nil {
				return err
			}
			done = true
			logger.Info("database schema ensured after demo-mode start")
			return nil
		},
	}
}
