// internal/app/store/quran/quranstore.go
package quranstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateNumber is returned when a surah with the number already exists.
var ErrDuplicateNumber = errors.New("a surah with this number already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("surahs")}
}

// List returns every surah in order, without ayahs.
func (s *Store) List(ctx context.Context) ([]models.Surah, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "surah_number", Value: 1}}).
		SetProjection(bson.M{"ayahs": 0})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Surah{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByNumber loads a surah with its ayahs.
func (s *Store) GetByNumber(ctx context.Context, number int) (*models.Surah, error) {
	var su models.Surah
	if err := s.c.FindOne(ctx, bson.M{"surah_number": number}).Decode(&su); err != nil {
		return nil, err
	}
	return &su, nil
}

// Numbers returns the surah numbers present in the collection.
func (s *Store) Numbers(ctx context.Context) ([]int, error) {
	raw, err := s.c.Distinct(ctx, "surah_number", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int32:
			out = append(out, int(n))
		case int64:
			out = append(out, int(n))
		}
	}
	return out, nil
}

// Create inserts a surah. NumberOfAyahs defaults to len(Ayahs).
func (s *Store) Create(ctx context.Context, su models.Surah) (models.Surah, error) {
	now := time.Now().UTC()
	su.ID = primitive.NewObjectID()
	if su.NumberOfAyahs == 0 {
		su.NumberOfAyahs = len(su.Ayahs)
	}
	su.CreatedAt = now
	su.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, su); err != nil {
		if storeutil.IsDup(err) {
			return models.Surah{}, ErrDuplicateNumber
		}
		return models.Surah{}, err
	}
	return su, nil
}

// UpdateInput holds editable surah fields. Nil means unchanged.
type UpdateInput struct {
	Name                   *string
	EnglishName            *string
	EnglishNameTranslation *string
	RevelationType         *string
	Ayahs                  *[]models.Ayah
}

// Update applies in to the surah with number and returns it.
func (s *Store) Update(ctx context.Context, number int, in UpdateInput) (*models.Surah, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.EnglishName != nil {
		set["english_name"] = *in.EnglishName
	}
	if in.EnglishNameTranslation != nil {
		set["english_name_translation"] = *in.EnglishNameTranslation
	}
	if in.RevelationType != nil {
		set["revelation_type"] = *in.RevelationType
	}
	if in.Ayahs != nil {
		set["ayahs"] = *in.Ayahs
		set["number_of_ayahs"] = len(*in.Ayahs)
	}
	var su models.Surah
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"surah_number": number}, bson.M{"$set": set}, opts).Decode(&su); err != nil {
		return nil, err
	}
	return &su, nil
}

// Delete removes the surah with number. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, number int) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"surah_number": number})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Search finds ayahs whose translation or transliteration contains q
// (case-insensitive), in surah then ayah order, up to limit hits.
func (s *Store) Search(ctx context.Context, q string, limit int64) ([]models.AyahMatch, error) {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	match := bson.M{"$or": bson.A{
		bson.M{"ayahs.translation": rx},
		bson.M{"ayahs.transliteration": rx},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$ayahs"}},
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "surah_number", Value: 1}, {Key: "ayahs.number", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"_id": 0, "surah_number": 1, "name": 1, "english_name": 1, "ayah": "$ayahs"}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.AyahMatch{}
	for cur.Next(ctx) {
		var row struct {
			SurahNumber int         `bson:"surah_number"`
			Name        string      `bson:"name"`
			EnglishName string      `bson:"english_name"`
			Ayah        models.Ayah `bson:"ayah"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		name := row.EnglishName
		if name == "" {
			name = row.Name
		}
		out = append(out, models.AyahMatch{SurahNumber: row.SurahNumber, SurahName: name, Ayah: row.Ayah})
	}
	return out, cur.Err()
}
