package bookmarks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	hadithstore "github.com/dalemusser/noorhub/internal/app/store/hadith"
	newsstore "github.com/dalemusser/noorhub/internal/app/store/news"
	productstore "github.com/dalemusser/noorhub/internal/app/store/products"
	quranstore "github.com/dalemusser/noorhub/internal/app/store/quran"
	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	videostore "github.com/dalemusser/noorhub/internal/app/store/videos"
	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const snapshotExcerpt = 200

// resolver builds the denormalized summary a bookmark stores, from the
// store that owns the content.
type resolver struct {
	news     *newsstore.Store
	videos   *videostore.Store
	products *productstore.Store
	quran    *quranstore.Store
	hadith   *hadithstore.Store
}

func newResolver(db *mongo.Database) *resolver {
	return &resolver{
		news:     newsstore.New(db),
		videos:   videostore.New(db),
		products: productstore.New(db),
		quran:    quranstore.New(db),
		hadith:   hadithstore.New(db),
	}
}

func errInvalidContentID() error {
	return apperr.Invalid("Invalid content id", "contentId")
}

// canonicalID returns the form the content id is stored in: a lowercase
// ObjectID hex string, or a surah number.
func canonicalID(ct models.ContentType, id string) (string, error) {
	id = strings.TrimSpace(id)
	if ct == models.ContentQuran {
		n, err := strconv.Atoi(id)
		if err != nil || n < models.FirstSurah || n > models.LastSurah {
			return "", errInvalidContentID()
		}
		return strconv.Itoa(n), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", errInvalidContentID()
	}
	return oid.Hex(), nil
}

// snapshot loads the content. Missing or unpublished content is a 404.
func (rs *resolver) snapshot(ctx context.Context, ct models.ContentType, id string) (models.ContentSnapshot, error) {
	notFound := apperr.NotFound("Content")
	if ct == models.ContentQuran {
		n, _ := strconv.Atoi(id)
		s, err := rs.quran.GetByNumber(ctx, n)
		if err != nil {
			return models.ContentSnapshot{}, orNotFound(err, notFound)
		}
		return models.ContentSnapshot{
			Title:   fmt.Sprintf("%d. %s (%s)", s.SurahNumber, s.EnglishName, s.Name),
			Excerpt: s.EnglishNameTranslation,
			URL:     "/quran/" + id,
		}, nil
	}

	oid, _ := primitive.ObjectIDFromHex(id)
	switch ct {
	case models.ContentNews:
		n, err := rs.news.GetByID(ctx, oid)
		if err != nil {
			return models.ContentSnapshot{}, orNotFound(err, notFound)
		}
		if !n.Published {
			return models.ContentSnapshot{}, notFound
		}
		return models.ContentSnapshot{Title: n.Title, Excerpt: n.Excerpt, ImageURL: n.ImageURL, URL: "/news/" + id}, nil
	case models.ContentVideo:
		v, err := rs.videos.GetByID(ctx, oid)
		if err != nil {
			return models.ContentSnapshot{}, orNotFound(err, notFound)
		}
		if !v.Published {
			return models.ContentSnapshot{}, notFound
		}
		return models.ContentSnapshot{
			Title:    v.Title,
			Excerpt:  htmlsanitize.Excerpt(v.Description, snapshotExcerpt),
			ImageURL: v.Thumbnail,
			URL:      "/videos/" + id,
		}, nil
	case models.ContentProduct:
		p, err := rs.products.GetByID(ctx, oid)
		if err != nil {
			return models.ContentSnapshot{}, orNotFound(err, notFound)
		}
		snap := models.ContentSnapshot{
			Title:   p.Name,
			Excerpt: htmlsanitize.Excerpt(p.Description, snapshotExcerpt),
			URL:     "/products/" + id,
		}
		if len(p.Images) > 0 {
			snap.ImageURL = p.Images[0]
		}
		return snap, nil
	case models.ContentHadith:
		h, err := rs.hadith.GetByID(ctx, oid)
		if err != nil {
			return models.ContentSnapshot{}, orNotFound(err, notFound)
		}
		return models.ContentSnapshot{
			Title:   fmt.Sprintf("%s %d", models.CollectionLabel(h.CollectionName), h.HadithNumber),
			Excerpt: htmlsanitize.Excerpt(h.TranslationIn("en"), snapshotExcerpt),
			URL:     "/hadith/" + id,
		}, nil
	}
	return models.ContentSnapshot{}, apperr.Invalid("Unknown content type", "contentType")
}

func orNotFound(err error, notFound error) error {
	if storeutil.IsNotFound(err) {
		return notFound
	}
	return apperr.Internal(err)
}
