// Package fallback serves a small static copy of the hub's content when
// the database cannot be reached. The datasets are built once and never
// mutated; every accessor hands out copies.
package fallback

import (
	"sort"
	"strings"

	hadithstore "github.com/dalemusser/noorhub/internal/app/store/hadith"
	newsstore "github.com/dalemusser/noorhub/internal/app/store/news"
	productstore "github.com/dalemusser/noorhub/internal/app/store/products"
	questionstore "github.com/dalemusser/noorhub/internal/app/store/questions"
	videostore "github.com/dalemusser/noorhub/internal/app/store/videos"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Provider holds the read-only datasets.
type Provider struct {
	news      []models.News
	videos    []models.Video
	products  []models.Product
	surahs    []models.Surah
	hadiths   []models.Hadith
	navbar    []models.NavbarItem
	questions []models.Question
}

// New builds the datasets. Items are kept in the order the matching store
// would return them.
func New() *Provider {
	p := &Provider{
		news:      newsData(),
		videos:    videoData(),
		products:  productData(),
		surahs:    surahData(),
		hadiths:   hadithData(),
		navbar:    navbarData(),
		questions: questionData(),
	}
	sort.SliceStable(p.news, func(i, j int) bool { return p.news[i].CreatedAt.After(p.news[j].CreatedAt) })
	sort.SliceStable(p.videos, func(i, j int) bool { return p.videos[i].CreatedAt.After(p.videos[j].CreatedAt) })
	sort.SliceStable(p.products, func(i, j int) bool { return p.products[i].CreatedAt.After(p.products[j].CreatedAt) })
	sort.SliceStable(p.questions, func(i, j int) bool { return p.questions[i].CreatedAt.After(p.questions[j].CreatedAt) })
	sort.SliceStable(p.surahs, func(i, j int) bool { return p.surahs[i].SurahNumber < p.surahs[j].SurahNumber })
	sort.SliceStable(p.hadiths, func(i, j int) bool {
		a, b := p.hadiths[i], p.hadiths[j]
		if a.CollectionName != b.CollectionName {
			return a.CollectionName < b.CollectionName
		}
		return a.HadithNumber < b.HadithNumber
	})
	return p
}

// matches reports whether q occurs in any of fields, ignoring case.
func matches(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	needle := text.Fold(q)
	for _, f := range fields {
		if strings.Contains(text.Fold(f), needle) {
			return true
		}
	}
	return false
}

func filter[T any](items []T, keep func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

/* --------------------------------- news --------------------------------- */

// News lists news items. Unpublished items are never part of the dataset.
func (p *Provider) News(f newsstore.ListFilter, pg pagination.Params) ([]models.News, int64) {
	hits := filter(p.news, func(n *models.News) bool {
		if f.Published != nil && n.Published != *f.Published {
			return false
		}
		if f.Featured != nil && n.Featured != *f.Featured {
			return false
		}
		if f.Category != "" && n.Category != f.Category {
			return false
		}
		return matches(f.Search, n.Title, n.Content, n.Excerpt)
	})
	page, total := pagination.Slice(hits, pg)
	for i := range page {
		page[i] = cloneNews(page[i])
	}
	return page, total
}

// NewsByID returns the item with id.
func (p *Provider) NewsByID(id primitive.ObjectID) (models.News, bool) {
	for _, n := range p.news {
		if n.ID == id {
			return cloneNews(n), true
		}
	}
	return models.News{}, false
}

func cloneNews(n models.News) models.News {
	n.Tags = append([]string(nil), n.Tags...)
	return n
}

/* -------------------------------- videos -------------------------------- */

// Videos lists videos without their comments.
func (p *Provider) Videos(f videostore.ListFilter, pg pagination.Params) ([]models.Video, int64) {
	hits := filter(p.videos, func(v *models.Video) bool {
		if f.Published != nil && v.Published != *f.Published {
			return false
		}
		if f.Category != "" && v.Category != f.Category {
			return false
		}
		return matches(f.Search, v.Title, v.Description)
	})
	page, total := pagination.Slice(hits, pg)
	for i := range page {
		page[i] = cloneVideo(page[i])
		page[i].Comments = nil
	}
	return page, total
}

// VideoByID returns the video with id.
func (p *Provider) VideoByID(id primitive.ObjectID) (models.Video, bool) {
	for _, v := range p.videos {
		if v.ID == id {
			return cloneVideo(v), true
		}
	}
	return models.Video{}, false
}

func cloneVideo(v models.Video) models.Video {
	v.Likes = append([]primitive.ObjectID{}, v.Likes...)
	v.Dislikes = append([]primitive.ObjectID{}, v.Dislikes...)
	v.Bookmarks = append([]primitive.ObjectID{}, v.Bookmarks...)
	comments := make([]models.Comment, len(v.Comments))
	for i, c := range v.Comments {
		c.Replies = append([]models.Reply{}, c.Replies...)
		comments[i] = c
	}
	v.Comments = comments
	return v
}

/* ------------------------------- products ------------------------------- */

// Products lists shop products.
func (p *Provider) Products(f productstore.ListFilter, pg pagination.Params) ([]models.Product, int64) {
	hits := filter(p.products, func(pr *models.Product) bool {
		if f.Featured != nil && pr.Featured != *f.Featured {
			return false
		}
		if f.Category != "" && pr.Category != f.Category {
			return false
		}
		return matches(f.Search, pr.Name, pr.Description, pr.SKU)
	})
	page, total := pagination.Slice(hits, pg)
	for i := range page {
		page[i].Images = append([]string(nil), page[i].Images...)
	}
	return page, total
}

// ProductByID returns the product with id.
func (p *Provider) ProductByID(id primitive.ObjectID) (models.Product, bool) {
	for _, pr := range p.products {
		if pr.ID == id {
			pr.Images = append([]string(nil), pr.Images...)
			return pr, true
		}
	}
	return models.Product{}, false
}

/* --------------------------------- quran -------------------------------- */

// Surahs lists every surah without ayahs.
func (p *Provider) Surahs() []models.Surah {
	out := make([]models.Surah, len(p.surahs))
	for i, s := range p.surahs {
		s.Ayahs = nil
		out[i] = s
	}
	return out
}

// SurahByNumber returns a surah with its ayahs.
func (p *Provider) SurahByNumber(number int) (models.Surah, bool) {
	for _, s := range p.surahs {
		if s.SurahNumber == number {
			s.Ayahs = append([]models.Ayah(nil), s.Ayahs...)
			return s, true
		}
	}
	return models.Surah{}, false
}

// SearchAyahs returns up to limit ayahs whose translation contains q.
func (p *Provider) SearchAyahs(q string, limit int) []models.AyahMatch {
	out := []models.AyahMatch{}
	for _, s := range p.surahs {
		name := s.EnglishName
		if name == "" {
			name = s.Name
		}
		for _, a := range s.Ayahs {
			if len(out) >= limit {
				return out
			}
			if matches(q, a.Translation) {
				out = append(out, models.AyahMatch{SurahNumber: s.SurahNumber, SurahName: name, Ayah: a})
			}
		}
	}
	return out
}

/* -------------------------------- hadith -------------------------------- */

// Hadiths lists hadith ordered by collection then number.
func (p *Provider) Hadiths(f hadithstore.ListFilter, pg pagination.Params) ([]models.Hadith, int64) {
	hits := filter(p.hadiths, func(h *models.Hadith) bool {
		if f.Collection != "" && h.CollectionName != f.Collection {
			return false
		}
		if f.Search == "" {
			return true
		}
		fields := []string{h.Narrator, h.Chapter, h.BookName}
		for _, t := range h.Translations {
			fields = append(fields, t.Text)
		}
		return matches(f.Search, fields...)
	})
	page, total := pagination.Slice(hits, pg)
	for i := range page {
		page[i].Translations = append([]models.Translation(nil), page[i].Translations...)
	}
	return page, total
}

// HadithByID returns the hadith with id.
func (p *Provider) HadithByID(id primitive.ObjectID) (models.Hadith, bool) {
	for _, h := range p.hadiths {
		if h.ID == id {
			h.Translations = append([]models.Translation(nil), h.Translations...)
			return h, true
		}
	}
	return models.Hadith{}, false
}

/* -------------------------------- navbar -------------------------------- */

// Navbar returns the active menu as a tree.
func (p *Provider) Navbar() []models.NavNode {
	items := filter(p.navbar, func(n *models.NavbarItem) bool { return n.IsActive })
	return models.BuildNavTree(items)
}

// NavbarItemByID looks up one item of the default menu.
func (p *Provider) NavbarItemByID(id primitive.ObjectID) (models.NavbarItem, bool) {
	for _, it := range p.navbar {
		if it.ID == id {
			return it, true
		}
	}
	return models.NavbarItem{}, false
}

// NavbarItems returns the flat default menu, parents before children.
func (p *Provider) NavbarItems() []models.NavbarItem {
	out := make([]models.NavbarItem, len(p.navbar))
	copy(out, p.navbar)
	return out
}

/* ------------------------------- questions ------------------------------ */

// Questions lists public answered questions. Viewer-specific visibility
// does not apply to demo content.
func (p *Provider) Questions(f questionstore.ListFilter, pg pagination.Params) ([]models.Question, int64) {
	hits := filter(p.questions, func(q *models.Question) bool {
		if !q.IsPublic || q.Status != models.QuestionAnswered {
			return false
		}
		if f.Status != "" && q.Status != f.Status {
			return false
		}
		return f.Category == "" || q.Category == f.Category
	})
	page, total := pagination.Slice(hits, pg)
	for i := range page {
		page[i] = cloneQuestion(page[i])
	}
	return page, total
}

// QuestionByID returns a public question with id.
func (p *Provider) QuestionByID(id primitive.ObjectID) (models.Question, bool) {
	for _, q := range p.questions {
		if q.ID == id && q.IsPublic {
			return cloneQuestion(q), true
		}
	}
	return models.Question{}, false
}

func cloneQuestion(q models.Question) models.Question {
	if q.AnsweredBy != nil {
		by := *q.AnsweredBy
		q.AnsweredBy = &by
	}
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		q.AnsweredAt = &at
	}
	return q
}
