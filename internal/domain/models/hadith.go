// internal/domain/models/hadith.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hadith collections.
const (
	CollectionBukhari  = "bukhari"
	CollectionMuslim   = "muslim"
	CollectionAbuDawud = "abudawud"
	CollectionTirmidhi = "tirmidhi"
	CollectionNasai    = "nasai"
	CollectionIbnMajah = "ibnmajah"
)

// AllHadithCollections lists the supported collections.
func AllHadithCollections() []string {
	return []string{
		CollectionBukhari,
		CollectionMuslim,
		CollectionAbuDawud,
		CollectionTirmidhi,
		CollectionNasai,
		CollectionIbnMajah,
	}
}

var collectionLabels = map[string]string{
	CollectionBukhari:  "Sahih al-Bukhari",
	CollectionMuslim:   "Sahih Muslim",
	CollectionAbuDawud: "Sunan Abi Dawud",
	CollectionTirmidhi: "Jami at-Tirmidhi",
	CollectionNasai:    "Sunan an-Nasai",
	CollectionIbnMajah: "Sunan Ibn Majah",
}

// CollectionLabel returns the display name of a collection slug.
func CollectionLabel(slug string) string {
	if l, ok := collectionLabels[slug]; ok {
		return l
	}
	return slug
}

// Hadith is a narration with its translations.
type Hadith struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CollectionName string             `bson:"collection_name" json:"collectionName"`
	HadithNumber   int                `bson:"hadith_number" json:"hadithNumber"`
	BookName       string             `bson:"book_name" json:"bookName"`
	Chapter        string             `bson:"chapter,omitempty" json:"chapter,omitempty"`
	Narrator       string             `bson:"narrator,omitempty" json:"narrator,omitempty"`
	ArabicText     string             `bson:"arabic_text" json:"arabicText"`
	Translations   []Translation      `bson:"translations" json:"translations"`
	Grade          string             `bson:"grade,omitempty" json:"grade,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Translation is the hadith text in one language.
type Translation struct {
	Language string `bson:"language" json:"language"`
	Text     string `bson:"text" json:"text"`
}

// TranslationIn returns the text for lang, or "" if absent.
func (h *Hadith) TranslationIn(lang string) string {
	for _, t := range h.Translations {
		if t.Language == lang {
			return t.Text
		}
	}
	return ""
}
