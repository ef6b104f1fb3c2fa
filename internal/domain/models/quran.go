// internal/domain/models/quran.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Surah numbering bounds.
const (
	FirstSurah = 1
	LastSurah  = 114
)

// Revelation types.
const (
	RevelationMeccan  = "Meccan"
	RevelationMedinan = "Medinan"
)

// Surah is a chapter of the Quran, unique by SurahNumber.
type Surah struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SurahNumber            int                `bson:"surah_number" json:"surahNumber"`
	Name                   string             `bson:"name" json:"name"`
	EnglishName            string             `bson:"english_name" json:"englishName"`
	EnglishNameTranslation string             `bson:"english_name_translation" json:"englishNameTranslation"`
	RevelationType         string             `bson:"revelation_type" json:"revelationType"`
	NumberOfAyahs          int                `bson:"number_of_ayahs" json:"numberOfAyahs"`
	Ayahs                  []Ayah             `bson:"ayahs,omitempty" json:"ayahs,omitempty"`
	CreatedAt              time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Ayah is a verse.
type Ayah struct {
	Number          int    `bson:"number" json:"number"`
	Text            string `bson:"text" json:"text"`
	Translation     string `bson:"translation" json:"translation"`
	Transliteration string `bson:"transliteration,omitempty" json:"transliteration,omitempty"`
}

// AyahMatch is a search hit inside a surah.
type AyahMatch struct {
	SurahNumber int    `json:"surahNumber"`
	SurahName   string `json:"surahName"`
	Ayah        Ayah   `json:"ayah"`
}
