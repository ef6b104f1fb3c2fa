package fallback

import (
	"time"

	"github.com/dalemusser/noorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fixed ids keep fallback content addressable across restarts so that
// links handed out in demo mode keep resolving.
func oid(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic("fallback: bad id " + hex)
	}
	return id
}

var (
	seededAt = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	editor   = models.Author{ID: oid("65a4f0000000000000000001"), Name: "Noorhub Editorial"}
)

func day(n int) time.Time { return seededAt.AddDate(0, 0, n) }

func newsData() []models.News {
	return []models.News{
		{
			ID:        oid("65a4f0000000000000000101"),
			Title:     "Ramadan Preparation Guide",
			Excerpt:   "Practical steps to prepare body and heart for the blessed month.",
			Content:   "<p>Begin with voluntary fasts in Sha'ban, set a Quran reading plan and renew your intention.</p>",
			Category:  "ramadan",
			Tags:      []string{"ramadan", "fasting"},
			Author:    editor,
			Published: true,
			Featured:  true,
			Views:     1240,
			CreatedAt: day(0),
			UpdatedAt: day(0),
		},
		{
			ID:        oid("65a4f0000000000000000102"),
			Title:     "Community Iftar This Friday",
			Excerpt:   "Join neighbours for a shared iftar at the central masjid.",
			Content:   "<p>All are welcome. Bring a dish to share if you can.</p>",
			Category:  "community",
			Tags:      []string{"events"},
			Author:    editor,
			Published: true,
			Views:     310,
			CreatedAt: day(3),
			UpdatedAt: day(3),
		},
		{
			ID:        oid("65a4f0000000000000000103"),
			Title:     "Understanding Zakat al-Fitr",
			Excerpt:   "Who pays it, how much, and when it is due.",
			Content:   "<p>Zakat al-Fitr is due before the Eid prayer and is paid on behalf of every member of the household.</p>",
			Category:  "fiqh",
			Tags:      []string{"zakat", "eid"},
			Author:    editor,
			Published: true,
			Featured:  true,
			Views:     875,
			CreatedAt: day(7),
			UpdatedAt: day(7),
		},
		{
			ID:        oid("65a4f0000000000000000104"),
			Title:     "New Children's Quran Circle",
			Excerpt:   "Weekend hifz classes open for ages 6 to 12.",
			Content:   "<p>Classes run Saturday and Sunday mornings with qualified teachers.</p>",
			Category:  "education",
			Author:    editor,
			Published: true,
			Views:     142,
			CreatedAt: day(10),
			UpdatedAt: day(10),
		},
	}
}

func videoData() []models.Video {
	return []models.Video{
		{
			ID:          oid("65a4f0000000000000000201"),
			Title:       "The Meaning of Surah Al-Fatiha",
			Description: "A short reflection on the opening chapter of the Quran.",
			VideoURL:    "https://www.youtube.com/watch?v=fatiha-demo",
			Thumbnail:   "https://img.youtube.com/vi/fatiha-demo/hqdefault.jpg",
			Category:    "tafsir",
			Duration:    "12:40",
			Author:      editor,
			Views:       5320,
			Published:   true,
			CreatedAt:   day(1),
			UpdatedAt:   day(1),
		},
		{
			ID:          oid("65a4f0000000000000000202"),
			Title:       "How to Perform Wudu",
			Description: "Step by step ablution for beginners.",
			VideoURL:    "https://www.youtube.com/watch?v=wudu-demo",
			Thumbnail:   "https://img.youtube.com/vi/wudu-demo/hqdefault.jpg",
			Category:    "fiqh",
			Duration:    "08:15",
			Author:      editor,
			Views:       9100,
			Published:   true,
			CreatedAt:   day(4),
			UpdatedAt:   day(4),
		},
		{
			ID:          oid("65a4f0000000000000000203"),
			Title:       "Stories of the Prophets: Yunus",
			Description: "Patience and repentance in the story of Prophet Yunus.",
			VideoURL:    "https://www.youtube.com/watch?v=yunus-demo",
			Category:    "seerah",
			Duration:    "21:05",
			Author:      editor,
			Views:       2045,
			Published:   true,
			CreatedAt:   day(8),
			UpdatedAt:   day(8),
		},
	}
}

func productData() []models.Product {
	return []models.Product{
		{
			ID:          oid("65a4f0000000000000000301"),
			Name:        "Prayer Mat (Velvet)",
			Description: "Soft padded prayer mat with travel pouch.",
			Price:       1450,
			Stock:       25,
			SKU:         "MAT-VEL-001",
			Category:    "prayer",
			Featured:    true,
			CreatedAt:   day(0),
			UpdatedAt:   day(0),
		},
		{
			ID:          oid("65a4f0000000000000000302"),
			Name:        "Digital Tasbih Counter",
			Description: "Ring counter with reset button and backlight.",
			Price:       350,
			Stock:       80,
			SKU:         "TSB-DIG-002",
			Category:    "prayer",
			CreatedAt:   day(2),
			UpdatedAt:   day(2),
		},
		{
			ID:          oid("65a4f0000000000000000303"),
			Name:        "Quran with Bengali Translation",
			Description: "Hardcover mushaf with word-by-word Bengali translation.",
			Price:       1200,
			Stock:       40,
			SKU:         "BK-QRN-BN-003",
			Category:    "books",
			Featured:    true,
			CreatedAt:   day(5),
			UpdatedAt:   day(5),
		},
		{
			ID:          oid("65a4f0000000000000000304"),
			Name:        "Attar Gift Set",
			Description: "Three alcohol-free attar oils in a wooden box.",
			Price:       990,
			Stock:       15,
			SKU:         "ATR-SET-004",
			Category:    "fragrance",
			CreatedAt:   day(9),
			UpdatedAt:   day(9),
		},
	}
}

func surahData() []models.Surah {
	return []models.Surah{
		{
			ID:                     oid("65a4f0000000000000000401"),
			SurahNumber:            1,
			Name:                   "الفاتحة",
			EnglishName:            "Al-Fatiha",
			EnglishNameTranslation: "The Opening",
			RevelationType:         models.RevelationMeccan,
			NumberOfAyahs:          7,
			Ayahs: []models.Ayah{
				{Number: 1, Text: "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ", Translation: "In the name of Allah, the Entirely Merciful, the Especially Merciful."},
				{Number: 2, Text: "الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ", Translation: "All praise is due to Allah, Lord of the worlds."},
				{Number: 3, Text: "الرَّحْمَٰنِ الرَّحِيمِ", Translation: "The Entirely Merciful, the Especially Merciful."},
				{Number: 4, Text: "مَالِكِ يَوْمِ الدِّينِ", Translation: "Sovereign of the Day of Recompense."},
				{Number: 5, Text: "إِيَّاكَ نَعْبُدُ وَإِيَّاكَ نَسْتَعِينُ", Translation: "It is You we worship and You we ask for help."},
				{Number: 6, Text: "اهْدِنَا الصِّرَاطَ الْمُسْتَقِيمَ", Translation: "Guide us to the straight path."},
				{Number: 7, Text: "صِرَاطَ الَّذِينَ أَنْعَمْتَ عَلَيْهِمْ غَيْرِ الْمَغْضُوبِ عَلَيْهِمْ وَلَا الضَّالِّينَ", Translation: "The path of those upon whom You have bestowed favor, not of those who have earned anger or of those who are astray."},
			},
			CreatedAt: seededAt,
			UpdatedAt: seededAt,
		},
		{
			ID:                     oid("65a4f0000000000000000402"),
			SurahNumber:            112,
			Name:                   "الإخلاص",
			EnglishName:            "Al-Ikhlas",
			EnglishNameTranslation: "The Sincerity",
			RevelationType:         models.RevelationMeccan,
			NumberOfAyahs:          4,
			Ayahs: []models.Ayah{
				{Number: 1, Text: "قُلْ هُوَ اللَّهُ أَحَدٌ", Translation: "Say, He is Allah, who is One."},
				{Number: 2, Text: "اللَّهُ الصَّمَدُ", Translation: "Allah, the Eternal Refuge."},
				{Number: 3, Text: "لَمْ يَلِدْ وَلَمْ يُولَدْ", Translation: "He neither begets nor is born."},
				{Number: 4, Text: "وَلَمْ يَكُن لَّهُ كُفُوًا أَحَدٌ", Translation: "Nor is there to Him any equivalent."},
			},
			CreatedAt: seededAt,
			UpdatedAt: seededAt,
		},
		{
			ID:                     oid("65a4f0000000000000000403"),
			SurahNumber:            113,
			Name:                   "الفلق",
			EnglishName:            "Al-Falaq",
			EnglishNameTranslation: "The Daybreak",
			RevelationType:         models.RevelationMeccan,
			NumberOfAyahs:          5,
			Ayahs: []models.Ayah{
				{Number: 1, Text: "قُلْ أَعُوذُ بِرَبِّ الْفَلَقِ", Translation: "Say, I seek refuge in the Lord of daybreak."},
				{Number: 2, Text: "مِن شَرِّ مَا خَلَقَ", Translation: "From the evil of that which He created."},
				{Number: 3, Text: "وَمِن شَرِّ غَاسِقٍ إِذَا وَقَبَ", Translation: "And from the evil of darkness when it settles."},
				{Number: 4, Text: "وَمِن شَرِّ النَّفَّاثَاتِ فِي الْعُقَدِ", Translation: "And from the evil of the blowers in knots."},
				{Number: 5, Text: "وَمِن شَرِّ حَاسِدٍ إِذَا حَسَدَ", Translation: "And from the evil of an envier when he envies."},
			},
			CreatedAt: seededAt,
			UpdatedAt: seededAt,
		},
		{
			ID:                     oid("65a4f0000000000000000404"),
			SurahNumber:            114,
			Name:                   "الناس",
			EnglishName:            "An-Nas",
			EnglishNameTranslation: "Mankind",
			RevelationType:         models.RevelationMeccan,
			NumberOfAyahs:          6,
			Ayahs: []models.Ayah{
				{Number: 1, Text: "قُلْ أَعُوذُ بِرَبِّ النَّاسِ", Translation: "Say, I seek refuge in the Lord of mankind."},
				{Number: 2, Text: "مَلِكِ النَّاسِ", Translation: "The Sovereign of mankind."},
				{Number: 3, Text: "إِلَٰهِ النَّاسِ", Translation: "The God of mankind."},
				{Number: 4, Text: "مِن شَرِّ الْوَسْوَاسِ الْخَنَّاسِ", Translation: "From the evil of the retreating whisperer."},
				{Number: 5, Text: "الَّذِي يُوَسْوِسُ فِي صُدُورِ النَّاسِ", Translation: "Who whispers in the breasts of mankind."},
				{Number: 6, Text: "مِنَ الْجِنَّةِ وَالنَّاسِ", Translation: "From among the jinn and mankind."},
			},
			CreatedAt: seededAt,
			UpdatedAt: seededAt,
		},
	}
}

func hadithData() []models.Hadith {
	return []models.Hadith{
		{
			ID:             oid("65a4f0000000000000000501"),
			CollectionName: models.CollectionBukhari,
			HadithNumber:   1,
			BookName:       "Revelation",
			Chapter:        "How the Divine Revelation started",
			Narrator:       "Umar ibn al-Khattab",
			ArabicText:     "إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ",
			Translations:   []models.Translation{{Language: "en", Text: "Actions are but by intentions, and every man shall have only that which he intended."}},
			Grade:          "Sahih",
			CreatedAt:      seededAt,
			UpdatedAt:      seededAt,
		},
		{
			ID:             oid("65a4f0000000000000000502"),
			CollectionName: models.CollectionBukhari,
			HadithNumber:   13,
			BookName:       "Belief",
			Chapter:        "To like for one's brother what one likes for himself",
			Narrator:       "Anas ibn Malik",
			ArabicText:     "لاَ يُؤْمِنُ أَحَدُكُمْ حَتَّى يُحِبَّ لأَخِيهِ مَا يُحِبُّ لِنَفْسِهِ",
			Translations:   []models.Translation{{Language: "en", Text: "None of you truly believes until he loves for his brother what he loves for himself."}},
			Grade:          "Sahih",
			CreatedAt:      seededAt,
			UpdatedAt:      seededAt,
		},
		{
			ID:             oid("65a4f0000000000000000503"),
			CollectionName: models.CollectionMuslim,
			HadithNumber:   2564,
			BookName:       "Virtues, Enjoining Good Manners",
			Narrator:       "Abu Hurairah",
			ArabicText:     "إِنَّ اللَّهَ لاَ يَنْظُرُ إِلَى صُوَرِكُمْ وَأَمْوَالِكُمْ",
			Translations:   []models.Translation{{Language: "en", Text: "Allah does not look at your appearance or your wealth, but He looks at your hearts and your deeds."}},
			Grade:          "Sahih",
			CreatedAt:      seededAt,
			UpdatedAt:      seededAt,
		},
		{
			ID:             oid("65a4f0000000000000000504"),
			CollectionName: models.CollectionTirmidhi,
			HadithNumber:   2516,
			BookName:       "Description of the Day of Judgement",
			Narrator:       "Ibn Abbas",
			ArabicText:     "احْفَظِ اللَّهَ يَحْفَظْكَ",
			Translations:   []models.Translation{{Language: "en", Text: "Be mindful of Allah and He will protect you."}},
			Grade:          "Hasan Sahih",
			CreatedAt:      seededAt,
			UpdatedAt:      seededAt,
		},
	}
}

func navbarData() []models.NavbarItem {
	learn := oid("65a4f0000000000000000603")
	return []models.NavbarItem{
		{ID: oid("65a4f0000000000000000601"), Title: "Home", Href: "/", Type: models.NavMain, Order: 0, IsActive: true},
		{ID: oid("65a4f0000000000000000602"), Title: "News", Href: "/news", Type: models.NavMain, Order: 1, IsActive: true},
		{ID: learn, Title: "Learn", Href: "#", Type: models.NavDropdown, Order: 2, IsActive: true},
		{ID: oid("65a4f0000000000000000604"), Title: "Quran", Href: "/quran", Type: models.NavMain, ParentID: &learn, Order: 0, IsActive: true},
		{ID: oid("65a4f0000000000000000605"), Title: "Hadith", Href: "/hadith", Type: models.NavMain, ParentID: &learn, Order: 1, IsActive: true},
		{ID: oid("65a4f0000000000000000606"), Title: "Videos", Href: "/videos", Type: models.NavMain, ParentID: &learn, Order: 2, IsActive: true},
		{ID: oid("65a4f0000000000000000607"), Title: "Shop", Href: "/shop", Type: models.NavMain, Order: 3, IsActive: true},
		{ID: oid("65a4f0000000000000000608"), Title: "Ask a Question", Href: "/questions", Type: models.NavMain, Order: 4, IsActive: true},
		{ID: oid("65a4f0000000000000000609"), Title: "Masjid Finder", Href: "/locations", Type: models.NavLocation, Order: 5, IsActive: true},
	}
}

func questionData() []models.Question {
	asker := models.Author{ID: oid("65a4f0000000000000000002"), Name: "Demo Visitor"}
	answered := day(2)
	return []models.Question{
		{
			ID:         oid("65a4f0000000000000000701"),
			User:       asker,
			Text:       "Is it permissible to fast the six days of Shawwal non-consecutively?",
			Category:   "fasting",
			IsPublic:   true,
			Answer:     "Yes. The six days may be fasted together or separately, as long as they fall within Shawwal.",
			AnsweredBy: &editor,
			AnsweredAt: &answered,
			Status:     models.QuestionAnswered,
			CreatedAt:  day(1),
			UpdatedAt:  answered,
		},
		{
			ID:         oid("65a4f0000000000000000702"),
			User:       asker,
			Text:       "Does touching a pet dog break my wudu?",
			Category:   "purification",
			IsPublic:   true,
			Answer:     "Touching a dog does not break wudu. If its saliva touches you, wash the area.",
			AnsweredBy: &editor,
			AnsweredAt: &answered,
			Status:     models.QuestionAnswered,
			CreatedAt:  day(1),
			UpdatedAt:  answered,
		},
	}
}
