package newsstore

import (
	"testing"

	"github.com/dalemusser/noorhub/internal/app/store/storeutil"
	"github.com/dalemusser/noorhub/internal/app/system/pagination"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/noorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, s *Store, items ...models.News) []models.News {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	out := make([]models.News, 0, len(items))
	for _, n := range items {
		if n.Content == "" {
			n.Content = "<p>body</p>"
		}
		created, err := s.Create(ctx, n)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", n.Title, err)
		}
		out = append(out, created)
	}
	return out
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := seed(t, s, models.News{Title: "Ramadan timetable", Category: "community", Views: 99})[0]
	if created.ID.IsZero() || created.CreatedAt.IsZero() {
		t.Fatal("Create() should assign id and timestamps")
	}
	if created.Views != 0 {
		t.Errorf("Views = %d, want 0", created.Views)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Ramadan timetable" || got.Published {
		t.Errorf("GetByID() = %+v", got)
	}

	_, err = s.GetByID(ctx, primitive.NewObjectID())
	if !storeutil.IsNotFound(err) {
		t.Errorf("GetByID(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed(t, s,
		models.News{Title: "Eid prayer times", Category: "community", Published: true, Featured: true},
		models.News{Title: "New masjid opens", Category: "community", Published: true},
		models.News{Title: "Zakat guide", Category: "fiqh", Published: true},
		models.News{Title: "Draft", Category: "fiqh", Published: false},
	)
	yes := true

	tests := []struct {
		name string
		f    ListFilter
		want int64
	}{
		{"all", ListFilter{}, 4},
		{"published", ListFilter{Published: &yes}, 3},
		{"category", ListFilter{Category: "community"}, 2},
		{"featured", ListFilter{Featured: &yes}, 1},
		{"search case-insensitive", ListFilter{Search: "ZAKAT"}, 1},
		{"search regex chars are literal", ListFilter{Search: "(.*)"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := s.List(ctx, tt.f, pagination.Params{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	page, total, err := s.List(ctx, ListFilter{}, pagination.Params{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 4 || len(page) != 1 {
		t.Errorf("page 2: len=%d total=%d, want 1/4", len(page), total)
	}
}

func TestStore_UpdateAndViews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n := seed(t, s, models.News{Title: "Old title"})[0]

	title := "New title"
	pub := true
	got, err := s.Update(ctx, n.ID, UpdateInput{Title: &title, Published: &pub})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "New title" || !got.Published || got.Content != n.Content {
		t.Errorf("Update() = %+v", got)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.IncrementViews(ctx, n.ID); err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
	}
	got, _ = s.GetByID(ctx, n.ID)
	if got.Views != 3 {
		t.Errorf("Views = %d, want 3", got.Views)
	}

	deleted, err := s.Delete(ctx, n.ID)
	if err != nil || deleted != 1 {
		t.Fatalf("Delete() = %d, %v", deleted, err)
	}
	if ok, _ := s.Exists(ctx, n.ID); ok {
		t.Error("Exists() after delete should be false")
	}
}
