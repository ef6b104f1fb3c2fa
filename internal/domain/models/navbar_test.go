package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildNavTree(t *testing.T) {
	about := NavbarItem{ID: primitive.NewObjectID(), Title: "About", Type: NavDropdown, Order: 2}
	home := NavbarItem{ID: primitive.NewObjectID(), Title: "Home", Type: NavMain, Order: 1}
	team := NavbarItem{ID: primitive.NewObjectID(), Title: "Team", Type: NavMain, Order: 2, ParentID: &about.ID}
	mission := NavbarItem{ID: primitive.NewObjectID(), Title: "Mission", Type: NavMain, Order: 1, ParentID: &about.ID}
	missing := primitive.NewObjectID()
	orphan := NavbarItem{ID: primitive.NewObjectID(), Title: "Orphan", Type: NavMain, Order: 3, ParentID: &missing}

	tree := BuildNavTree([]NavbarItem{team, about, orphan, home, mission})

	if len(tree) != 3 {
		t.Fatalf("len(tree) = %d, want 3", len(tree))
	}
	if tree[0].Title != "Home" || tree[1].Title != "About" || tree[2].Title != "Orphan" {
		t.Errorf("root order = %q, %q, %q", tree[0].Title, tree[1].Title, tree[2].Title)
	}
	kids := tree[1].Children
	if len(kids) != 2 || kids[0].Title != "Mission" || kids[1].Title != "Team" {
		t.Errorf("children of About = %+v", kids)
	}
}

func TestVideoReactionsFor(t *testing.T) {
	uid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	v := Video{
		Likes:    []primitive.ObjectID{uid, other},
		Dislikes: []primitive.ObjectID{},
	}

	got := v.ReactionsFor(uid)
	if got.Likes != 2 || got.Dislikes != 0 || !got.Liked || got.Disliked {
		t.Errorf("ReactionsFor() = %+v", got)
	}
}
