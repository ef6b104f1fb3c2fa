// internal/domain/models/navbar.go
package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Navbar item types.
const (
	NavMain     = "main"
	NavLocation = "location"
	NavDropdown = "dropdown"
)

// AllNavTypes lists navbar item types.
func AllNavTypes() []string {
	return []string{NavMain, NavLocation, NavDropdown}
}

// NavbarItem is one entry of the site menu. Items with a ParentID are
// children of a dropdown.
type NavbarItem struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title     string              `bson:"title" json:"title"`
	Href      string              `bson:"href" json:"href"`
	Type      string              `bson:"type" json:"type"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	Order     int                 `bson:"order" json:"order"`
	IsActive  bool                `bson:"is_active" json:"isActive"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// NavNode is a NavbarItem with its children, as served to the menu.
type NavNode struct {
	NavbarItem `bson:",inline"`
	Children   []NavNode `json:"children,omitempty"`
}

// BuildNavTree nests items under their parents ordered by Order then Title.
// An item whose parent is absent from items is promoted to the top level.
func BuildNavTree(items []NavbarItem) []NavNode {
	present := make(map[primitive.ObjectID]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}
	children := make(map[primitive.ObjectID][]NavbarItem)
	var roots []NavbarItem
	for _, it := range items {
		if it.ParentID != nil && present[*it.ParentID] && *it.ParentID != it.ID {
			children[*it.ParentID] = append(children[*it.ParentID], it)
			continue
		}
		roots = append(roots, it)
	}

	seen := make(map[primitive.ObjectID]bool, len(items))
	var build func(level []NavbarItem) []NavNode
	build = func(level []NavbarItem) []NavNode {
		sortNav(level)
		nodes := make([]NavNode, 0, len(level))
		for _, it := range level {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			nodes = append(nodes, NavNode{NavbarItem: it, Children: build(children[it.ID])})
		}
		return nodes
	}
	return build(roots)
}

func sortNav(items []NavbarItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Title < items[j].Title
	})
}
