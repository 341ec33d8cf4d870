package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// CategoryNode is one entry in the component_categories tree, built from
// the flat (id, parent_id) lookup table — never a cyclic pointer
// structure, just a plain tree of child pointers.
type CategoryNode struct {
	ID          int64
	Name        string
	Description string
	Children    []*CategoryNode
}

// PutCategory inserts or updates a named category, optionally parented
// under parentName (empty string for a root category). It fails with
// Conflict if parentName is name itself or one of its descendants.
func (s *Store) PutCategory(name, description, parentName string) error {
	var parentID sql.NullInt64
	if parentName != "" {
		var id int64
		err := s.db.QueryRow("SELECT id FROM component_categories WHERE name = ?", parentName).Scan(&id)
		if err == sql.ErrNoRows {
			return &StoreError{Kind: NotFound, Cause: fmt.Errorf("parent category %q not found", parentName)}
		}
		if err != nil {
			return &StoreError{Kind: Io, Cause: err}
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}

		// Walk up from the new parent: reaching name means the update
		// would make the category its own ancestor.
		for cur := parentID; cur.Valid; {
			var ancestor string
			var next sql.NullInt64
			if err := s.db.QueryRow("SELECT name, parent_id FROM component_categories WHERE id = ?", cur.Int64).Scan(&ancestor, &next); err != nil {
				return &StoreError{Kind: Io, Cause: err}
			}
			if ancestor == name {
				return &StoreError{Kind: Conflict, Cause: fmt.Errorf("category %q cannot be parented under itself or its descendant %q", name, parentName)}
			}
			cur = next
		}
	}

	_, err := s.db.Exec(`INSERT INTO component_categories (name, parent_id, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET parent_id = excluded.parent_id, description = excluded.description`,
		name, parentID, description, time.Now().UTC().Format(timeFmt))
	if err != nil {
		return &StoreError{Kind: Io, Cause: err}
	}
	return nil
}

// CategoryTree builds the full category forest from the flat lookup
// table: every row is read once, assembled into a map keyed by id, then
// linked into parent/child slices. No row ever points at itself or a
// descendant — PutCategory refuses any parent that would close a cycle.
func (s *Store) CategoryTree() ([]*CategoryNode, error) {
	rows, err := s.db.Query("SELECT id, name, description, parent_id FROM component_categories ORDER BY name ASC")
	if err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}
	defer rows.Close()

	byID := make(map[int64]*CategoryNode)
	parentOf := make(map[int64]int64)
	var order []int64

	for rows.Next() {
		var id int64
		var name string
		var description sql.NullString
		var parentID sql.NullInt64
		if err := rows.Scan(&id, &name, &description, &parentID); err != nil {
			return nil, &StoreError{Kind: Io, Cause: err}
		}
		byID[id] = &CategoryNode{ID: id, Name: name, Description: description.String}
		order = append(order, id)
		if parentID.Valid {
			parentOf[id] = parentID.Int64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}

	var roots []*CategoryNode
	for _, id := range order {
		node := byID[id]
		parentID, hasParent := parentOf[id]
		if !hasParent {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[parentID]
		if !ok {
			roots = append(roots, node) // orphaned parent reference, surface at root
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}
