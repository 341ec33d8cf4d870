package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kallenvale/circuitsage/internal/model"
)

const timeFmt = time.RFC3339Nano

// Put upserts a component keyed on part_number (spec.md §4.1: "idempotent
// upsert keyed on part_number; fails with Conflict if a different
// ComponentId already owns the part number"). A component with a zero ID
// takes the ID of the row that already holds its part number, if any.
func (s *Store) Put(c *model.Component) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	existing, err := s.GetByPart(c.PartNumber)
	if err != nil {
		return err
	}
	if c.ID.IsZero() {
		if existing != nil {
			c.ID = existing.ID
		} else {
			c.ID = model.NewComponentId()
		}
	}
	if existing != nil && existing.ID != c.ID {
		return &StoreError{Kind: Conflict, Cause: fmt.Errorf("part_number %q already owned by %s", c.PartNumber, existing.ID)}
	}

	specs, err := json.Marshal(c.Specifications)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal specifications: %w", err)}
	}
	price, err := marshalOptional(c.Price)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal price: %w", err)}
	}
	avail, err := marshalOptional(c.Availability)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal availability: %w", err)}
	}

	createdAt := c.CreatedAt
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	_, err = s.db.Exec(`INSERT INTO components
		(id, part_number, manufacturer, category, description, datasheet_url, specifications, footprint, price_info, availability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(part_number) DO UPDATE SET
			manufacturer = excluded.manufacturer,
			category = excluded.category,
			description = excluded.description,
			datasheet_url = excluded.datasheet_url,
			specifications = excluded.specifications,
			footprint = excluded.footprint,
			price_info = excluded.price_info,
			availability = excluded.availability,
			updated_at = excluded.updated_at`,
		c.ID.String(), c.PartNumber, c.Manufacturer, string(c.Category), c.Description, nullableString(c.DatasheetURL),
		string(specs), nullableString(c.Footprint), price, avail, createdAt.Format(timeFmt), c.UpdatedAt.Format(timeFmt))
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("upsert component: %w", err)}
	}
	c.CreatedAt = createdAt
	return nil
}

// GetByID returns the component with the given id, or nil if none exists.
func (s *Store) GetByID(id model.ComponentId) (*model.Component, error) {
	return s.getOne("SELECT "+componentColumns+" FROM components WHERE id = ?", id.String())
}

// GetByPart returns the component with the given part number, or nil.
func (s *Store) GetByPart(partNumber string) (*model.Component, error) {
	return s.getOne("SELECT "+componentColumns+" FROM components WHERE part_number = ?", partNumber)
}

func (s *Store) getOne(query string, arg any) (*model.Component, error) {
	row := s.db.QueryRow(query, arg)
	c, err := scanComponent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}
	return c, nil
}

// ByCategory returns up to limit components in category, ordered by
// part_number ascending.
func (s *Store) ByCategory(category model.Category, limit int) ([]*model.Component, error) {
	rows, err := s.db.Query("SELECT "+componentColumns+" FROM components WHERE category = ? ORDER BY part_number ASC LIMIT ?",
		string(category), limit)
	if err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}
	defer rows.Close()
	return scanComponents(rows)
}

// BulkImport inserts or updates every component in components inside a
// single transaction, all-or-nothing (spec.md §4.1).
func (s *Store) BulkImport(components []*model.Component) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("begin bulk import: %w", err)}
	}

	for _, c := range components {
		if err := putTx(tx, c); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("commit bulk import: %w", err)}
	}
	return nil
}

// putTx runs the same upsert Put performs, but against an open
// transaction, for use by BulkImport's all-or-nothing semantics.
func putTx(tx *sql.Tx, c *model.Component) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	var existingID string
	var existingCreatedAt string
	err := tx.QueryRow("SELECT id, created_at FROM components WHERE part_number = ?", c.PartNumber).Scan(&existingID, &existingCreatedAt)
	switch {
	case err == sql.ErrNoRows:
		// no existing row, proceed with insert
		if c.ID.IsZero() {
			c.ID = model.NewComponentId()
		}
	case err != nil:
		return &StoreError{Kind: Io, Cause: err}
	case c.ID.IsZero():
		id, perr := model.ParseComponentId(existingID)
		if perr != nil {
			return &StoreError{Kind: Io, Cause: perr}
		}
		c.ID = id
	case existingID != c.ID.String():
		return &StoreError{Kind: Conflict, Cause: fmt.Errorf("part_number %q already owned by %s", c.PartNumber, existingID)}
	}

	specs, err := json.Marshal(c.Specifications)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal specifications: %w", err)}
	}
	price, err := marshalOptional(c.Price)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal price: %w", err)}
	}
	avail, err := marshalOptional(c.Availability)
	if err != nil {
		return &StoreError{Kind: Io, Cause: fmt.Errorf("marshal availability: %w", err)}
	}

	createdAt := c.CreatedAt.Format(timeFmt)
	if existingCreatedAt != "" {
		createdAt = existingCreatedAt
	}

	_, err = tx.Exec(`INSERT INTO components
		(id, part_number, manufacturer, category, description, datasheet_url, specifications, footprint, price_info, availability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(part_number) DO UPDATE SET
			manufacturer = excluded.manufacturer,
			category = excluded.category,
			description = excluded.description,
			datasheet_url = excluded.datasheet_url,
			specifications = excluded.specifications,
			footprint = excluded.footprint,
			price_info = excluded.price_info,
			availability = excluded.availability,
			updated_at = excluded.updated_at`,
		c.ID.String(), c.PartNumber, c.Manufacturer, string(c.Category), c.Description, nullableString(c.DatasheetURL),
		string(specs), nullableString(c.Footprint), price, avail, createdAt, c.UpdatedAt.Format(timeFmt))
	return err
}

const componentColumns = "id, part_number, manufacturer, category, description, datasheet_url, specifications, footprint, price_info, availability, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComponent(row rowScanner) (*model.Component, error) {
	var c model.Component
	var id, category, specsJSON string
	var datasheetURL, footprint, priceJSON, availJSON sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&id, &c.PartNumber, &c.Manufacturer, &category, &c.Description, &datasheetURL,
		&specsJSON, &footprint, &priceJSON, &availJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsedID, err := model.ParseComponentId(id)
	if err != nil {
		return nil, fmt.Errorf("parse component id %q: %w", id, err)
	}
	c.ID = parsedID
	c.Category = model.Category(category)
	c.DatasheetURL = datasheetURL.String
	c.Footprint = footprint.String

	if err := json.Unmarshal([]byte(specsJSON), &c.Specifications); err != nil {
		return nil, fmt.Errorf("unmarshal specifications: %w", err)
	}
	if priceJSON.Valid {
		var p model.PriceInfo
		if err := json.Unmarshal([]byte(priceJSON.String), &p); err != nil {
			return nil, fmt.Errorf("unmarshal price_info: %w", err)
		}
		c.Price = &p
	}
	if availJSON.Valid {
		var a model.Availability
		if err := json.Unmarshal([]byte(availJSON.String), &a); err != nil {
			return nil, fmt.Errorf("unmarshal availability: %w", err)
		}
		c.Availability = &a
	}

	c.CreatedAt, _ = time.Parse(timeFmt, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFmt, updatedAt)
	return &c, nil
}

func scanComponents(rows *sql.Rows) ([]*model.Component, error) {
	var out []*model.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, &StoreError{Kind: Io, Cause: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Kind: Io, Cause: err}
	}
	return out, nil
}

func marshalOptional(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	switch t := v.(type) {
	case *model.PriceInfo:
		if t == nil {
			return sql.NullString{}, nil
		}
	case *model.Availability:
		if t == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
