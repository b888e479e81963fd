// ABOUTME: Data models for the deal pipeline
// ABOUTME: Defines Deal, DealDraft, DealPatch and the read-only reference entities
package models

import (
	"fmt"
	"strings"
	"time"
)

type Deal struct {
	ID          DealID `json:"id"`
	ClientName  string `json:"clientName"`
	ProductName string `json:"productName"`
	Stage       Stage  `json:"stage"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"` // ISO-8601
}

// DealDraft is a deal that has not been assigned an ID by the server yet.
type DealDraft struct {
	ClientName  string `json:"clientName"`
	ProductName string `json:"productName"`
	Stage       Stage  `json:"stage"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// Prepare trims the draft, fills in defaults and validates it.
// Stage defaults to Lead Generated and CreatedAt to now.
func (d *DealDraft) Prepare(now time.Time) error {
	d.ClientName = strings.TrimSpace(d.ClientName)
	d.ProductName = strings.TrimSpace(d.ProductName)
	d.Description = strings.TrimSpace(d.Description)

	if d.Stage == "" {
		d.Stage = DefaultStage
	}
	if d.CreatedAt == "" {
		d.CreatedAt = now.UTC().Format(time.RFC3339)
	}

	return d.Validate()
}

// Validate reports missing required fields and unknown stages.
func (d DealDraft) Validate() error {
	if strings.TrimSpace(d.ClientName) == "" || strings.TrimSpace(d.ProductName) == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if !d.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, d.Stage)
	}
	return nil
}

// WithID builds the full record for a draft once the server assigned an ID.
func (d DealDraft) WithID(id DealID) Deal {
	return Deal{
		ID:          id,
		ClientName:  d.ClientName,
		ProductName: d.ProductName,
		Stage:       d.Stage,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

// DealPatch is a partial update. Nil fields are left untouched.
type DealPatch struct {
	ClientName  *string `json:"clientName,omitempty"`
	ProductName *string `json:"productName,omitempty"`
	Stage       *Stage  `json:"stage,omitempty"`
	Description *string `json:"description,omitempty"`
}

// StagePatch is the patch sent when a deal moves between pipeline columns.
func StagePatch(stage Stage) DealPatch {
	return DealPatch{Stage: &stage}
}

func (p DealPatch) IsEmpty() bool {
	return p.ClientName == nil && p.ProductName == nil && p.Stage == nil && p.Description == nil
}

func (p DealPatch) Validate() error {
	if p.Stage != nil && !p.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, *p.Stage)
	}
	if p.ClientName != nil && strings.TrimSpace(*p.ClientName) == "" {
		return fmt.Errorf("%w: client name cannot be empty", ErrValidation)
	}
	if p.ProductName != nil && strings.TrimSpace(*p.ProductName) == "" {
		return fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	return nil
}

// Apply returns a copy of the deal with the patch applied.
func (d Deal) Apply(p DealPatch) Deal {
	if p.ClientName != nil {
		d.ClientName = *p.ClientName
	}
	if p.ProductName != nil {
		d.ProductName = *p.ProductName
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	return d
}

// EntityType tags a reference entity returned by the products endpoint.
type EntityType string

const (
	EntityClient  EntityType = "client"
	EntityProduct EntityType = "product"
)

type Entity struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Type EntityType `json:"type"`
}

type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PartitionEntities splits tagged entities into clients and products.
// Entities with any other tag are ignored.
func PartitionEntities(entities []Entity) ([]Client, []Product) {
	clients := []Client{}
	products := []Product{}
	for _, e := range entities {
		switch e.Type {
		case EntityClient:
			clients = append(clients, Client{ID: e.ID, Name: e.Name})
		case EntityProduct:
			products = append(products, Product{ID: e.ID, Name: e.Name})
		}
	}
	return clients, products
}
