// ABOUTME: YAML seed files for the reference deal server
// ABOUTME: Loads clients, products and deals into an empty or existing database
package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/dealflow/models"
	"gopkg.in/yaml.v3"
)

// Seed is the on-disk seed format.
//
//	clients: [Acme, Globex]
//	products: [Mortgage]
//	deals:
//	  - client: Acme
//	    product: Mortgage
//	    stage: Contacted
type Seed struct {
	Clients  []string   `yaml:"clients"`
	Products []string   `yaml:"products"`
	Deals    []SeedDeal `yaml:"deals"`
}

type SeedDeal struct {
	Client      string `yaml:"client"`
	Product     string `yaml:"product"`
	Stage       string `yaml:"stage,omitempty"`
	Description string `yaml:"description,omitempty"`
	CreatedAt   string `yaml:"createdAt,omitempty"`
}

func (s SeedDeal) Draft() models.DealDraft {
	return models.DealDraft{
		ClientName:  s.Client,
		ProductName: s.Product,
		Stage:       models.Stage(s.Stage),
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}

func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document and validates every deal in it.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	for i, d := range seed.Deals {
		draft := d.Draft()
		if draft.Stage == "" {
			draft.Stage = models.DefaultStage
		}
		if err := draft.Validate(); err != nil {
			return nil, fmt.Errorf("seed deal %d: %w", i+1, err)
		}
	}
	return &seed, nil
}

type SeedResult struct {
	Clients  int
	Products int
	Deals    int
}

// ApplySeed loads the seed in one transaction. Clients and products named
// by deals are added as entities too.
func ApplySeed(db *sql.DB, seed *Seed) (SeedResult, error) {
	var res SeedResult

	tx, err := db.Begin()
	if err != nil {
		return res, fmt.Errorf("failed to begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clients := append([]string{}, seed.Clients...)
	products := append([]string{}, seed.Products...)
	for _, d := range seed.Deals {
		clients = append(clients, d.Client)
		products = append(products, d.Product)
	}

	seen := map[string]bool{}
	for _, name := range clients {
		if seen["c:"+name] {
			continue
		}
		seen["c:"+name] = true
		if _, err := tx.Exec("INSERT OR IGNORE INTO entities (name, type) VALUES (?, 'client')", name); err != nil {
			return res, fmt.Errorf("failed to seed client %q: %w", name, err)
		}
		res.Clients++
	}
	for _, name := range products {
		if seen["p:"+name] {
			continue
		}
		seen["p:"+name] = true
		if _, err := tx.Exec("INSERT OR IGNORE INTO entities (name, type) VALUES (?, 'product')", name); err != nil {
			return res, fmt.Errorf("failed to seed product %q: %w", name, err)
		}
		res.Products++
	}

	for _, d := range seed.Deals {
		draft := d.Draft()
		if err := draft.Prepare(time.Now()); err != nil {
			return res, err
		}
		if _, err := tx.Exec(`
			INSERT INTO deals (client_name, product_name, stage, description, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, draft.ClientName, draft.ProductName, string(draft.Stage), draft.Description, draft.CreatedAt); err != nil {
			return res, fmt.Errorf("failed to seed deal for %q: %w", draft.ClientName, err)
		}
		res.Deals++
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit seed: %w", err)
	}
	return res, nil
}
