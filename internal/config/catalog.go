package config

import (
	_ "embed"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/business"
)

//go:embed default_catalog.toml
var defaultCatalog string

// ErrCatalogMismatch is returned when the name catalog has fewer entries
// than the business catalog.
var ErrCatalogMismatch = business.ErrCatalogMismatch

// Catalog is the static description of every business slot.
type Catalog struct {
	Businesses []business.Data     `toml:"business" validate:"required,min=1,dive"`
	Names      []business.NameData `toml:"names" validate:"dive"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	return ParseCatalog(string(raw))
}

// ParseCatalog decodes and validates a TOML catalog.
func ParseCatalog(doc string) (*Catalog, error) {
	var c Catalog
	md, err := toml.Decode(doc, &c)
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown catalog keys: %v", undecoded)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints, parallel catalog lengths and upgrade
// id uniqueness within each business.
func (c *Catalog) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid catalog")
	}
	if len(c.Names) < len(c.Businesses) {
		return errors.Wrapf(ErrCatalogMismatch, "%d businesses, %d names", len(c.Businesses), len(c.Names))
	}

	for i, b := range c.Businesses {
		seen := make(map[int]bool, len(b.Upgrades))
		for _, u := range b.Upgrades {
			if seen[u.ID] {
				return errors.Errorf("business %d: duplicate upgrade id %d", i, u.ID)
			}
			seen[u.ID] = true
		}
	}
	return nil
}
