package region

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultRegions []byte

type fileCity struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	ShippingCost string `yaml:"shipping_cost"`
}

type fileProvince struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	BaseShippingCost string     `yaml:"base_shipping_cost"`
	Cities           []fileCity `yaml:"cities"`
}

type file struct {
	Provinces []fileProvince `yaml:"provinces"`
}

// Resolver holds the province/city reference table in memory.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	provinces []domain.Province
	byID      map[string]*domain.Province
}

func NewResolver(provinces []domain.Province) *Resolver {
	r := &Resolver{
		provinces: provinces,
		byID:      make(map[string]*domain.Province, len(provinces)),
	}
	for i := range r.provinces {
		r.byID[r.provinces[i].ID] = &r.provinces[i]
	}
	return r
}

// Load builds a Resolver from the YAML file at path, or from the embedded table when path is empty.
func Load(path string) (*Resolver, error) {
	data := defaultRegions
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read regions file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Resolver, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal regions: %w", err)
	}

	provinces := make([]domain.Province, 0, len(f.Provinces))
	for _, fp := range f.Provinces {
		base, err := decimal.NewFromString(fp.BaseShippingCost)
		if err != nil {
			return nil, fmt.Errorf("province %s: invalid base_shipping_cost %q: %w", fp.ID, fp.BaseShippingCost, err)
		}
		p := domain.Province{ID: fp.ID, Name: fp.Name, BaseShippingCost: base}
		for _, fc := range fp.Cities {
			c := domain.City{ID: fc.ID, Name: fc.Name}
			if fc.ShippingCost != "" {
				cost, err := decimal.NewFromString(fc.ShippingCost)
				if err != nil {
					return nil, fmt.Errorf("city %s: invalid shipping_cost %q: %w", fc.ID, fc.ShippingCost, err)
				}
				c.ShippingCost = &cost
			}
			p.Cities = append(p.Cities, c)
		}
		provinces = append(provinces, p)
	}

	return NewResolver(provinces), nil
}

// ResolveShippingCost returns the city's own cost when it has one, otherwise the province base cost.
func (r *Resolver) ResolveShippingCost(provinceID, cityID string) (decimal.Decimal, error) {
	p, ok := r.byID[provinceID]
	if !ok {
		return decimal.Zero, fmt.Errorf("province %q: %w", provinceID, domain.ErrRegionNotFound)
	}

	for _, c := range p.Cities {
		if c.ID != cityID {
			continue
		}
		if c.ShippingCost != nil {
			return *c.ShippingCost, nil
		}
		return p.BaseShippingCost, nil
	}

	return decimal.Zero, fmt.Errorf("city %q in province %q: %w", cityID, provinceID, domain.ErrRegionNotFound)
}

func (r *Resolver) Provinces() []domain.Province {
	out := make([]domain.Province, len(r.provinces))
	copy(out, r.provinces)
	return out
}
