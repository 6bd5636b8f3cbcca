package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"replenishment-service/internal/model"
)

// supplierFile is the on-disk layout of the supplier table:
//
//	version: "2024-06"
//	suppliers:
//	  - name: ACME DISTRIBUIDORA
//	    id: "15596848320"
//	    lead_time_days: 15
type supplierFile struct {
	Version   string                  `yaml:"version" validate:"required"`
	Suppliers []model.SupplierProfile `yaml:"suppliers" validate:"required,min=1,dive"`
}

// LoadSupplierTable reads and validates the supplier table file at path
func LoadSupplierTable(path string) (model.SupplierTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.SupplierTable{}, &ConfigError{Field: "supplier table", Reason: path, Err: err}
	}
	return ParseSupplierTable(raw)
}

// ParseSupplierTable parses a supplier table document. Names are compared
// after normalization, so "Acme " and "ACME" are duplicates.
func ParseSupplierTable(raw []byte) (model.SupplierTable, error) {
	var f supplierFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return model.SupplierTable{}, &ConfigError{Field: "supplier table", Reason: "invalid yaml", Err: err}
	}
	if len(f.Suppliers) == 0 {
		return model.SupplierTable{}, &ConfigError{Field: "supplier table", Reason: "no suppliers defined"}
	}
	if err := validate.Struct(f); err != nil {
		return model.SupplierTable{}, &ConfigError{Field: "supplier table", Err: err}
	}

	seen := make(map[string]struct{}, len(f.Suppliers))
	for _, s := range f.Suppliers {
		key := model.NormalizeSupplierName(s.Name)
		if _, dup := seen[key]; dup {
			return model.SupplierTable{}, &ConfigError{
				Field:  "supplier table",
				Reason: fmt.Sprintf("duplicate supplier %q", key),
			}
		}
		seen[key] = struct{}{}
	}

	return model.NewSupplierTable(f.Version, f.Suppliers), nil
}
