package cmd

import (
	"github.com/dukex/approvals/pkg/rules"
)

// NewCatalog loads the rule catalog from path, or the built-in rules when path is empty.
func NewCatalog(path string) (*rules.Catalog, error) {
	if path == "" {
		return rules.DefaultCatalog(), nil
	}

	return rules.LoadFile(path)
}
