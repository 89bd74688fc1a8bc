package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dukex/approvals/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var catalogSchema []byte

var ErrSchemaViolation = errors.New("rule file does not match schema")

// fileRule is a rule as written in a rule file; Operations lets one entry
// cover several operations with identical requirements.
type fileRule struct {
	Name             string                             `yaml:"name"`
	ItemType         models.ItemType                    `yaml:"item_type"`
	Operation        models.Operation                   `yaml:"operation"`
	Operations       []models.Operation                 `yaml:"operations"`
	Condition        string                             `yaml:"condition"`
	RoleRequirements map[models.Role]models.Requirement `yaml:"role_requirements"`
	Priority         int                                `yaml:"priority"`
}

type file struct {
	Rules []fileRule `yaml:"rules"`
}

// LoadFile reads a YAML (or JSON) rule file and builds a catalog from it.
func LoadFile(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}

	catalog, err := Load(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load rule file %s: %w", path, err)
	}

	return catalog, nil
}

// Load decodes a rule document, checks it against the rule file schema and
// builds a catalog.
func Load(r io.Reader) (*Catalog, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var document map[string]any

	err = yaml.Unmarshal(content, &document)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	err = validateDocument(document)
	if err != nil {
		return nil, err
	}

	var f file

	err = yaml.Unmarshal(content, &f)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	rules := make([]models.ApprovalRule, 0, len(f.Rules))

	for _, fr := range f.Rules {
		operations := fr.Operations
		if len(operations) == 0 {
			operations = []models.Operation{fr.Operation}
		}

		for _, op := range operations {
			rules = append(rules, models.ApprovalRule{
				Name:             fr.Name,
				ItemType:         fr.ItemType,
				Operation:        op,
				Condition:        fr.Condition,
				RoleRequirements: fr.RoleRequirements,
				Priority:         fr.Priority,
			})
		}
	}

	return NewCatalog(rules)
}

func validateDocument(document map[string]any) error {
	schemaLoader := gojsonschema.NewBytesLoader(catalogSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate rule file: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(messages, "; "))
	}

	return nil
}
