package product

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agencyops/billaudit/pkg/errors"
)

// rulesFile is the YAML shape for classification rule overrides.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses an ordered classification rule table from YAML. The file
// replaces the built-in table entirely, so overrides must list every rule
// they want to keep.
//
//	rules:
//	  - keyword: dudaone monthly
//	    type: License
//	  - keyword: ecom
//	    type: Shop
func LoadRules(data []byte) ([]Rule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", "classification rules", err)
	}
	if len(file.Rules) == 0 {
		return nil, &errors.ParseError{
			Format:  "yaml",
			File:    "classification rules",
			Message: "no rules defined",
		}
	}
	for _, rule := range file.Rules {
		if rule.Keyword == "" {
			return nil, &errors.ParseError{
				Format:  "yaml",
				File:    "classification rules",
				Message: "rule with empty keyword",
			}
		}
	}
	return file.Rules, nil
}

// LoadRulesFile reads and parses a classification rule table from disk.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return LoadRules(data)
}
