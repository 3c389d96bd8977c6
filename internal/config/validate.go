package config

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/nexuscore/nexus/internal/apperr"
)

var validate = validator.New()

// toSchema round-trips the untyped tree through JSON into the typed Schema
// so struct-tag validation (and the cross-rules below) can run against it.
func toSchema(tree map[string]any) (Schema, error) {
	data, err := treeJSON(tree)
	if err != nil {
		return Schema{}, apperr.Wrap(apperr.KindConfiguration, err, "marshal config tree")
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, apperr.Wrap(apperr.KindConfiguration, err, "unmarshal config tree")
	}
	return s, nil
}

// validateTree re-validates the whole tree: struct tags plus the documented
// cross-rules. Called after every successful mutation.
func validateTree(tree map[string]any) error {
	s, err := toSchema(tree)
	if err != nil {
		return err
	}

	if err := validate.Struct(s); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "configuration failed schema validation")
	}

	if s.API.Enabled && s.Security.JWT.Secret == "" {
		return apperr.New(apperr.KindValidation, "security.jwt.secret must be non-empty when api.enabled is true")
	}

	return nil
}
