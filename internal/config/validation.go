package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateDirs(); err != nil {
		return err
	}
	if err := cv.validateCollections(); err != nil {
		return err
	}
	if err := cv.validateServe(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateDirs() error {
	d := cv.config.Dirs
	if filepath.Clean(d.Input) == filepath.Clean(d.Output) {
		return errors.ValidationError("output directory must differ from input directory").
			WithContext("output", d.Output).
			Build()
	}
	for name, sub := range map[string]string{"includes": d.Includes, "data": d.Data} {
		if filepath.IsAbs(sub) || strings.HasPrefix(sub, "..") {
			return errors.ValidationError(fmt.Sprintf("dirs.%s must be relative to the input directory", name)).
				WithContext("value", sub).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateCollections() error {
	seen := make(map[string]struct{}, len(cv.config.Collections))
	for i, c := range cv.config.Collections {
		if c.Name == "" {
			return errors.ValidationError(fmt.Sprintf("collections[%d]: name is required", i)).Build()
		}
		if c.Name == "all" {
			return errors.ValidationError("collection name \"all\" is reserved").Build()
		}
		if c.Tag == "" {
			return errors.ValidationError(fmt.Sprintf("collection %q: tag is required", c.Name)).Build()
		}
		if !sortModes.IsValid(c.Sort) {
			_, err := sortModes.NormalizeWithError(string(c.Sort))
			return errors.WrapError(err, errors.CategoryValidation, fmt.Sprintf("collection %q: unknown sort", c.Name)).Build()
		}
		if _, dup := seen[c.Name]; dup {
			return errors.ValidationError(fmt.Sprintf("duplicate collection name %q", c.Name)).Build()
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func (cv *configurationValidator) validateServe() error {
	s := cv.config.Serve
	if s.Port < 0 || s.Port > 65535 {
		return errors.ValidationError(fmt.Sprintf("serve.port out of range: %d", s.Port)).Build()
	}
	if s.Debounce < 0 || s.RebuildInterval < 0 {
		return errors.ValidationError("serve durations must not be negative").Build()
	}
	return nil
}
