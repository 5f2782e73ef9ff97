package sources

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/partywatch/partycrawl/internal/models"
)

var (
	// ErrNoTargets indicates no targets were found in the configuration.
	ErrNoTargets = errors.New("no targets found in configuration")
	// ErrMissingRequiredField indicates a required field is missing.
	ErrMissingRequiredField = errors.New("missing required field")
)

// targetsFile represents the structure of a targets YAML file.
type targetsFile struct {
	Sources []map[string]any `yaml:"sources"`
}

// LoadTargets loads and validates the crawl targets from a YAML file.
func LoadTargets(configPath string) ([]models.Target, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, ErrNoTargets
	}

	targets := make([]models.Target, 0, len(file.Sources))
	seen := make(map[string]struct{}, len(file.Sources))

	for _, raw := range file.Sources {
		target, err := convertTarget(raw)
		if err != nil {
			return nil, err
		}
		if err := validateTarget(&target); err != nil {
			return nil, fmt.Errorf("target %q: %w", target.ID, err)
		}
		if _, dup := seen[target.ID]; dup {
			return nil, fmt.Errorf("target %q: duplicate id", target.ID)
		}
		seen[target.ID] = struct{}{}
		targets = append(targets, target)
	}

	return targets, nil
}

// convertTarget converts a raw source map to a Target.
func convertTarget(raw map[string]any) (models.Target, error) {
	var target models.Target
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.Target{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return models.Target{}, fmt.Errorf("failed to decode target: %w", err)
	}
	return target, nil
}

// validateTarget validates a single crawl target.
func validateTarget(target *models.Target) error {
	if target.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingRequiredField)
	}
	if target.Party == "" {
		return fmt.Errorf("%w: party", ErrMissingRequiredField)
	}
	if target.Category == "" {
		return fmt.Errorf("%w: category", ErrMissingRequiredField)
	}
	if _, ok := builders[target.Site]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSite, target.Site)
	}

	if target.ListURL == "" {
		return fmt.Errorf("%w: list_url", ErrMissingRequiredField)
	}
	parsed, err := url.Parse(target.ListURL)
	if err != nil {
		return fmt.Errorf("invalid list_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid list_url: scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid list_url: missing host")
	}

	return nil
}
