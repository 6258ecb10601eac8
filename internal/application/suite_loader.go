package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/outcmp/internal/domain"
)

// SuiteLoader provides YAML parsing, validation, and caching for grading
// suites.
// Use SuiteLoader to load suites from files or readers while benefiting
// from SHA256-based caching and comprehensive validation.
type SuiteLoader struct {
	// validator performs struct field validation and the custom suite
	// validation rules.
	validator *validator.Validate
	// cache stores validated suites indexed by the SHA256 hash of their
	// normalized YAML.
	// WARNING: Cached suites MUST NOT be mutated.
	cache map[string]*SuiteConfig
	// cacheMu provides thread-safe access to the cache map.
	cacheMu sync.RWMutex
	// sf prevents duplicate validation when multiple goroutines request
	// the same suite simultaneously.
	sf singleflight.Group
}

// NewSuiteLoader creates a suite loader with the custom suite validators
// registered and an empty cache.
// NewSuiteLoader returns an error if validator registration fails.
func NewSuiteLoader() (*SuiteLoader, error) {
	v := validator.New()
	if err := RegisterSuiteValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &SuiteLoader{
		validator: v,
		cache:     make(map[string]*SuiteConfig),
	}, nil
}

// LoadFromFile loads and validates a suite from a YAML file.
// WARNING: The returned suite is a pointer to a cached instance and MUST
// NOT be mutated.
func (sl *SuiteLoader) LoadFromFile(ctx context.Context, path string) (*SuiteConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return sl.load(ctx, data)
}

// LoadFromReader loads and validates a suite from r. It applies the same
// caching and validation as LoadFromFile.
func (sl *SuiteLoader) LoadFromReader(ctx context.Context, r io.Reader) (*SuiteConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return sl.load(ctx, data)
}

// load parses data, then validates it at most once per distinct suite
// content.
func (sl *SuiteLoader) load(ctx context.Context, data []byte) (*SuiteConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := sl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config rather than raw bytes so formatting
	// differences share a cache entry.
	hash, err := sl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := sl.sf.Do(hash, func() (any, error) {
		if suite, ok := sl.getCachedSuite(hash); ok {
			return suite, nil
		}

		if err := sl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		sl.cacheSuite(hash, config)
		return config, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*SuiteConfig), nil
}

// parseYAML uses strict decoding so that misspelled keys are reported
// instead of silently ignored.
func (sl *SuiteLoader) parseYAML(data []byte) (*SuiteConfig, error) {
	var config SuiteConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct validation followed by the rules that
// struct tags cannot express.
func (sl *SuiteLoader) validateConfig(config *SuiteConfig) error {
	if err := sl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := sl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics reports every duplicate case ID and every strategy
// configured twice under different spellings in one *domain.ValidationError.
func (sl *SuiteLoader) validateSemantics(config *SuiteConfig) error {
	verr := domain.NewValidationError(fmt.Sprintf("suite %q", config.Name))

	seen := make(map[string]int, len(config.Cases))
	for i, c := range config.Cases {
		if first, dup := seen[c.ID]; dup {
			verr.AddError(fmt.Sprintf("duplicate case ID %q: cases %d and %d", c.ID, first, i))
			continue
		}
		seen[c.ID] = i
	}

	if len(config.StrategyOptions()) != len(config.Strategies) {
		verr.AddError("a strategy is configured more than once under different names")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// calculateConfigHash computes the SHA256 hash of the re-encoded config so
// that semantically identical suites share a hash regardless of
// whitespace or key ordering.
func (sl *SuiteLoader) calculateConfigHash(config *SuiteConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (sl *SuiteLoader) getCachedSuite(hash string) (*SuiteConfig, bool) {
	sl.cacheMu.RLock()
	defer sl.cacheMu.RUnlock()

	suite, ok := sl.cache[hash]
	return suite, ok
}

func (sl *SuiteLoader) cacheSuite(hash string, suite *SuiteConfig) {
	sl.cacheMu.Lock()
	defer sl.cacheMu.Unlock()

	sl.cache[hash] = suite
}

// ClearCache removes all cached suites, forcing subsequent loads to
// validate again.
func (sl *SuiteLoader) ClearCache() {
	sl.cacheMu.Lock()
	defer sl.cacheMu.Unlock()

	sl.cache = make(map[string]*SuiteConfig)
}
