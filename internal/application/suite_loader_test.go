package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/outcmp/internal/domain"
)

const validSuiteYAML = `
version: "1.0.0"
name: week-1
description: Intro exercises
defaults:
  compare_config:
    float_eps: 0.001
strategies:
  tokens:
    max_listed: 4
cases:
  - id: hello
    expected: "Hello, world!"
  - id: sum.list
    expected: "[1, 2, 3]"
    compare_mode: canonical_py_literal
  - id: huge-output
    expected_sha256: e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
`

func newTestLoader(t *testing.T) *SuiteLoader {
	t.Helper()
	loader, err := NewSuiteLoader()
	require.NoError(t, err)
	return loader
}

// TestSuiteLoader_LoadFromReader covers valid suites and the struct and
// semantic validation failures the loader must report.
func TestSuiteLoader_LoadFromReader(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "valid suite", yaml: validSuiteYAML},
		{
			name: "unknown field",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
    expected: x
    expect_mode: STRICT
`,
			wantErr: "field expect_mode not found",
		},
		{
			name: "bad version",
			yaml: `
version: "one"
name: s
cases:
  - id: a
    expected: x
`,
			wantErr: "semver",
		},
		{
			name: "no cases",
			yaml: `
version: "1.0.0"
name: s
cases: []
`,
			wantErr: "Cases",
		},
		{
			name: "missing expected",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
`,
			wantErr: "required_without",
		},
		{
			name: "both expected forms",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
    expected: x
    expected_sha256: e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
`,
			wantErr: "excluded_with",
		},
		{
			name: "short digest",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
    expected_sha256: abc123
`,
			wantErr: "ExpectedSHA256",
		},
		{
			name: "case id with path separator",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: ../etc/passwd
    expected: x
`,
			wantErr: "caseid",
		},
		{
			name: "unknown compare mode",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
    expected: x
    compare_mode: FUZZY
`,
			wantErr: "compare_mode",
		},
		{
			name: "unknown strategy",
			yaml: `
version: "1.0.0"
name: s
strategies:
  LEVENSHTEIN: {}
cases:
  - id: a
    expected: x
`,
			wantErr: "strategy_mode",
		},
		{
			name: "duplicate case ids",
			yaml: `
version: "1.0.0"
name: s
cases:
  - id: a
    expected: x
  - id: b
    expected: y
  - id: a
    expected: z
`,
			wantErr: `duplicate case ID "a": cases 0 and 2`,
		},
		{
			name: "strategy configured twice",
			yaml: `
version: "1.0.0"
name: s
strategies:
  TOKEN_SET: {}
  tokens: {}
cases:
  - id: a
    expected: x
`,
			wantErr: "configured more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t)

			suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(tt.yaml))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "week-1", suite.Name)
			assert.Len(t, suite.Cases, 3)
		})
	}
}

func TestSuiteLoader_ReportsEverySemanticProblem(t *testing.T) {
	loader := newTestLoader(t)

	_, err := loader.LoadFromReader(context.Background(), strings.NewReader(`
version: "1.0.0"
name: s
strategies:
  TOKEN_SET: {}
  tokens: {}
cases:
  - id: a
    expected: x
  - id: a
    expected: y
`))
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `suite "s"`, verr.Entity)
	assert.Equal(t, []string{
		`duplicate case ID "a": cases 0 and 1`,
		"a strategy is configured more than once under different names",
	}, verr.Errors)
}

func TestSuiteLoader_Caching(t *testing.T) {
	loader := newTestLoader(t)

	first, err := loader.LoadFromReader(context.Background(), strings.NewReader(validSuiteYAML))
	require.NoError(t, err)

	// Reformatted but identical content shares the cache entry.
	reformatted := strings.ReplaceAll(validSuiteYAML, "name: week-1", "name:    week-1")
	second, err := loader.LoadFromReader(context.Background(), strings.NewReader(reformatted))
	require.NoError(t, err)
	assert.Same(t, first, second)

	loader.ClearCache()
	third, err := loader.LoadFromReader(context.Background(), strings.NewReader(validSuiteYAML))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func TestSuiteLoader_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSuiteYAML), 0o600))

	loader := newTestLoader(t)

	suite, err := loader.LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "week-1", suite.Name)

	_, err = loader.LoadFromFile(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSuiteLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader(t).LoadFromReader(ctx, strings.NewReader(validSuiteYAML))
	assert.ErrorIs(t, err, context.Canceled)
}

// FuzzSuiteLoader_ParseYAML checks that arbitrary input never panics the
// loader and that anything it accepts is a usable suite.
func FuzzSuiteLoader_ParseYAML(f *testing.F) {
	f.Add(validSuiteYAML)
	f.Add(`version: "1.0.0
name: broken"`)
	f.Add(`version: 1
name: [1, 2]
cases: "not a list"`)
	f.Add(`version: "1.0.0"
name: s
cases:
  - id: a
    expected: null`)
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		loader, err := NewSuiteLoader()
		if err != nil {
			t.Fatal(err)
		}

		suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(input))
		if err != nil {
			return
		}
		if suite.Name == "" || len(suite.Cases) == 0 {
			t.Errorf("accepted suite without name or cases: %q", input)
		}
		for _, c := range suite.Cases {
			if c.Expected == nil && c.ExpectedSHA256 == "" {
				t.Errorf("accepted case %q without an expected output", c.ID)
			}
		}
	})
}
