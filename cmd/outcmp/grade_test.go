package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/outcmp/internal/domain"
)

const gradeSuiteYAML = `
version: "1.0.0"
name: week-1
defaults:
  compare_config:
    float_eps: 0.001
cases:
  - id: hello
    expected: "Hello, world!"
  - id: pi
    expected: "3.14160"
  - id: sum
    expected: "5"
  - id: absent
    expected: "x"
`

func gradeFixture(t *testing.T) (suite, outputs string) {
	t.Helper()
	dir := t.TempDir()
	suite = writeTemp(t, dir, "suite.yaml", gradeSuiteYAML)
	outputs = filepath.Join(dir, "outputs")
	require.NoError(t, os.Mkdir(outputs, 0o755))
	writeTemp(t, outputs, "hello.out", "Hello, world!\n")
	writeTemp(t, outputs, "pi.out", "3.14159")
	writeTemp(t, outputs, "sum.out", "4")
	return suite, outputs
}

func TestGradeCmd_JSON(t *testing.T) {
	suite, outputs := gradeFixture(t)

	out, err := execute(t, "", "grade", suite, "--outputs", outputs, "--format", "json", "--concurrency", "2")
	require.NoError(t, err)

	var report domain.SuiteReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, "week-1", report.Suite)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Errored)
	require.Len(t, report.Cases, 4)
	assert.Equal(t, "FLOAT_EPS", *report.Cases[1].Result.CompareModeApplied)
	assert.Len(t, report.Cases[0].Fingerprint, 64)
}

func TestGradeCmd_Markdown(t *testing.T) {
	suite, outputs := gradeFixture(t)

	out, err := execute(t, "", "grade", suite, "-o", outputs)
	require.NoError(t, err)
	assert.Contains(t, out, "# Suite Report: week-1")
	assert.Contains(t, out, "could not be graded")
}

func TestGradeCmd_ExitCode(t *testing.T) {
	suite, outputs := gradeFixture(t)

	_, err := execute(t, "", "grade", suite, "-o", outputs, "--exit-code")
	assert.ErrorIs(t, err, errNotPassed)
}

func TestGradeCmd_Errors(t *testing.T) {
	suite, outputs := gradeFixture(t)
	dir := t.TempDir()
	bad := writeTemp(t, dir, "bad.yaml", "version: \"1.0.0\"\nname: s\ncases: []\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no suite", args: []string{}, wantErr: "accepts 1 arg"},
		{name: "invalid suite", args: []string{bad, "-o", outputs}, wantErr: "Cases"},
		{name: "missing outputs dir", args: []string{suite, "-o", filepath.Join(dir, "nope")}, wantErr: "source error"},
		{name: "bad format", args: []string{suite, "-o", outputs, "-f", "csv"}, wantErr: "unsupported report format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", append([]string{"grade"}, tt.args...)...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
