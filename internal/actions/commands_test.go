package actions

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outputBlock = regexp.MustCompile(`^platformatic_app_url<<(ghadelimiter_[0-9a-f-]{36})\n(.*)\n(ghadelimiter_[0-9a-f-]{36})\n$`)

// runnerFile creates the empty command file the runner provides.
func runnerFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestOutputs_SetOutput_File(t *testing.T) {
	path := runnerFile(t)
	var stdout bytes.Buffer

	o := NewOutputs(path, &stdout)
	require.NoError(t, o.SetOutput("platformatic_app_url", "http://localhost:3044"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	m := outputBlock.FindStringSubmatch(string(data))
	require.NotNil(t, m, "unexpected output file content: %q", data)
	assert.Equal(t, "http://localhost:3044", m[2])
	assert.Equal(t, m[1], m[3])
	assert.Empty(t, stdout.String())
}

func TestOutputs_SetOutput_Appends(t *testing.T) {
	path := runnerFile(t)
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o600))

	require.NoError(t, NewOutputs(path, nil).SetOutput("a", "b"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^existing=1\na<<ghadelimiter_`, string(data))
}

func TestOutputs_SetOutput_Legacy(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, NewOutputs("", &stdout).SetOutput("platformatic_app_url", "http://x\ny"))
	assert.Equal(t, "::set-output name=platformatic_app_url::http://x%0Ay\n", stdout.String())
}

func TestOutputs_SetOutput_MissingFile(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "output")

	err := NewOutputs(path, &stdout).SetOutput("a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing output a")
	assert.Empty(t, stdout.String())
}

func TestOutputs_SetOutput_MultilineValue(t *testing.T) {
	path := runnerFile(t)

	require.NoError(t, NewOutputs(path, nil).SetOutput("notes", "line1\nline2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^notes<<(ghadelimiter_[0-9a-f-]{36})\nline1\nline2\n(ghadelimiter_[0-9a-f-]{36})\n$`, string(data))
}

func TestFail(t *testing.T) {
	tests := []struct {
		name  string
		title string
		err   error
		want  string
	}{
		{
			name: "plain",
			err:  errors.New("could not create a bundle: 500"),
			want: "::error::could not create a bundle: 500\n",
		},
		{
			name:  "titled",
			title: "Invalid configuration",
			err:   errors.New("platformatic_workspace_id action param is required"),
			want:  "::error title=Invalid configuration::platformatic_workspace_id action param is required\n",
		},
		{
			name: "multiline message is escaped",
			err:  errors.New("could not make a prewarm call: 502\ncold 100%"),
			want: "::error::could not make a prewarm call: 502%0Acold 100%25\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			code := Fail(&stdout, tt.title, tt.err)
			assert.Equal(t, 1, code)
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}
