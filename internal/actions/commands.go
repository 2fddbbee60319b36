// Package actions speaks the GitHub Actions runner protocol: workflow
// commands on stdout and the $GITHUB_OUTPUT file.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sethvargo/go-githubactions"
)

const outputEnv = "GITHUB_OUTPUT"

// newAction creates a toolkit client writing commands to w. A non-empty
// outputPath replaces $GITHUB_OUTPUT.
func newAction(w io.Writer, outputPath string) *githubactions.Action {
	return githubactions.New(
		githubactions.WithWriter(w),
		githubactions.WithGetenv(func(key string) string {
			if key == outputEnv {
				return outputPath
			}
			return os.Getenv(key)
		}),
	)
}

// Outputs publishes step outputs.
type Outputs struct {
	action *githubactions.Action
	legacy bool
}

// NewOutputs creates an output writer for the $GITHUB_OUTPUT file at path.
// When path is empty outputs are emitted as ::set-output commands on w.
func NewOutputs(path string, w io.Writer) *Outputs {
	return &Outputs{
		action: newAction(w, path),
		legacy: path == "",
	}
}

// SetOutput records a step output.
func (o *Outputs) SetOutput(name, value string) error {
	if o.legacy {
		o.action.IssueCommand(&githubactions.Command{
			Name:       "set-output",
			Message:    value,
			Properties: githubactions.CommandProperties{"name": name},
		})
		return nil
	}

	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("output %s contains the delimiter %s", name, delimiter)
	}

	err := o.action.IssueFileCommand(&githubactions.Command{
		Name:    "output",
		Message: fmt.Sprintf("%s<<%s\n%s\n%s", name, delimiter, value, delimiter),
	})
	if err != nil {
		return fmt.Errorf("writing output %s: %w", name, err)
	}
	return nil
}

// Fail reports err as an error annotation, titled when title is set. It
// returns the process exit code.
func Fail(w io.Writer, title string, err error) int {
	action := newAction(w, "")
	if title != "" {
		action = action.WithFieldsMap(map[string]string{"title": title})
	}
	action.Errorf("%s", err)
	return 1
}
