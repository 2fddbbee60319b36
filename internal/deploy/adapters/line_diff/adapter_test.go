package linediff

import (
	"strings"
	"testing"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

const (
	appURL    = "https://movies-api.example.com"
	commitOld = "1111111aaaa"
	commitNew = "2222222bbbb"
)

func commitURL(sha string) string {
	return "https://github.com/octo/movies-api/commit/" + sha
}

func TestAdapter_ComputeDiff(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
		want     string // Empty if no diff expected
	}{
		{
			name:     "redeploy of the same commit",
			previous: domain.StatusCommentBody(appURL, commitOld, commitURL(commitOld)),
			next:     domain.StatusCommentBody(appURL, commitOld, commitURL(commitOld)),
			want:     "",
		},
		{
			name:     "new commit on the same url",
			previous: domain.StatusCommentBody(appURL, commitOld, commitURL(commitOld)),
			next:     domain.StatusCommentBody(appURL, commitNew, commitURL(commitNew)),
			want: "--- comment (previous)\n+++ comment (next)\n@@ -1,4 +1,4 @@\n" +
				" " + domain.StatusCommentMarker + "\n" +
				" **Your application was successfully deployed!** :rocket:\n" +
				" Application url: https://movies-api.example.com\n" +
				"-Built from the commit: [1111111](https://github.com/octo/movies-api/commit/1111111aaaa)\n" +
				"+Built from the commit: [2222222](https://github.com/octo/movies-api/commit/2222222bbbb)",
		},
		{
			name:     "application url changed",
			previous: domain.StatusCommentBody("https://old.example.com", commitOld, commitURL(commitOld)),
			next:     domain.StatusCommentBody(appURL, commitOld, commitURL(commitOld)),
			want: "--- comment (previous)\n+++ comment (next)\n@@ -1,4 +1,4 @@\n" +
				" " + domain.StatusCommentMarker + "\n" +
				" **Your application was successfully deployed!** :rocket:\n" +
				"-Application url: https://old.example.com\n" +
				"+Application url: https://movies-api.example.com\n" +
				" Built from the commit: [1111111](https://github.com/octo/movies-api/commit/1111111aaaa)",
		},
		{
			name:     "legacy comment gains the marker and commit line",
			previous: "**Your application was successfully deployed!** :rocket:\nApplication url: " + appURL,
			next:     domain.StatusCommentBody(appURL, commitNew, commitURL(commitNew)),
			want: "--- comment (previous)\n+++ comment (next)\n@@ -1,2 +1,4 @@\n" +
				"+" + domain.StatusCommentMarker + "\n" +
				" **Your application was successfully deployed!** :rocket:\n" +
				" Application url: https://movies-api.example.com\n" +
				"+Built from the commit: [2222222](https://github.com/octo/movies-api/commit/2222222bbbb)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := New()
			got := adapter.ComputeDiff("comment (previous)", "comment (next)", []byte(tt.previous), []byte(tt.next))

			if tt.want == "" && got != "" {
				t.Errorf("ComputeDiff() expected empty diff, got:\n%s", got)
				return
			}

			if tt.want != "" && got == "" {
				t.Errorf("ComputeDiff() expected diff, got empty")
				return
			}

			gotNorm := strings.ReplaceAll(got, "\r\n", "\n")
			if gotNorm != tt.want {
				t.Errorf("ComputeDiff() diff mismatch:\n--- Got ---\n%s\n--- Want ---\n%s", gotNorm, tt.want)
			}
		})
	}
}
