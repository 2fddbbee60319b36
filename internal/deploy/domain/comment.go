package domain

import (
	"regexp"
	"strings"
)

// StatusCommentMarker is embedded as a hidden HTML comment in every status
// comment so it can be found again without relying on the visible text.
const StatusCommentMarker = "<!-- plt-deploy-action:status -->"

// DefaultCommentAuthor is the login GitHub uses for comments posted with the
// workflow's GITHUB_TOKEN.
const DefaultCommentAuthor = "github-actions[bot]"

// legacyStatusComment matches comments posted before the marker existed.
var legacyStatusComment = regexp.MustCompile(
	`\*\*Your application was successfully deployed!\*\* :rocket:\nApplication url: (.*)`,
)

// StatusCommentBody renders the deployment status comment.
func StatusCommentBody(appURL, commitSHA, commitURL string) string {
	return strings.Join([]string{
		StatusCommentMarker,
		"**Your application was successfully deployed!** :rocket:",
		"Application url: " + appURL,
		"Built from the commit: [" + ShortSHA(commitSHA) + "](" + commitURL + ")",
	}, "\n")
}

// IsStatusCommentBody reports whether body looks like a status comment.
func IsStatusCommentBody(body string) bool {
	return strings.Contains(body, StatusCommentMarker) || legacyStatusComment.MatchString(body)
}

// ShortSHA returns the 7 character abbreviation of a commit hash.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
