package domain

// PRContext holds the details of a pull request event.
type PRContext struct {
	Owner    string
	Repo     string
	PRNumber int
	Title    string
	HeadRef  string
	HeadSHA  string
}
