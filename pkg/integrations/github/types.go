package github

// commitResponse is the subset of GET /repos/{owner}/{repo}/commits/{ref} we read.
type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}
