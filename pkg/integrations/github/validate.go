package github

import (
	"errors"
	"regexp"
	"strings"
)

// Regex patterns for GitHub resource validation.
var (
	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
	// Full commit SHA (SHA-1 or SHA-256 object format)
	validSHA = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64})$`)

	repoURLPattern = regexp.MustCompile(`github\.com[/:]([-\w]+)/([-\w.]+?)(?:\.git)?/?$`)
)

// ValidateOwner validates a GitHub username or organization name.
func ValidateOwner(owner string) error {
	if owner == "" {
		return errors.New("owner is required")
	}
	if !validOwner.MatchString(owner) {
		return errors.New("invalid owner format: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen")
	}
	return nil
}

// ValidateRepo validates a GitHub repository name.
func ValidateRepo(repo string) error {
	if repo == "" {
		return errors.New("repo is required")
	}
	if !validRepo.MatchString(repo) {
		return errors.New("invalid repo format: must be 1-100 alphanumeric characters, hyphens, underscores, or dots")
	}
	return nil
}

// ValidateRepoRef validates both owner and repo parameters.
func ValidateRepoRef(owner, repo string) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	return ValidateRepo(repo)
}

// ParseRepoURL extracts owner and repo from a GitHub clone URL such as
// https://github.com/quipucords/quipucords.git or git@github.com:owner/repo.
func ParseRepoURL(remote string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(remote))
	if m == nil {
		return "", "", errors.New("not a GitHub repository URL: " + remote)
	}
	if err := ValidateRepoRef(m[1], m[2]); err != nil {
		return "", "", err
	}
	return m[1], m[2], nil
}
