package skills

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength          = 64
	maxDescriptionLength   = 1024
	minDescriptionLength   = 50
	maxCompatibilityLength = 500
	maxContentLines        = 500
	maxContentTokens       = 5000
)

var (
	// namePattern enforces lowercase alphanumeric segments joined by single
	// hyphens, no leading or trailing hyphen
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

	// markupPattern catches markup tags in names and descriptions
	markupPattern = regexp.MustCompile(`<[^>]*>`)

	// reservedWords must not appear anywhere in a skill name
	reservedWords = []string{"anthropic", "claude"}
)

// ValidationResult collects blocking errors and non-blocking warnings.
// Valid depends only on Errors.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateMetadata checks a skill's frontmatter against the naming and
// length rules. Errors block an install, warnings do not.
func ValidateMetadata(meta Metadata) ValidationResult {
	var result ValidationResult

	switch {
	case meta.Name == "":
		result.Errors = append(result.Errors, "name is required")
	case len(meta.Name) > maxNameLength:
		result.Errors = append(result.Errors, fmt.Sprintf("name exceeds %d characters", maxNameLength))
	case markupPattern.MatchString(meta.Name):
		result.Errors = append(result.Errors, "name must not contain markup tags")
	case !namePattern.MatchString(meta.Name):
		result.Errors = append(result.Errors, "name must be lowercase alphanumeric segments separated by single hyphens")
	default:
		for _, word := range reservedWords {
			if strings.Contains(strings.ToLower(meta.Name), word) {
				result.Errors = append(result.Errors, fmt.Sprintf("name must not contain the reserved word %q", word))
				break
			}
		}
	}

	switch {
	case meta.Description == "":
		result.Errors = append(result.Errors, "description is required")
	case len(meta.Description) > maxDescriptionLength:
		result.Errors = append(result.Errors, fmt.Sprintf("description exceeds %d characters", maxDescriptionLength))
	case markupPattern.MatchString(meta.Description):
		result.Errors = append(result.Errors, "description must not contain markup tags")
	default:
		if len(meta.Description) < minDescriptionLength {
			result.Warnings = append(result.Warnings, fmt.Sprintf("description is under %d characters, consider elaborating", minDescriptionLength))
		}
	}

	if len(meta.Compatibility) > maxCompatibilityLength {
		result.Errors = append(result.Errors, fmt.Sprintf("compatibility exceeds %d characters", maxCompatibilityLength))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateContent checks the instruction body. These are size heuristics,
// not correctness gates: the result is always valid, only warnings are
// emitted.
func ValidateContent(body string) ValidationResult {
	result := ValidationResult{Valid: true}

	if strings.TrimSpace(body) == "" {
		result.Warnings = append(result.Warnings, "skill body is empty")
		return result
	}

	if lines := strings.Count(body, "\n") + 1; lines > maxContentLines {
		result.Warnings = append(result.Warnings, fmt.Sprintf("skill body has %d lines, consider splitting content over %d lines into reference files", lines, maxContentLines))
	}

	// rough token estimate at four characters per token
	if tokens := (len(body) + 3) / 4; tokens > maxContentTokens {
		result.Warnings = append(result.Warnings, fmt.Sprintf("skill body is roughly %d tokens, over the %d token guidance", tokens, maxContentTokens))
	}

	return result
}
