package relay

import (
	"regexp"
	"strings"
)

// jobTitlePatterns opportunistically pick a job title out of free text, e.g.
// "I'm a shift supervisor" or "working as a line cook at Rosie's". Best
// effort only; false negatives are fine.
var jobTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i(?:'m| am) (?:a |an |the )?(.+?)(?:\.|,|$| at | in | for | and )`),
	regexp.MustCompile(`(?i)(?:work as|working as) (?:a |an |the )?(.+?)(?:\.|,|$| at | in )`),
	regexp.MustCompile(`(?i)(?:my (?:job|role|position|title) is) (?:a |an |the )?(.+?)(?:\.|,|$)`),
	regexp.MustCompile(`(?i)(?:currently|right now) (?:a |an |the )?(.+?)(?:\.|,|$| at | in )`),
}

// ExtractJobTitle returns a job title guessed from the message, or the empty
// string when no pattern matches a plausible title.
func ExtractJobTitle(message string) string {
	for _, pattern := range jobTitlePatterns {
		m := pattern.FindStringSubmatch(message)
		if m == nil || m[1] == "" {
			continue
		}
		title := strings.TrimSpace(m[1])
		// Filter out non-job responses like "I'm looking for a new role".
		if len(title) > 2 && len(title) < 50 &&
			!strings.Contains(title, "looking") && !strings.Contains(title, "want") {
			return title
		}
	}
	return ""
}
