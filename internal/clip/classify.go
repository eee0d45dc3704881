package clip

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSanitizedChars caps stored selection text.
const MaxSanitizedChars = 5000

// tagPatterns maps a tag to the keyword pattern that triggers it.
// Order is fixed so derived tag sets are stable across runs.
var tagPatterns = []struct {
	tag string
	re  *regexp.Regexp
}{
	{"api", regexp.MustCompile(`(?i)\b(?:API|REST|GraphQL|SDK)\b`)},
	{"frontend", regexp.MustCompile(`(?i)\b(?:React|Vue|Angular|JavaScript|TypeScript)\b`)},
	{"backend", regexp.MustCompile(`(?i)\b(?:Node|Python|Java|Go|Rust)\b`)},
	{"database", regexp.MustCompile(`(?i)\b(?:database|SQL|MongoDB|PostgreSQL)\b`)},
	{"devops", regexp.MustCompile(`(?i)\b(?:deploy|docker|kubernetes|aws|cloud)\b`)},
	{"design", regexp.MustCompile(`(?i)\b(?:design|UI|UX|figma|sketch)\b`)},
	{"debugging", regexp.MustCompile(`(?i)\b(?:bug|error|fix|debug)\b`)},
	{"meetings", regexp.MustCompile(`(?i)\b(?:meeting|standup|review|planning)\b`)},
}

var (
	codeContentRe     = regexp.MustCompile(`\b(?:function|class|const|let|var|return)\b`)
	meetingContentRe  = regexp.MustCompile(`(?i)\b(?:meeting|agenda|action items|next steps)\b`)
	planningContentRe = regexp.MustCompile(`(?i)\b(?:roadmap|timeline|milestone|deadline)\b`)

	whitespaceRe = regexp.MustCompile(`\s+`)
	bareURLRe    = regexp.MustCompile(`^https?://`)
	imageURLRe   = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)(\?|$)`)
	metaLineRe   = regexp.MustCompile(`(?i)^(Images?|Clipped?|Source?|Domain?):`)
)

// ExtractTags derives content-classification tags from text.
func ExtractTags(text string) []string {
	var tags []string
	for _, p := range tagPatterns {
		if p.re.MatchString(text) {
			tags = append(tags, p.tag)
		}
	}
	return tags
}

// urlCategories maps URL substrings to a category, checked in order.
var urlCategories = []struct {
	marker   string
	category string
}{
	{"github.com", "code"},
	{"stackoverflow.com", "qa"},
	{"docs.", "documentation"},
	{"documentation", "documentation"},
	{"medium.com", "article"},
	{"blog", "article"},
	{"slack.com", "chat"},
	{"discord.com", "chat"},
	{"figma.com", "design"},
	{"sketch.com", "design"},
	{"jira", "project"},
	{"trello", "project"},
}

// Categorize assigns a single category from the URL first, then the text.
func Categorize(url, text string) string {
	for _, uc := range urlCategories {
		if strings.Contains(url, uc.marker) {
			return uc.category
		}
	}
	if codeContentRe.MatchString(text) {
		return "code"
	}
	if meetingContentRe.MatchString(text) {
		return "meeting"
	}
	if planningContentRe.MatchString(text) {
		return "planning"
	}
	return "general"
}

// Sanitize normalizes whitespace and caps length for safe storage.
func Sanitize(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = MaxSanitizedChars
	}
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if len(cleaned) > maxLen {
		return cutAtRune(cleaned, maxLen) + "..."
	}
	return cleaned
}

// cutAtRune cuts s at byte index n, backing off to a rune boundary so
// a multi-byte character is never split.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// CleanSelection filters noise lines out of selected text: bare URLs,
// image URLs, metadata lines, and overlong lines (likely encoded data).
// At most the first five meaningful lines survive, capped at 500 chars.
func CleanSelection(text string) string {
	if text == "" {
		return ""
	}
	var meaningful []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || len(trimmed) > 200 {
			continue
		}
		if bareURLRe.MatchString(trimmed) || imageURLRe.MatchString(trimmed) || metaLineRe.MatchString(trimmed) {
			continue
		}
		if len(trimmed) > 10 {
			meaningful = append(meaningful, trimmed)
		}
		if len(meaningful) == 5 {
			break
		}
	}
	if len(meaningful) == 0 {
		return strings.TrimSpace(cutAtRune(strings.TrimSpace(text), 200))
	}
	return strings.TrimSpace(cutAtRune(strings.Join(meaningful, "\n"), 500))
}

// Process fills the derived fields of a freshly captured clip: tags,
// category, and processing timestamp. Classification happens once at
// capture time and is never recomputed.
func Process(c *Clip) {
	c.Tags = ExtractTags(c.SelectedText)
	c.Category = Categorize(c.URL, c.SelectedText)
	c.ProcessedAt = time.Now().UTC()
}
