package note

import (
	"strings"
	"time"
	"unicode"

	"stuffmd/domain/config"
	pkgerrors "stuffmd/pkg/errors"
)

// Note is the central entity: a captured piece of text plus the
// AI-derived and user-edited fields that organize it. Fields are exported
// because the store gateway's contract is full-record reads and
// shallow-merge writes; all derivation rules live in this package.
type Note struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Content      string       `json:"content"`
	Title        string       `json:"title"`
	Summary      string       `json:"summary"`
	CategoryPath CategoryPath `json:"categoryPath"`
	Tags         []string     `json:"tags"`
	Date         time.Time    `json:"date"`

	// AIGenerated snapshots the last successful categorization so a
	// user edit to Title can be detected as divergence from the AI
	// suggestion. Nil when no categorization ever succeeded. Replaced
	// atomically together with Title/Summary/Tags/CategoryPath.
	AIGenerated *AISnapshot `json:"aiGenerated,omitempty"`
}

// AISnapshot preserves the AI-produced title, summary and rationale
type AISnapshot struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

// Classification is the structured result of a categorizer call
type Classification struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Rationale  string   `json:"rationale"`
}

// Compose builds a full note record from raw content and an optional
// classification result, applying the fallback rules when the
// categorizer produced nothing. A nil result is the expected failure
// signal, not an error.
func Compose(content string, result *Classification, now time.Time) (*Note, error) {
	return ComposeWithConfig(content, result, now, config.DefaultDomainConfig())
}

// ComposeWithConfig builds a note record using explicit domain configuration
func ComposeWithConfig(content string, result *Classification, now time.Time, cfg *config.DomainConfig) (*Note, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}

	n := &Note{
		Name:    Name(content, now, cfg),
		Content: content,
		Date:    now.UTC(),
	}

	if result == nil {
		n.Title = truncateRunes(content, cfg.FallbackTitleLength)
		n.Summary = cfg.FallbackSummary
		n.CategoryPath = CategoryPath{cfg.FallbackCategory}
		n.Tags = []string{}
		return n, nil
	}

	n.Title = result.Title
	n.Summary = result.Summary
	n.CategoryPath = NewCategoryPath(result.Categories)
	if !n.CategoryPath.IsValid() {
		n.CategoryPath = CategoryPath{cfg.FallbackCategory}
	}
	n.Tags = DedupeTags(result.Tags)
	n.AIGenerated = &AISnapshot{
		Title:     result.Title,
		Summary:   result.Summary,
		Rationale: result.Rationale,
	}
	return n, nil
}

// Name derives the filename-like label for a note: a slug of the leading
// content joined to the creation timestamp with punctuation stripped.
// Set once at creation and never recomputed.
func Name(content string, now time.Time, cfg *config.DomainConfig) string {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	runes := []rune(content)
	if len(runes) > cfg.NameSlugLength {
		runes = runes[:cfg.NameSlugLength]
	}

	slug := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, string(runes))

	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "", ".", "").Replace(stamp)

	return slug + "-" + stamp + cfg.NameSuffix
}

// DedupeTags collapses duplicate tag values preserving first-seen order.
// Comparison is case-sensitive; tags are stored as given.
func DedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasTag reports whether the note carries the given tag
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WithoutTag returns the note's tag set with one value filtered out
func (n *Note) WithoutTag(tag string) []string {
	out := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// DivergedFromAI reports whether the user has edited the title away from
// the last AI suggestion
func (n *Note) DivergedFromAI() bool {
	return n.AIGenerated != nil && n.Title != n.AIGenerated.Title
}

// Clone returns a deep copy of the note
func (n *Note) Clone() *Note {
	out := *n
	out.CategoryPath = n.CategoryPath.Clone()
	out.Tags = append([]string(nil), n.Tags...)
	if n.AIGenerated != nil {
		snap := *n.AIGenerated
		out.AIGenerated = &snap
	}
	return &out
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
