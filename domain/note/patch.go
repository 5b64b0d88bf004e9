package note

// Patch carries a shallow partial update: each non-nil field fully
// replaces the stored value, nil fields are untouched. The AI snapshot
// travels with the fields it describes so regeneration replaces them
// atomically.
type Patch struct {
	Title        *string      `json:"title,omitempty"`
	Content      *string      `json:"content,omitempty"`
	Summary      *string      `json:"summary,omitempty"`
	CategoryPath CategoryPath `json:"categoryPath,omitempty"`
	Tags         *[]string    `json:"tags,omitempty"`
	AIGenerated  *AISnapshot  `json:"aiGenerated,omitempty"`
}

// IsEmpty reports whether the patch carries no changes
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Summary == nil &&
		p.CategoryPath == nil && p.Tags == nil && p.AIGenerated == nil
}

// Apply merges the patch into a note in place
func (p Patch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Summary != nil {
		n.Summary = *p.Summary
	}
	if p.CategoryPath != nil {
		n.CategoryPath = p.CategoryPath.Clone()
	}
	if p.Tags != nil {
		n.Tags = DedupeTags(*p.Tags)
	}
	if p.AIGenerated != nil {
		snap := *p.AIGenerated
		n.AIGenerated = &snap
	}
}

// RegenerationPatch builds the atomic update applied after a successful
// re-classification of a note's content
func RegenerationPatch(result *Classification) Patch {
	title := result.Title
	summary := result.Summary
	tags := DedupeTags(result.Tags)
	return Patch{
		Title:        &title,
		Summary:      &summary,
		CategoryPath: NewCategoryPath(result.Categories),
		Tags:         &tags,
		AIGenerated: &AISnapshot{
			Title:     result.Title,
			Summary:   result.Summary,
			Rationale: result.Rationale,
		},
	}
}
