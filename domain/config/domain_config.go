package config

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Fallbacks applied when the categorizer returns no result
	FallbackTitleLength int
	FallbackSummary     string
	FallbackCategory    string

	// Note name derivation
	NameSlugLength int
	NameSuffix     string

	// Note constraints
	MaxContentLength int
	MaxTagsPerNote   int
	MaxTagLength     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		FallbackTitleLength: 100,
		FallbackSummary:     "No summary generated.",
		FallbackCategory:    "Uncategorized",

		NameSlugLength: 20,
		NameSuffix:     ".txt",

		MaxContentLength: 50000,
		MaxTagsPerNote:   20,
		MaxTagLength:     50,
	}
}
