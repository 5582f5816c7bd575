package config

// DomainConfig holds configurable business rules and constraints
type DomainConfig struct {
	// Board constraints
	MaxNodesPerBoard int
	MaxLinksPerBoard int

	// Node constraints
	MaxTitleLength     int
	MaxMessageLength   int
	MaxNoteTextLength  int
	MaxIncomingPerNode int

	// Branching
	MaxInheritedContext int

	// AI defaults
	DefaultModel string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerBoard: 2000,
		MaxLinksPerBoard: 5000,

		MaxTitleLength:     256,
		MaxMessageLength:   100_000,
		MaxNoteTextLength:  10_000,
		MaxIncomingPerNode: 50,

		MaxInheritedContext: 500,

		DefaultModel: "gpt-4o",
	}
}
