package cache

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey names a rendered document. docHash is the Hash of the
	// document's serialized form.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists every render option that changes the output.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Style  string  `json:"style,omitempty"`
	Margin float64 `json:"margin,omitempty"`
	Probes bool    `json:"probes,omitempty"`
	Flags  bool    `json:"flags,omitempty"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<sha256 of docHash and opts>".
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, docHash, opts)
}
