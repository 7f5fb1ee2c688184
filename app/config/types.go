package config

// Target is a single profile to collect, with optional labels carried into
// the TAGS column of every capture.
type Target struct {
	Identifier string   `yaml:"identifier"`
	Tags       []string `yaml:"tags"`
}

// Targets represents the parsed worklist file
type Targets struct {
	Targets []Target `yaml:"targets"`
}

// Identifiers returns the target identifiers in file order
func (t *Targets) Identifiers() []string {
	ids := make([]string, 0, len(t.Targets))
	for _, target := range t.Targets {
		ids = append(ids, target.Identifier)
	}
	return ids
}

// TagsFor returns the tag labels configured for an identifier, or nil
func (t *Targets) TagsFor(identifier string) []string {
	for _, target := range t.Targets {
		if target.Identifier == identifier {
			return target.Tags
		}
	}
	return nil
}
