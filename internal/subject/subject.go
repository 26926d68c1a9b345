package subject

// Source records how a subject was established.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
)

// Domain describes what area of life a record belongs to.
// Pure data, not agent-specific.
type Domain struct {
	Domain     string  `json:"domain"`
	Subdomain  string  `json:"subdomain"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Person is a session-local description of who a record is about.
// It does not imply the person exists anywhere durably.
type Person struct {
	SubjectKey  string            `json:"subject_key"`
	Role        string            `json:"role"`
	Descriptors map[string]string `json:"descriptors"`
	Confidence  float64           `json:"confidence"`
	Source      Source            `json:"source"`
}

// Project is a bare project label.
type Project struct {
	Descriptors string `json:"descriptors"`
}

// Policy is an agent's declarative subject requirements.
// One instance per agent, immutable after startup.
type Policy struct {
	RequireDomain  bool `toml:"require_domain" json:"require_domain"`
	RequirePerson  bool `toml:"require_person" json:"require_person"`
	RequireProject bool `toml:"require_project" json:"require_project"`
}
