package domain

// Fact is one deliverable CS concept.
type Fact struct {
	ID         string
	Topic      string // topic id the fact belongs to, e.g. "algorithms"
	Term       string
	Definition string
	Difficulty string
}

// Message renders the SMS body for the fact.
func (f *Fact) Message() string {
	return f.Term + ": " + f.Definition
}
