package heic

// Status classifies what happened to one candidate.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Candidate is a HEIC/HEIF file found under the images root.
type Candidate struct {
	Path   string
	Target string
}

// Replacement pairs the repository-relative path of a converted file with
// the path of its replacement. Both use forward slashes.
type Replacement struct {
	Old string
	New string
}

// Outcome is the per-candidate result of a conversion attempt.
type Outcome struct {
	Candidate   Candidate
	Status      Status
	Detail      string
	Replacement *Replacement
}

// RewriteResult reports what reference rewriting did.
type RewriteResult struct {
	Skipped bool
	Reason  string
	Updated []string
}

// Summary aggregates a migration run.
type Summary struct {
	Found     int
	Converted int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
	Rewrite   RewriteResult
}

// Replacements returns the pairs recorded by converted outcomes in order.
func (s Summary) Replacements() []Replacement {
	var out []Replacement
	for _, o := range s.Outcomes {
		if o.Replacement != nil {
			out = append(out, *o.Replacement)
		}
	}
	return out
}
