package optimize

// Status classifies what happened to one file.
type Status int

const (
	StatusOptimized Status = iota
	StatusSkipped
	StatusIgnored
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimized:
		return "optimized"
	case StatusSkipped:
		return "skipped"
	case StatusIgnored:
		return "ignored"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Result struct {
	Path         string
	Status       Status
	Resized      bool
	OriginalSize int64
	NewSize      int64
	Err          error
}

// BytesSaved is zero unless the file was rewritten.
func (r Result) BytesSaved() int64 {
	if r.Status != StatusOptimized {
		return 0
	}
	return r.OriginalSize - r.NewSize
}

type Summary struct {
	Total      int
	Optimized  int
	Skipped    int
	Ignored    int
	Failed     int
	BytesSaved int64
	Results    []Result
}

// ProgressUpdate is sent after each file when a progress channel is wired.
type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	ErrorDelta      int
	OptimizedDelta  int
	BytesSavedDelta int64

	// Path is the file just handled; empty on the initial total update.
	Path string
}
