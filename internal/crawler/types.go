package crawler

import "time"

// Task is one unit of frontier work: a URL plus the depth at which it was
// discovered. Tasks are immutable and consumed exactly once by a worker.
type Task struct {
	URL   string
	Depth int
}

// Page represents one successfully fetched and parsed document. Checksum is
// the hex digest of the raw response body.
type Page struct {
	URL        string
	Title      string
	StatusCode int
	Content    string
	Checksum   string
	Links      []string
}

// NewPage constructs a Page, defensively copying the link list so later
// mutation by the caller cannot leak into committed results.
func NewPage(url, title string, statusCode int, content, checksum string, links []string) Page {
	return Page{
		URL:        url,
		Title:      title,
		StatusCode: statusCode,
		Content:    content,
		Checksum:   checksum,
		Links:      append([]string(nil), links...),
	}
}

// Failure records a URL that could not be turned into a Page.
type Failure struct {
	URL    string
	Reason string
}

// Result is the final outcome of a crawl run. It is detached from the run's
// internal state: the slices are copies and safe to retain.
type Result struct {
	RunID     string
	Pages     []Page
	Failures  []Failure
	StartTime time.Time
	EndTime   time.Time
}

// FailedURLs returns just the URLs of the recorded failures.
func (r Result) FailedURLs() []string {
	urls := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		urls = append(urls, f.URL)
	}
	return urls
}

// FetchResponse is the raw document returned by a Fetcher.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
}

// ParseResult is the structure a Parser extracts from raw HTML. Links are
// absolute URLs in document order.
type ParseResult struct {
	Title string
	Text  string
	Links []string
}

// State is the lifecycle phase of a crawl run.
type State int32

// Crawl run states. A run moves strictly forward: Idle -> Running ->
// Draining -> Completed.
const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateCompleted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
