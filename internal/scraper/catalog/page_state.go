package catalog

import "AUScraper/internal/models"

// PageState accumulates what the crawler has seen so far. Transitions return a
// new value and leave the receiver untouched.
type PageState struct {
	PageNum       int
	NextAvailable bool

	seen  map[string]string // url -> first title seen
	order []string
}

// NewPageState starts on page 1 with nothing seen.
func NewPageState() PageState {
	return PageState{PageNum: 1, seen: map[string]string{}}
}

// Merge adds candidates not seen before, keeping the first title recorded
// for a URL. It returns the new state and how many URLs were added.
func (s PageState) Merge(cands []models.Candidate, nextAvailable bool) (PageState, int) {
	out := PageState{
		PageNum:       s.PageNum,
		NextAvailable: nextAvailable,
		seen:          make(map[string]string, len(s.seen)+len(cands)),
		order:         append(make([]string, 0, len(s.order)+len(cands)), s.order...),
	}
	for k, v := range s.seen {
		out.seen[k] = v
	}

	added := 0
	for _, c := range cands {
		if _, ok := out.seen[c.URL]; ok {
			continue
		}
		out.seen[c.URL] = c.Title
		out.order = append(out.order, c.URL)
		added++
	}
	return out, added
}

// Advance moves to the following page.
func (s PageState) Advance() PageState {
	s.PageNum++
	s.NextAvailable = false
	return s
}

func (s PageState) Len() int { return len(s.order) }

// Candidates lists everything seen, in discovery order.
func (s PageState) Candidates() []models.Candidate {
	out := make([]models.Candidate, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, models.Candidate{URL: u, Title: s.seen[u]})
	}
	return out
}

type verdict int

const (
	verdictAccept verdict = iota
	verdictRetry
	verdictGiveUp
)

func (v verdict) String() string {
	switch v {
	case verdictAccept:
		return "accept"
	case verdictRetry:
		return "retry"
	default:
		return "give-up"
	}
}

type retryPolicy struct {
	MinItems      int
	MaxRetries    int
	ReloadOnRetry int
}

// assessPage decides what to do with a scanned page. A page is under-rendered
// when a next page exists yet fewer than MinItems items were found; the last
// page is always accepted. retries counts failed passes so far.
func assessPage(count int, nextAvailable bool, retries int, p retryPolicy) verdict {
	if !nextAvailable || count >= p.MinItems {
		return verdictAccept
	}
	if retries+1 >= p.MaxRetries {
		return verdictGiveUp
	}
	return verdictRetry
}

// reloadBefore reports whether the given retry should start with a reload.
func (p retryPolicy) reloadBefore(retry int) bool {
	return p.ReloadOnRetry > 0 && retry == p.ReloadOnRetry
}
