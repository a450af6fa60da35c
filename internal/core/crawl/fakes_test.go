package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"coursecrawler/internal/config"
	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/core/job"
)

const searchURL = "https://catalog.test/cg/default.aspx"

type fakeBrowser struct {
	mu        sync.Mutex
	pages     map[string]string
	badURLs   map[string]bool
	visible   map[string]bool
	launchErr error
	panicOn   string
	// blockOn holds navigation to this URL until the context ends.
	blockOn string
	// failing selectors reject SelectOption, Fill and Click.
	failing map[string]bool

	launched int
	closed   int
	selected []string
	filled   []string
	clicked  []string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{pages: map[string]string{}, badURLs: map[string]bool{}, visible: map[string]bool{}, failing: map[string]bool{}}
}

func (b *fakeBrowser) Launch(ctx context.Context) (catalog.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	b.launched++
	return &fakeSession{b: b}, nil
}

type fakeSession struct {
	b   *fakeBrowser
	url string
}

func (s *fakeSession) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.b.panicOn != "" && url == s.b.panicOn {
		panic("renderer crashed")
	}
	if s.b.blockOn != "" && url == s.b.blockOn {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.b.badURLs[url] {
		return fmt.Errorf("timeout 30000ms exceeded navigating to %s", url)
	}
	s.url = url
	return nil
}

func (s *fakeSession) WaitFor(ctx context.Context, selector string) error {
	if strings.Contains(s.b.pages[s.url], "results") {
		return nil
	}
	return errors.New("timeout waiting for results")
}

func (s *fakeSession) HTML(ctx context.Context) (string, error) { return s.b.pages[s.url], nil }
func (s *fakeSession) URL() string                              { return s.url }

func (s *fakeSession) SelectOption(ctx context.Context, selector, label string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failing[selector] {
		return fmt.Errorf("element %s is detached", selector)
	}
	s.b.selected = append(s.b.selected, selector+"="+label)
	return nil
}

func (s *fakeSession) Fill(ctx context.Context, selector, value string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failing[selector] {
		return fmt.Errorf("element %s is detached", selector)
	}
	s.b.filled = append(s.b.filled, selector+"="+value)
	return nil
}

func (s *fakeSession) Click(ctx context.Context, selector string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.failing[selector] {
		return fmt.Errorf("element %s is detached", selector)
	}
	s.b.clicked = append(s.b.clicked, selector)
	return nil
}

func (s *fakeSession) Visible(ctx context.Context, selector string) (bool, error) {
	return s.b.visible[selector], nil
}

func (s *fakeSession) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.closed++
	return nil
}

type fakeDispatcher struct {
	err      error
	taskType string
	payloads [][]byte
}

func (d *fakeDispatcher) Dispatch(taskType string, payload []byte) error {
	if d.err != nil {
		return d.err
	}
	d.taskType = taskType
	d.payloads = append(d.payloads, payload)
	return nil
}

// flakyStore fails or panics on chosen courses and counts progress flushes.
type flakyStore struct {
	*catalog.MemoryStore
	failOn  map[string]bool
	panicOn map[string]bool
	// statusErr fails writes that move a job into the given status.
	statusErr map[catalog.Status]error

	mu      sync.Mutex
	flushes []int
}

func (f *flakyStore) UpsertCourse(ctx context.Context, c catalog.CourseUpsert) (*catalog.Course, error) {
	k := c.SubjectCode + " " + c.CourseNumber
	if f.panicOn[k] {
		panic("nil pointer in " + k)
	}
	if f.failOn[k] {
		return nil, errors.New("constraint violation")
	}
	return f.MemoryStore.UpsertCourse(ctx, c)
}

func (f *flakyStore) UpdateJob(ctx context.Context, id string, u catalog.JobUpdate) (*catalog.CrawlJob, error) {
	if u.Status != nil && f.statusErr[*u.Status] != nil {
		return nil, f.statusErr[*u.Status]
	}
	if u.Status == nil && u.CoursesFound == nil && u.CoursesSaved != nil {
		f.mu.Lock()
		f.flushes = append(f.flushes, *u.CoursesSaved)
		f.mu.Unlock()
	}
	return f.MemoryStore.UpdateJob(ctx, id, u)
}

func testConfig() config.Catalog {
	cfg := config.Defaults().Catalog
	cfg.SearchURL = searchURL
	cfg.MinDelayMs = 1
	cfg.MaxDelayMs = 1
	return cfg
}

func detailURL(n int) string { return fmt.Sprintf("https://catalog.test/cg/cg_detail.aspx?c=TEST%d", n) }

// seedCatalog registers a results page with n courses TEST 101.. and their
// detail pages.
func seedCatalog(b *fakeBrowser, n int) {
	var rows strings.Builder
	for i := 1; i <= n; i++ {
		num := 100 + i
		fmt.Fprintf(&rows, `<tr><td><a href="cg_detail.aspx?c=TEST%d">TEST %d</a></td><td>Course %d</td></tr>`, num, num, i)
		b.pages[detailURL(num)] = fmt.Sprintf(`<html><body>
<h1>TEST %d Detailed Course %d</h1>
<div id="lblDescription">A thorough description of course number %d for testing.</div>
<div id="lblPrereq">TEST 100 and (MATH 115 or MATH 116)</div>
<p>3 to 4 credits</p>
</body></html>`, num, i, num)
	}
	b.pages[searchURL] = `<html><body><table class="results">` + rows.String() + `</table></body></html>`
}

type harness struct {
	browser  *fakeBrowser
	store    *flakyStore
	jobs     *job.Service
	dispatch *fakeDispatcher
	svc      *CrawlService
}

func newHarness(t *testing.T, cfg config.Catalog) *harness {
	t.Helper()
	h := &harness{
		browser:  newFakeBrowser(),
		store:    &flakyStore{MemoryStore: catalog.NewMemoryStore(), failOn: map[string]bool{}, panicOn: map[string]bool{}, statusErr: map[catalog.Status]error{}},
		dispatch: &fakeDispatcher{},
	}
	h.jobs = job.NewJobService(h.store, nil)
	h.svc = NewCrawlService(h.jobs, h.store, h.browser, h.dispatch, cfg)
	return h
}

func strp(s string) *string { return &s }
