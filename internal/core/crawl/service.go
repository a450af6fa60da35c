package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursecrawler/internal/config"
	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/core/extract"
	"coursecrawler/internal/core/job"
	"coursecrawler/internal/core/prereq"
	"coursecrawler/internal/core/ratelimit"
	"coursecrawler/internal/logger"
	tasks "coursecrawler/internal/platform/tasks"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
)

// Dispatcher hands a task to the background queue.
type Dispatcher interface {
	Dispatch(taskType string, payload []byte) error
}

// errJobDeadline is the cancellation cause once a job outlives its timeout.
var errJobDeadline = errors.New("job deadline exceeded")

type pacer interface {
	Wait(ctx context.Context)
}

type CrawlService struct {
	jobs     *job.Service
	courses  catalog.CourseStore
	browser  catalog.Browser
	tasks    Dispatcher
	pace     pacer
	timeout  time.Duration
	cfg      config.Catalog
	opts     extract.Options
	validate *validator.Validate
	log      *logger.Logger
}

func NewCrawlService(jobs *job.Service, courses catalog.CourseStore, browser catalog.Browser, tasks Dispatcher, cfg config.Catalog) *CrawlService {
	return &CrawlService{
		jobs:     jobs,
		courses:  courses,
		browser:  browser,
		tasks:    tasks,
		pace:     ratelimit.New(cfg.MinDelay(), cfg.MaxDelay()),
		timeout:  cfg.JobTimeout(),
		cfg:      cfg,
		opts:     extract.NewOptions(cfg),
		validate: validator.New(),
		log:      logger.New("CrawlService"),
	}
}

func (s *CrawlService) prepare(p Params) (Params, error) {
	p = p.normalize()
	if err := s.validate.Struct(p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}

// Crawl records a PENDING job and queues the crawl. It returns as soon as
// the task is queued.
func (s *CrawlService) Crawl(ctx context.Context, p Params) (string, error) {
	p, err := s.prepare(p)
	if err != nil {
		return "", err
	}
	if s.tasks == nil {
		return "", errors.New("crawl: no task dispatcher configured")
	}
	j, err := s.jobs.Create(ctx, p.Filters())
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(TaskPayload{JobID: j.ID, Params: p})
	if err != nil {
		return "", fmt.Errorf("marshal crawl payload: %w", err)
	}
	if err := s.tasks.Dispatch(tasks.TaskTypeCatalogCrawl, payload); err != nil {
		if _, ferr := s.jobs.Fail(context.WithoutCancel(ctx), j.ID, -1, err.Error()); ferr != nil {
			s.log.LogErrorf("mark job %s failed after enqueue error: %v", j.ID, ferr)
		}
		return "", err
	}
	s.log.LogInfof("enqueued catalog crawl job %s (%s)", j.ID, describe(p))
	return j.ID, nil
}

// CrawlNow records a job and runs it in the calling goroutine.
func (s *CrawlService) CrawlNow(ctx context.Context, p Params) (*catalog.CrawlJob, error) {
	p, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	j, err := s.jobs.Create(ctx, p.Filters())
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, j.ID, p)
}

// HandleCrawlTask is the asynq handler. Job outcomes are recorded on the job.
// asynq only sees unreadable payloads and jobs whose outcome could not be
// recorded; a job that already finished is acknowledged.
func (s *CrawlService) HandleCrawlTask(ctx context.Context, task *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode crawl payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.JobID == "" {
		return fmt.Errorf("crawl payload without job id: %w", asynq.SkipRetry)
	}
	if _, err := s.Run(ctx, p.JobID, p.Params); err != nil {
		if errors.Is(err, job.ErrJobFinalized) {
			s.log.LogWarnf("crawl job %s already finished, not rerunning", p.JobID)
			return nil
		}
		s.log.LogErrorf("crawl job %s: %v", p.JobID, err)
		return fmt.Errorf("crawl job %s: %w", p.JobID, err)
	}
	return nil
}

// Run executes a PENDING job to a terminal state and returns the final
// snapshot. The error is non-nil only when no terminal state could be
// written, or the job is missing or already finished.
func (s *CrawlService) Run(ctx context.Context, jobID string, p Params) (*catalog.CrawlJob, error) {
	if _, err := s.jobs.Start(ctx, jobID); err != nil {
		if errors.Is(err, job.ErrJobFinalized) || errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		s.log.LogErrorf("crawl job %s could not start: %v", jobID, err)
		j, ferr := s.jobs.Fail(context.WithoutCancel(ctx), jobID, -1, "start job: "+err.Error())
		if ferr != nil {
			return nil, fmt.Errorf("start job: %w", err)
		}
		return j, nil
	}
	s.log.LogInfof("crawl job %s running (%s)", jobID, describe(p))

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeoutCause(ctx, s.timeout, errJobDeadline)
		defer cancel()
	}

	saved, err := s.execute(runCtx, jobID, p)

	final := context.WithoutCancel(ctx)
	if err != nil {
		s.log.LogErrorf("crawl job %s failed after %d saved: %v", jobID, saved, err)
		return s.jobs.Fail(final, jobID, saved, err.Error())
	}
	j, ferr := s.jobs.Complete(final, jobID, saved)
	if ferr == nil {
		s.log.LogSuccessf("crawl job %s completed: %d/%d courses saved", jobID, j.CoursesSaved, derefInt(j.CoursesFound))
	}
	return j, ferr
}

// execute is the crawl body. Any error or panic it returns fails the job.
func (s *CrawlService) execute(ctx context.Context, jobID string, p Params) (saved int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl panic: %v", r)
		}
	}()

	sess, err := s.browser.Launch(ctx)
	if err != nil {
		return 0, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.log.LogWarnf("close browser for job %s: %v", jobID, cerr)
		}
	}()

	s.pace.Wait(ctx)
	if err := sess.Goto(ctx, s.cfg.SearchURL); err != nil {
		return 0, fmt.Errorf("navigate to search page: %w", err)
	}

	s.applyFilters(ctx, sess, p)
	s.submit(ctx, sess)

	items, err := s.listing(ctx, sess)
	if err != nil {
		return 0, err
	}
	if _, err := s.jobs.RecordListing(ctx, jobID, 1, len(items)); err != nil {
		return 0, fmt.Errorf("record listing: %w", err)
	}
	s.log.LogInfof("crawl job %s found %d courses", jobID, len(items))

	flushEvery := s.cfg.ProgressFlushEvery
	if flushEvery <= 0 {
		flushEvery = 10
	}
	for i, it := range items {
		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			if errors.Is(cause, errJobDeadline) {
				return saved, fmt.Errorf("job deadline of %v exceeded after %d of %d courses", s.timeout, i, len(items))
			}
			return saved, fmt.Errorf("crawl cancelled after %d of %d courses: %w", i, len(items), cause)
		}
		if err := s.processItem(ctx, sess, it, p.Term); err != nil {
			s.log.LogWarnf("job %s: skipping %s: %v", jobID, it.Key(), err)
			continue
		}
		saved++
		if saved%flushEvery == 0 {
			if _, err := s.jobs.RecordProgress(ctx, jobID, saved); err != nil {
				s.log.LogWarnf("job %s: flush progress: %v", jobID, err)
			}
		}
	}
	return saved, nil
}

func (s *CrawlService) applyFilters(ctx context.Context, sess catalog.Session, p Params) {
	sel := s.cfg.Selectors
	if p.Term != nil {
		s.selectFirst(ctx, sess, "term", sel.TermSelect, *p.Term)
	}
	if p.Subject != nil {
		s.selectFirst(ctx, sess, "subject", sel.SubjectSelect, *p.Subject)
	}
	if s.cfg.ResultsPerPage != "" {
		s.selectFirst(ctx, sess, "results per page", sel.PageSizeSelect, s.cfg.ResultsPerPage)
	}
	if p.Query != nil {
		s.fillFirst(ctx, sess, "query", sel.QueryInput, *p.Query)
	}
}

// selectFirst sets the first visible candidate select. Failure is logged and
// the crawl continues.
func (s *CrawlService) selectFirst(ctx context.Context, sess catalog.Session, name string, candidates []string, label string) {
	s.pace.Wait(ctx)
	for _, sel := range candidates {
		if ok, _ := sess.Visible(ctx, sel); !ok {
			continue
		}
		if err := sess.SelectOption(ctx, sel, label); err != nil {
			s.log.LogWarnf("filter %s: select %q on %s: %v", name, label, sel, err)
			continue
		}
		s.log.LogDebugf("filter %s set to %q via %s", name, label, sel)
		return
	}
	s.log.LogWarnf("filter %s not applied: no usable control among %d candidates", name, len(candidates))
}

func (s *CrawlService) fillFirst(ctx context.Context, sess catalog.Session, name string, candidates []string, value string) {
	s.pace.Wait(ctx)
	for _, sel := range candidates {
		if ok, _ := sess.Visible(ctx, sel); !ok {
			continue
		}
		if err := sess.Fill(ctx, sel, value); err != nil {
			s.log.LogWarnf("filter %s: fill %s: %v", name, sel, err)
			continue
		}
		return
	}
	s.log.LogWarnf("filter %s not applied: no usable input among %d candidates", name, len(candidates))
}

// submit clicks the first visible search button. Some result states have no
// button; that is not an error.
func (s *CrawlService) submit(ctx context.Context, sess catalog.Session) {
	s.pace.Wait(ctx)
	for _, sel := range s.cfg.Selectors.SearchButton {
		if ok, _ := sess.Visible(ctx, sel); !ok {
			continue
		}
		if err := sess.Click(ctx, sel); err != nil {
			s.log.LogWarnf("search button %s: %v", sel, err)
			continue
		}
		return
	}
	s.log.LogWarnf("no visible search button; reading the current page as results")
}

func (s *CrawlService) listing(ctx context.Context, sess catalog.Session) ([]catalog.CourseListItem, error) {
	if ready := s.cfg.Selectors.ResultsReady; len(ready) > 0 {
		if err := sess.WaitFor(ctx, strings.Join(ready, ", ")); err != nil {
			s.log.LogWarnf("results container did not appear, extracting anyway: %v", err)
		}
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read results page: %w", err)
	}
	items, err := extract.Courses(html, sess.URL(), s.opts)
	if err != nil {
		return nil, fmt.Errorf("extract course list: %w", err)
	}
	return items, nil
}

// processItem saves one course and its prerequisite. Errors and panics stay
// inside the item.
func (s *CrawlService) processItem(ctx context.Context, sess catalog.Session, it catalog.CourseListItem, term *string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	detail := s.detail(ctx, sess, it)

	course, err := s.courses.UpsertCourse(ctx, catalog.CourseUpsert{
		SubjectCode:  it.SubjectCode,
		CourseNumber: it.CourseNumber,
		Title:        detail.Title,
		Description:  detail.Description,
		CreditMin:    detail.CreditMin,
		CreditMax:    detail.CreditMax,
		LastSeenTerm: term,
		SourceURL:    detail.SourceURL,
	})
	if err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}

	if detail.PrerequisiteText == nil {
		return nil
	}
	guess, confidence := prereq.Parse(*detail.PrerequisiteText)
	if guess == nil {
		return nil
	}
	parsed, err := json.Marshal(guess)
	if err != nil {
		return fmt.Errorf("marshal prerequisite guess: %w", err)
	}
	in := catalog.PrerequisiteInput{RawText: guess.Raw, Parsed: parsed, Confidence: confidence}

	existing, err := s.courses.FindPrerequisite(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("find prerequisite: %w", err)
	}
	if existing != nil {
		_, err = s.courses.UpdatePrerequisite(ctx, existing.ID, in)
	} else {
		_, err = s.courses.CreatePrerequisite(ctx, course.ID, in)
	}
	if err != nil {
		return fmt.Errorf("save prerequisite: %w", err)
	}
	return nil
}

// detail loads the item's detail page, falling back to the list item's
// fields when there is no page or it cannot be read.
func (s *CrawlService) detail(ctx context.Context, sess catalog.Session, it catalog.CourseListItem) catalog.CourseDetail {
	fallback := catalog.CourseDetail{SubjectCode: it.SubjectCode, CourseNumber: it.CourseNumber, Title: it.Title}
	if fallback.Title == "" {
		fallback.Title = it.Key()
	}
	if it.DetailURL == nil {
		return fallback
	}

	s.pace.Wait(ctx)
	if err := sess.Goto(ctx, *it.DetailURL); err != nil {
		s.log.LogWarnf("detail page for %s: %v", it.Key(), err)
		return fallback
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		s.log.LogWarnf("read detail page for %s: %v", it.Key(), err)
		return fallback
	}
	d := extract.Course(html, *it.DetailURL, it.SubjectCode, it.CourseNumber, s.opts)
	if d.Title == "" {
		d.Title = fallback.Title
	}
	return d
}

func describe(p Params) string {
	parts := make([]string, 0, 3)
	if p.Term != nil {
		parts = append(parts, "term="+*p.Term)
	}
	if p.Subject != nil {
		parts = append(parts, "subject="+*p.Subject)
	}
	if p.Query != nil {
		parts = append(parts, "query="+*p.Query)
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " ")
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
