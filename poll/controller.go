// Package poll implements the job polling controller. A controller
// owns at most one repeating status-fetch loop for one job at a time,
// persists the in-flight job id so a restarted process can resume
// observation, and publishes exactly one terminal outcome per job.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/videotoaudio/extract-client/client"
	"github.com/videotoaudio/extract-client/db"
	"github.com/videotoaudio/extract-client/exceptions"
	"github.com/videotoaudio/extract-client/job"
)

// API is the slice of the service client the controller needs.
type API interface {
	VideoInfo(ctx context.Context, videoURL string) (*job.VideoInfo, error)
	CreateJob(ctx context.Context, req client.ExtractRequest) (*job.Job, error)
	GetJob(ctx context.Context, id string) (*job.Job, error)
}

// Controller drives one extraction job from submission to a terminal
// status. Configure the exported fields before the first call; they
// must not change afterwards.
//
// OnUpdate fires for every observed snapshot, including the terminal
// one. OnComplete and OnError fire exactly once per job, one or the
// other, never both.
type Controller struct {
	API      API
	Store    db.Store
	Interval time.Duration
	Logger   *logrus.Logger
	Reporter exceptions.Reporter

	OnUpdate   func(*job.Job)
	OnComplete func(*job.Job)
	OnError    func(error)

	mu   sync.Mutex
	cur  *loop
	job  *job.Job
	info *job.VideoInfo
	err  error
}

// New returns a controller observing jobs through api and persisting
// the in-flight job id in store.
func New(api API, store db.Store) *Controller {
	return &Controller{API: api, Store: store}
}

// loop is one polling run for one job id. Its once covers stopping the
// ticker, clearing the slot and firing the outcome callback, so a
// terminal observation racing a cancellation settles on whichever got
// there first.
type loop struct {
	jobID string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	stops int32
}

func (l *loop) cancel() {
	l.once.Do(func() {
		close(l.stop)
		atomic.AddInt32(&l.stops, 1)
	})
}

func (l *loop) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// FetchInfo looks up metadata for a not-yet-submitted reference. It is
// independent of any polling state. On failure previously fetched
// metadata is cleared so stale data is never shown.
func (c *Controller) FetchInfo(ctx context.Context, ref string) (*job.VideoInfo, error) {
	info, err := c.API.VideoInfo(ctx, ref)
	if err != nil {
		lerr := &LookupError{Message: client.Reason(err), Err: err}
		c.reporter().ReportException(lerr)
		c.mu.Lock()
		c.info = nil
		c.err = lerr
		c.mu.Unlock()
		return nil, lerr
	}

	c.mu.Lock()
	c.info = info
	c.err = nil
	c.mu.Unlock()
	return info, nil
}

// Submit creates a new job and starts polling it. Any previous loop is
// torn down and prior job, metadata and error state cleared before the
// request goes out, so one controller never polls two jobs at once.
func (c *Controller) Submit(ctx context.Context, ref string, format job.Format, quality job.Quality) (*job.Job, error) {
	c.mu.Lock()
	c.cancelLocked()
	c.job, c.info, c.err = nil, nil, nil
	c.mu.Unlock()

	j, err := c.API.CreateJob(ctx, client.ExtractRequest{URL: ref, Format: format, Quality: quality})
	if err != nil {
		serr := &SubmissionError{Message: client.Reason(err), Err: err}
		c.reporter().ReportException(serr)
		c.mu.Lock()
		c.err = serr
		c.mu.Unlock()
		return nil, serr
	}

	c.Watch(j)
	return j, nil
}

// Watch takes ownership of an already-created job: prior state is torn
// down, the id persisted and the polling loop started, exactly as for
// a job created through Submit.
func (c *Controller) Watch(j *job.Job) {
	c.mu.Lock()
	c.cancelLocked()
	c.job, c.info, c.err = j, j.VideoInfo, nil
	c.mu.Unlock()

	if err := c.Store.Save(j.ID); err != nil {
		c.logger().WithError(err).WithField("job_id", j.ID).Warn("persisting job id failed, a restart will not resume this job")
	}
	if c.OnUpdate != nil {
		c.OnUpdate(j)
	}

	c.mu.Lock()
	c.startLoopLocked(j.ID)
	c.mu.Unlock()
}

// Resume picks up a job persisted by a previous process. It reads the
// slot once: an empty slot is a no-op, a failed status fetch discards
// the slot, a non-terminal job resumes polling as if freshly
// submitted, and a job that completed while nobody was watching fires
// OnComplete before the slot is discarded. Call it once at start-up.
func (c *Controller) Resume(ctx context.Context) (*job.Job, bool) {
	id, err := c.Store.Load()
	if err == db.ErrNoSavedJob {
		return nil, false
	}
	if err != nil {
		c.logger().WithError(err).Warn("reading saved job id")
		return nil, false
	}

	j, err := c.API.GetJob(ctx, id)
	if err != nil {
		c.logger().WithError(err).WithField("job_id", id).Info("dropping saved job, status fetch failed")
		c.clearSlot()
		return nil, false
	}

	if j.Status.Terminal() {
		c.clearSlot()
		if j.Status != job.StateCompleted {
			// the failure belonged to a previous session
			c.logger().WithField("job_id", id).Info("saved job already failed, dropping it")
			return nil, false
		}
		c.mu.Lock()
		c.job = j
		if j.VideoInfo != nil {
			c.info = j.VideoInfo
		}
		c.mu.Unlock()
		if c.OnComplete != nil {
			c.OnComplete(j)
		}
		return j, true
	}

	c.mu.Lock()
	c.job = j
	if j.VideoInfo != nil {
		c.info = j.VideoInfo
	}
	c.mu.Unlock()

	if c.OnUpdate != nil {
		c.OnUpdate(j)
	}

	c.mu.Lock()
	c.startLoopLocked(j.ID)
	c.mu.Unlock()
	return j, true
}

// Reset cancels any pending polling, discards the persisted id and
// clears job, metadata and error state. Safe to call at any time.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelLocked()
	c.job, c.info, c.err = nil, nil, nil
	c.mu.Unlock()
	c.clearSlot()
}

// Stop cancels any active polling loop but keeps the persisted id, so
// a later process can resume observing the job.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
}

// Job returns the last observed snapshot, if any.
func (c *Controller) Job() *job.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// Info returns the last fetched video metadata, if any.
func (c *Controller) Info() *job.VideoInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Err returns the current lookup, submission or job error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) startLoopLocked(id string) *loop {
	l := &loop{jobID: id, stop: make(chan struct{}), done: make(chan struct{})}
	c.cur = l
	go c.run(l)
	return l
}

func (c *Controller) cancelLocked() {
	if c.cur != nil {
		c.cur.cancel()
		c.cur = nil
	}
}

// run fetches once immediately, then once per interval until the loop
// is stopped. Ticks never overlap: the next fetch waits for the next
// tick regardless of how long the previous one took.
func (c *Controller) run(l *loop) {
	defer close(l.done)
	c.tick(l)
	t := time.NewTicker(c.interval())
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			c.tick(l)
		}
	}
}

func (c *Controller) tick(l *loop) {
	j, err := c.API.GetJob(context.Background(), l.jobID)
	c.observe(l, j, err)
}

// observe applies one fetch result. Results belonging to a replaced or
// stopped loop are discarded, so a fetch in flight across a Reset or a
// new Submit cannot resurrect cleared state. Transport failures are
// logged and absorbed: only an explicit failed status from the service
// counts as job failure.
func (c *Controller) observe(l *loop, j *job.Job, err error) {
	c.mu.Lock()
	if c.cur != l || l.stopped() {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger().WithError(err).WithField("job_id", l.jobID).Warn("status fetch failed, retrying next tick")
		return
	}
	c.job = j
	if j.VideoInfo != nil {
		c.info = j.VideoInfo
	}
	c.mu.Unlock()

	if c.OnUpdate != nil {
		c.OnUpdate(j)
	}
	if j.Status.Terminal() {
		c.finish(l, j)
	}
}

// finish stops the loop, clears the slot and fires the outcome
// callback. The loop's once makes all of it happen at most once even
// when two terminal observations race each other or a cancellation.
func (c *Controller) finish(l *loop, j *job.Job) {
	l.once.Do(func() {
		close(l.stop)
		atomic.AddInt32(&l.stops, 1)

		c.mu.Lock()
		if c.cur == l {
			c.cur = nil
		}
		c.mu.Unlock()
		c.clearSlot()

		if j.Status == job.StateCompleted {
			if c.OnComplete != nil {
				c.OnComplete(j)
			}
			return
		}

		err := j.Result.Err()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		if c.OnError != nil {
			c.OnError(err)
		}
	})
}

func (c *Controller) clearSlot() {
	if err := c.Store.Clear(); err != nil {
		c.logger().WithError(err).Warn("clearing saved job id")
	}
}

func (c *Controller) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	return time.Second
}

func (c *Controller) logger() *logrus.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

func (c *Controller) reporter() exceptions.Reporter {
	if c.Reporter != nil {
		return c.Reporter
	}
	return &exceptions.NoopReporter{}
}
