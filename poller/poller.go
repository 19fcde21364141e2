// Package poller periodically reads a configured list of RCT Power object
// ids from one device connection each, emitting decoded values to a result
// channel.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rctpower/rctclient"
	"github.com/rctpower/rctclient/transport"
)

const (
	jobHealthTickInterval = 60 * time.Second
)

// Client is the interface a device connection needs to implement for Poller
// to be able to request object values from it.
type Client interface {
	Read(ctx context.Context, id uint32) (rctclient.ReadResult, error)
	Close() error
}

// Request describes one polling job: the objects to read, from which
// server, at what interval.
type Request struct {
	// ServerAddress is passed to Config.ConnectFunc; for the default
	// connector this is a "host[:port]" or "tcp://host:port" string.
	ServerAddress string
	// RequestInterval is the time between successive read sweeps of ObjectIDs.
	RequestInterval time.Duration
	// ObjectIDs are read in order on every tick.
	ObjectIDs []uint32
}

// Poller is a service for periodically reading RCT Power objects from one or
// more device connections and emitting decoded values to a result channel.
type Poller struct {
	logger      *slog.Logger
	connectFunc func(ctx context.Context, address string) (Client, error)

	isRunning atomic.Bool
	jobs      []job

	ResultChan chan Result
}

// Config is configuration for Poller.
type Config struct {
	// Logger is the logger instance used by poller to log.
	// Defaults to slog.Default.
	Logger *slog.Logger

	// ConnectFunc is used by poller jobs to open a connection to a device and
	// request data from it. Defaults to DefaultConnectClient.
	ConnectFunc func(ctx context.Context, address string) (Client, error)

	// OnClientDoErrorFunc is called when Client.Read returns an error. The
	// caller can suppress certain errors by not returning them from this
	// function; in that case the read is counted in RequestOKCount instead of
	// RequestErrCount, and its result value is included in the sweep's Values.
	OnClientDoErrorFunc func(err error, requestIndex int) error

	// TimeNow allows mocking Result.Time in tests. Defaults to time.Now.
	TimeNow func() time.Time
}

// NewPollerWithConfig creates a new Poller for requests with the given
// configuration.
func NewPollerWithConfig(requests []Request, conf Config) *Poller {
	p := &Poller{
		logger:      conf.Logger,
		connectFunc: conf.ConnectFunc,
		ResultChan:  make(chan Result, 2*len(requests)),

		jobs: make([]job, len(requests)),
	}
	if conf.Logger == nil {
		p.logger = slog.Default()
	}
	if conf.ConnectFunc == nil {
		p.connectFunc = DefaultConnectClient
	}
	timeNow := time.Now
	if conf.TimeNow != nil {
		timeNow = conf.TimeNow
	}
	for i, req := range requests {
		p.jobs[i] = job{
			timeNow:             timeNow,
			logger:              p.logger,
			connectFunc:         p.connectFunc,
			onClientDoErrorFunc: conf.OnClientDoErrorFunc,

			stats: jobStatistics{
				lock: sync.RWMutex{},
				stats: Statistics{
					RequestIndex:  i,
					ServerAddress: req.ServerAddress,
				},
			},
			requestIndex: i,
			request:      req,
			resultsChan:  p.ResultChan,
		}
	}

	return p
}

// NewPoller creates a new Poller for requests with default configuration.
func NewPoller(requests []Request) *Poller {
	return NewPollerWithConfig(requests, Config{})
}

// Statistics returns statistics for every configured request.
func (p *Poller) Statistics() []Statistics {
	result := make([]Statistics, len(p.jobs))
	for i := range p.jobs {
		result[i] = p.jobs[i].stats.Stats()
	}
	return result
}

// Poll starts polling until ctx is cancelled.
func (p *Poller) Poll(ctx context.Context) error {
	if isRunning := p.isRunning.Swap(true); isRunning {
		return errors.New("poller is already running")
	}
	defer func() {
		p.isRunning.Store(false)
	}()
	if len(p.jobs) == 0 {
		<-ctx.Done()
		return nil
	}

	wg := new(sync.WaitGroup)
	for i := range p.jobs {
		wg.Add(1)
		go func(ctx context.Context, wg *sync.WaitGroup, job *job) {
			defer wg.Done()
			job.Start(ctx)
		}(ctx, wg, &p.jobs[i])
	}
	wg.Wait()
	return nil
}

type job struct {
	timeNow             func() time.Time
	logger              *slog.Logger
	connectFunc         func(ctx context.Context, address string) (Client, error)
	onClientDoErrorFunc func(err error, requestIndex int) error

	requestIndex int
	request      Request
	stats        jobStatistics

	resultsChan chan Result
}

func (j *job) Start(ctx context.Context) {
	const defaultRetry = 1 * time.Second
	retryTime := defaultRetry
	delay := time.NewTimer(retryTime)
	defer delay.Stop()

	for {
		start := j.timeNow()
		j.stats.IncStartCount()
		j.stats.IsPolling(true)
		err := j.poll(ctx)
		j.stats.IsPolling(false)

		if err == nil || ctx.Err() != nil {
			return
		}
		elapsed := j.timeNow().Sub(start)
		if elapsed > 1*time.Minute {
			retryTime = defaultRetry
		} else {
			retryTime *= 2
			if retryTime > 1*time.Minute {
				retryTime = 1 * time.Minute
			}
		}
		j.logger.Error("poll failed",
			"error", err,
			"elapsed", elapsed,
			"retry_time", retryTime,
		)

		delay.Reset(retryTime)
		select {
		case <-delay.C:
			continue
		case <-ctx.Done():
			return
		}
	}
}

// Value is one decoded object value from a polling sweep.
type Value struct {
	ID    uint32
	Value interface{}
}

// Result contains the values read in one polling sweep, with the sweep's
// start time.
type Result struct {
	// RequestIndex is the index of the Request that produced this Result.
	RequestIndex int
	// Time is the sweep's start time.
	Time time.Time
	// Values contains one entry per object id that was read without error
	// (or whose error OnClientDoErrorFunc suppressed).
	Values []Value
}

func (j *job) poll(ctx context.Context) error {
	req := j.request
	client, err := j.connectFunc(ctx, req.ServerAddress)
	if err != nil {
		return err
	}
	defer client.Close()

	healthTicker := time.NewTicker(jobHealthTickInterval)
	defer healthTicker.Stop()
	ticker := time.NewTicker(req.RequestInterval)
	defer ticker.Stop()

	const maxDoRetryCount = 5
	countDoErr := 0
	for {
		select {
		case <-ticker.C:
			start := j.timeNow()
			values := make([]Value, 0, len(req.ObjectIDs))
			var sweepErr error

			for _, id := range req.ObjectIDs {
				result, err := client.Read(ctx, id)
				if err != nil && j.onClientDoErrorFunc != nil {
					err = j.onClientDoErrorFunc(err, j.requestIndex)
				}
				if err != nil {
					sweepErr = err
					j.stats.IncRequestErrCount()
					j.logger.Error("request failed",
						"err", err,
						"id", fmt.Sprintf("%#08x", id),
						"server", req.ServerAddress,
					)
					continue
				}
				j.stats.IncRequestOKCount()
				values = append(values, Value{ID: id, Value: result.Value})
			}
			reqDuration := j.timeNow().Sub(start)

			if sweepErr != nil {
				countDoErr++
				if errors.Is(sweepErr, rctclient.ErrClientNotConnected) ||
					errors.Is(sweepErr, context.DeadlineExceeded) ||
					errors.Is(sweepErr, context.Canceled) {
					return sweepErr
				}
				if countDoErr >= maxDoRetryCount {
					return sweepErr
				}
			} else {
				countDoErr = 0
			}

			result := Result{
				RequestIndex: j.requestIndex,
				Time:         start,
				Values:       values,
			}
			select {
			case j.resultsChan <- result:
				j.logger.Log(ctx, slog.Level(-8), "request success",
					"count_ok", j.stats.stats.RequestOKCount,
					"req_duration", reqDuration,
					"values", len(values),
				)
			default:
				j.stats.IncSendSkipCount()
				j.logger.Warn("skipped values send to result chan",
					"server", req.ServerAddress,
				)
			}
		case <-healthTicker.C:
			j.logger.Debug("job health tick",
				"server", req.ServerAddress,
				"stats", j.stats.stats,
			)
		case <-ctx.Done():
			j.logger.Info("job done",
				"server", req.ServerAddress,
			)
			return ctx.Err()
		}
	}
}

func parseAddress(addressURL string) (string, error) {
	if !strings.Contains(addressURL, "://") {
		addressURL = "tcp://" + addressURL
	}
	u, err := url.Parse(addressURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server address, err: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = addressURL
	}
	port := u.Port()
	if port == "" {
		port = transport.DefaultPort
	}
	return fmt.Sprintf("%s:%s", host, port), nil
}

// DefaultConnectClient is the default implementation connecting to an RCT
// Power device over TCP.
func DefaultConnectClient(ctx context.Context, addressURL string) (Client, error) {
	addr, err := parseAddress(addressURL)
	if err != nil {
		return nil, err
	}
	client := rctclient.NewClient(rctclient.ClientConfig{})
	if err := client.Connect(ctx, addr); err != nil {
		return nil, err
	}
	return client, nil
}

// Statistics holds statistics about a specific Poller request's internal
// state. A request is identified by RequestIndex.
type Statistics struct {
	RequestIndex  int
	ServerAddress string

	// IsPolling reports whether the job is currently connected and polling;
	// it is false while the job waits to retry after a failed poll.
	IsPolling bool

	// StartCount is how many times the poll job has (re)started.
	StartCount uint64

	// RequestOKCount is how many object reads have succeeded for this job.
	RequestOKCount uint64

	// RequestErrCount is how many object reads have failed for this job.
	RequestErrCount uint64

	// SendSkipCount is how many ResultChan sends were skipped due to a
	// blocked Result channel.
	SendSkipCount uint64
}

type jobStatistics struct {
	lock  sync.RWMutex
	stats Statistics
}

func (j *jobStatistics) IsPolling(isPolling bool) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.IsPolling = isPolling
}

func (j *jobStatistics) IncStartCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.StartCount++
}

func (j *jobStatistics) IncRequestOKCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.RequestOKCount++
}

func (j *jobStatistics) IncRequestErrCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.RequestErrCount++
}

func (j *jobStatistics) IncSendSkipCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.SendSkipCount++
}

func (j *jobStatistics) Stats() Statistics {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.stats
}
