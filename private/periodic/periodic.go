// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package periodic runs background tasks on a fixed period.
package periodic

import (
	"context"
	"time"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
)

// Event types reported through Metrics.Events.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "triggered"
)

// A Task that has to be periodically executed.
type Task interface {
	// Run executes the task once, it should return within the context's timeout.
	Run(context.Context)
	// Name returns the task name, used for logging.
	Name() string
}

// Metrics contains the metrics of a Runner. All fields are optional.
type Metrics struct {
	Events    func(string) metrics.Counter
	Period    metrics.Gauge
	Runtime   metrics.Gauge
	StartTime metrics.Gauge
}

func (m *Metrics) event(e string) metrics.Counter {
	if m == nil || m.Events == nil {
		return nil
	}
	return m.Events(e)
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
	logger       log.Logger
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context of every run. It can be larger than
// the period, in which case a slow run is immediately followed by the next.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is like Start but reports to m.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	logger := log.New("task", task.Name())
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          log.CtxWith(ctx, logger),
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
		logger:       logger,
	}
	if m != nil {
		metrics.GaugeSet(m.Period, period.Seconds())
		metrics.GaugeSet(m.StartTime, float64(time.Now().Unix()))
	}
	logger.Info("Starting periodic task", "period", period, "timeout", timeout)
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the periodic execution of the Runner. If the task is currently
// running, Stop blocks until it is done.
func (r *Runner) Stop() {
	r.ticker.Stop()
	close(r.stop)
	<-r.loopFinished
	metrics.CounterInc(r.metrics.event(EventStop))
	r.logger.Info("Stopped periodic task")
}

// Kill is like Stop but it also cancels the context of the current run.
func (r *Runner) Kill() {
	r.ticker.Stop()
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	metrics.CounterInc(r.metrics.event(EventKill))
	r.logger.Info("Killed periodic task")
}

// TriggerRun runs the task now without shifting the regular schedule. It
// blocks until the run started or the runner was stopped.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
		metrics.CounterInc(r.metrics.event(EventTrigger))
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.cancelF()
	r.onTick()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	// stop takes precedence if both channels are ready.
	select {
	case <-r.stop:
		return
	default:
	}
	ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
	start := time.Now()
	r.task.Run(ctx)
	cancelF()
	if r.metrics != nil {
		metrics.GaugeSet(r.metrics.Runtime, time.Since(start).Seconds())
	}
}
