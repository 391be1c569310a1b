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

package upstream

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

// UpstreamState is a snapshot of a cached upstream and its feedback state.
type UpstreamState struct {
	Upstream        Upstream  `json:"upstream"`
	Failures        int       `json:"failures"`
	EffectiveWeight float64   `json:"effective_weight"`
	LastSampled     time.Time `json:"last_sampled,omitzero"`
}

// PoolOption configures a Pool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	group   string
	logger  log.Logger
	metrics Metrics
}

// WithGroup sets the type that the pool serves. It is used for logging, errors
// and metric labels.
func WithGroup(group string) PoolOption {
	return func(o *poolOptions) {
		o.group = group
	}
}

// WithLogger sets the logger of the pool.
func WithLogger(logger log.Logger) PoolOption {
	return func(o *poolOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics of the pool.
func WithMetrics(m Metrics) PoolOption {
	return func(o *poolOptions) {
		o.metrics = m
	}
}

// Pool selects upstreams of a single type. It is safe for concurrent use.
type Pool struct {
	load    LoadFunc
	cfg     PoolConfig
	group   string
	logger  log.Logger
	metrics poolMetrics

	// now and random are replaced in tests.
	now    func() time.Time
	random func() float64

	loads singleflight.Group

	mtx sync.Mutex
	// cache is the last loaded snapshot, in load order.
	cache []Upstream
	// cached holds the keys of cache.
	cached      map[string]struct{}
	failures    map[string]int
	lastSampled map[string]time.Time
	// effective holds the decayed weights. Missing entries default to the
	// configured weight. Entries of removed upstreams are not purged.
	effective map[string]float64
	expiresAt time.Time
}

// NewPool creates a pool that loads its upstreams with load. It panics if cfg
// is invalid.
func NewPool(load LoadFunc, cfg PoolConfig, opts ...PoolOption) *Pool {
	if err := cfg.Validate(); err != nil {
		panic(serrors.Wrap("invalid pool config", err))
	}
	o := poolOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.Root()
	}
	return &Pool{
		load:        load,
		cfg:         cfg,
		group:       o.group,
		logger:      logger.New("type", o.group),
		metrics:     o.metrics.pool(o.group),
		now:         time.Now,
		random:      rand.Float64,
		cached:      make(map[string]struct{}),
		failures:    make(map[string]int),
		lastSampled: make(map[string]time.Time),
		effective:   make(map[string]float64),
	}
}

// Config returns the configuration of the pool.
func (p *Pool) Config() PoolConfig {
	return p.cfg
}

// Sample selects an upstream. If the snapshot expired, it is reloaded first;
// load errors are returned wrapped. Candidates are filtered by hint and drawn
// at random proportionally to their effective weight. If the selected
// upstream was sampled less than its interval ago, Sample waits for the
// remainder. If ctx is done during the wait, ctx.Err() is returned and the
// selection is not recorded.
//
// ErrNoUpstream is returned if the snapshot is empty.
func (p *Pool) Sample(ctx context.Context, hint *Hint) (Upstream, error) {
	if err := p.sync(ctx); err != nil {
		p.metrics.sample(resultLoad)
		return Upstream{}, err
	}

	p.mtx.Lock()
	u, err := p.draw(hint)
	if err != nil {
		p.mtx.Unlock()
		p.metrics.sample(resultNotFound)
		return Upstream{}, err
	}
	key := u.ID.String()
	var wait time.Duration
	if last, ok := p.lastSampled[key]; ok {
		wait = last.Add(u.MinInterval()).Sub(p.now())
	}
	p.mtx.Unlock()

	if wait > 0 {
		p.logger.Debug("Waiting for upstream interval", "id", u.ID, "wait", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.metrics.sample(resultCanceled)
			return Upstream{}, ctx.Err()
		case <-timer.C:
		}
		p.metrics.observeWait(wait)
	}

	p.mtx.Lock()
	// A refresh during the wait may have removed the upstream.
	if _, ok := p.cached[key]; ok {
		p.lastSampled[key] = p.now()
	}
	p.mtx.Unlock()
	p.metrics.sample(resultOk)
	return u, nil
}

// Succeed reports a successful request to the upstream with the given ID. It
// resets the failure count and restores the configured weight. It panics if
// the upstream is not in the current snapshot.
func (p *Pool) Succeed(id ID) {
	if err := p.Report(id, true); err != nil {
		panic(err)
	}
}

// Fail reports a failed request to the upstream with the given ID. Once the
// failure count reaches MinFailures, every failure multiplies the effective
// weight by Decay. It panics if the upstream is not in the current snapshot.
func (p *Pool) Fail(id ID) {
	if err := p.Report(id, false); err != nil {
		panic(err)
	}
}

// Report is like Succeed or Fail, depending on success, but returns an error
// wrapping ErrUnknownUpstream instead of panicking if the upstream is not in
// the current snapshot.
func (p *Pool) Report(id ID, success bool) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	u, ok := p.lookup(id)
	if !ok {
		return serrors.JoinNoStack(ErrUnknownUpstream, nil, "type", p.group, "id", id)
	}
	key := id.String()
	if success {
		p.failures[key] = 0
		p.effective[key] = u.Weight
		p.metrics.feedbackKind(kindSucceed)
		return nil
	}
	p.failures[key]++
	if p.failures[key] >= p.cfg.MinFailures {
		w := p.weight(u) * p.cfg.Decay
		p.effective[key] = w
		p.logger.Debug("Decayed upstream weight", "id", id,
			"failures", p.failures[key], "weight", w)
	}
	p.metrics.feedbackKind(kindFail)
	return nil
}

// States returns the current snapshot together with the feedback state of
// every upstream, in load order.
func (p *Pool) States() []UpstreamState {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	states := make([]UpstreamState, 0, len(p.cache))
	for _, u := range p.cache {
		key := u.ID.String()
		states = append(states, UpstreamState{
			Upstream:        u,
			Failures:        p.failures[key],
			EffectiveWeight: p.weight(u),
			LastSampled:     p.lastSampled[key],
		})
	}
	return states
}

// sync reloads the snapshot if it expired. Concurrent callers share one load.
// A caller that observed the expiry just before the winner stored its result
// starts another load, which is harmless.
func (p *Pool) sync(ctx context.Context) error {
	p.mtx.Lock()
	fresh := p.now().Before(p.expiresAt)
	p.mtx.Unlock()
	if fresh {
		return nil
	}

	// The shared load must outlive the caller that started it. Every caller
	// stops waiting when its own context is done.
	loadCtx := context.WithoutCancel(ctx)
	ch := p.loads.DoChan("load", func() (any, error) {
		upstreams, err := p.load(loadCtx)
		if err != nil {
			return nil, err
		}
		p.replace(upstreams)
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return serrors.Wrap("waiting for upstreams", ctx.Err(), "type", p.group)
	case r := <-ch:
		if r.Err != nil {
			p.metrics.refresh(resultLoad)
			p.logger.Error("Failed to load upstreams", "err", r.Err)
			return serrors.Wrap("loading upstreams", r.Err, "type", p.group)
		}
	}
	p.metrics.refresh(resultOk)
	return nil
}

func (p *Pool) replace(upstreams []Upstream) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	cached := make(map[string]struct{}, len(upstreams))
	for _, u := range upstreams {
		cached[u.ID.String()] = struct{}{}
	}
	for key := range p.cached {
		if _, ok := cached[key]; !ok {
			delete(p.failures, key)
			delete(p.lastSampled, key)
		}
	}
	p.cache = append([]Upstream(nil), upstreams...)
	p.cached = cached
	p.expiresAt = p.now().Add(p.cfg.TTL.Duration)
	p.logger.Debug("Refreshed upstreams", "upstreams", len(upstreams),
		"expires_at", p.expiresAt)
}

// draw performs the weighted draw. The caller must hold the lock.
func (p *Pool) draw(hint *Hint) (Upstream, error) {
	candidates := p.candidates(hint)
	if len(candidates) == 0 {
		return Upstream{}, serrors.JoinNoStack(ErrNoUpstream, nil,
			"type", p.group, "hint", hint)
	}
	var total float64
	for _, u := range candidates {
		total += p.weight(u)
	}
	// With a total of 0 the first candidate is selected.
	remainder := p.random() * total
	for _, u := range candidates {
		remainder -= p.weight(u)
		if remainder <= 0 {
			return u, nil
		}
	}
	return Upstream{}, serrors.JoinNoStack(ErrNoUpstream, nil,
		"type", p.group, "hint", hint, "total_weight", total)
}

// candidates filters the snapshot by hint. If nothing passes the filter, the
// full snapshot is returned.
func (p *Pool) candidates(hint *Hint) []Upstream {
	if hint == nil {
		return p.cache
	}
	var filtered []Upstream
	for _, u := range p.cache {
		if hint.matches(u) {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) == 0 {
		return p.cache
	}
	return filtered
}

func (p *Pool) weight(u Upstream) float64 {
	if w, ok := p.effective[u.ID.String()]; ok {
		return w
	}
	return u.Weight
}

func (p *Pool) lookup(id ID) (Upstream, bool) {
	for _, u := range p.cache {
		if u.ID == id {
			return u, true
		}
	}
	return Upstream{}, false
}
