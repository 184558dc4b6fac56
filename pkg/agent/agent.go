// Package agent holds the process-wide protection state: the operating mode,
// the outbound hostnames seen so far and the per-sink statistics. Every
// detection is reported here and this is where block or allow is decided.
package agent

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/utils"
	"github.com/NeuralTrust/TrustShield/pkg/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Block             bool
	Token             api.Token
	API               api.API
	Logger            *logrus.Logger
	Serverless        bool
	Env               string
	HeartbeatInterval time.Duration
	Workers           int
	QueueSize         int
	Metrics           bool
	TimeProvider      func() time.Time
}

type Agent struct {
	id        string
	block     bool
	token     api.Token
	api       api.API
	logger    *logrus.Logger
	opts      Options
	now       func() time.Time
	stats     *stats
	hostnames *Hostnames
	host      hostInfo

	mu          sync.Mutex
	started     bool
	interceptor *hooks.Interceptor
	packages    map[string]string
	worker      *reportWorker
	stopLoop    context.CancelFunc
}

var _ hooks.Agent = (*Agent)(nil)

func New(opts Options) *Agent {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	now := opts.TimeProvider
	if now == nil {
		now = time.Now
	}
	return &Agent{
		id:        uuid.NewString(),
		block:     opts.Block,
		token:     opts.Token,
		api:       opts.API,
		logger:    logger,
		opts:      opts,
		now:       now,
		stats:     newStats(now()),
		hostnames: NewHostnames(common.MaxHostnames),
		host:      collectHostInfo(),
		packages:  map[string]string{},
	}
}

// ID identifies this agent instance in logs.
func (a *Agent) ID() string {
	return a.id
}

// Start registers wrappers and reports the agent as started. It may be
// called more than once; later calls only reset the statistics and return
// the interceptor built on the first call.
func (a *Agent) Start(ctx context.Context, wrappers []hooks.Wrapper) *hooks.Interceptor {
	a.mu.Lock()
	a.stats.reset(a.now())
	if a.interceptor == nil {
		h := hooks.New()
		for _, w := range wrappers {
			w.Wrap(h)
		}
		a.interceptor = hooks.NewInterceptor(h, a, a.logger)
		a.packages = packageVersions(h)
	}
	interceptor := a.interceptor
	if a.started {
		a.mu.Unlock()
		return interceptor
	}
	a.started = true

	a.worker = newReportWorker(a.logger, a.opts.QueueSize)
	a.worker.StartWorkers(a.opts.Workers)

	a.logger.WithFields(logrus.Fields{
		"agent":    a.id,
		"version":  version.Version,
		"blocking": a.block,
		"modules":  len(a.packages),
	}).Info("starting agent")

	var loopCtx context.Context
	if a.opts.HeartbeatInterval > 0 {
		loopCtx, a.stopLoop = context.WithCancel(ctx)
	}
	a.mu.Unlock()

	a.enqueue(&types.StartedEvent{Envelope: a.envelope()})
	if loopCtx != nil {
		go a.StartHeartbeat(loopCtx)
	}
	return interceptor
}

// Stop ends the heartbeat loop and waits for queued reports to finish.
func (a *Agent) Stop() {
	a.mu.Lock()
	worker := a.worker
	stopLoop := a.stopLoop
	a.worker = nil
	a.stopLoop = nil
	a.started = false
	a.mu.Unlock()

	if stopLoop != nil {
		stopLoop()
	}
	if worker != nil {
		worker.Shutdown()
	}
}

// Flush waits until every queued report has been handed to the API.
func (a *Agent) Flush() {
	a.mu.Lock()
	worker := a.worker
	a.mu.Unlock()
	if worker != nil {
		worker.Wait()
	}
}

func (a *Agent) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

func (a *Agent) Interceptor() *hooks.Interceptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interceptor
}

func (a *Agent) ShouldBlock() bool {
	return a.block
}

func (a *Agent) OnDetectedAttack(ctx context.Context, attack types.Attack) {
	a.stats.onDetectedAttack(attack.Module, attack.Blocked)
	if a.opts.Metrics {
		prometheus.AttacksDetectedTotal.WithLabelValues(
			attack.Module,
			string(attack.Kind),
			strconv.FormatBool(attack.Blocked),
		).Inc()
	}

	a.logger.WithFields(logrus.Fields{
		"module":    attack.Module,
		"operation": attack.Operation,
		"kind":      attack.Kind,
		"blocked":   attack.Blocked,
		"source":    attack.Source,
		"path":      attack.Path,
	}).Warn("attack detected")

	a.enqueue(a.detectedAttackEvent(attack))
}

func (a *Agent) detectedAttackEvent(attack types.Attack) *types.DetectedAttackEvent {
	evt := &types.DetectedAttackEvent{
		Envelope: a.envelope(),
		Request:  types.NewAttackRequest(attack.Request),
		Attack:   attack,
	}
	if evt.Request != nil && attack.Request != nil {
		evt.Request.Client = utils.ParseUserAgent(
			attack.Request.Header("user-agent"),
			attack.Request.Header("accept-language"),
		)
	}
	return evt
}

func (a *Agent) OnConnectHostname(hostname string, port uint32) {
	if hostname == "" {
		return
	}
	a.hostnames.Add(hostname, port)
	if a.opts.Metrics {
		prometheus.Hostnames.Set(float64(a.hostnames.Len()))
	}
}

func (a *Agent) OnInspectedCall(module string, withoutContext, blocked bool) {
	a.stats.onInspectedCall(module, withoutContext, blocked)
	if !a.opts.Metrics || !prometheus.Config.EnableSinkCalls {
		return
	}
	outcome := "allowed"
	switch {
	case blocked:
		outcome = "blocked"
	case withoutContext:
		outcome = "without_context"
	}
	prometheus.SinkCallsTotal.WithLabelValues(module, outcome).Inc()
}

func (a *Agent) OnInterceptorError(module, method string, err error) {
	a.stats.onInterceptorError(module)
	a.logger.WithFields(logrus.Fields{
		"module": module,
		"method": method,
	}).WithError(err).Debug("interceptor error recorded")
}

// OnRequest counts an inbound request handled under protection.
func (a *Agent) OnRequest() {
	a.stats.onRequest()
}

func (a *Agent) Hostnames() *Hostnames {
	return a.hostnames
}

// Stats returns a copy of the counters collected since Start.
func (a *Agent) Stats() types.HeartbeatStats {
	return a.stats.snapshot(a.now())
}

// Info describes this agent as it appears in every reported event.
func (a *Agent) Info() types.AgentInfo {
	a.mu.Lock()
	packages := make(map[string]string, len(a.packages))
	for k, v := range a.packages {
		packages[k] = v
	}
	a.mu.Unlock()

	return types.AgentInfo{
		Version:    version.Version,
		DryMode:    !a.block,
		Hostname:   a.host.hostname,
		Packages:   packages,
		IPAddress:  a.host.ipAddress,
		NodeEnv:    a.opts.Env,
		OS:         types.OSInfo{Name: a.host.osName, Version: a.host.osVersion},
		Serverless: a.opts.Serverless,
	}
}

func (a *Agent) envelope() types.Envelope {
	return types.Envelope{
		Time:  a.now().UnixMilli(),
		Agent: a.Info(),
	}
}

// Heartbeat reports a snapshot of the statistics and hostnames collected
// since Start. Counters keep accumulating across heartbeats.
func (a *Agent) Heartbeat(ctx context.Context) (api.ReportingResult, error) {
	evt := &types.HeartbeatEvent{
		Envelope:  a.envelope(),
		Stats:     a.stats.snapshot(a.now()),
		Hostnames: a.hostnames.AsArray(),
	}
	return a.report(ctx, evt)
}

// StartHeartbeat sends a heartbeat every interval until ctx is done.
func (a *Agent) StartHeartbeat(ctx context.Context) {
	interval := a.opts.HeartbeatInterval
	if interval <= 0 {
		interval = common.DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Heartbeat(ctx); err != nil {
				a.logger.WithError(err).Warn("failed to send heartbeat")
			}
		}
	}
}

func (a *Agent) enqueue(evt types.Event) {
	a.mu.Lock()
	worker := a.worker
	a.mu.Unlock()
	if a.api == nil || worker == nil {
		return
	}
	worker.enqueueTask(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, common.DefaultReportTimeout)
		defer cancel()
		if _, err := a.report(ctx, evt); err != nil {
			a.logger.WithError(err).WithField("event", evt.Type()).Warn("failed to report event")
		}
	}, string(evt.Type()))
}

func (a *Agent) report(ctx context.Context, evt types.Event) (api.ReportingResult, error) {
	if a.api == nil {
		return api.Failed(api.ErrorUnknown), nil
	}
	result, err := a.api.Report(ctx, a.token, evt)
	if a.opts.Metrics && prometheus.Config.EnableReports {
		label := "success"
		switch {
		case err != nil:
			label = "error"
		case !result.Success:
			label = result.Error
		}
		prometheus.ReportsTotal.WithLabelValues(string(evt.Type()), label).Inc()
	}
	if err == nil && !result.Success {
		a.logger.WithFields(logrus.Fields{
			"event":  evt.Type(),
			"reason": result.Error,
		}).Debug("event not accepted")
	}
	return result, err
}
