// Package ibl is the public surface of the Instance-Based Learning
// decision-making core: an Agent accumulates instances of (context,
// decision, outcome) and, when asked to choose among candidate options,
// computes a blended value for each from activation-weighted remembered
// outcomes.
package ibl

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/rogerlew/goibl/internal/activation"
	"github.com/rogerlew/goibl/internal/blend"
	"github.com/rogerlew/goibl/internal/instance"
	"github.com/rogerlew/goibl/internal/tracesink"
)

// ChunkDetail is one contributing chunk's diagnostic breakdown for a
// single option in a single Choose/Choose2 call (spec §4.5 "details").
type ChunkDetail struct {
	ChunkID        int64
	Created        int64
	References     []int64
	BaseActivation float64
	Noise          float64
	Activation     float64
	Probability    float64
}

// OptionDetail is the per-option record kept by Details() after a
// Choose/Choose2 call with details or trace enabled.
type OptionDetail struct {
	Option       any
	Contributing []ChunkDetail
	BlendedValue float64
}

type pendingChoice struct {
	attrs      instance.Tuple
	expectedBV float64
	t          int64
}

// Agent ties attributes, parameters, clock, default utility, and
// prepopulation to the choose/respond state machine (spec component C5).
// An Agent is not safe for concurrent use by multiple goroutines at once
// (spec §5: single-threaded cooperative per agent); the mutex below
// guards against accidental concurrent misuse rather than expressing an
// intended concurrency model.
type Agent struct {
	mu sync.Mutex

	id     uuid.UUID
	name   string
	schema []string

	store        *instance.Store
	clock        int64
	hasLivedData bool

	noise                   float64
	decay                   float64
	temperature             *float64
	mismatchPenalty         *float64
	defaultUtility          *float64
	defaultUtilityPopulates bool
	optimizedLearning       bool

	rng *rand.Rand

	pending *pendingChoice

	detailsEnabled bool
	traceEnabled   bool
	lastDetails    []OptionDetail

	logger *zap.Logger
	sink   tracesink.Sink
}

// Option configures an Agent at construction time.
type Option func(*Agent) error

// WithNoise sets the noise parameter (spec §3 default 0.25).
func WithNoise(noise float64) Option {
	return func(a *Agent) error { a.noise = noise; return nil }
}

// WithDecay sets the decay parameter (spec §3 default 0.5).
func WithDecay(decay float64) Option {
	return func(a *Agent) error { a.decay = decay; return nil }
}

// WithTemperature sets an explicit blending temperature, overriding the
// noise*sqrt(2) default (spec §3).
func WithTemperature(tau float64) Option {
	return func(a *Agent) error { a.temperature = &tau; return nil }
}

// WithMismatchPenalty enables partial matching with scale mu (spec §3).
func WithMismatchPenalty(mu float64) Option {
	return func(a *Agent) error { a.mismatchPenalty = &mu; return nil }
}

// WithDefaultUtility sets the utility used when an option matches no
// chunk (spec §3).
func WithDefaultUtility(u float64) Option {
	return func(a *Agent) error { a.defaultUtility = &u; return nil }
}

// WithDefaultUtilityPopulates controls whether a synthesized default-
// utility chunk is actually inserted into the store (spec §3, default
// true).
func WithDefaultUtilityPopulates(populates bool) Option {
	return func(a *Agent) error { a.defaultUtilityPopulates = populates; return nil }
}

// WithOptimizedLearning enables the optimized-learning base-level
// approximation (spec §3, default false).
func WithOptimizedLearning(enabled bool) Option {
	return func(a *Agent) error { a.optimizedLearning = enabled; return nil }
}

// WithSeed seeds the agent's private RNG for reproducible noise draws
// and tie-breaking (spec §5).
func WithSeed(seed uint64) Option {
	return func(a *Agent) error { a.rng = rand.New(rand.NewSource(seed)); return nil }
}

// WithLogger attaches a structured logger, replacing the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// NewAgent constructs an Agent with the given name and declared attribute
// schema (spec §3; an empty schema yields the single synthetic _decision
// attribute). Parameters default per spec §3 and may be overridden by
// opts.
func NewAgent(name string, schema []string, opts ...Option) (*Agent, error) {
	a := &Agent{
		id:                      uuid.New(),
		name:                    name,
		schema:                  append([]string(nil), schema...),
		store:                   instance.NewStore(),
		noise:                   0.25,
		decay:                   0.5,
		defaultUtilityPopulates: true,
		rng:                     rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		logger:                  zap.NewNop(),
		sink:                    tracesink.NopSink{},
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if err := a.validateParams(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Agent) validateParams() error {
	if a.noise < 0 {
		return fmt.Errorf("%w: noise must be >= 0, got %g", ErrParameter, a.noise)
	}
	if a.decay < 0 {
		return fmt.Errorf("%w: decay must be >= 0, got %g", ErrParameter, a.decay)
	}
	if a.optimizedLearning && a.decay >= 1 {
		return fmt.Errorf("%w: decay must be < 1 under optimized learning, got %g", ErrParameter, a.decay)
	}
	if a.temperature != nil && *a.temperature <= 0 {
		return fmt.Errorf("%w: temperature must be > 0, got %g", ErrParameter, *a.temperature)
	}
	if a.mismatchPenalty != nil && *a.mismatchPenalty < 0 {
		return fmt.Errorf("%w: mismatch penalty must be >= 0, got %g", ErrParameter, *a.mismatchPenalty)
	}
	return nil
}

// ID returns the agent's process-unique identity, used to tag log fields
// and trace records when many agents run concurrently (spec §5).
func (a *Agent) ID() uuid.UUID { return a.id }

// Name returns the agent's constructor-supplied name.
func (a *Agent) Name() string { return a.name }

// SetLogger replaces the agent's structured logger.
func (a *Agent) SetLogger(logger *zap.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	a.logger = logger
}

// SetTraceSink attaches a sink receiving per-chunk diagnostic records
// whenever details or trace is enabled (spec §A1). A nil sink reverts to
// the no-op default.
func (a *Agent) SetTraceSink(sink tracesink.Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sink == nil {
		sink = tracesink.NopSink{}
	}
	a.sink = sink
}

// SetDetails toggles structured per-call diagnostic recording (spec
// §4.5). Disabled by default so normal execution allocates nothing extra
// (spec §9).
func (a *Agent) SetDetails(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detailsEnabled = enabled
}

// SetTrace toggles human-readable tabular printing of the same per-call
// detail (spec §4.5).
func (a *Agent) SetTrace(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.traceEnabled = enabled
}

// Details returns the OptionDetail records from the most recent
// Choose/Choose2 call, if details or trace was enabled for it.
func (a *Agent) Details() []OptionDetail {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastDetails
}

// Noise returns the current noise parameter.
func (a *Agent) Noise() float64 { a.mu.Lock(); defer a.mu.Unlock(); return a.noise }

// SetNoise updates the noise parameter.
func (a *Agent) SetNoise(noise float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if noise < 0 {
		return fmt.Errorf("%w: noise must be >= 0, got %g", ErrParameter, noise)
	}
	a.noise = noise
	return nil
}

// Decay returns the current decay parameter.
func (a *Agent) Decay() float64 { a.mu.Lock(); defer a.mu.Unlock(); return a.decay }

// SetDecay updates the decay parameter.
func (a *Agent) SetDecay(decay float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if decay < 0 {
		return fmt.Errorf("%w: decay must be >= 0, got %g", ErrParameter, decay)
	}
	if a.optimizedLearning && decay >= 1 {
		return fmt.Errorf("%w: decay must be < 1 under optimized learning, got %g", ErrParameter, decay)
	}
	a.decay = decay
	return nil
}

// Temperature returns the effective blending temperature: the explicit
// value if set, else noise*sqrt(2) (spec §3, §8 "temperature default").
// With noise 0 and no explicit temperature, 1 is used, since blending
// requires a positive temperature.
func (a *Agent) Temperature() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.temperatureOrDefault()
}

func (a *Agent) temperatureOrDefault() float64 {
	if a.temperature != nil {
		return *a.temperature
	}
	if a.noise == 0 {
		return 1
	}
	return a.noise * math.Sqrt2
}

// SetTemperature sets an explicit blending temperature, or clears it
// (reverting to the noise*sqrt(2) default) when tau is nil.
func (a *Agent) SetTemperature(tau *float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tau != nil && *tau <= 0 {
		return fmt.Errorf("%w: temperature must be > 0, got %g", ErrParameter, *tau)
	}
	a.temperature = tau
	return nil
}

// MismatchPenalty returns the current mismatch penalty, or nil if partial
// matching is disabled.
func (a *Agent) MismatchPenalty() *float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mismatchPenalty
}

// SetMismatchPenalty sets (or, with nil, clears) the mismatch penalty.
func (a *Agent) SetMismatchPenalty(mu *float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mu != nil && *mu < 0 {
		return fmt.Errorf("%w: mismatch penalty must be >= 0, got %g", ErrParameter, *mu)
	}
	a.mismatchPenalty = mu
	return nil
}

// DefaultUtility returns the current default utility, or nil if unset.
func (a *Agent) DefaultUtility() *float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.defaultUtility
}

// SetDefaultUtility sets (or, with nil, clears) the default utility.
func (a *Agent) SetDefaultUtility(u *float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultUtility = u
}

// DefaultUtilityPopulates reports whether a synthesized default-utility
// chunk is inserted into the store.
func (a *Agent) DefaultUtilityPopulates() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.defaultUtilityPopulates
}

// SetDefaultUtilityPopulates sets DefaultUtilityPopulates.
func (a *Agent) SetDefaultUtilityPopulates(populates bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultUtilityPopulates = populates
}

// OptimizedLearning reports whether optimized learning is enabled.
func (a *Agent) OptimizedLearning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.optimizedLearning
}

// SetOptimizedLearning enables or disables optimized learning. Enabling
// it is rejected once the store already holds a chunk with a full
// reference-time history, per this implementation's resolution of the
// spec's open question on switching optimized learning on mid-run (spec
// §9): collapsing existing histories is not supported, so the switch is
// simply forbidden once ambiguous.
func (a *Agent) SetOptimizedLearning(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if enabled && !a.optimizedLearning {
		for _, c := range a.store.Enumerate() {
			if !c.Optimized {
				return fmt.Errorf("%w: cannot enable optimized learning once non-optimized chunks exist", ErrParameter)
			}
		}
	}
	a.optimizedLearning = enabled
	return nil
}

// Time returns the agent's current clock value.
func (a *Agent) Time() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock
}

// Instances returns a snapshot of every live chunk, in insertion order
// (spec §4.5 "instances()", §6 compatibility surface).
func (a *Agent) Instances() []Instance {
	a.mu.Lock()
	defer a.mu.Unlock()
	snaps := a.store.Snapshots()
	out := make([]Instance, len(snaps))
	for i, s := range snaps {
		out[i] = instanceFromSnapshot(s)
	}
	return out
}

// Populate inserts one chunk at time 0, or at the current clock if the
// agent has already ticked (spec §4.5 "populate").
func (a *Agent) Populate(outcome float64, opt any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	attrs, err := canonicalize(a.schema, opt)
	if err != nil {
		return err
	}
	t := int64(0)
	if a.clock > 0 {
		t = a.clock
	}
	a.store.Insert(attrs, outcome, t, a.optimizedLearning, !a.hasLivedData)
	return nil
}

// PopulateAt inserts one chunk at the caller-chosen time t, which must
// not exceed the current clock (spec §4.5 "populate_at").
func (a *Agent) PopulateAt(outcome float64, opt any, t int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t > a.clock {
		return fmt.Errorf("%w: populate_at time %d exceeds current clock %d", ErrParameter, t, a.clock)
	}
	attrs, err := canonicalize(a.schema, opt)
	if err != nil {
		return err
	}
	a.store.Insert(attrs, outcome, t, a.optimizedLearning, !a.hasLivedData)
	return nil
}

// Reset clears pending state, resets the clock to 0, and either empties
// the store or retains prepopulated chunks at their original times
// (spec §4.5 "reset").
func (a *Agent) Reset(preservePrepopulated bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil
	a.clock = 0
	a.hasLivedData = false
	a.store.Clear(preservePrepopulated)
}

type optionEval struct {
	attrs       instance.Tuple
	candidates  []blend.Candidate
	details     []ChunkDetail
	usedDefault bool
}

func (a *Agent) activationParams() activation.Params {
	return activation.Params{
		Noise:             a.noise,
		Decay:             a.decay,
		MismatchPenalty:   a.mismatchPenalty,
		OptimizedLearning: a.optimizedLearning,
	}
}

func (a *Agent) evaluateOption(attrs instance.Tuple, now int64) optionEval {
	params := a.activationParams()
	ev := optionEval{attrs: attrs}
	for _, c := range a.store.Enumerate() {
		res, ok := activation.Compute(c, attrs, now, params, a.rng)
		if !ok {
			continue
		}
		ev.candidates = append(ev.candidates, blend.Candidate{Utility: c.Utility, Activation: res.Value})
		if !a.detailsEnabled && !a.traceEnabled {
			continue
		}
		ev.details = append(ev.details, ChunkDetail{
			ChunkID:        c.ID,
			Created:        c.Created,
			References:     append([]int64(nil), c.References...),
			BaseActivation: res.Base,
			Noise:          res.Noise,
			Activation:     res.Value,
		})
	}
	return ev
}

// score implements spec §4.5 steps 1-4: advance the clock, canonicalize
// and evaluate every option, apply the default-utility rule to empty
// matches, blend, and pick the greatest blended value with a uniform
// random tie-break.
func (a *Agent) score(options []any) (int, []float64, []optionEval, error) {
	a.clock++
	a.hasLivedData = true
	t := a.clock

	tau := a.temperatureOrDefault()

	evals := make([]optionEval, len(options))
	bvs := make([]float64, len(options))

	for i, opt := range options {
		attrs, err := canonicalize(a.schema, opt)
		if err != nil {
			return 0, nil, nil, err
		}
		ev := a.evaluateOption(attrs, t)

		if len(ev.candidates) == 0 {
			if a.defaultUtility == nil {
				return 0, nil, nil, fmt.Errorf("%w: option %d has no matching chunk and no default utility", ErrNoData, i)
			}
			du := *a.defaultUtility
			if a.defaultUtilityPopulates {
				a.store.Insert(attrs, du, t, a.optimizedLearning, false)
			}
			// A synthesized default chunk's sole reference would sit at
			// exactly t_now and be excluded by the normal activation
			// formula (no strictly-past elapsed time), yet it is the
			// only candidate: a single-candidate softmax always yields
			// probability 1 regardless of activation, so it is treated
			// as a bypass candidate rather than run through Compute.
			ev.candidates = []blend.Candidate{{Utility: du, Activation: 0}}
			if a.detailsEnabled || a.traceEnabled {
				ev.details = []ChunkDetail{{Created: t, References: []int64{t}, Probability: 1}}
			}
			ev.usedDefault = true
		}

		result, err := blend.Compute(ev.candidates, tau)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("%w: %v", ErrParameter, err)
		}
		if !ev.usedDefault {
			for j := range ev.details {
				ev.details[j].Probability = result.Probabilities[j]
			}
		}

		evals[i] = ev
		bvs[i] = result.Value
	}

	best := bvs[0]
	ties := []int{0}
	for i := 1; i < len(bvs); i++ {
		switch {
		case bvs[i] > best:
			best = bvs[i]
			ties = ties[:0]
			ties = append(ties, i)
		case bvs[i] == best:
			ties = append(ties, i)
		}
	}
	chosen := ties[0]
	if len(ties) > 1 {
		chosen = ties[a.rng.Intn(len(ties))]
	}

	return chosen, bvs, evals, nil
}

// Choose selects among options, each either a map[string]any keyed by the
// declared schema or (for a single-attribute or empty schema) a raw
// value (spec §4.5 "choose protocol"). It is an error to call Choose
// while a synchronous response is pending.
func (a *Agent) Choose(options ...any) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(options) == 0 {
		return nil, fmt.Errorf("%w: choose requires at least one option", ErrSchema)
	}
	if a.pending != nil {
		return nil, fmt.Errorf("%w: choose called while a response is pending", ErrProtocol)
	}

	chosenIdx, bvs, evals, err := a.score(options)
	if err != nil {
		return nil, err
	}

	a.pending = &pendingChoice{
		attrs:      evals[chosenIdx].attrs,
		expectedBV: bvs[chosenIdx],
		t:          a.clock,
	}

	a.emitTrace(a.clock, options, evals, bvs)
	return options[chosenIdx], nil
}

// Choose2 selects among options like Choose, but immediately inserts a
// placeholder chunk carrying the expected blended value as provisional
// utility and returns a DelayedResponse handle for later resolution
// (spec §4.5 "choose2 / delayed feedback"). Unlike Choose, it never
// leaves a synchronous response pending.
func (a *Agent) Choose2(options ...any) (any, *DelayedResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(options) == 0 {
		return nil, nil, fmt.Errorf("%w: choose2 requires at least one option", ErrSchema)
	}
	if a.pending != nil {
		return nil, nil, fmt.Errorf("%w: choose2 called while a synchronous response is pending", ErrProtocol)
	}

	chosenIdx, bvs, evals, err := a.score(options)
	if err != nil {
		return nil, nil, err
	}

	attrs := evals[chosenIdx].attrs
	expected := bvs[chosenIdx]
	chooseTick := a.clock

	a.clock++
	responseTime := a.clock
	a.store.Insert(attrs, expected, responseTime, a.optimizedLearning, false)

	a.emitTrace(chooseTick, options, evals, bvs)

	dr := &DelayedResponse{
		agent:        a,
		attrs:        attrs,
		expectation:  expected,
		responseTime: responseTime,
	}
	return options[chosenIdx], dr, nil
}

// Respond resolves the pending choice by advancing the clock and
// inserting a chunk for the chosen attributes with outcome as utility
// (spec §4.5 "respond protocol").
func (a *Agent) Respond(outcome float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return fmt.Errorf("%w: respond called with no pending choice", ErrProtocol)
	}
	a.clock++
	a.store.Insert(a.pending.attrs, outcome, a.clock, a.optimizedLearning, false)
	a.pending = nil
	return nil
}

// RespondExpected resolves the pending choice using the blended value
// computed during Choose as the recorded outcome, i.e.
// respond(outcome, expected_only=True) with outcome omitted in favor of
// the expectation (spec §4.5).
func (a *Agent) RespondExpected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return fmt.Errorf("%w: respond called with no pending choice", ErrProtocol)
	}
	a.clock++
	a.store.Insert(a.pending.attrs, a.pending.expectedBV, a.clock, a.optimizedLearning, false)
	a.pending = nil
	return nil
}

// RespondDeferred turns the pending choice from a synchronous Choose into
// a delayed one, i.e. respond() called with its outcome omitted (spec
// §4.5, §6 "respond | outcome?, ... | DelayedResponse if outcome
// omitted"). It advances the clock, inserts a placeholder chunk carrying
// the expected blended value as provisional utility, and returns a
// DelayedResponse handle for later resolution — the same placeholder
// mechanism Choose2 sets up immediately, reachable here after the caller
// has already committed to a plain Choose.
func (a *Agent) RespondDeferred() (*DelayedResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return nil, fmt.Errorf("%w: respond called with no pending choice", ErrProtocol)
	}
	attrs := a.pending.attrs
	expected := a.pending.expectedBV

	a.clock++
	responseTime := a.clock
	a.store.Insert(attrs, expected, responseTime, a.optimizedLearning, false)
	a.pending = nil

	return &DelayedResponse{
		agent:        a,
		attrs:        attrs,
		expectation:  expected,
		responseTime: responseTime,
	}, nil
}
