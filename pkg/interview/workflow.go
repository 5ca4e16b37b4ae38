// SPDX-License-Identifier: Apache-2.0

package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/planwright/planwright/pkg/core"
	"github.com/planwright/planwright/pkg/errors"
	"github.com/planwright/planwright/pkg/llm"
	"github.com/planwright/planwright/pkg/masterplan"
	"github.com/planwright/planwright/pkg/memory"
	"github.com/planwright/planwright/pkg/persona"
	"github.com/planwright/planwright/pkg/resilience"
	"github.com/planwright/planwright/pkg/task"
	"github.com/planwright/planwright/pkg/telemetry"
)

// Phase is the current stage of an interview run.
type Phase string

const (
	PhaseIntroduction Phase = "introduction"
	PhaseQuestioning  Phase = "questioning"
	PhaseDrafting     Phase = "drafting"
	PhaseReview       Phase = "review"
	PhaseDone         Phase = "done"
	PhaseAbandoned    Phase = "abandoned"
)

func (p Phase) terminal() bool { return p == PhaseDone || p == PhaseAbandoned }

// Turn is one outbound step of the workflow: a message to show the external
// actor, plus the draft document when one exists.
type Turn struct {
	Phase    Phase
	Message  string
	Topic    Topic
	Document *masterplan.Document
	Changes  []masterplan.SectionChange
	// Warning carries non-fatal advisories, such as a revision cycle that
	// produced no detectable change.
	Warning string
}

// Workflow drives one requirements interview: introduction, one question per
// turn, drafting, review, done. It suspends cooperatively between Submit
// calls and holds no background goroutines.
type Workflow struct {
	persona     persona.AgentPersona
	task        task.Definition
	provider    llm.Provider
	model       string
	temperature float64
	store       memory.ConversationStore
	emitter     core.EventEmitter
	metrics     *telemetry.WorkflowMetrics
	tracer      trace.Tracer
	log         *slog.Logger
	clock       func() time.Time
	retry       resilience.RetryConfig
	callTimeout time.Duration
	idleTimeout  time.Duration
	maxReasks    int
	suggestAfter int
	answerCheck  AnswerCheck

	mu           sync.Mutex
	runID        string
	phase        Phase
	reqs         *Requirements
	unanswered   map[Topic]bool
	topicIdx     int
	reasks       int
	picker       questionPicker
	draft        *masterplan.Document
	approved     *masterplan.Document
	revisions    int
	lastActivity time.Time
}

// Option configures a Workflow instance.
type Option func(*Workflow) error

// WithProvider sets the LLM provider used for drafting.
func WithProvider(p llm.Provider) Option {
	return func(w *Workflow) error {
		w.provider = p
		return nil
	}
}

// WithModel sets the model name and sampling temperature for drafting calls.
func WithModel(model string, temperature float64) Option {
	return func(w *Workflow) error {
		w.model = model
		w.temperature = temperature
		return nil
	}
}

// WithConversationStore sets the history backend.
func WithConversationStore(s memory.ConversationStore) Option {
	return func(w *Workflow) error {
		w.store = s
		return nil
	}
}

// WithEventEmitter sets the semantic event sink.
func WithEventEmitter(e core.EventEmitter) Option {
	return func(w *Workflow) error {
		w.emitter = e
		return nil
	}
}

// WithMetrics attaches workflow metrics.
func WithMetrics(m *telemetry.WorkflowMetrics) Option {
	return func(w *Workflow) error {
		w.metrics = m
		return nil
	}
}

// WithIdleTimeout aborts a run whose next message arrives after d. Zero
// disables the check.
func WithIdleTimeout(d time.Duration) Option {
	return func(w *Workflow) error {
		w.idleTimeout = d
		return nil
	}
}

// WithMaxReasks sets how often an unusable answer repeats the question before
// the topic is marked unanswered.
func WithMaxReasks(n int) Option {
	return func(w *Workflow) error {
		if n < 0 {
			return errors.New(errors.CodeInvalidInput, "max reasks must be >= 0", nil)
		}
		w.maxReasks = n
		return nil
	}
}

// WithSuggestAfterTurns makes the workflow hint that drafting is available
// once the mandatory topics are covered and n answers have been recorded.
// Zero disables the hint.
func WithSuggestAfterTurns(n int) Option {
	return func(w *Workflow) error {
		w.suggestAfter = n
		return nil
	}
}

// WithAnswerCheck replaces the default answer usability predicate.
func WithAnswerCheck(fn AnswerCheck) Option {
	return func(w *Workflow) error {
		w.answerCheck = fn
		return nil
	}
}

// WithRetry sets the retry policy for drafting calls.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(w *Workflow) error {
		w.retry = rc
		return nil
	}
}

// WithCallTimeout bounds each individual drafting call.
func WithCallTimeout(d time.Duration) Option {
	return func(w *Workflow) error {
		w.callTimeout = d
		return nil
	}
}

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) Option {
	return func(w *Workflow) error {
		w.clock = fn
		return nil
	}
}

// New creates a workflow for the given persona/task pair.
func New(p persona.AgentPersona, t task.Definition, opts ...Option) (*Workflow, error) {
	w := &Workflow{
		persona:     p,
		task:        t,
		store:       memory.NewInMemoryConversation(),
		emitter:     core.NoopEventEmitter{},
		tracer:      otel.Tracer("planwright/interview"),
		log:         slog.Default(),
		clock:       time.Now,
		retry:       resilience.DefaultRetryConfig().WithMaxAttempts(2),
		maxReasks:   1,
		answerCheck: defaultAnswerCheck,
		runID:       "run-" + uuid.NewString(),
		phase:       PhaseIntroduction,
		reqs:        NewRequirements(),
		unanswered:  make(map[Topic]bool),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "llm provider is required", nil)
	}
	w.lastActivity = w.clock()
	return w, nil
}

// RunID returns the run identifier, used as the conversation session id.
func (w *Workflow) RunID() string { return w.runID }

// Phase returns the current phase.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Requirements returns a copy of the collected requirements.
func (w *Workflow) Requirements() *Requirements {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reqs.Clone()
}

// ApprovedDocument returns the finalized masterplan, if the run reached Done.
func (w *Workflow) ApprovedDocument() *masterplan.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.approved == nil {
		return nil
	}
	return w.approved.Clone()
}

// History returns the full conversation history for this run.
func (w *Workflow) History(ctx context.Context) ([]memory.ConversationMessage, error) {
	return w.store.GetMessages(ctx, w.runID)
}

// Start emits the introductory message and the first question. Valid only in
// the Introduction phase.
func (w *Workflow) Start(ctx context.Context) (*Turn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseIntroduction {
		return nil, errors.New(errors.CodeInvalidInput, "workflow already started", nil).
			WithContext("phase", string(w.phase))
	}

	ctx, span := w.tracer.Start(ctx, "Workflow.Start",
		trace.WithAttributes(telemetry.WorkflowAttrs(w.runID, string(w.phase), w.persona.ID)...))
	defer span.End()

	if err := w.append(ctx, "system", w.persona.SystemPrompt(), ""); err != nil {
		return nil, err
	}

	w.emit(ctx, core.EventWorkflowStarted, nil)
	w.log.Info("workflow.start",
		slog.String("run_id", w.runID),
		slog.String("persona", w.persona.ID),
		slog.String("task", w.task.ID),
	)

	w.phase = PhaseQuestioning
	w.topicIdx = 0
	question := w.ask(ctx, TopicOrder[w.topicIdx], false)

	msg := w.introMessage() + "\n\n" + question
	if err := w.append(ctx, "assistant", msg, string(TopicOrder[w.topicIdx])); err != nil {
		return nil, err
	}
	w.lastActivity = w.clock()

	return &Turn{Phase: w.phase, Message: msg, Topic: TopicOrder[w.topicIdx]}, nil
}

// Submit feeds exactly one external message and returns the next outbound
// turn. The workflow suspends between calls.
func (w *Workflow) Submit(ctx context.Context, input string) (*Turn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := w.clock()

	if w.phase.terminal() {
		return nil, errors.New(errors.CodeInvalidInput, "workflow has ended", nil).
			WithContext("phase", string(w.phase))
	}
	if w.phase == PhaseIntroduction {
		return nil, errors.New(errors.CodeInvalidInput, "workflow not started", nil)
	}

	if w.idleTimeout > 0 && started.Sub(w.lastActivity) > w.idleTimeout {
		w.abandonLocked(ctx, "idle timeout")
		return nil, errors.New(errors.CodeTimeout, "run abandoned after idle timeout", nil).
			WithContext("idle_timeout", w.idleTimeout.String())
	}

	ctx, span := w.tracer.Start(ctx, "Workflow.Submit",
		trace.WithAttributes(telemetry.WorkflowAttrs(w.runID, string(w.phase), w.persona.ID)...))
	defer span.End()

	topic := ""
	if w.phase == PhaseQuestioning {
		topic = string(TopicOrder[w.topicIdx])
	}
	if err := w.append(ctx, "user", input, topic); err != nil {
		return nil, err
	}

	var (
		turn *Turn
		err  error
	)
	switch w.phase {
	case PhaseQuestioning:
		turn, err = w.handleQuestioning(ctx, input)
	case PhaseReview:
		turn, err = w.handleReview(ctx, input)
	default:
		err = errors.New(errors.CodeInternal, "unexpected phase", nil).
			WithContext("phase", string(w.phase))
	}
	if err != nil {
		return nil, err
	}

	if err := w.append(ctx, "assistant", turn.Message, string(turn.Topic)); err != nil {
		return nil, err
	}
	w.lastActivity = w.clock()
	w.metrics.RecordTurn(ctx, string(w.phase), float64(w.clock().Sub(started).Milliseconds()))
	return turn, nil
}

// Draft runs the drafting gate and synthesis directly. It fails with an
// insufficient-input error when a mandatory topic has no recorded answer; the
// same check backs the internal transition, where the failure is recovered by
// routing back to questioning.
func (w *Workflow) Draft(ctx context.Context) (*masterplan.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase.terminal() {
		return nil, errors.New(errors.CodeInvalidInput, "workflow has ended", nil)
	}
	if err := w.checkMandatory(); err != nil {
		w.metrics.RecordDraft(ctx, "insufficient_input")
		return nil, err
	}
	doc, err := w.synthesize(ctx)
	if err != nil {
		w.metrics.RecordDraft(ctx, "llm_error")
		return nil, err
	}
	w.metrics.RecordDraft(ctx, "ok")
	w.draft = doc
	w.phase = PhaseReview
	w.emit(ctx, core.EventDraftCreated, map[string]any{"revision": w.revisions})
	return doc.Clone(), nil
}

// Abandon terminates the run from any non-terminal phase, discarding the
// conversation state. Abandonment is a normal transition, not an error.
func (w *Workflow) Abandon(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase.terminal() {
		return
	}
	w.abandonLocked(ctx, "external signal")
}

func (w *Workflow) abandonLocked(ctx context.Context, reason string) {
	w.phase = PhaseAbandoned
	w.draft = nil
	w.reqs = NewRequirements()
	if err := w.store.Clear(ctx, w.runID); err != nil {
		w.log.Warn("workflow.abandon.clear_failed",
			slog.String("run_id", w.runID),
			slog.String("error", err.Error()),
		)
	}
	w.emit(ctx, core.EventWorkflowAbandoned, map[string]any{"reason": reason})
	w.log.Info("workflow.abandoned",
		slog.String("run_id", w.runID),
		slog.String("reason", reason),
	)
}

// Reset returns the workflow to a fresh run under a new run id. When
// preserve is true the last approved masterplan is retained.
func (w *Workflow) Reset(ctx context.Context, preserve bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Clear(ctx, w.runID); err != nil {
		return errors.New(errors.CodeMemoryError, "clear conversation", err)
	}
	w.runID = "run-" + uuid.NewString()
	w.phase = PhaseIntroduction
	w.reqs = NewRequirements()
	w.unanswered = make(map[Topic]bool)
	w.topicIdx = 0
	w.reasks = 0
	w.picker = questionPicker{}
	w.draft = nil
	w.revisions = 0
	w.lastActivity = w.clock()
	if !preserve {
		w.approved = nil
	}
	return nil
}

func (w *Workflow) handleQuestioning(ctx context.Context, input string) (*Turn, error) {
	if signalsReadiness(input) {
		return w.attemptDraft(ctx)
	}

	topic := TopicOrder[w.topicIdx]
	if !w.answerCheck(topic, input) {
		if w.reasks < w.maxReasks {
			w.reasks++
			w.metrics.RecordQuestion(ctx, string(topic), true)
			msg := "I didn't catch an answer there, so let me try once more. " + w.picker.pick(topic, w.reqs)
			return &Turn{Phase: w.phase, Message: msg, Topic: topic}, nil
		}
		// Re-ask budget spent: record the topic as unanswered and move on
		// rather than blocking the interview.
		w.unanswered[topic] = true
		w.emit(ctx, core.EventTopicUnanswered, map[string]any{"topic": string(topic)})
		w.metrics.RecordTopicUnanswered(ctx, string(topic))
		return w.advance(ctx, "No problem, we can come back to that. ")
	}

	w.reqs.Set(string(topic), input)
	w.emit(ctx, core.EventAnswerRecorded, map[string]any{"topic": string(topic)})
	return w.advance(ctx, "")
}

// advance moves to the next open topic, or into drafting when none remain.
func (w *Workflow) advance(ctx context.Context, prefix string) (*Turn, error) {
	next, ok := w.nextOpenTopic()
	if !ok {
		return w.attemptDraft(ctx)
	}
	w.topicIdx = next
	w.reasks = 0
	topic := TopicOrder[next]
	question := prefix + w.ask(ctx, topic, false)
	if w.suggestAfter > 0 && w.reqs.Len() >= w.suggestAfter && len(w.missingMandatory()) == 0 {
		question += "\n\n(We've covered the essentials — say \"go ahead\" whenever you'd like me to draft the masterplan.)"
	}
	return &Turn{Phase: w.phase, Message: question, Topic: topic}, nil
}

func (w *Workflow) nextOpenTopic() (int, bool) {
	for i := w.topicIdx + 1; i < len(TopicOrder); i++ {
		t := TopicOrder[i]
		if !w.reqs.Has(string(t)) && !w.unanswered[t] {
			return i, true
		}
	}
	return 0, false
}

// attemptDraft runs the drafting gate. Insufficient input routes back to
// questioning at the first missing topic instead of surfacing a hard failure.
func (w *Workflow) attemptDraft(ctx context.Context) (*Turn, error) {
	if err := w.checkMandatory(); err != nil {
		w.metrics.RecordDraft(ctx, "insufficient_input")
		missing := w.missingMandatory()[0]
		w.targetTopic(missing)
		w.unanswered[missing] = false
		question := w.ask(ctx, missing, false)
		msg := fmt.Sprintf("Before I can draft the masterplan I still need to understand the %s. %s", missing, question)
		return &Turn{Phase: w.phase, Message: msg, Topic: missing}, nil
	}

	doc, err := w.synthesize(ctx)
	if err != nil {
		w.metrics.RecordDraft(ctx, "llm_error")
		return nil, err
	}
	w.metrics.RecordDraft(ctx, "ok")
	w.draft = doc
	w.phase = PhaseReview
	w.emit(ctx, core.EventDraftCreated, map[string]any{"revision": w.revisions})

	msg := "Here is the masterplan drafted from everything you've told me. Review it and either approve it or tell me what to change.\n\n" + doc.Render()
	return &Turn{Phase: w.phase, Message: msg, Document: doc.Clone()}, nil
}

func (w *Workflow) handleReview(ctx context.Context, input string) (*Turn, error) {
	switch classifyFeedback(input) {
	case FeedbackApprove:
		w.approved = w.draft
		w.phase = PhaseDone
		w.emit(ctx, core.EventReviewApproved, nil)
		w.emit(ctx, core.EventWorkflowDone, map[string]any{"revisions": w.revisions})
		w.log.Info("workflow.done",
			slog.String("run_id", w.runID),
			slog.Int("revisions", w.revisions),
		)
		return &Turn{
			Phase:    w.phase,
			Message:  "The masterplan is finalized. Hand it to your team and come back when it needs a revision.",
			Document: w.approved.Clone(),
		}, nil

	default: // FeedbackRevise
		w.revisions++
		w.reqs.Set(fmt.Sprintf("revision notes %d", w.revisions), input)
		w.emit(ctx, core.EventReviewRevised, map[string]any{"revision": w.revisions})

		doc, err := w.synthesize(ctx)
		if err != nil {
			w.metrics.RecordDraft(ctx, "llm_error")
			return nil, err
		}

		changes := masterplan.Diff(w.draft, doc)
		if len(changes) == 0 {
			// A silent no-op loop would be indistinguishable from progress;
			// surface the stall instead.
			w.metrics.RecordRevision(ctx, true)
			w.emit(ctx, core.EventNoChangeWarning, map[string]any{"revision": w.revisions})
			return &Turn{
				Phase:    w.phase,
				Message:  "I reworked the plan but ended up with exactly the same document. Could you point me at the section you want changed, or approve it as is?",
				Document: w.draft.Clone(),
				Warning:  "revision produced no change",
			}, nil
		}

		w.metrics.RecordRevision(ctx, false)
		w.draft = doc
		sections := make([]string, 0, len(changes))
		for _, c := range changes {
			sections = append(sections, string(c.Key))
		}
		msg := fmt.Sprintf("I've revised the masterplan (changed: %s). Take another look.\n\n%s",
			joinSections(sections), doc.Render())
		return &Turn{Phase: w.phase, Message: msg, Document: doc.Clone(), Changes: changes}, nil
	}
}

// checkMandatory verifies every mandatory topic has a recorded answer. The
// check is a pure read: re-running it on the same state yields the same
// verdict.
func (w *Workflow) checkMandatory() error {
	missing := w.missingMandatory()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, t := range missing {
		names[i] = string(t)
	}
	return errors.New(errors.CodeInsufficientInput, "mandatory topics unanswered", nil).
		WithContext("missing", names).
		WithRecoverable(true)
}

func (w *Workflow) missingMandatory() []Topic {
	var missing []Topic
	for _, t := range MandatoryTopics {
		if !w.reqs.Has(string(t)) {
			missing = append(missing, t)
		}
	}
	return missing
}

func (w *Workflow) targetTopic(topic Topic) {
	for i, t := range TopicOrder {
		if t == topic {
			w.topicIdx = i
			w.reasks = 0
			return
		}
	}
}

func (w *Workflow) ask(ctx context.Context, topic Topic, reask bool) string {
	w.metrics.RecordQuestion(ctx, string(topic), reask)
	w.emit(ctx, core.EventQuestionAsked, map[string]any{"topic": string(topic)})
	return w.picker.pick(topic, w.reqs)
}

func (w *Workflow) introMessage() string {
	return fmt.Sprintf(
		"Hi there! I'm your %s. %s I'll ask you one question at a time about your app idea, and once we've covered the essentials I'll put together a complete masterplan document for you to review.",
		w.persona.Role, w.persona.Goal)
}

func (w *Workflow) append(ctx context.Context, role, content, topic string) error {
	err := w.store.AppendMessage(ctx, w.runID, memory.ConversationMessage{
		Role:    role,
		Content: content,
		Topic:   topic,
	})
	if err != nil {
		return errors.New(errors.CodeMemoryError, "append conversation message", err)
	}
	return nil
}

func (w *Workflow) emit(ctx context.Context, eventType core.EventType, payload map[string]any) {
	w.emitter.Emit(ctx, core.NewEvent(eventType, w.persona.ID, w.runID, payload))
}

func joinSections(sections []string) string {
	out := ""
	for i, s := range sections {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
