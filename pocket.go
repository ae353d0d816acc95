package pocketflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Action labels a transition out of a node.
type Action string

// ActionDefault is the action used when Post returns the empty action.
const ActionDefault Action = "default"

// Common errors.
var (
	// ErrNoStartNode is returned when a flow has no start node defined.
	ErrNoStartNode = errors.New("pocketflow: no start node defined")

	// ErrUndeclaredAction is returned when a node that declared its actions
	// returns one it did not declare.
	ErrUndeclaredAction = errors.New("pocketflow: undeclared action")

	// ErrUnroutedAction is returned by graph validation when a declared,
	// non-terminal action has no successor.
	ErrUnroutedAction = errors.New("pocketflow: action has no successor")

	// ErrMaxSteps is returned when a flow exceeds its step limit.
	ErrMaxSteps = errors.New("pocketflow: max steps exceeded")
)

// Phase names a step of the node lifecycle.
type Phase string

// Lifecycle phases.
const (
	PhasePrep Phase = "prep"
	PhaseExec Phase = "exec"
	PhasePost Phase = "post"
)

// NodeError reports a terminal failure of a node invocation.
// Err is the error returned by the failing step, unmodified.
type NodeError struct {
	Node     string
	Phase    Phase
	Item     int // batch item index, -1 outside a batch
	Attempts int // exec attempts made, 0 for prep and post
	Err      error
}

func (e *NodeError) Error() string {
	switch {
	case e.Item >= 0:
		return fmt.Sprintf("node %s: %s item %d failed after %d attempts: %v", e.Node, e.Phase, e.Item, e.Attempts, e.Err)
	case e.Attempts > 0:
		return fmt.Sprintf("node %s: %s failed after %d attempts: %v", e.Node, e.Phase, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("node %s: %s failed: %v", e.Node, e.Phase, e.Err)
	}
}

func (e *NodeError) Unwrap() error { return e.Err }

// Steps groups the lifecycle functions for a node.
// All fields are optional - if not provided, default implementations will be used.
type Steps[S, P, R any] struct {
	// Prep reads the shared state. It runs exactly once per invocation.
	Prep func(ctx context.Context, shared S) (P, error)

	// Exec performs the main processing logic without shared state access.
	Exec func(ctx context.Context, prep P) (R, error)

	// Fallback handles Exec errors once all attempts are used up.
	// The default returns err unchanged.
	Fallback func(ctx context.Context, prep P, err error) (R, error)

	// Post writes results to the shared state and picks the next action.
	Post func(ctx context.Context, shared S, prep P, exec R) (Action, error)
}

// Node is the core interface for all execution units in a workflow.
// Both simple nodes and flows implement this interface.
type Node[S any] interface {
	// Name returns the node's identifier.
	Name() string

	// Run executes the full lifecycle against shared and returns the action.
	Run(ctx context.Context, shared S) (Action, error)

	// Connect sets the successor for action, replacing any previous one.
	Connect(action Action, next Node[S])

	// Then connects the default action to next and returns next.
	Then(next Node[S]) Node[S]

	// On starts a connection for action; finish it with Then.
	On(action Action) *Transition[S]

	// Successors returns all connected nodes.
	Successors() map[Action]Node[S]

	// Routes returns the actions the node declared it can emit.
	Routes() Routes
}

// Routes describes the actions a node can emit.
// A zero Routes means the node did not declare anything.
type Routes struct {
	Emits    []Action
	Terminal []Action
}

func (r Routes) declared() bool { return len(r.Emits) > 0 || len(r.Terminal) > 0 }

func (r Routes) allows(a Action) bool {
	if !r.declared() {
		return true
	}
	for _, e := range r.Emits {
		if e == a {
			return true
		}
	}
	for _, e := range r.Terminal {
		if e == a {
			return true
		}
	}
	return false
}

// Transition is the intermediate value returned by On.
type Transition[S any] struct {
	from   *links[S]
	action Action
}

// Then wires the pending action to next and returns next.
func (t *Transition[S]) Then(next Node[S]) Node[S] {
	t.from.Connect(t.action, next)
	return next
}

// links holds a node's successor map and the fluent connect operators.
type links[S any] struct {
	successors map[Action]Node[S]
}

func (l *links[S]) Connect(action Action, next Node[S]) {
	if l.successors == nil {
		l.successors = make(map[Action]Node[S])
	}
	l.successors[action] = next
}

func (l *links[S]) Then(next Node[S]) Node[S] {
	l.Connect(ActionDefault, next)
	return next
}

func (l *links[S]) On(action Action) *Transition[S] {
	return &Transition[S]{from: l, action: action}
}

func (l *links[S]) Successors() map[Action]Node[S] {
	return l.successors
}

// node is the private implementation of Node for simple execution units.
type node[S, P, R any] struct {
	links[S]

	name string
	opts nodeOptions

	prep func(ctx context.Context, shared S) (P, error)
	exec func(ctx context.Context, prep P) (R, error) // retry already applied
	post func(ctx context.Context, shared S, prep P, exec R) (Action, error)
}

// nodeOptions holds configuration for a Node.
type nodeOptions struct {
	maxAttempts int
	wait        time.Duration
	routes      Routes
}

// Option configures a Node.
type Option func(*nodeOptions)

// WithRetry sets the number of Exec attempts (at least 1) and the wait
// between them.
func WithRetry(maxAttempts int, wait time.Duration) Option {
	return func(o *nodeOptions) {
		o.maxAttempts = maxAttempts
		o.wait = wait
	}
}

// WithActions declares the actions the node's Post can return.
func WithActions(actions ...Action) Option {
	return func(o *nodeOptions) {
		o.routes.Emits = append(o.routes.Emits, actions...)
	}
}

// WithTerminal declares actions that intentionally end the flow.
func WithTerminal(actions ...Action) Option {
	return func(o *nodeOptions) {
		o.routes.Terminal = append(o.routes.Terminal, actions...)
	}
}

func buildOptions(opts []Option) nodeOptions {
	o := getDefaults()
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	if o.wait < 0 {
		o.wait = 0
	}
	return o
}

// NewNode creates a node from its lifecycle steps.
//
// Example:
//
//	fetch := pocketflow.NewNode("fetch", pocketflow.Steps[*State, string, Page]{
//	    Prep: func(ctx context.Context, s *State) (string, error) { return s.URL, nil },
//	    Exec: fetchPage,
//	    Post: func(ctx context.Context, s *State, _ string, p Page) (pocketflow.Action, error) {
//	        s.Page = p
//	        return pocketflow.ActionDefault, nil
//	    },
//	}, pocketflow.WithRetry(3, time.Second))
func NewNode[S, P, R any](name string, steps Steps[S, P, R], opts ...Option) Node[S] {
	n := &node[S, P, R]{
		name: name,
		opts: buildOptions(opts),
		prep: steps.Prep,
		post: steps.Post,
	}
	exec, fallback := steps.Exec, steps.Fallback
	n.exec = func(ctx context.Context, prep P) (R, error) {
		return execWithRetry(ctx, n.name, -1, n.opts, prep, exec, fallback)
	}
	return n
}

// Name returns the node's identifier.
func (n *node[S, P, R]) Name() string {
	return n.name
}

// Routes returns the actions the node declared.
func (n *node[S, P, R]) Routes() Routes {
	return n.opts.routes
}

// Run executes Prep once, Exec with retry and fallback, then Post.
func (n *node[S, P, R]) Run(ctx context.Context, shared S) (Action, error) {
	env := envFrom(ctx)
	start := time.Now()
	env.observer.NodeStarted(ctx, n.name)

	action, err := n.run(ctx, shared)

	env.observer.NodeFinished(ctx, n.name, action, time.Since(start), err)
	return action, err
}

func (n *node[S, P, R]) run(ctx context.Context, shared S) (Action, error) {
	var prep P
	if n.prep != nil {
		var err error
		if prep, err = n.prep(ctx, shared); err != nil {
			return "", &NodeError{Node: n.name, Phase: PhasePrep, Item: -1, Err: err}
		}
	}

	result, err := n.exec(ctx, prep)
	if err != nil {
		return "", err
	}

	action := ActionDefault
	if n.post != nil {
		next, err := n.post(ctx, shared, prep, result)
		if err != nil {
			return "", &NodeError{Node: n.name, Phase: PhasePost, Item: -1, Err: err}
		}
		if next != "" {
			action = next
		}
	}

	if !n.opts.routes.allows(action) {
		return "", &NodeError{Node: n.name, Phase: PhasePost, Item: -1,
			Err: fmt.Errorf("%w: %q", ErrUndeclaredAction, action)}
	}
	return action, nil
}

// execWithRetry runs exec up to o.maxAttempts times, then fallback.
// The attempt counter lives only in this call.
func execWithRetry[P, R any](
	ctx context.Context,
	name string,
	item int,
	o nodeOptions,
	prep P,
	exec func(context.Context, P) (R, error),
	fallback func(context.Context, P, error) (R, error),
) (R, error) {
	var zero R
	if exec == nil {
		return zero, nil
	}
	env := envFrom(ctx)

	for retry := 0; ; retry++ {
		actx := withAttempt(ctx, retry)
		result, err := exec(actx, prep)
		if err == nil {
			return result, nil
		}

		if retry == o.maxAttempts-1 {
			if fallback == nil {
				return zero, &NodeError{Node: name, Phase: PhaseExec, Item: item, Attempts: retry + 1, Err: err}
			}
			env.logger.Debug(ctx, "executing fallback", "node", name, "error", err)
			env.observer.FellBack(ctx, name, err)
			result, ferr := fallback(actx, prep, err)
			if ferr != nil {
				return zero, &NodeError{Node: name, Phase: PhaseExec, Item: item, Attempts: retry + 1, Err: ferr}
			}
			return result, nil
		}

		env.logger.Debug(ctx, "retrying node exec",
			"node", name,
			"attempt", retry+1,
			"error", err)
		env.observer.Retried(ctx, name, retry+1, err)

		if o.wait > 0 {
			select {
			case <-ctx.Done():
				return zero, &NodeError{Node: name, Phase: PhaseExec, Item: item, Attempts: retry + 1, Err: ctx.Err()}
			case <-time.After(o.wait):
			}
		}
	}
}

type attemptKey struct{}

type itemKey struct{}

func withAttempt(ctx context.Context, retry int) context.Context {
	return context.WithValue(ctx, attemptKey{}, retry)
}

// Attempt returns the zero-based retry counter of the Exec or Fallback call
// that ctx was handed to.
func Attempt(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey{}).(int)
	return n
}

// ItemIndex returns the index of the batch item being executed, if any.
func ItemIndex(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(itemKey{}).(int)
	return n, ok
}
