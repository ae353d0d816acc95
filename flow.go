package pocketflow

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Flow walks a graph of nodes from its start node until a node returns an
// action that has no successor. A Flow is itself a Node, so flows can be
// connected and nested.
type Flow[S any] struct {
	links[S]

	name  string
	start Node[S]
	opts  flowOptions[S]
}

// flowOptions holds configuration for a Flow.
type flowOptions[S any] struct {
	name     string
	logger   Logger
	observer Observer
	maxSteps int
	routes   Routes

	prep func(ctx context.Context, shared S) error
	post func(ctx context.Context, shared S, last Action) (Action, error)
}

// FlowOption configures a Flow.
type FlowOption[S any] func(*flowOptions[S])

// WithName sets the flow's name. It defaults to "flow-" plus the start
// node's name.
func WithName[S any](name string) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.name = name
	}
}

// WithLogger adds logging to the flow and every node it runs.
func WithLogger[S any](logger Logger) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.logger = logger
	}
}

// WithObserver reports node lifecycle events to observer.
func WithObserver[S any](observer Observer) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.observer = observer
	}
}

// WithMaxSteps bounds the number of node invocations in one Run.
// Zero means unbounded.
func WithMaxSteps[S any](n int) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.maxSteps = n
	}
}

// WithFlowPrep runs fn once before the walk starts, typically to seed the
// shared state.
func WithFlowPrep[S any](fn func(ctx context.Context, shared S) error) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.prep = fn
	}
}

// WithFlowPost runs fn once after the walk ends. It receives the last
// action returned inside the flow and picks the flow's own action.
func WithFlowPost[S any](fn func(ctx context.Context, shared S, last Action) (Action, error)) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.post = fn
	}
}

// WithFlowActions declares the actions the flow's post hook can return
// when the flow is nested inside another one.
func WithFlowActions[S any](actions ...Action) FlowOption[S] {
	return func(o *flowOptions[S]) {
		o.routes.Emits = append(o.routes.Emits, actions...)
	}
}

// NewFlow creates a flow starting from the given node.
func NewFlow[S any](start Node[S], opts ...FlowOption[S]) *Flow[S] {
	f := &Flow[S]{start: start}
	for _, opt := range opts {
		opt(&f.opts)
	}

	f.name = f.opts.name
	if f.name == "" {
		f.name = "flow"
		if start != nil {
			f.name = "flow-" + start.Name()
		}
	}
	return f
}

// Name returns the flow's identifier.
func (f *Flow[S]) Name() string {
	return f.name
}

// Start returns the flow's start node.
func (f *Flow[S]) Start() Node[S] {
	return f.start
}

// Routes returns the actions the flow declared.
func (f *Flow[S]) Routes() Routes {
	return f.opts.routes
}

// Validate checks the flow's graph, see ValidateGraph.
func (f *Flow[S]) Validate() error {
	if f.start == nil {
		return ErrNoStartNode
	}
	return ValidateGraph(f.start)
}

// Run executes the flow against shared.
//
// Any terminal node error is returned immediately; nodes that already ran
// are not rolled back and shared keeps whatever they wrote.
func (f *Flow[S]) Run(ctx context.Context, shared S) (Action, error) {
	if f.start == nil {
		return "", ErrNoStartNode
	}

	ctx = f.attach(ctx)
	env := envFrom(ctx)

	if f.opts.prep != nil {
		if err := f.opts.prep(ctx, shared); err != nil {
			return "", &NodeError{Node: f.name, Phase: PhasePrep, Item: -1, Err: err}
		}
	}

	last, err := f.walk(ctx, env, shared)
	if err != nil {
		return "", err
	}

	action := ActionDefault
	if f.opts.post != nil {
		next, err := f.opts.post(ctx, shared, last)
		if err != nil {
			return "", &NodeError{Node: f.name, Phase: PhasePost, Item: -1, Err: err}
		}
		if next != "" {
			action = next
		}
	}

	if !f.opts.routes.allows(action) {
		return "", &NodeError{Node: f.name, Phase: PhasePost, Item: -1,
			Err: fmt.Errorf("%w: %q", ErrUndeclaredAction, action)}
	}
	return action, nil
}

func (f *Flow[S]) walk(ctx context.Context, env runEnv, shared S) (Action, error) {
	var (
		last  Action
		steps int
	)

	current := f.start
	for current != nil {
		if f.opts.maxSteps > 0 && steps >= f.opts.maxSteps {
			return "", fmt.Errorf("%w: flow %s stopped before %s after %d steps",
				ErrMaxSteps, f.name, current.Name(), steps)
		}
		steps++

		env.logger.Debug(ctx, "executing node", "flow", f.name, "node", current.Name())

		start := time.Now()
		action, err := current.Run(ctx, shared)
		if err != nil {
			env.logger.Error(ctx, "node failed", "flow", f.name, "node", current.Name(), "error", err)
			return "", err
		}
		env.logger.Debug(ctx, "node completed",
			"flow", f.name,
			"node", current.Name(),
			"action", action,
			"duration", time.Since(start))

		last = action
		successors := current.Successors()
		next, ok := successors[action]
		if !ok && len(successors) > 0 {
			env.logger.Debug(ctx, "flow ends: action has no successor",
				"flow", f.name,
				"node", current.Name(),
				"action", action,
				"available", actionNames(successors))
		}
		current = next
	}

	return last, nil
}

// attach puts the flow's logger and observer into ctx for the nodes it
// runs. A nested flow without its own inherits the outer ones.
func (f *Flow[S]) attach(ctx context.Context) context.Context {
	if f.opts.logger == nil && f.opts.observer == nil {
		return ctx
	}
	e := envFrom(ctx)
	if f.opts.logger != nil {
		e.logger = f.opts.logger
	}
	if f.opts.observer != nil {
		e.observer = f.opts.observer
	}
	return withEnv(ctx, e)
}

func actionNames[S any](successors map[Action]Node[S]) []string {
	names := make([]string, 0, len(successors))
	for a := range successors {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// ValidateGraph checks the graph reachable from start before any execution
// begins. For every node that declared its actions, each action must either
// have a successor or be declared terminal.
//
// Example:
//
//	review := pocketflow.NewNode("review", steps,
//	    pocketflow.WithActions("approve", "reject"),
//	    pocketflow.WithTerminal("stop"))
//	review.On("approve").Then(publish)
//
//	// Error: node "review" emits "reject" but has no successor for it
//	err := pocketflow.ValidateGraph(review)
func ValidateGraph[S any](start Node[S]) error {
	visited := make(map[Node[S]]bool)
	return validateNode(start, visited)
}

func validateNode[S any](n Node[S], visited map[Node[S]]bool) error {
	if n == nil || visited[n] {
		return nil
	}
	visited[n] = true

	successors := n.Successors()
	for _, action := range n.Routes().Emits {
		if _, ok := successors[action]; !ok {
			return fmt.Errorf("%w: node %q emits %q but has no successor for it",
				ErrUnroutedAction, n.Name(), action)
		}
	}

	if f, ok := n.(*Flow[S]); ok && f.start != nil {
		if err := validateNode(f.start, visited); err != nil {
			return err
		}
	}

	for _, name := range actionNames(successors) {
		if err := validateNode(successors[Action(name)], visited); err != nil {
			return err
		}
	}
	return nil
}
