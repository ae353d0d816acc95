/*
Package pocketflow provides a minimalist engine for building LLM workflows
out of nodes connected by action-labelled transitions.

Each node runs a Prep/Exec/Post lifecycle:

  - Prep reads the shared state and hands Exec what it needs.
  - Exec does the fallible work (LLM calls, network fetches). It is retried
    up to the node's attempt limit, then handed to Fallback.
  - Post writes the result back to the shared state and returns the Action
    used to pick the next node.

Basic usage:

	type State struct {
		Name     string
		Greeting string
	}

	greet := pocketflow.NewNode("greet", pocketflow.Steps[*State, string, string]{
		Prep: func(ctx context.Context, s *State) (string, error) {
			return s.Name, nil
		},
		Exec: func(ctx context.Context, name string) (string, error) {
			return "Hello, " + name + "!", nil
		},
		Post: func(ctx context.Context, s *State, _ string, greeting string) (pocketflow.Action, error) {
			s.Greeting = greeting
			return pocketflow.ActionDefault, nil
		},
	}, pocketflow.WithRetry(3, time.Second))

	flow := pocketflow.NewFlow(greet)
	state := &State{Name: "World"}
	_, err := flow.Run(context.Background(), state)

Connecting nodes:

	// Default action, chained left to right.
	fetch.Then(parse).Then(save)

	// Named action.
	review.On("reject").Then(rewrite)

A node whose Post returns an action with no successor ends the flow.
Connecting the same action twice keeps the last connection.

Batch nodes:

	summarize := pocketflow.NewBatchNode("summarize", pocketflow.BatchSteps[*State, Chapter, string]{
		Prep: func(ctx context.Context, s *State) ([]Chapter, error) { return s.Chapters, nil },
		Exec: summarizeChapter,
		Post: func(ctx context.Context, s *State, _ []Chapter, out []string) (pocketflow.Action, error) {
			s.Summaries = out
			return "", nil
		},
	})

Items run one after another in input order, each with the node's retry
policy. The first item that fails for good aborts the whole batch.

Shared state:

Flows are generic over their shared state type. A struct with a named field
per key gives compile-time checked access; Store is available for flows
whose keys are only known at run time.
*/
package pocketflow
