package pocketflow

import (
	"context"
	"time"
)

// Observer receives node lifecycle events from a running flow.
// Events are delivered synchronously on the goroutine running the flow.
type Observer interface {
	// NodeStarted is called before a node's Prep.
	NodeStarted(ctx context.Context, node string)

	// NodeFinished is called once the node returned, with its action on
	// success or the terminal error.
	NodeFinished(ctx context.Context, node string, action Action, d time.Duration, err error)

	// Retried is called after a failed Exec attempt that will be retried.
	Retried(ctx context.Context, node string, attempt int, err error)

	// FellBack is called before a node's Fallback runs.
	FellBack(ctx context.Context, node string, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) NodeStarted(context.Context, string)                                {}
func (NopObserver) NodeFinished(context.Context, string, Action, time.Duration, error) {}
func (NopObserver) Retried(context.Context, string, int, error)                        {}
func (NopObserver) FellBack(context.Context, string, error)                            {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) NodeStarted(ctx context.Context, node string) {
	for _, ob := range o {
		ob.NodeStarted(ctx, node)
	}
}

func (o Observers) NodeFinished(ctx context.Context, node string, action Action, d time.Duration, err error) {
	for _, ob := range o {
		ob.NodeFinished(ctx, node, action, d, err)
	}
}

func (o Observers) Retried(ctx context.Context, node string, attempt int, err error) {
	for _, ob := range o {
		ob.Retried(ctx, node, attempt, err)
	}
}

func (o Observers) FellBack(ctx context.Context, node string, err error) {
	for _, ob := range o {
		ob.FellBack(ctx, node, err)
	}
}
