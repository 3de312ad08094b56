package pipeline

import "context"

// Hook observes stage boundaries. OnStageStart may return a derived context
// that is used for the stage's work.
type Hook interface {
	OnStageStart(ctx context.Context, stage Stage) (context.Context, HookToken)
	OnStageEnd(ctx context.Context, token HookToken, stage Stage, err error)
}

// HookToken is an opaque value returned by OnStageStart and passed back to
// OnStageEnd. Only meaningful to the Hook that created it.
type HookToken any

type noopHook struct{}

func (noopHook) OnStageStart(ctx context.Context, _ Stage) (context.Context, HookToken) {
	return ctx, nil
}

func (noopHook) OnStageEnd(context.Context, HookToken, Stage, error) {}
