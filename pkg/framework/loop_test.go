package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) ctl(name string) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.calls = append(r.calls, name)
		return nil
	})
}

func TestLoopPriorityOrder(t *testing.T) {
	var rec recorder
	loop := NewLoop()
	loop.AddController(PrLvAcuate, rec.ctl("acuate"))
	loop.AddController(PrLvSense, rec.ctl("sense"))
	loop.AddController(PrLvPostProc, rec.ctl("post"))
	loop.AddController(PrLvSense, rec.ctl("sense2"))

	loop.Iterate(context.Background())
	require.Equal(t, []string{"sense", "sense2", "acuate", "post"}, rec.calls)
	require.EqualValues(t, 1, loop.Iterations())
}

func TestLoopOneShotHooks(t *testing.T) {
	var rec recorder
	loop := NewLoop()
	loop.AddController(PrLvControl, rec.ctl("ctl"))
	loop.PreRunAt(PrLvControl, rec.ctl("pre"))
	loop.PostRunAt(PrLvControl, rec.ctl("post"))

	loop.Iterate(context.Background())
	require.Equal(t, []string{"pre", "ctl", "post"}, rec.calls)

	rec.calls = nil
	loop.Iterate(context.Background())
	require.Equal(t, []string{"ctl"}, rec.calls)
}

func TestLoopPostRunInstalledForNextIteration(t *testing.T) {
	var rec recorder
	loop := NewLoop()
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		if cc.Iteration() == 1 {
			cc.PostRun(ControlFunc(func(cc ControlContext) error {
				rec.calls = append(rec.calls, "hook")
				cc.PostRun(rec.ctl("next"))
				return nil
			}))
		}
		require.Equal(t, PrLvControl, cc.PriorityLevel())
		return nil
	}))
	loop.Iterate(context.Background())
	require.Equal(t, []string{"hook"}, rec.calls)
	loop.Iterate(context.Background())
	require.Equal(t, []string{"hook", "next"}, rec.calls)
}

func TestLoopControllerErrorDoesNotStop(t *testing.T) {
	var rec recorder
	loop := NewLoop()
	loop.AddController(PrLvHigh, ControlFunc(func(ControlContext) error {
		return errors.New("boom")
	}))
	loop.AddController(PrLvLow, rec.ctl("low"))
	loop.Iterate(context.Background())
	require.Equal(t, []string{"low"}, rec.calls)
}

func TestLoopRunStartsRunnablesAndStops(t *testing.T) {
	loop := NewLoop()
	loop.Interval = 10 * time.Millisecond
	started := make(chan struct{})
	iterated := make(chan struct{}, 1)
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		LoopCtlFrom(ctx).TriggerNext()
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	loop.AddController(PrLvControl, ControlFunc(func(ControlContext) error {
		select {
		case iterated <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-started
	<-iterated
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
}

func TestTriggerNextNeverBlocks(t *testing.T) {
	loop := NewLoop()
	for i := 0; i < 10; i++ {
		loop.TriggerNext()
	}
}
