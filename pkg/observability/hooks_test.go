package observability

import (
	"context"
	"testing"
	"time"
)

type recordingStageHooks struct {
	started   []string
	completed []string
}

func (r *recordingStageHooks) OnStageStart(_ context.Context, stage, state string) {
	r.started = append(r.started, stage+"/"+state)
}

func (r *recordingStageHooks) OnStageComplete(_ context.Context, stage, state string, _ int, _ time.Duration, _ error) {
	r.completed = append(r.completed, stage+"/"+state)
}

func TestDefaultHooksAreNoop(t *testing.T) {
	// Calling through the default no-op hooks must not panic.
	ctx := context.Background()
	Stage().OnStageStart(ctx, "apportion", "NC")
	Stage().OnStageComplete(ctx, "apportion", "NC", 100, time.Second, nil)
	Cache().OnCacheHit(ctx, "stage")
	Cache().OnCacheMiss(ctx, "stage")
	Cache().OnCacheSet(ctx, "stage", 1024)
	Upload().OnUploadStart(ctx, "nc_precincts")
	Upload().OnUploadComplete(ctx, "nc_precincts", 100, time.Second, nil)
}

func TestSetStageHooks(t *testing.T) {
	rec := &recordingStageHooks{}
	SetStageHooks(rec)
	defer SetStageHooks(NoopStageHooks{})

	ctx := context.Background()
	Stage().OnStageStart(ctx, "dots", "TX")
	Stage().OnStageComplete(ctx, "dots", "TX", 5000, time.Millisecond, nil)

	if len(rec.started) != 1 || rec.started[0] != "dots/TX" {
		t.Errorf("started = %v, want [dots/TX]", rec.started)
	}
	if len(rec.completed) != 1 || rec.completed[0] != "dots/TX" {
		t.Errorf("completed = %v, want [dots/TX]", rec.completed)
	}
}

func TestSetNilHooksKeepsPrevious(t *testing.T) {
	rec := &recordingStageHooks{}
	SetStageHooks(rec)
	defer SetStageHooks(NoopStageHooks{})

	SetStageHooks(nil)
	Stage().OnStageStart(context.Background(), "assign", "NC")

	if len(rec.started) != 1 {
		t.Errorf("started = %v, want one event after nil registration", rec.started)
	}
}
