package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestRunNow 测试手动触发任务并记录成功时间.
func TestRunNow(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Start()
	defer s.Stop()

	ran := make(chan struct{}, 1)

	err = s.AddCron(context.Background(), "test.job", "0 3 * * *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	if err := s.AddCron(context.Background(), "test.job", "0 3 * * *", func(context.Context) error { return nil }); err == nil {
		t.Error("expected duplicate name error")
	}

	if err := s.RunNow("test.job"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, err := s.GetJobInfoByName("test.job")
		if err != nil {
			t.Fatalf("GetJobInfoByName: %v", err)
		}

		if !info.LastSuccess.IsZero() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Error("LastSuccess not recorded")
}

// TestJobError 测试任务返回错误时记录状态.
func TestJobError(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Start()
	defer s.Stop()

	done := make(chan struct{})

	err = s.AddCron(context.Background(), "failing", "0 3 * * *", func(context.Context) error {
		defer close(done)
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	if err := s.RunNow("failing"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	<-done

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, _ := s.GetJobInfoByName("failing")
		if info.Status == StatusError && info.Error == "boom" {
			if info.Runs != 1 || info.Failures != 1 {
				t.Errorf("runs = %d, failures = %d", info.Runs, info.Failures)
			}

			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Error("error status not recorded")
}

// TestUnknownJob 测试未知任务.
func TestUnknownJob(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer s.Stop()

	if err := s.RunNow("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("RunNow(missing) = %v, want ErrJobNotFound", err)
	}

	if err := s.RemoveJobByName("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("RemoveJobByName(missing) = %v, want ErrJobNotFound", err)
	}

	if len(s.GetJobInfos()) != 0 {
		t.Error("expected no jobs")
	}
}

// TestJobPanic 测试任务 panic 被记为失败且调度器可重复停止.
func TestJobPanic(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Start()

	err = s.AddCron(context.Background(), "panics", "0 3 * * *", func(context.Context) error {
		panic("bad state")
	})
	if err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	if err := s.RunNow("panics"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		info, _ := s.GetJobInfoByName("panics")
		if info.Status == StatusError {
			if info.Error != "panic in job: bad state" {
				t.Errorf("error = %q", info.Error)
			}

			break
		}

		if time.Now().After(deadline) {
			t.Fatal("panic not recorded")
		}

		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}

	info, _ := s.GetJobInfoByName("panics")
	if info.Status != StatusStopped || !info.NextRun.IsZero() {
		t.Errorf("after stop: status %s next %v", info.Status, info.NextRun)
	}
}
