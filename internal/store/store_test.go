package store

import (
	"errors"
	"sync"
	"testing"

	"ytmp3/internal/models"
)

func statusPtr(s models.Status) *models.Status { return &s }
func intPtr(n int) *int                        { return &n }
func strPtr(s string) *string                  { return &s }

func TestCreateAdmissionLimit(t *testing.T) {
	s := New(3)

	for i := 0; i < 3; i++ {
		if _, err := s.Create("https://www.youtube.com/watch?v=abc", ""); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	if _, err := s.Create("https://www.youtube.com/watch?v=abc", ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if len(s.List()) != 3 {
		t.Fatalf("rejected create must not add a record, have %d", len(s.List()))
	}
}

func TestCreateAdmissionIgnoresFinishedJobs(t *testing.T) {
	s := New(1)

	job, err := s.Create("https://youtu.be/abc", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Update(job.ID, Update{Status: statusPtr(models.StatusCompleted)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// The finished job no longer occupies a slot
	if _, err := s.Create("https://youtu.be/def", ""); err != nil {
		t.Fatalf("create after completion failed: %v", err)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	s := New(1)
	job, _ := s.Create("https://youtu.be/abc", "")

	steps := []struct {
		in   int
		want int
	}{
		{10, 10},
		{42, 42},
		{30, 42},  // regressive event dropped
		{42, 42},  // duplicate kept
		{150, 100}, // clamped
		{99, 100},
	}
	for _, step := range steps {
		got, err := s.Update(job.ID, Update{Progress: intPtr(step.in)})
		if err != nil {
			t.Fatalf("update(%d) failed: %v", step.in, err)
		}
		if got.Progress != step.want {
			t.Errorf("update(%d): progress = %d, want %d", step.in, got.Progress, step.want)
		}
	}
}

func TestTerminalJobCannotBeRevived(t *testing.T) {
	s := New(2)

	for _, terminal := range []models.Status{models.StatusCompleted, models.StatusError} {
		job, _ := s.Create("https://youtu.be/abc", "")
		if _, err := s.Update(job.ID, Update{Status: &terminal, Error: strPtr("boom")}); err != nil {
			t.Fatalf("terminal update failed: %v", err)
		}

		for _, next := range []models.Status{models.StatusQueued, models.StatusDownloading} {
			if _, err := s.Update(job.ID, Update{Status: &next}); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", terminal, next, err)
			}
		}

		if err := s.Delete(job.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
	}
}

func TestCompletedForcesFullProgress(t *testing.T) {
	s := New(1)
	job, _ := s.Create("https://youtu.be/abc", "")

	if _, err := s.Update(job.ID, Update{Progress: intPtr(37), Status: statusPtr(models.StatusDownloading)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := s.Update(job.ID, Update{Status: statusPtr(models.StatusCompleted), OutputPath: strPtr("/downloads/a.mp3")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Progress != 100 {
		t.Errorf("completed job progress = %d, want 100", got.Progress)
	}
	if got.Error != "" {
		t.Errorf("completed job error = %q, want empty", got.Error)
	}
}

func TestErrorStatusAlwaysHasMessage(t *testing.T) {
	s := New(1)
	job, _ := s.Create("https://youtu.be/abc", "")

	got, err := s.Update(job.ID, Update{Status: statusPtr(models.StatusError)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Error == "" {
		t.Error("error status with empty message must get a fallback")
	}
}

func TestDeleteTwice(t *testing.T) {
	s := New(1)
	job, _ := s.Create("https://youtu.be/abc", "")

	if err := s.Delete(job.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := s.Delete(job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDeletedJob(t *testing.T) {
	s := New(1)
	job, _ := s.Create("https://youtu.be/abc", "")
	if err := s.Delete(job.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := s.Update(job.ID, Update{Progress: intPtr(50)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatal("update of deleted id must not resurrect the record")
	}
}

// TestListSnapshotConsistency hammers one record with updates while
// listing concurrently: no snapshot may show a half-applied terminal
// state (completed without progress 100, error without a message).
func TestListSnapshotConsistency(t *testing.T) {
	s := New(4)
	job, _ := s.Create("https://youtu.be/abc", "")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for p := 0; p <= 100; p += 5 {
			_, _ = s.Update(job.ID, Update{Progress: intPtr(p), Status: statusPtr(models.StatusDownloading)})
		}
		_, _ = s.Update(job.ID, Update{Status: statusPtr(models.StatusCompleted), OutputPath: strPtr("/downloads/a.mp3")})
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, j := range s.List() {
				if j.Status == models.StatusCompleted && j.Progress != 100 {
					t.Errorf("snapshot shows completed with progress %d", j.Progress)
				}
				if j.Status == models.StatusError && j.Error == "" {
					t.Error("snapshot shows error status without message")
				}
			}
		}
	}()

	wg.Wait()
}

func TestSetMaxActiveTakesEffect(t *testing.T) {
	s := New(1)
	if _, err := s.Create("https://youtu.be/a", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create("https://youtu.be/b", ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	s.SetMaxActive(2)
	if _, err := s.Create("https://youtu.be/b", ""); err != nil {
		t.Fatalf("create after raising limit failed: %v", err)
	}
}
