package models

import "testing"

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusQueued, false},
		{StatusStarting, false},
		{StatusDownloading, false},
		{StatusConverting, false},
		{StatusDone, true},
		{StatusError, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("Status(%s).Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"queued to starting", StatusQueued, StatusStarting, true},
		{"starting to downloading", StatusStarting, StatusDownloading, true},
		{"downloading to converting", StatusDownloading, StatusConverting, true},
		{"converting to done", StatusConverting, StatusDone, true},
		{"skip ahead allowed", StatusQueued, StatusConverting, true},
		{"error from starting", StatusStarting, StatusError, true},
		{"error from converting", StatusConverting, StatusError, true},
		{"no backward move", StatusConverting, StatusDownloading, false},
		{"done is terminal", StatusDone, StatusError, false},
		{"error is terminal", StatusError, StatusQueued, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPatchApplyLeavesUnsetFields(t *testing.T) {
	job := Job{
		ID:       "a",
		Status:   StatusDownloading,
		Progress: 40,
		URL:      "",
		Error:    "",
	}

	pct := 55
	merged := Patch{Progress: &pct}.Apply(job)

	if merged.Progress != 55 {
		t.Errorf("Progress = %d, want 55", merged.Progress)
	}
	if merged.Status != StatusDownloading {
		t.Errorf("Status changed to %s by progress-only patch", merged.Status)
	}

	status := StatusConverting
	zero := 0
	merged = Patch{Status: &status, Progress: &zero}.Apply(merged)
	if merged.Status != StatusConverting || merged.Progress != 0 {
		t.Errorf("stage reset produced %s/%d", merged.Status, merged.Progress)
	}
}

func TestPatchApplyClampsProgress(t *testing.T) {
	for _, tt := range []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{100, 100},
		{140, 100},
	} {
		pct := tt.in
		merged := Patch{Progress: &pct}.Apply(Job{})
		if merged.Progress != tt.want {
			t.Errorf("Apply progress %d = %d, want %d", tt.in, merged.Progress, tt.want)
		}
	}
}

func TestSnapshotCopiesObservableFields(t *testing.T) {
	job := Job{
		ID:       "a",
		Status:   StatusDone,
		Progress: 100,
		URL:      "http://localhost:8080/files/a.mp4",
	}
	snap := job.Snapshot()
	if snap.Status != StatusDone || snap.Progress != 100 || snap.URL != job.URL || snap.Error != "" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
