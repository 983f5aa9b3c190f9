package isolate

import (
	"errors"
	"fmt"
	"testing"
)

func TestWorkerError_Error(t *testing.T) {
	err := errors.New("something went wrong")
	we := &WorkerError{
		Worker: WorkerInfo{Name: "resizer"},
		Err:    err,
	}

	expected := "worker resizer failed: something went wrong"
	if got := we.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestWorkerError_Unwrap(t *testing.T) {
	err := errors.New("original error")
	we := &WorkerError{
		Worker: WorkerInfo{Name: "resizer"},
		Err:    err,
	}

	if got := we.Unwrap(); got != err {
		t.Errorf("Unwrap() = %v, want %v", got, err)
	}
}

func TestSpawnError(t *testing.T) {
	cause := errors.New("out of units")
	se := &SpawnError{Err: cause}

	expected := "isolate: spawn failed: out of units"
	if got := se.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
	if !errors.Is(se, cause) {
		t.Error("SpawnError should unwrap to its cause")
	}
}

func TestIsWorkerError(t *testing.T) {
	we := &WorkerError{
		Worker: WorkerInfo{Name: "w"},
		Err:    errors.New("err"),
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: false,
		},
		{
			name: "WorkerError",
			err:  we,
			want: true,
		},
		{
			name: "wrapped WorkerError",
			err:  fmt.Errorf("wrapped: %w", we),
			want: true,
		},
		{
			name: "joined errors containing WorkerError",
			err:  errors.Join(errors.New("other"), we),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWorkerError(tt.err); got != tt.want {
				t.Errorf("IsWorkerError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkerOf(t *testing.T) {
	info := WorkerInfo{Name: "target-worker"}
	we := &WorkerError{
		Worker: info,
		Err:    errors.New("err"),
	}

	tests := []struct {
		name     string
		err      error
		wantInfo WorkerInfo
		wantOk   bool
	}{
		{
			name:     "nil error",
			err:      nil,
			wantInfo: WorkerInfo{},
			wantOk:   false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard"),
			wantInfo: WorkerInfo{},
			wantOk:   false,
		},
		{
			name:     "WorkerError",
			err:      we,
			wantInfo: info,
			wantOk:   true,
		},
		{
			name:     "wrapped WorkerError",
			err:      fmt.Errorf("wrapped: %w", we),
			wantInfo: info,
			wantOk:   true,
		},
		{
			name:     "joined errors containing WorkerError",
			err:      errors.Join(errors.New("other"), we),
			wantInfo: info,
			wantOk:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotInfo, gotOk := WorkerOf(tt.err)
			if gotOk != tt.wantOk {
				t.Errorf("WorkerOf() ok = %v, want %v", gotOk, tt.wantOk)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("WorkerOf() info = %v, want %v", gotInfo, tt.wantInfo)
			}
		})
	}
}

func TestCauseOf(t *testing.T) {
	rootErr := errors.New("root cause")
	we := &WorkerError{
		Worker: WorkerInfo{Name: "w"},
		Err:    rootErr,
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil error",
			err:  nil,
			want: nil,
		},
		{
			name: "standard error",
			err:  rootErr,
			want: rootErr,
		},
		{
			name: "WorkerError",
			err:  we,
			want: rootErr,
		},
		{
			name: "wrapped WorkerError",
			err:  fmt.Errorf("wrapped: %w", we),
			want: rootErr,
		},
		{
			name: "joined errors containing WorkerError",
			err:  errors.Join(errors.New("other"), we),
			want: rootErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CauseOf(tt.err)
			if got != tt.want {
				t.Errorf("CauseOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllWorkerErrors(t *testing.T) {
	we1 := &WorkerError{Worker: WorkerInfo{Name: "w1"}, Err: errors.New("e1")}
	we2 := &WorkerError{Worker: WorkerInfo{Name: "w2"}, Err: errors.New("e2")}
	we3 := &WorkerError{Worker: WorkerInfo{Name: "w3"}, Err: errors.New("e3")}

	// WorkerError wrapping another WorkerError
	weNested := &WorkerError{Worker: WorkerInfo{Name: "outer"}, Err: we1}

	tests := []struct {
		name string
		err  error
		want []*WorkerError
	}{
		{
			name: "nil error",
			err:  nil,
			want: nil,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: nil,
		},
		{
			name: "single WorkerError",
			err:  we1,
			want: []*WorkerError{we1},
		},
		{
			name: "wrapped WorkerError",
			err:  fmt.Errorf("wrapped: %w", we1),
			want: []*WorkerError{we1},
		},
		{
			name: "joined WorkerErrors",
			err:  errors.Join(we1, we2),
			want: []*WorkerError{we1, we2},
		},
		{
			name: "mixed joined errors",
			err:  errors.Join(errors.New("other"), we1, errors.New("other2"), we2),
			want: []*WorkerError{we1, we2},
		},
		{
			name: "nested joins",
			err:  errors.Join(errors.Join(we1, we2), we3),
			want: []*WorkerError{we1, we2, we3},
		},
		{
			name: "WorkerError wrapping WorkerError (stops at top)",
			err:  weNested,
			want: []*WorkerError{weNested},
		},
		{
			name: "Join with nested WorkerError",
			err:  errors.Join(weNested, we2),
			want: []*WorkerError{weNested, we2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllWorkerErrors(tt.err)
			if len(got) != len(tt.want) {
				t.Fatalf("AllWorkerErrors() len = %d, want %d", len(got), len(tt.want))
			}
			for i, g := range got {
				if g != tt.want[i] {
					t.Errorf("AllWorkerErrors()[%d] = %v, want %v", i, g, tt.want[i])
				}
			}
		})
	}
}

func TestWorkerInfo_String(t *testing.T) {
	named := WorkerInfo{Name: "resizer"}
	if got := named.String(); got != "resizer" {
		t.Errorf("String() = %q, want %q", got, "resizer")
	}

	w := NewWorker()
	unnamed := w.Info().String()
	if len(unnamed) != 8 {
		t.Errorf("unnamed String() = %q, want 8-character ID prefix", unnamed)
	}
}
