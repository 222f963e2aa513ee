package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %q, got %q", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("unexpected platform %q", info.Platform)
	}
}

func TestGetLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abc1234", "2026-03-01T10:30:00Z"

	info := Get()
	if info.GitCommit != "abc1234" {
		t.Errorf("expected ldflags commit to win, got %q", info.GitCommit)
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected build date %v, got %v", want, info.BuildDate)
	}
	if !info.IsDirty && !info.IsRelease {
		t.Error("a clean tagged build should be a release")
	}
}

func TestApplyBuildSettings(t *testing.T) {
	tests := []struct {
		name       string
		info       Info
		settings   []debug.BuildSetting
		wantCommit string
		wantDirty  bool
		wantDate   bool
	}{
		{
			name: "vcs stamp",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.time", Value: "2026-02-01T08:00:00Z"},
			},
			wantCommit: "0123456",
			wantDirty:  true,
			wantDate:   true,
		},
		{
			name:       "ldflags commit kept",
			info:       Info{GitCommit: "fedcba9"},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			wantCommit: "fedcba9",
		},
		{
			name:     "bad vcs time ignored",
			settings: []debug.BuildSetting{{Key: "vcs.time", Value: "yesterday"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := tc.info
			applyBuildSettings(&info, tc.settings)
			if info.GitCommit != tc.wantCommit {
				t.Errorf("commit = %q, want %q", info.GitCommit, tc.wantCommit)
			}
			if info.IsDirty != tc.wantDirty {
				t.Errorf("dirty = %v, want %v", info.IsDirty, tc.wantDirty)
			}
			if info.BuildDate.IsZero() == tc.wantDate {
				t.Errorf("build date set = %v, want %v", !info.BuildDate.IsZero(), tc.wantDate)
			}
		})
	}
}

func TestShortAndString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Short(); got != tc.want {
				t.Errorf("Short() = %q, want %q", got, tc.want)
			}
		})
	}

	info := Info{Version: "1.0.0", GoVersion: "go1.26.0", Platform: "linux/amd64",
		BuildDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s := info.String()
	for _, want := range []string{"stackup 1.0.0", "go1.26.0", "linux/amd64", "built 2026-01-02T03:04:05Z"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
