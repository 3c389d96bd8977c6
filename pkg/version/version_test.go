package version

import (
	"strings"
	"testing"
)

func TestGetSnapshotsBuildVariables(t *testing.T) {
	Version = "1.2.3"
	GitCommit = "abcdef"
	BuildTime = "2026-08-01T00:00:00Z"

	info := Get()
	if info.Version != "1.2.3" || info.GitCommit != "abcdef" || info.BuildTime != "2026-08-01T00:00:00Z" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.GoVersion == "" {
		t.Fatal("expected a populated Go version")
	}
}

func TestStringNamesTheBinaryAndBuild(t *testing.T) {
	info := Info{Version: "1.2.3", GitCommit: "abcdef", BuildTime: "now", GoVersion: "go1.23"}
	s := info.String()
	for _, want := range []string{"nexusd", "1.2.3", "abcdef", "now", "go1.23"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q: %s", want, s)
		}
	}
}
