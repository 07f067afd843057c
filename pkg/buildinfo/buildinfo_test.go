package buildinfo

import (
	"encoding/json"
	"runtime"
	"testing"

	. "src.furver.dev/pkg/prog/progtest"
)

func TestProgram(t *testing.T) {
	Test(t, &Program{},
		ThatFurver("-version").WritesStdout(Version+VersionSuffix+"\n"),
		ThatFurver("-version", "-json").WritesStdout(mustToJSON(Version+VersionSuffix)+"\n"),
		ThatFurver("-buildinfo").WritesStdoutContaining(
			"Version: "+Version+VersionSuffix+"\n"+
				"Go version: "+runtime.Version()+"\n"),
		ThatFurver("-buildinfo", "-json").WritesStdout(mustToJSON(Value())+"\n"),
		ThatFurver().ExitsWith(2).WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestValue(t *testing.T) {
	info := Value()
	if info.Version != Version+VersionSuffix {
		t.Errorf("Version = %q", info.Version)
	}
	b, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["goversion"] != runtime.Version() {
		t.Errorf("goversion = %v, want %v", m["goversion"], runtime.Version())
	}
}
