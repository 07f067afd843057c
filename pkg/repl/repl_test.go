package repl

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"src.furver.dev/pkg/client"
	"src.furver.dev/pkg/env"
	"src.furver.dev/pkg/mods/core"
	. "src.furver.dev/pkg/prog/progtest"
	"src.furver.dev/pkg/server"
	"src.furver.dev/pkg/testutil"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(server.Handler(core.Env(), server.Options{}))
	t.Cleanup(ts.Close)
	return ts
}

func TestProgram(t *testing.T) {
	ts := testServer(t)
	testutil.Setenv(t, env.FURVER_ENDPOINT, "")

	Test(t, &Program{},
		ThatFurver().ExitsWith(2).WritesStderr("internal error: no suitable subprogram\n"),
		ThatFurver("-repl", "-endpoint", ts.URL).
			WithStdin(`["add", 1, 2]` + "\n").
			WritesStdout("3\n"),
		ThatFurver("-repl", "-get", "-endpoint", ts.URL).
			WithStdin(`["concat", "a", "b"]` + "\n").
			WritesStdout("\"ab\"\n"),
		ThatFurver("-repl", "-endpoint", ts.URL).
			WithStdin(".schema\n").
			WritesStdoutContaining(`["add",2]`),
		ThatFurver("-repl", "-endpoint", ts.URL, "foo").
			ExitsWith(2).
			WritesStderrContaining("arguments are not allowed with -repl"),
		ThatFurver("-repl", "-endpoint", ts.URL+"/no-such-prefix").
			ExitsWith(2).
			WritesStderrContaining("cannot connect to"),
	)
}

func TestProgram_EndpointFromEnv(t *testing.T) {
	ts := testServer(t)
	testutil.Setenv(t, env.FURVER_ENDPOINT, ts.URL)

	Test(t, &Program{},
		ThatFurver("-repl").
			WithStdin(`["inc", 41]` + "\n").
			WritesStdout("42\n"),
	)
}

var loopTests = []struct {
	name       string
	input      string
	wantOut    string
	wantErrOut string
}{
	{
		name:    "expressions",
		input:   "[\"add\", 1, 2]\n\n  [\"multiply\", 3, 4]  \n",
		wantOut: "3\n12\n",
	},
	{
		name:       "parse error",
		input:      "not json\n[\"inc\", 1]\n",
		wantOut:    "2\n",
		wantErrOut: "cannot parse:",
	},
	{
		name:       "unknown operator",
		input:      "[\"no-such-fn\"]\n[\"inc\", 1]\n",
		wantOut:    "2\n",
		wantErrOut: "server responded with status 404",
	},
	{
		name:    "quit",
		input:   ".quit\n[\"inc\", 1]\n",
		wantOut: "",
	},
	{
		name:       "unknown command",
		input:      ".foo\n",
		wantErrOut: "unknown command .foo",
	},
}

func TestLoop(t *testing.T) {
	ts := testServer(t)
	ctx := context.Background()
	c, err := client.New(ctx, client.Options{Endpoint: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range loopTests {
		t.Run(test.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			r := &plainReader{newScanner(test.input)}
			err := loop(ctx, r, &out, &errOut, c)
			if err != nil {
				t.Errorf("got error %v", err)
			}
			if out.String() != test.wantOut {
				t.Errorf("got stdout %q, want %q", out.String(), test.wantOut)
			}
			if test.wantErrOut == "" {
				if errOut.Len() > 0 {
					t.Errorf("got stderr %q, want empty", errOut.String())
				}
			} else if !strings.Contains(errOut.String(), test.wantErrOut) {
				t.Errorf("got stderr %q, want it to contain %q", errOut.String(), test.wantErrOut)
			}
		})
	}
}

func TestLoop_Help(t *testing.T) {
	ts := testServer(t)
	ctx := context.Background()
	c, err := client.New(ctx, client.Options{Endpoint: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	loop(ctx, &plainReader{newScanner(".help\n")}, &out, &out, c)
	if !strings.Contains(out.String(), ".schema") {
		t.Errorf("help output %q does not mention .schema", out.String())
	}
}

func TestInteractive(t *testing.T) {
	_, tty := setupPTY(t)
	if interactive([3]*os.File{tty, tty, tty}) {
		t.Errorf("want non-interactive when the terminal is not stdin")
	}

	testutil.Set(t, &os.Stdin, tty)
	testutil.Set(t, &os.Stdout, tty)
	if !interactive([3]*os.File{tty, tty, tty}) {
		t.Errorf("want interactive when stdin is a terminal")
	}

	r, w := mustPipe(t)
	testutil.Set(t, &os.Stdin, r)
	if interactive([3]*os.File{r, tty, tty}) {
		t.Errorf("want non-interactive when stdin is a pipe")
	}
	w.Close()
}
