// Package repl implements an interactive client of a Furver server.
//
// Each line read is either a command starting with "." or a JSON expression,
// which is sent to the server through a batching client. Results are written
// as JSON, one per line.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"src.furver.dev/pkg/client"
	"src.furver.dev/pkg/logutil"
	"src.furver.dev/pkg/prog"
	"src.furver.dev/pkg/sys"
)

var logger = logutil.GetLogger("[repl] ")

const (
	prompt      = "furver> "
	historyFile = ".furver_history"
)

// Program is the REPL subprogram.
type Program struct {
	run        bool
	get        bool
	endpoint   *string
	configPath *string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "repl", false,
		"Start a REPL connected to the server at -endpoint")
	fs.BoolVar(&p.get, "get", false,
		"Send requests from the REPL with GET instead of POST")
	p.endpoint = fs.Endpoint()
	p.configPath = fs.ConfigPath()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.ErrNextProgram
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -repl")
	}
	cfg, err := prog.LoadConfig(*p.configPath)
	if err != nil {
		return err
	}
	opts := client.Options{
		Endpoint: cfg.Client.Endpoint,
		Method:   cfg.Client.Method,
		Window:   cfg.Client.Window,
	}
	if *p.endpoint != "" {
		opts.Endpoint = *p.endpoint
	}
	if p.get {
		opts.Method = "get"
	}

	ctx := context.Background()
	c, err := client.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("cannot connect to %s: %w", opts.Endpoint, err)
	}
	r := newReader(fds)
	defer r.Close()
	return loop(ctx, r, fds[1], fds[2], c)
}

func loop(ctx context.Context, r reader, out, errOut io.Writer, c *client.Client) error {
	for {
		line, err := r.ReadLine(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.AddHistory(line)

		if strings.HasPrefix(line, ".") {
			switch line {
			case ".quit":
				return nil
			case ".schema":
				writeJSON(out, errOut, c.Schema())
			case ".help":
				fmt.Fprintln(out, "Enter a JSON expression, like [\"add\", 1, 2], or one of:")
				fmt.Fprintln(out, "  .schema  show the schema of the server")
				fmt.Fprintln(out, "  .quit    exit")
			default:
				fmt.Fprintf(errOut, "unknown command %s, try .help\n", line)
			}
			continue
		}

		var expr any
		if err := json.Unmarshal([]byte(line), &expr); err != nil {
			fmt.Fprintln(errOut, "cannot parse:", err)
			continue
		}
		v, err := c.Call(ctx, expr)
		if err != nil {
			logger.Printf("%s: %v", line, err)
			fmt.Fprintln(errOut, err)
			continue
		}
		writeJSON(out, errOut, v)
	}
}

func writeJSON(out, errOut io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return
	}
	fmt.Fprintln(out, string(data))
}

type reader interface {
	ReadLine(prompt string) (string, error)
	AddHistory(line string)
	Close() error
}

// interactive reports whether the REPL should use a line editor. The line
// editor always works on the standard input and output of the process.
func interactive(fds [3]*os.File) bool {
	return fds[0] == os.Stdin && fds[1] == os.Stdout && sys.IsATTY(fds[0].Fd())
}

func newReader(fds [3]*os.File) reader {
	if interactive(fds) {
		return newLinerReader()
	}
	return &plainReader{bufio.NewScanner(fds[0])}
}

type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader() *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	r := &linerReader{state: state}
	if home, err := os.UserHomeDir(); err == nil {
		r.historyPath = filepath.Join(home, historyFile)
		if f, err := os.Open(r.historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) { return r.state.Prompt(prompt) }

func (r *linerReader) AddHistory(line string) { r.state.AppendHistory(line) }

func (r *linerReader) Close() error {
	if r.historyPath != "" {
		if f, err := os.Create(r.historyPath); err == nil {
			r.state.WriteHistory(f)
			f.Close()
		} else {
			logger.Println("cannot save history:", err)
		}
	}
	return r.state.Close()
}

// plainReader reads lines without a prompt or history.
type plainReader struct {
	scanner *bufio.Scanner
}

func (r *plainReader) ReadLine(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (*plainReader) AddHistory(string) {}

func (*plainReader) Close() error { return nil }
