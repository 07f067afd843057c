package jsonrpc

import (
	"context"
	"os"

	"src.furver.dev/pkg/mods"
	"src.furver.dev/pkg/prog"
)

// Program is the JSON-RPC subprogram. It serves the API over stdin and
// stdout, selecting modules the same way as the server subprogram.
type Program struct {
	run        bool
	configPath *string
	modules    *string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "stdio", false,
		"Serve the API as JSON-RPC 2.0 over stdin and stdout")
	p.configPath = fs.ConfigPath()
	p.modules = fs.Modules()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.ErrNextProgram
	}
	cfg, err := prog.LoadConfig(*p.configPath)
	if err != nil {
		return err
	}
	api, closeMods, err := mods.Open(cfg, mods.Select(cfg, *p.modules, args))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeMods(); err != nil {
			logger.Println("failed to close modules:", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := NewConn(ctx, transport{fds[0], fds[1]}, Handler(api))
	<-conn.DisconnectNotify()
	logger.Println("disconnected")
	return nil
}

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	if err := c.in.Close(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}
