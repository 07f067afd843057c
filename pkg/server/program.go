package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"src.furver.dev/pkg/mods"
	"src.furver.dev/pkg/prog"
	"src.furver.dev/pkg/schema"
)

// Program is the server subprogram. It serves the API modules named by its
// arguments, or by -modules, or by the configuration file, in that order of
// preference.
type Program struct {
	port   int
	prefix string
	schema bool
	text   bool

	configPath *string
	modules    *string

	// Used in tests.
	serveOpts ServeOpts
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.IntVar(&p.port, "port", 0,
		"Port to listen on; overrides $FURVER_PORT and the configuration (default 3000)")
	fs.StringVar(&p.prefix, "prefix", "",
		"Path prefix under which the API is served")
	fs.BoolVar(&p.schema, "schema", false,
		"Output the API schema as JSON without running the server")
	fs.BoolVar(&p.text, "text", false,
		"With -schema, output one \"name arity\" line per function instead of JSON")
	p.configPath = fs.ConfigPath()
	p.modules = fs.Modules()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	cfg, err := prog.LoadConfig(*p.configPath)
	if err != nil {
		return err
	}
	if p.port != 0 {
		cfg.Port = p.port
	}
	if p.prefix != "" {
		cfg.Prefix = p.prefix
	}
	if err := cfg.Check(); err != nil {
		return prog.BadUsage(err.Error())
	}

	names := mods.Select(cfg, *p.modules, args)
	api, closeMods, err := mods.Open(cfg, names)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeMods(); err != nil {
			logger.Println("failed to close modules:", err)
		}
	}()

	if p.schema {
		return writeSchema(fds[1], schema.Derive(api), p.text)
	}

	addr := ":" + strconv.Itoa(cfg.Port)
	fmt.Fprintf(fds[2], "furver: serving %v on %s%s\n", names, addr, cfg.Prefix)
	opts := p.serveOpts
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = cfg.ShutdownTimeout
	}
	return prog.Exit(Serve(addr, Handler(api, Options{Prefix: cfg.Prefix}), opts))
}

func writeSchema(out *os.File, m schema.Manifest, asText bool) error {
	if asText {
		for _, e := range m {
			fmt.Fprintf(out, "%s %d\n", e.Name, e.Arity)
		}
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
