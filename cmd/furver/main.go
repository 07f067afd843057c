// Furver turns a set of Go functions into an HTTP API whose requests are JSON
// call expressions. Besides serving, it can print the schema of the API, serve
// the same API over JSON-RPC on stdin and stdout, and run a REPL against a
// running server.
package main

import (
	"os"

	"src.furver.dev/pkg/buildinfo"
	"src.furver.dev/pkg/jsonrpc"
	"src.furver.dev/pkg/prog"
	"src.furver.dev/pkg/repl"
	"src.furver.dev/pkg/server"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &jsonrpc.Program{}, &repl.Program{},
			&server.Program{})))
}
