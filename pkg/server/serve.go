package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"src.furver.dev/pkg/logutil"
	"src.furver.dev/pkg/sys"
)

var httpLogger = logutil.GetLogger("[server] http: ")

// ServeOpts keeps options that can be passed to Serve.
type ServeOpts struct {
	// If not nil, used instead of listening on the address passed to Serve.
	Listener net.Listener
	// If not nil, will be closed when the server is ready to serve requests.
	Ready chan<- struct{}
	// Causes the server to shut down if closed or sent any data. If nil, Serve
	// will set up its own signal channel by listening to SIGINT and SIGTERM.
	Signals <-chan os.Signal
	// How long to wait for requests in flight when shutting down. Zero means
	// waiting without limit.
	ShutdownTimeout time.Duration
}

// Serve serves h on the TCP address addr until a signal is received, and
// returns the exit status. See doc for ServeOpts for additional options.
func Serve(addr string, h http.Handler, opts ServeOpts) int {
	logger.Println("pid is", syscall.Getpid())
	listener := opts.Listener
	if listener == nil {
		logger.Println("going to listen", addr)
		var err error
		listener, err = sys.Listen("tcp", addr)
		if err != nil {
			logger.Printf("failed to listen on %s: %v", addr, err)
			logger.Println("aborting")
			return 2
		}
	}
	logger.Println("listening on", listener.Addr())

	server := &http.Server{
		Handler:  h,
		ErrorLog: httpLogger,
	}
	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- server.Serve(listener) }()

	sigCh := opts.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(ch)
		sigCh = ch
	}

	if opts.Ready != nil {
		close(opts.Ready)
	}

	select {
	case sig := <-sigCh:
		logger.Printf("received signal %v", sig)
	case err := <-serveErrCh:
		logger.Println("could not serve:", err)
		return 2
	}

	ctx := context.Background()
	if opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ShutdownTimeout)
		defer cancel()
	}
	logger.Println("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Println("failed to shut down cleanly:", err)
		server.Close()
		return 1
	}
	if err := <-serveErrCh; !errors.Is(err, http.ErrServerClosed) {
		logger.Println("unexpected error from server:", err)
	}
	logger.Println("exiting")
	return 0
}
