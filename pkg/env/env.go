// Package env keeps names of environment variables with special significance
// to Furver.
package env

// Environment variables with special significance to Furver.
const (
	// Port the server listens on when -port is not given.
	FURVER_PORT = "FURVER_PORT"
	// Endpoint used by the REPL when -endpoint is not given.
	FURVER_ENDPOINT = "FURVER_ENDPOINT"
	// Scales timeouts in tests; see testutil.Scaled.
	FURVER_TEST_TIME_SCALE = "FURVER_TEST_TIME_SCALE"
	HOME                   = "HOME"
)
