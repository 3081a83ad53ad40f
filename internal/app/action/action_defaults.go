package action

import "time"

var (
	// Backend
	defaultHost            = "127.0.0.1"
	defaultPort            = "8888"
	defaultProcessingDelay = 100 * time.Millisecond

	// Console, disabled unless an address is given
	defaultConsoleAddr = ""

	// SQLite config
	defaultDatabasePath = "server.sqlite"
	defaultDatabaseType = "sqlite"
)

var (
	// Client
	defaultDialTimeout = 10 * time.Second
)
