package depot

import "go.uber.org/zap"

// Config holds package-wide defaults read when a World or Storage is built.
var Config config = config{
	logger:          zap.NewNop(),
	initialCapacity: 64,
}

type config struct {
	logger          *zap.Logger
	initialCapacity int
}

// SetLogger sets the logger new worlds and storages write to. nil restores
// the no-op logger.
func (c *config) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// SetInitialCapacity sizes the entity map and column arrays of new storages.
func (c *config) SetInitialCapacity(n int) {
	c.initialCapacity = max(n, 0)
}
