package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"royale/internal/core"
	"royale/internal/core/debug"
	"royale/internal/dealer"
	"royale/internal/web"
)

// Controller is the main entrypoint for the server. It's responsible for
// initializing any shared resources (such as database and logging),
// defining the servers, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup

	tableServer *dealer.Server
	webServer   *web.Server
	servers     []*frontend
}

func (c *Controller) Start(ctx context.Context) {
	defer c.Shutdown()

	var err error
	// Set up the logger, which will be used by all sub-servers.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		fmt.Printf("error initializing logger: %v\n", err)
		return
	}

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.PprofEnabled {
		debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	// Configure and run all of our servers.
	if err := c.declareServers(ctx); err != nil {
		c.logger.Errorf("%v", err)
		return
	}
	c.run(ctx)
}

// Set up all of the servers we want to run.
func (c *Controller) declareServers(ctx context.Context) error {
	c.tableServer = &dealer.Server{
		Name:   "TABLE",
		Config: c.Config,
		Logger: c.logger,
	}

	c.servers = []*frontend{
		{
			Address: c.buildAddress(c.Config.GameServer.Port),
			Backend: c.tableServer,
		},
	}

	// The status API reads from the live table, so it can only be
	// declared once the table server has initialized its engine. The
	// frontend would otherwise call Init itself.
	if c.Config.Web.HTTPPort != 0 {
		if err := c.tableServer.Init(ctx); err != nil {
			return fmt.Errorf("error initializing %s server: %v", c.tableServer.Identifier(), err)
		}
		c.webServer = &web.Server{
			Config: web.Config{HTTPPort: c.Config.Web.HTTPPort},
			Logger: c.logger,
			Table:  c.tableServer.Table(),
		}
		c.webServer.Start(ctx)
	}

	return nil
}

func (c *Controller) run(ctx context.Context) {
	// Start all of our servers. Failure to initialize one of the registered
	// servers is considered terminal.
	for _, server := range c.servers {
		server.Config = c.Config
		server.Logger = c.logger

		if err := server.Start(ctx, &c.wg); err != nil {
			c.logger.Errorf("error starting %s server: %v", server.Backend.Identifier(), err)
			return
		}
	}

	c.wg.Wait()
}

func (c *Controller) buildAddress(port int) string {
	return fmt.Sprintf("%s:%v", c.Config.Hostname, port)
}

func (c *Controller) Shutdown() {
	// Persist balances after all of the frontends have stopped so no
	// session is mid-teardown while we flush.
	c.wg.Wait()
	if c.tableServer != nil {
		c.tableServer.Shutdown()
	}
}
