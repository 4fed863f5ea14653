package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
)

const dialProbeTimeout = 2 * time.Second

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiAddr resolves the daemon API address: the --api flag wins, then the
// configured bind address.
func (c *commandContext) apiAddr() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.API.Bind
	}
	return config.Default().API.Bind
}

func (c *commandContext) apiClient() *api.Client {
	client := api.NewClient(c.apiAddr())
	if cfg := c.configValue(); cfg != nil && strings.TrimSpace(cfg.API.Token) != "" {
		client = client.WithToken(cfg.API.Token)
	}
	return client
}

// dialDaemon probes the daemon liveness endpoint and returns a ready client.
func (c *commandContext) dialDaemon(ctx context.Context) (*api.Client, error) {
	client := c.apiClient()
	probeCtx, cancel := context.WithTimeout(ctx, dialProbeTimeout)
	defer cancel()
	if _, err := client.Health(probeCtx); err != nil {
		return nil, wrapDialError(err, c.apiAddr())
	}
	return client, nil
}

func wrapDialError(err error, addr string) error {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: %s refused the connection; start the daemon with `sermonhub start`", addr)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("connect to daemon: %s did not respond; verify the daemon is running", addr)
	default:
		return fmt.Errorf("connect to daemon at %s: %w", addr, err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
