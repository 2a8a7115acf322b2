package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mosaicnetworks/stdionode/src/message"
	"github.com/mosaicnetworks/stdionode/src/node"
	"github.com/mosaicnetworks/stdionode/src/transport"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	_config = NewDefaultCLIConfig()
)

func init() {
	AddRunFlags(RootCmd)
}

// RootCmd is the root command. It runs a node on stdin and stdout until stdin
// is closed.
var RootCmd = &cobra.Command{
	Use:     "node",
	Short:   "Test harness node speaking JSON over stdin and stdout",
	PreRunE: loadConfig,
	RunE:    runNode,
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	logger := _config.Node.Logger()

	behavior, err := newBehavior(_config.Node.Behavior, logger)
	if err != nil {
		return err
	}

	registry, err := node.NewRegistry(behavior)
	if err != nil {
		return errors.Wrapf(err, "registering %s payloads", _config.Node.Behavior)
	}

	trans := transport.NewStdioTransport(message.NewCodec(registry),
		logger.WithField("component", "transport"))

	n := node.NewNode(&_config.Node, behavior, trans)
	defer n.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runUntilDone(ctx, n)
	if errors.Is(err, context.Canceled) {
		logger.Debug("Interrupted")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "node stopped")
	}

	return nil
}

// runUntilDone runs n until it stops on its own or ctx is cancelled. Node.Run
// only checks ctx between envelopes, so on cancellation the node is shut down
// and ctx.Err() is returned without waiting for the pending read.
func runUntilDone(ctx context.Context, n *node.Node) error {
	done := make(chan error, 1)
	go func() {
		done <- n.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		n.Shutdown()
		return ctx.Err()
	}
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the root command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.Node.DataDir, "Directory searched for the node configuration file")
	cmd.Flags().String("log", _config.Node.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Node.LogFile, "Optional file receiving a JSON copy of the logs")
	cmd.Flags().StringP("behavior", "b", _config.Node.Behavior,
		fmt.Sprintf("Node behavior (%s)", strings.Join(behaviorNames(), ", ")))
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	_config.Node.Logger().WithFields(logrus.Fields{
		"node.DataDir":  _config.Node.DataDir,
		"node.LogLevel": _config.Node.LogLevel,
		"node.LogFile":  _config.Node.LogFile,
		"node.Behavior": _config.Node.Behavior,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// NODE_LOG, NODE_BEHAVIOR... override the config file
	viper.SetEnvPrefix("node")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/node.toml (.json, .yaml also work)
	viper.SetConfigName("node")               // name of config file (without extension)
	viper.AddConfigPath(_config.Node.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		defer _config.Node.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
