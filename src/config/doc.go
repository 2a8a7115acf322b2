// Package config defines the configuration for a node.
//
// Whether a node is started from Go code or from the command line, it uses the
// Config object defined in this package. On top of command line flags, the
// node looks for an optional configuration file in Config.DataDir:
//
//	node.toml|yaml|json // any of the formats supported by viper.
//
// Logs never go to stdout, which is reserved for protocol traffic.
package config
