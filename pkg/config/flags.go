package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "ragdesk ask", "ragdesk chat" and "ragdesk docs list").
type Flag struct {
	// Name is the long flag name (e.g. "api-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags to
// avoid typos or drift from one command to another.
const (
	FlagAPITarget     = "api-target"
	FlagToken         = "token"
	FlagTenant        = "tenant"
	FlagTimeout       = "timeout"
	FlagHistoryDriver = "history-driver"
	FlagSQLite        = "sqlite"
	FlagPostgresDSN   = "postgres-dsn"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
	FlagListen        = "listen"
	FlagDocsDir       = "docs-dir"
)

// Flags is the registry of every shared flag.
var Flags = FlagSet{
	FlagAPITarget:     {Name: "api-target", Shorthand: "a", ViperKey: "api.target", Description: "Document service URL"},
	FlagToken:         {Name: "token", ViperKey: "api.token", Description: "Bearer token for the document service"},
	FlagTenant:        {Name: "tenant", Shorthand: "t", ViperKey: "api.tenant", Description: "Tenant ID sent with every request"},
	FlagTimeout:       {Name: "timeout", ViperKey: "api.timeout", Description: "Timeout for non-streaming requests (e.g. 30s)"},
	FlagHistoryDriver: {Name: "history-driver", ViperKey: "history.driver", Description: "History store (memory, sqlite, postgres)"},
	FlagSQLite:        {Name: "sqlite", Shorthand: "s", ViperKey: "history.sqlite_path", Description: "Path to the SQLite history database"},
	FlagPostgresDSN:   {Name: "postgres-dsn", ViperKey: "history.postgres_dsn", Description: "PostgreSQL connection string for history"},
	FlagKafkaBrokers:  {Name: "kafka-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers for query events"},
	FlagKafkaTopic:    {Name: "kafka-topic", ViperKey: "events.topic", Description: "Kafka topic for query events"},
	FlagListen:        {Name: "listen", Shorthand: "l", ViperKey: "serve.listen", Description: "Address for the development service to listen on"},
	FlagDocsDir:       {Name: "docs-dir", ViperKey: "serve.docs_dir", Description: "Directory of PDFs served by the development service"},
}

// ClientFlags are the flags of every command that talks to the service.
var ClientFlags = []string{FlagAPITarget, FlagToken, FlagTenant, FlagTimeout}

// HistoryFlags are the flags of every command that records or reads history.
var HistoryFlags = []string{FlagHistoryDriver, FlagSQLite, FlagPostgresDSN}

// EventFlags are the flags of every command that publishes query events.
var EventFlags = []string{FlagKafkaBrokers, FlagKafkaTopic}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addStringFlag(cmd.Flags(), fs, key, target)
}

// AddPersistentStringFlags registers keys as persistent flags, for parent
// commands whose subcommands all share them.
func AddPersistentStringFlags(cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		var target string
		addStringFlag(cmd.PersistentFlags(), fs, key, &target)
	}
}

func addStringFlag(flags *pflag.FlagSet, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		flags.StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		flags.StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringFlags registers every key with a throwaway target; values are
// read back through viper after BindRegisteredFlags.
func AddStringFlags(cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		var target string
		AddStringFlag(cmd, fs, key, &target)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
