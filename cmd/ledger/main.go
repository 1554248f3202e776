package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bank/config"
	"bank/internal/agent"
	"bank/postgres"
)

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "ledger",
		Short:   "accounts, transfers and an audit journal behind one gRPC/HTTP port",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

type cli struct {
	cfg cfg
}

type cfg struct {
	agent.Config
	ServerTLSConfig config.TLSConfig
	PeerTLSConfig   config.TLSConfig
}

func setupFlags(cmd *cobra.Command) error {
	fs := cmd.Flags()

	fs.String("config-file", "", "Path to config file")
	fs.String("data-dir", filepath.Join(os.TempDir(), "ledger"), "Directory for the journal and embedded transaction store")
	fs.String("bind-addr", "127.0.0.1:8400", "Address serving gRPC and the HTTP gateway")
	fs.String("ledger-addr", "", "Remote ledger to send transfers to; empty uses the local store")
	fs.String("user-service-url", "", "User service used to validate account owners")
	fs.Duration("ledger-timeout", 5*time.Second, "Timeout for each ledger call made by a transfer")
	fs.Duration("reaper-interval", 5*time.Minute, "Time between stale account sweeps")
	fs.Duration("reaper-stale-after", 5*time.Minute, "Inactivity after which an account is deactivated")
	fs.Int("reaper-batch-size", 100, "Accounts deactivated per batch")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.String("env-file", ".env", "Optional file of POSTGRES_* variables")

	fs.String("acl-model-file", "", "Path to ACL model")
	fs.String("acl-policy-file", "", "Path to ACL policy")
	fs.String("server-tls-cert-file", "", "Path to server tls cert")
	fs.String("server-tls-key-file", "", "Path to server tls key")
	fs.String("server-tls-ca-file", "", "Path to server certificate authority")
	fs.String("peer-tls-cert-file", "", "Path to peer tls cert")
	fs.String("peer-tls-key-file", "", "Path to peer tls key")
	fs.String("peer-tls-ca-file", "", "Path to peer certificate authority")

	return viper.BindPFlags(fs)
}

// setupConfig reads flags, an optional config file and the environment into the agent's config
func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// allow non-existent config file
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) && !os.IsNotExist(err) {
				return err
			}
		}
	}

	conf := &c.cfg
	conf.DataDir = viper.GetString("data-dir")
	conf.BindAddr = viper.GetString("bind-addr")
	conf.LedgerAddr = viper.GetString("ledger-addr")
	conf.UserServiceURL = viper.GetString("user-service-url")
	conf.LedgerTimeout = viper.GetDuration("ledger-timeout")
	conf.Reaper.Interval = viper.GetDuration("reaper-interval")
	conf.Reaper.StaleAfter = viper.GetDuration("reaper-stale-after")
	conf.Reaper.BatchSize = viper.GetInt("reaper-batch-size")
	conf.ACLModelFile = viper.GetString("acl-model-file")
	conf.ACLPolicyFile = viper.GetString("acl-policy-file")

	conf.Logger = hclog.New(&hclog.LoggerOptions{
		Name:  "ledger",
		Level: hclog.LevelFromString(viper.GetString("log-level")),
	})

	// the environment wins over the file, as godotenv never overrides
	_ = godotenv.Load(viper.GetString("env-file"))
	conf.Postgres, err = postgres.Parse(nil)
	if err != nil {
		return err
	}

	conf.ServerTLSConfig.CAFile = viper.GetString("server-tls-ca-file")
	conf.ServerTLSConfig.CertFile = viper.GetString("server-tls-cert-file")
	conf.ServerTLSConfig.KeyFile = viper.GetString("server-tls-key-file")
	conf.PeerTLSConfig.CAFile = viper.GetString("peer-tls-ca-file")
	conf.PeerTLSConfig.CertFile = viper.GetString("peer-tls-cert-file")
	conf.PeerTLSConfig.KeyFile = viper.GetString("peer-tls-key-file")

	if conf.ServerTLSConfig.Configured() {
		conf.ServerTLSConfig.Server = true
		if conf.Config.ServerTLSConfig, err = config.SetupTLSConfig(conf.ServerTLSConfig); err != nil {
			return err
		}
	}
	if conf.PeerTLSConfig.Configured() {
		if conf.Config.PeerTLSConfig, err = config.SetupTLSConfig(conf.PeerTLSConfig); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	a, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	c.cfg.Logger.Info("serving", "addr", a.Addr())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return a.Shutdown()
}
