package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/giftlink/backend/internal/config"
	"github.com/giftlink/backend/internal/database"
	"github.com/giftlink/backend/internal/logging"
	"github.com/giftlink/backend/internal/metrics"
	"github.com/giftlink/backend/internal/monitor"
	"github.com/giftlink/backend/internal/web"
	"github.com/giftlink/backend/internal/web/handlers"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultPort = 3060

// CLI flags
var (
	port           int
	bind           string
	allowSubnet    string
	mongoURL       string
	databaseName   string
	envFile        string
	logFile        string
	verbosity      int
	healthSchedule string
	connectTimeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "giftlink",
		Short:        "GiftLink - gift catalogue REST backend",
		Long:         `GiftLink serves a REST API for listing, fetching and creating gifts stored in MongoDB.`,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "HTTP server port (or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (or set BIND env var)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect, e.g. 192.168.1.0/24 (or set ALLOW_SUBNET env var)")
	rootCmd.Flags().StringVar(&mongoURL, "mongo-url", "", "MongoDB connection string (required, or set MONGO_URL env var)")
	rootCmd.Flags().StringVar(&databaseName, "database", database.DefaultDatabaseName, "MongoDB database name (or set MONGO_DATABASE env var)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading settings")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path, \"-\" for console only (or set LOG_FILE env var)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	// Advanced flags
	rootCmd.Flags().StringVar(&healthSchedule, "health-schedule", monitor.DefaultSchedule, "Cron schedule for the MongoDB health probe (or set HEALTH_SCHEDULE env var)")
	rootCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", config.DefaultTimeoutConfig().MongoConnect, "Timeout for a MongoDB connection attempt (or set MONGO_CONNECT_TIMEOUT env var)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("giftlink %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

// settings holds the resolved configuration. Flags set on the command line
// win over environment variables, which win over flag defaults.
type settings struct {
	port           int
	bind           string
	allowedNet     *net.IPNet
	mongoURL       string
	databaseName   string
	healthSchedule string
	timeouts       *config.TimeoutConfig
	logging        logging.Options
}

func resolveSettings(cmd *cobra.Command, loader *config.Loader) (*settings, error) {
	flags := cmd.Flags()
	s := &settings{
		port:           port,
		bind:           bind,
		mongoURL:       mongoURL,
		databaseName:   databaseName,
		healthSchedule: healthSchedule,
		timeouts:       config.LoadTimeouts(loader),
		logging:        logging.OptionsFromLoader(loader),
	}

	if !flags.Changed("port") {
		s.port = loader.Int("port", defaultPort)
	}
	if !flags.Changed("bind") {
		s.bind = loader.String("bind", "")
	}
	if !flags.Changed("mongo-url") {
		s.mongoURL = loader.String("mongo_url", "")
	}
	if !flags.Changed("database") {
		s.databaseName = loader.String("mongo_database", database.DefaultDatabaseName)
	}
	if !flags.Changed("health-schedule") {
		s.healthSchedule = loader.String("health_schedule", monitor.DefaultSchedule)
	}
	if flags.Changed("connect-timeout") {
		s.timeouts.MongoConnect = connectTimeout
	}
	if flags.Changed("log-file") {
		s.logging.FilePath = logFile
	}
	s.logging.Level = logging.LevelFromVerbosity(verbosity, s.logging.Level)

	subnet := allowSubnet
	if !flags.Changed("allow-subnet") {
		subnet = loader.String("allow_subnet", "")
	}

	if s.port <= 0 || s.port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", s.port)
	}
	if s.bind != "" && net.ParseIP(s.bind) == nil {
		return nil, fmt.Errorf("invalid bind address: %s", s.bind)
	}
	if subnet != "" {
		_, parsedNet, err := net.ParseCIDR(subnet)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-subnet CIDR: %s", subnet)
		}
		s.allowedNet = parsedNet
	}
	if s.mongoURL == "" {
		return nil, fmt.Errorf("--mongo-url flag or MONGO_URL environment variable is required")
	}

	return s, nil
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	loader := config.NewLoader(config.NewEnvSettings())
	s, err := resolveSettings(cmd, loader)
	if err != nil {
		return err
	}

	logging.Apply(s.logging)
	config.SetGlobalTimeouts(s.timeouts)

	if (s.bind == "" || s.bind == "0.0.0.0" || s.bind == "::") && s.allowedNet == nil {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", s.port).
		Str("bind", s.bind).
		Str("database", s.databaseName).
		Msg("Starting GiftLink")

	m := metrics.New()

	// Connects lazily on the first request that needs the database
	dbManager := database.NewManager(database.Options{
		URI:            s.mongoURL,
		Database:       s.databaseName,
		ConnectTimeout: s.timeouts.MongoConnect,
		Metrics:        m,
	})
	gifts := database.NewGiftStore(dbManager)

	server := web.NewServer(handlers.New(gifts, dbManager), m, s.port, s.bind, s.allowedNet)

	probe := monitor.New(dbManager, gifts, m, s.healthSchedule)
	if err := probe.Start(); err != nil {
		return fmt.Errorf("invalid health schedule %q: %w", s.healthSchedule, err)
	}
	defer probe.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer disconnectCancel()
	if err := dbManager.Disconnect(disconnectCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
	}

	log.Info().Msg("GiftLink stopped")
	return nil
}
