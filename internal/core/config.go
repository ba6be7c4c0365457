package core

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// server components.
type Config struct {
	// Hostname or IP address on which the servers will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	GameServer struct {
		// Port on which the TABLE server will listen.
		Port int `mapstructure:"port"`
		// Number of standard decks in the shoe.
		Decks int `mapstructure:"decks"`
		// Credits granted to players with no stored balance.
		StartingCredits int `mapstructure:"starting_credits"`
		// Lower and upper bounds on a single bet. A max_bet of 0 means no cap.
		MinBet int `mapstructure:"min_bet"`
		MaxBet int `mapstructure:"max_bet"`
		// Whether the dealer draws on a soft seventeen.
		DealerHitsSoft17 bool `mapstructure:"dealer_hits_soft_17"`
		// Remove players from the table when they run out of credits.
		EvictBankrupt bool `mapstructure:"evict_bankrupt"`
		// Seconds a player may deliberate before the server stands for them.
		// 0 disables the timer.
		TurnTimeout int `mapstructure:"turn_timeout"`
		// Minutes a disconnected player's balance is held for seamless
		// reconnection before it is only recoverable from the database.
		CreditHoldMinutes int `mapstructure:"credit_hold_minutes"`
	} `mapstructure:"game_server"`

	Web struct {
		// HTTP endpoint port for the status API.
		HTTPPort int `mapstructure:"http_port"`
	} `mapstructure:"web"`

	Database struct {
		// Database engine: sqlite or postgres.
		Engine string `mapstructure:"engine"`
		// Path to the database file (sqlite only).
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"disable"`
	} `mapstructure:"database"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Log decoded wire frames to stdout.
		FrameLoggingEnabled bool `mapstructure:"frame_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "ROYALE"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a Postgres connection string generated from the
// provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// TurnTimeout returns the configured decision deadline as a duration,
// or zero when the timer is disabled.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.GameServer.TurnTimeout) * time.Second
}

// CreditHold returns how long a disconnected player's balance stays
// reserved in memory.
func (c *Config) CreditHold() time.Duration {
	return time.Duration(c.GameServer.CreditHoldMinutes) * time.Minute
}
