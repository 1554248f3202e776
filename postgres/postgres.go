package postgres

import (
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/peterbourgon/ff"
)

type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DatabaseName string
	SSLMode      string
}

// Configured reports whether a database was named
func (c *Config) Configured() bool {
	return c != nil && c.DatabaseName != ""
}

func (c *Config) dsn() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.DatabaseName,
		c.SSLMode,
	)
	if c.Password != "" {
		dsn += " password=" + c.Password
	}
	return dsn
}

// connect to Postgres and return a database handle representing a pool of connections
func Connect(config *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	err = setup(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Parse the flags in the flag set from args.
// Environment variables prefixed with POSTGRES fill in whatever args leave unset, so
// passing nil args reads the environment only.
//
// Example .env file
// 	POSTGRES_HOST=localhost
// 	POSTGRES_PORT=5432
// 	POSTGRES_USER=alice
// 	POSTGRES_DB_NAME=bank_dev
func Parse(args []string) (*Config, error) {
	postgresFlags := flag.NewFlagSet("postgres", flag.ContinueOnError)
	var (
		host     = postgresFlags.String("host", "localhost", "host to connect to")
		port     = postgresFlags.Int("port", 5432, "port to bind to")
		user     = postgresFlags.String("user", "", "user to sign in as")
		password = postgresFlags.String("password", "", "password of the user")
		dbName   = postgresFlags.String("db_name", "", "name of the database")
		sslMode  = postgresFlags.String("sslmode", "disable", "libpq sslmode")
	)

	err := ff.Parse(postgresFlags, args,
		ff.WithIgnoreUndefined(true),
		ff.WithEnvVarPrefix("POSTGRES"),
	)
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:         *host,
		Port:         *port,
		User:         *user,
		Password:     *password,
		DatabaseName: *dbName,
		SSLMode:      *sslMode,
	}, nil
}

// configures the database settings
func setup(db *sqlx.DB) error {
	// set default timezone to UTC
	_, err := db.Exec("SET timezone to 'UTC'")
	if err != nil {
		return fmt.Errorf("setting database default timezone: %w", err)
	}

	err = createTables(db)
	if err != nil {
		return fmt.Errorf("creating db tables: %w", err)
	}

	return nil
}
