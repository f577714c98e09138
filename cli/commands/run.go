package commands

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satishbabariya/sqlbridge/cli/internal/ui"
	"github.com/satishbabariya/sqlbridge/internal/config"
	"github.com/satishbabariya/sqlbridge/internal/debug"
	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/cache"
	"github.com/satishbabariya/sqlbridge/query/compiler"
	"github.com/satishbabariya/sqlbridge/query/executor"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		connName    string
		page        uint64
		pageSize    uint64
		noAutoLimit bool
		verbose     bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <sql>",
		Short: "Compile and execute a SELECT against a configured connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pagination *rewrite.Pagination
			if pageSize > 0 {
				pagination = &rewrite.Pagination{Page: page, PageSize: pageSize}
			}
			return runQuery(args[0], connName, pagination, !noAutoLimit, verbose, timeout)
		},
	}

	cmd.Flags().StringVar(&connName, "connection", "", "Named connection from .sqlbridge.yaml (defaults to default_connection)")
	cmd.Flags().Uint64Var(&page, "page", 0, "Zero-based page number")
	cmd.Flags().Uint64Var(&pageSize, "page-size", 0, "Rows per page; 0 disables pagination")
	cmd.Flags().BoolVar(&noAutoLimit, "no-auto-limit", false, "Do not inject the default row limit")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")

	return cmd
}

func runQuery(sqlText, connName string, pagination *rewrite.Pagination, autoLimit, verbose bool, timeout time.Duration) error {
	cfg := loadConfig()
	conn, ok := cfg.Connection(connName)
	if !ok {
		return fmt.Errorf("no connection named %q in configuration", connName)
	}
	dbType, err := conn.DatabaseType()
	if err != nil {
		return err
	}

	if err := debug.Init(verbose); err != nil {
		return err
	}
	logger := debug.Logger()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	const connID = 1
	pools := executor.NewPools()
	if err := openConnection(ctx, pools, connID, dbType, conn); err != nil {
		return err
	}

	registry := executor.DefaultRegistry(pools, logger)
	c := compiler.New(cache.New(cfg.CacheSize), compiler.Options{Logger: logger})

	res, err := c.Execute(ctx, sqlText, dbType, connID, conn.Database, pagination, autoLimit, registry)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	printResult(res)
	return nil
}

func openConnection(ctx context.Context, pools *executor.Pools, id int64, dbType query.DatabaseType, conn config.Connection) error {
	switch dbType {
	case query.MySQL, query.PostgreSQL, query.SQLite, query.MsSQL:
		db, err := sql.Open(driverName(dbType), conn.URL)
		if err != nil {
			return fmt.Errorf("failed to open %s connection: %w", dbType, err)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to reach %s: %w", dbType, err)
		}
		pools.RegisterSQL(id, db)
	case query.MongoDB:
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(conn.URL))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		pools.RegisterMongo(id, client)
	case query.Redis:
		opts, err := redis.ParseURL(conn.URL)
		if err != nil {
			return fmt.Errorf("invalid Redis URL: %w", err)
		}
		pools.RegisterRedis(id, redis.NewClient(opts))
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}
	return nil
}

func driverName(dbType query.DatabaseType) string {
	switch dbType {
	case query.MySQL:
		return "mysql"
	case query.PostgreSQL:
		return "postgres"
	case query.SQLite:
		return "sqlite3"
	case query.MsSQL:
		return "sqlserver"
	}
	return string(dbType)
}

func printResult(res executor.Result) {
	if len(res.Headers) > 0 {
		ui.PrintTable(res.Headers, res.Rows)
	} else {
		for _, row := range res.Rows {
			fmt.Println(strings.Join(row, "\t"))
		}
	}
	fmt.Printf("(%d rows)\n", len(res.Rows))
}
