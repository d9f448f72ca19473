package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	apptrades "github.com/vinaysengar-17/stock-trading/internal/application/service/trades"
	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/importer"
	infratrading "github.com/vinaysengar-17/stock-trading/internal/infrastructure/trading"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

type importCmd struct {
	Driver   string `help:"Storage driver." enum:"postgres,sqlite" default:"sqlite" env:"DATABASE_DRIVER"`
	DSN      string `help:"Database connection string." required:"" env:"DATABASE_DSN"`
	Method   string `help:"Realization method (FIFO or LIFO). Overrides the file's method."`
	Strict   bool   `help:"Exit with a non-zero status when any trade fails."`
	LogLevel string `help:"Log level." default:"warn" env:"LOG_LEVEL"`
	File     string `arg:"" help:"JSON or YAML trade file ('-' for stdin)." default:"-"`
}

func (cmd *importCmd) Run(kctx *kong.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(kctx.Stderr)
	level, err := logrus.ParseLevel(cmd.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	data, err := cmd.read()
	if err != nil {
		return err
	}
	batch, err := importer.Parse(data)
	if err != nil {
		return err
	}

	methodName := batch.Method
	if cmd.Method != "" {
		methodName = cmd.Method
	}
	method, err := trading.ParseMethod(methodName)
	if err != nil {
		return err
	}

	repo, err := infratrading.NewRepository(ctx, cmd.Driver, cmd.DSN)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	service := apptrades.NewService(repo, logger)
	results := service.RecordTrades(ctx, batch.Items, method)

	enc := json.NewEncoder(kctx.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	failed := importer.Failures(results)
	logger.WithFields(logrus.Fields{
		"file":   cmd.File,
		"method": method.String(),
		"total":  len(results),
		"failed": failed,
	}).Info("import finished")
	if cmd.Strict && failed > 0 {
		return fmt.Errorf("%d of %d trades failed", failed, len(results))
	}
	return nil
}

func (cmd *importCmd) read() ([]byte, error) {
	if cmd.File == "-" || cmd.File == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cmd.File, err)
	}
	return data, nil
}

func main() {
	var cli importCmd
	ctx := kong.Parse(&cli,
		kong.Name("importer"),
		kong.Description("Record trades from a JSON or YAML file and print the per-trade results."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
