// Command entitlementctl разрешает права доступа и выполняет операции
// изменения прав доступа из командной строки, используя тот же конфиг и
// то же локальное хранилище, что и HTTP-сервис.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/entitlements/internal/app/entitlements"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

var (
	configPath string
	userID     string
	email      string
	guest      bool
)

// buildCore собирает зависимости. В тестах подменяется.
var buildCore = func(ctx context.Context, log *slog.Logger) (*entitlements.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return entitlements.NewCore(ctx, cfg, log)
}

var rootCmd = &cobra.Command{
	Use:           "entitlementctl",
	Short:         "Entitlement resolution tool",
	Long:          `Resolve user entitlements and run entitlement mutations against the configured authority`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config file")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id")
	rootCmd.PersistentFlags().StringVarP(&email, "email", "e", "", "user email")
	rootCmd.PersistentFlags().BoolVar(&guest, "guest", false, "treat the user as a guest")

	rootCmd.AddCommand(resolveCmd, redeemCmd, startTrialCmd, checkoutCmd, tokenCmd)
}

func identity() models.Identity {
	return models.Identity{UserID: userID, Email: email, IsGuest: guest}
}

// withCore открывает зависимости на время выполнения команды.
func withCore(cmd *cobra.Command, fn func(ctx context.Context, core *entitlements.Core) error) error {
	log := sl.New(sl.EnvProd, cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	core, err := buildCore(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn("failed to close dependencies", sl.Err(err))
		}
	}()
	return fn(ctx, core)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
