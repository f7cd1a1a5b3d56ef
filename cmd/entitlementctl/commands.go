package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/entitlements/internal/app/entitlements"
	"github.com/magabrotheeeer/entitlements/internal/services/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/services/gate"
)

var (
	betaCode    string
	planID      string
	waitTimeout time.Duration
)

var errNotSignedIn = errors.New("user id is required (use --user)")

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve entitlements for a user",
	Long:  `Resolve the access record for a user and print it together with the gate decision`,
	Example: `  # Anonymous user
  entitlementctl resolve

  # Signed-in user
  entitlementctl resolve --user 42 --email user@example.com`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCore(cmd, func(ctx context.Context, core *entitlements.Core) error {
			session := entitlement.NewSession(core.Resolver)
			defer session.Close()
			session.SetIdentity(ctx, identity())

			waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
			defer cancel()
			st, err := session.Await(waitCtx)
			if err != nil {
				return fmt.Errorf("resolution did not finish: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"access":   st.Record,
				"decision": gate.Evaluate(st.Record),
			})
		})
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem",
	Short: "Redeem a beta code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userID == "" {
			return errNotSignedIn
		}
		return withCore(cmd, func(ctx context.Context, core *entitlements.Core) error {
			res := core.Service.RedeemBetaCode(ctx, betaCode, identity())
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("beta code not redeemed: %s", res.Message)
			}
			return nil
		})
	},
}

var startTrialCmd = &cobra.Command{
	Use:   "start-trial",
	Short: "Start a trial",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userID == "" {
			return errNotSignedIn
		}
		return withCore(cmd, func(ctx context.Context, core *entitlements.Core) error {
			res := core.Service.StartTrial(ctx, identity())
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("trial not started: %s", res.Message)
			}
			return nil
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Create a checkout session and print its URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userID == "" {
			return errNotSignedIn
		}
		return withCore(cmd, func(ctx context.Context, core *entitlements.Core) error {
			url, ok := core.Service.CreateCheckoutSession(ctx, planID, identity())
			if !ok {
				return errors.New("could not start checkout")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an identity token for local development",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userID == "" {
			return errNotSignedIn
		}
		return withCore(cmd, func(_ context.Context, core *entitlements.Core) error {
			token, err := core.Tokens.GenerateToken(identity())
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		})
	},
}

func init() {
	resolveCmd.Flags().DurationVar(&waitTimeout, "timeout", 10*time.Second, "how long to wait for the resolution")
	redeemCmd.Flags().StringVar(&betaCode, "code", "", "beta code")
	_ = redeemCmd.MarkFlagRequired("code")
	checkoutCmd.Flags().StringVar(&planID, "plan", "professional", "plan id")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
