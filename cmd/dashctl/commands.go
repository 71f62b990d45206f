package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dream1290/dbxui-sub000/apiclient"
	"github.com/dream1290/dbxui-sub000/datacache"
)

const (
	commandTimeout = 30 * time.Second
	cacheTTL       = 30 * time.Second
)

// passwordFromFlagOrEnv keeps passwords out of shell history when
// DASHBOARD_PASSWORD is set
func passwordFromFlagOrEnv(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("DASHBOARD_PASSWORD"); env != "" {
		return env, nil
	}
	return "", errors.New("--password or DASHBOARD_PASSWORD is required")
}

func (a *app) newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFromFlagOrEnv(password)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			resp, err := a.client.Login(ctx, email, pw)
			if err != nil {
				return err
			}
			name := email
			if resp.User != nil {
				name = fmt.Sprintf("%s (%s)", resp.User.Email, resp.User.Role)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := a.client.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) newRegisterCmd() *cobra.Command {
	var req apiclient.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFromFlagOrEnv(req.Password)
			if err != nil {
				return err
			}
			req.Password = pw
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			resp, err := a.client.Register(ctx, req)
			if err != nil {
				return err
			}
			if resp.AccessToken != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", req.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", req.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.OrganizationID, "organization", "", "Organization id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func (a *app) newForgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			resp, err := a.client.ForgotPassword(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func (a *app) newResetPasswordCmd() *cobra.Command {
	var resetToken, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFromFlagOrEnv(password)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			resp, err := a.client.ResetPassword(ctx, resetToken, pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&resetToken, "token", "", "Reset token from the email (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func (a *app) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			user, err := datacache.Get(ctx, a.cache, "me", cacheTTL, a.client.CurrentUser)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.Email, user.Role, user.OrganizationID)
			return nil
		},
	}
}

func (a *app) newFlightsCmd() *cobra.Command {
	flightsCmd := &cobra.Command{Use: "flights", Short: "Flight operations"}

	var filter apiclient.FlightFilter
	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List flights",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = apiclient.FlightStatus(status)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			key := fmt.Sprintf("flights:%s:%d:%d", filter.Status, filter.Limit, filter.Offset)
			list, err := datacache.Get(ctx, a.cache, key, cacheTTL, func(ctx context.Context) ([]apiclient.Flight, error) {
				return a.client.ListFlights(ctx, filter)
			})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFLIGHT\tROUTE\tDEPARTURE\tSTATUS")
			for _, f := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\n",
					f.ID, f.FlightNumber, f.Origin, f.Destination, f.DepartureTime.Format(time.RFC3339), f.Status)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Only flights with this status")
	listCmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of flights")
	listCmd.Flags().IntVar(&filter.Offset, "offset", 0, "Number of flights to skip")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			f, err := a.client.GetFlight(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s-%s departs %s (%s)\n",
				f.ID, f.FlightNumber, f.Origin, f.Destination, f.DepartureTime.Format(time.RFC3339), f.Status)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := a.client.DeleteFlight(ctx, args[0]); err != nil {
				return err
			}
			a.cache.Invalidate("flights:")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted flight %s\n", args[0])
			return nil
		},
	}

	flightsCmd.AddCommand(listCmd, getCmd, deleteCmd)
	return flightsCmd
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Upload flight data files for analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			uploads := make([]apiclient.UploadFile, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				uploads = append(uploads, apiclient.UploadFile{Name: filepath.Base(path), Content: f})
			}

			var results []apiclient.AnalysisResult
			if len(uploads) == 1 {
				res, err := a.client.Analyze(ctx, uploads[0].Name, uploads[0].Content)
				if err != nil {
					return err
				}
				results = append(results, *res)
			} else {
				batch, err := a.client.BatchAnalyze(ctx, uploads)
				if err != nil {
					return err
				}
				results = batch.Results
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSTATUS\tRISK\tFINDINGS")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", r.Filename, r.Status, r.RiskScore, len(r.Findings))
			}
			return tw.Flush()
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			s := a.client.DatabaseStatus(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "API:      %s\n", a.client.BaseURL())
			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", s.Status)
			if s.Latency != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Latency:  %s\n", s.Latency)
			}
			return nil
		},
	}
}
