package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/auth"
	"github.com/donorlink/plasma-center/pkg/clients/uploadclient"
	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/services"
	"github.com/donorlink/plasma-center/pkg/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var verifier auth.Verifier
			var signer *auth.JWT

			switch app.cfg.AuthMode {
			case "google":
				verifier = auth.NewGoogleVerifier(app.cfg.GoogleOAuthClientID)
				app.logger.Info("Using Google ID token verification")
			default:
				secret, err := app.cfg.JWTSecret()
				if err != nil {
					return err
				}
				signer = auth.NewJWT(secret, app.cfg.TokenTTL())
				verifier = signer
			}

			var uploads server.Uploader
			if app.cfg.Cloudinary != nil {
				secret, err := app.cfg.CloudinarySecret()
				if err != nil {
					return err
				}
				client, err := uploadclient.New(app.cfg.Cloudinary.CloudName, app.cfg.Cloudinary.APIKey, secret)
				if err != nil {
					return err
				}
				uploads = client
			}

			calendar, err := app.cfg.Calendar()
			if err != nil {
				return err
			}
			// A nil *Calendar must stay a nil interface for the booking service.
			var operating services.OperatingCalendar
			if calendar != nil {
				operating = calendar
			}

			srv := server.New(server.Options{
				Store:    app.store,
				Verifier: verifier,
				Signer:   signer,
				Uploads:  uploads,
				Calendar: operating,
				Logger:   app.logger,
			})

			httpServer := &http.Server{
				Addr:    app.cfg.Addr(),
				Handler: srv.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("HTTP server listening", zap.String("addr", app.cfg.Addr()))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				app.logger.Info("Shutting down", zap.String("signal", sig.String()))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		},
	}
}

func createEmployeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createEmployee <employee_code> <full_name> <role>",
		Short: "Provision an employee profile (role: SystemAdmin, BranchManager, or AwarenessEmployee)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, name := args[0], args[1]
			role := model.Role(args[2])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			branch, _ := cmd.Flags().GetString("branch")

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			profile := &model.UserProfile{
				UID:          uuid.NewString(),
				Role:         role,
				FullName:     name,
				EmployeeCode: code,
				BranchID:     branch,
				IsActive:     true,
				PasswordHash: hash,
			}
			if err := app.store.CreateUserProfile(app.ctx, profile); err != nil {
				return fmt.Errorf("failed to create employee: %w", err)
			}

			app.logger.Info("Employee created", zap.String("uid", profile.UID), zap.String("role", string(role)))

			fmt.Printf("\n✓ Employee created!\n\n")
			fmt.Printf("UID:           %s\n", profile.UID)
			fmt.Printf("Employee code: %s\n", code)
			fmt.Printf("Role:          %s\n\n", role)

			return nil
		},
	}

	cmd.Flags().String("password", "", "Login password for the new employee")
	cmd.Flags().String("branch", "", "Branch ID")

	return cmd
}

// defaultReasons is the curated starter list of deferral reasons.
var defaultReasons = []model.DeferralReason{
	{Code: "D01", Title: "Low hemoglobin / hematocrit", IsActive: true},
	{Code: "D02", Title: "High blood pressure", IsActive: true},
	{Code: "D03", Title: "High temperature / fever", IsActive: true},
	{Code: "D04", Title: "Low weight", IsActive: true},
	{Code: "D05", Title: "Recent medication", IsActive: true},
	{Code: "D06", Title: "Not eligible today", IsActive: true},
}

func seedReasonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seedReasons",
		Short: "Seed the curated deferral-reason list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := app.store.ListActiveDeferralReasons(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list existing reasons: %w", err)
			}
			seen := make(map[string]bool, len(existing))
			for _, r := range existing {
				seen[r.Code] = true
			}

			created := 0
			for _, reason := range defaultReasons {
				if seen[reason.Code] {
					continue
				}
				r := reason
				if err := app.store.CreateDeferralReason(app.ctx, &r); err != nil {
					return fmt.Errorf("failed to seed reason %s: %w", r.Code, err)
				}
				created++
			}

			fmt.Printf("\n✓ Deferral reasons seeded (%d new, %d already present)\n\n", created, len(seen))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <entity>",
		Short: "Export one entity to an xlsx file (donors, bookings, attendance, users, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			out, _ := cmd.Flags().GetString("out")

			// The CLI runs with operator credentials; exports are not
			// role-gated here the way the HTTP surface is.
			actor := &model.UserProfile{UID: "cli", Role: model.RoleSystemAdmin, IsActive: true}

			data, filename, err := services.ExportXLSX(app.ctx, app.store, app.logger, actor, entity)
			if err != nil {
				return err
			}
			if out == "" {
				out = filename
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Printf("\n✓ Exported %s to %s\n\n", entity, out)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output path (default: <entity>.xlsx)")

	return cmd
}
