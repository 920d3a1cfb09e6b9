package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/V4C38/Unity-Journify/pkg/document"
	"github.com/V4C38/Unity-Journify/pkg/logger"
	"github.com/V4C38/Unity-Journify/pkg/store"
)

type config struct {
	Endpoint     string
	LiveEndpoint string
	Token        string
}

func loadConfig() config {
	_ = godotenv.Load()

	return config{
		Endpoint:     os.Getenv("JOURNIFY_ENDPOINT"),
		LiveEndpoint: os.Getenv("JOURNIFY_LIVE_ENDPOINT"),
		Token:        os.Getenv("JOURNIFY_TOKEN"),
	}
}

func main() {
	cfg := loadConfig()

	rootCmd := &cobra.Command{
		Use:   "journify",
		Short: "Inspect and manage a Journify archive document",
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "document store URL")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "bearer token")

	rootCmd.AddCommand(pullCmd(&cfg))
	rootCmd.AddCommand(pushCmd(&cfg))
	rootCmd.AddCommand(showCmd(&cfg))
	rootCmd.AddCommand(watchCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newStore(cfg *config) (*store.HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint: set JOURNIFY_ENDPOINT or pass --endpoint")
	}
	log, err := logger.New().ToWriter(os.Stderr).Make()
	if err != nil {
		return nil, err
	}
	return store.New(store.Config{Endpoint: cfg.Endpoint, Token: cfg.Token, Logger: log}), nil
}

func pullCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch the document and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			doc, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func pushCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "push [file]",
		Short: "Upload a document from a local JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := document.Decode(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if document.UUIDOf(doc) == "" {
				return fmt.Errorf("%s: document has no UUID", args[0])
			}

			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			if err := st.Save(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Printf("pushed %s (%d bytes)\n", document.UUIDOf(doc), len(data))
			return nil
		},
	}
}

func showCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "show [uuid]",
		Short: "Fetch the document and print the node with the given UUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore(cfg)
			if err != nil {
				return err
			}
			doc, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}
			node, ok := document.FindByUUID(doc, args[0])
			if !ok {
				return fmt.Errorf("no node with UUID %q", args[0])
			}
			out, err := json.MarshalIndent(node, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func watchCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to the live feed and print updates as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LiveEndpoint == "" {
				return fmt.Errorf("no live endpoint: set JOURNIFY_LIVE_ENDPOINT")
			}
			log, err := logger.New().ToWriter(os.Stderr).Make()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			live, err := store.Subscribe(ctx, cfg.LiveEndpoint, func(rec document.Record) {
				out, err := json.Marshal(rec)
				if err != nil {
					return
				}
				fmt.Println(string(out))
			}, log)
			if err != nil {
				return err
			}
			defer live.Close()

			<-ctx.Done()
			return nil
		},
	}
}
