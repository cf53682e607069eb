package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"painsignal/internal/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	submitServer string
	submitToken  string
	submitPublic bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <description>",
	Short: "Send a description to a running server and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitServer, "server", "http://localhost:3000", "base URL of the PainSignal server")
	submitCmd.Flags().StringVar(&submitToken, "token", "", "bearer token for protected routes")
	submitCmd.Flags().BoolVar(&submitPublic, "public", false, "use the anonymous public-analyze path")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	description := strings.Join(args, " ")
	c := client.NewClient(submitServer, submitToken, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return err
	}

	var result interface{}
	if submitPublic {
		result, err = c.Analyze(ctx, description)
	} else {
		result, err = c.Submit(ctx, description)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
