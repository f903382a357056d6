package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reliefboard/internal/classifier"
	"reliefboard/pkg/redis"
)

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var fallbackOnly bool

	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify a description as urgent or not",
		Long: `Classify runs the same classifier the API uses and prints the verdict,
where it came from and, when the model was not used, why.

With --fallback-only no configuration is read and only keywords are used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			var gateway *classifier.Gateway
			if fallbackOnly {
				gateway = classifier.NewGateway(nil, classifier.WithLogger(opts.logger(nil)))
			} else {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				log := opts.logger(cfg)
				defer log.Sync()

				rdb, err := redis.NewRedisClient(cfg.Redis)
				if err != nil {
					log.Debug("Redis unavailable, verdict cache disabled")
					rdb = nil
				}
				if rdb != nil {
					defer rdb.Close()
				}

				gateway, err = classifier.NewFromConfig(cmd.Context(), cfg.Classifier, rdb, log)
				if err != nil {
					return err
				}
			}

			res := gateway.Evaluate(cmd.Context(), description)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "urgent:  %t\n", res.Urgent)
			fmt.Fprintf(out, "source:  %s\n", res.Source)
			if res.Failure != "" {
				fmt.Fprintf(out, "failure: %s\n", res.Failure)
			}
			fmt.Fprintf(out, "latency: %s\n", res.Latency)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fallbackOnly, "fallback-only", false, "Use keyword matching only")
	return cmd
}
