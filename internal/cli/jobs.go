package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/troupekit/troupe/internal/engine"
	"github.com/troupekit/troupe/internal/llm"
)

// One-shot job commands: the same engine entry points the scheduler fires,
// runnable by hand or from an external cron.

var reviewCmd = &cobra.Command{
	Use:   "review <character>",
	Short: "Run a memory review cycle for one character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := buildEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		return printResult(eng.ReviewMemories(context.Background(), args[0]))
	},
}

var consequencesCmd = &cobra.Command{
	Use:   "consequences",
	Short: "Drain the relationship event log and apply consequences",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := buildEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		return printResult(eng.ProcessRelationshipEvents(context.Background()))
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Run the daily vitals reset and stale memory cleanup",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := buildEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		return printResult(eng.DailyReset(context.Background()))
	},
}

func buildEngine() (*engine.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	var evalClient llm.Client
	if client, err := llm.NewClient(cfg.LLM); err != nil {
		fmt.Fprintf(os.Stderr, "warning: evaluator not configured (%v)\n", err)
	} else {
		evalClient = client
	}

	return engine.New(db, evalClient), func() { db.Close() }, nil
}

func printResult(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
