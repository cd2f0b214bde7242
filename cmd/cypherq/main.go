// Command cypherq builds and runs Cypher statements against Neo4j from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cypherq",
		Short: "Build and run Cypher statements",
		Long: `cypherq builds parameterized Cypher statements and runs them on a Neo4j
server. Connection settings come from a YAML file (--config), the NEO4J_*
environment variables and flags, in increasing order of precedence.

Every executed statement can be journaled to a SQLite file (--journal) and
inspected later with "cypherq journal".`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML file with connection options")
	flags.String("uri", "", "Neo4j URI (overrides config and NEO4J_URI)")
	flags.String("user", "", "Neo4j user name")
	flags.String("password", "", "Neo4j password")
	flags.String("database", "", "Target database")
	flags.String("journal", "", "SQLite file journaling every executed statement")
	flags.Bool("debug", false, "Enable development logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cypherq v%s\n", version)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run [statement]",
		Short: "Run a raw Cypher statement",
		Long: `Run a raw Cypher statement. Parameters are passed as --param name=value;
values are parsed as JSON and fall back to plain strings.`,
		Example: `  cypherq run 'MATCH (n:Person) WHERE n.age > $age RETURN n.name' --param age=30`,
		Args:    cobra.ExactArgs(1),
		RunE:    runRaw,
	}
	runCmd.Flags().StringArray("param", nil, "Statement parameter as name=value (repeatable)")
	runCmd.Flags().Bool("dry-run", false, "Print the interpolated statement without running it")
	rootCmd.AddCommand(runCmd)

	matchCmd := &cobra.Command{
		Use:     "match [label]",
		Short:   "Match nodes by label and properties",
		Example: `  cypherq match Person --where name='"Alice"' --where age=30 --limit 5`,
		Args:    cobra.ExactArgs(1),
		RunE:    runMatch,
	}
	matchCmd.Flags().String("var", "n", "Variable bound to the matched nodes")
	matchCmd.Flags().StringArray("where", nil, "Property condition as name=value (repeatable)")
	matchCmd.Flags().StringArray("return", nil, "Return term (repeatable, defaults to the variable)")
	matchCmd.Flags().String("order-by", "", "Property to order by")
	matchCmd.Flags().Bool("desc", false, "Order descending")
	matchCmd.Flags().Int("skip", 0, "Rows to skip")
	matchCmd.Flags().Int("limit", 0, "Maximum rows to return")
	matchCmd.Flags().Bool("dry-run", false, "Print the interpolated statement without running it")
	rootCmd.AddCommand(matchCmd)

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the statement journal",
		RunE:  runJournal,
	}
	journalCmd.Flags().Int("limit", 20, "Maximum entries to show")
	journalCmd.Flags().Bool("failed", false, "Only show failed executions")
	journalCmd.Flags().String("fingerprint", "", "Only show executions of this statement shape")
	journalCmd.Flags().Bool("stats", false, "Aggregate executions by statement shape")
	rootCmd.AddCommand(journalCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
