package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/agent"
	"github.com/BaSui01/graphground/grounding"
)

const noGrounding = "no grounding"

func newAbstractCmd() *cobra.Command {
	var obs grounding.Observation
	cmd := &cobra.Command{
		Use:   "abstract",
		Short: "Print the lookup key for an observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(cmd.Context(), rt, logger)

			key, ok, err := rt.Provider.AbstractState(cmd.Context(), obs)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no key")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().StringVar(&obs.URL, "url", "", "Page URL")
	cmd.Flags().StringVar(&obs.Goal, "goal", "", "Task goal")
	return cmd
}

func newRetrieveCmd() *cobra.Command {
	var obs grounding.Observation
	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Print the grounding text for an observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(cmd.Context(), rt, logger)

			text, ok, err := rt.Provider.Ground(cmd.Context(), obs)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), noGrounding)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&obs.URL, "url", "", "Page URL")
	cmd.Flags().StringVar(&obs.Goal, "goal", "", "Task goal")
	return cmd
}

// groundResult 是 ground 命令的一行输出。
type groundResult struct {
	URL       string `json:"url"`
	Goal      string `json:"goal,omitempty"`
	Grounding string `json:"graph_grounding,omitempty"`
	Found     bool   `json:"found"`
	Prompt    string `json:"prompt,omitempty"`
}

func newGroundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ground",
		Short: "Ground JSON-lines observations from stdin",
		Long: `ground reads one JSON observation per line ({"url": ..., "goal": ...}) and
writes one JSON result per line. Steps are paced by the agent rate limit;
an infrastructure failure stops processing. With --prompt each result also
carries the rendered navigation-graph prompt section.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer closeRuntime(cmd.Context(), rt, logger)

			withPrompt, _ := cmd.Flags().GetBool("prompt")
			enc := json.NewEncoder(cmd.OutOrStdout())
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

			line := 0
			for scanner.Scan() {
				line++
				raw := strings.TrimSpace(scanner.Text())
				if raw == "" {
					continue
				}
				var obs map[string]any
				if err := json.Unmarshal([]byte(raw), &obs); err != nil {
					return fmt.Errorf("line %d: invalid observation: %w", line, err)
				}

				grounded, err := rt.Agent.Preprocess(cmd.Context(), obs)
				if err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}

				in := grounding.ObservationFromMap(grounded)
				text, _ := grounded[agent.GroundingKey].(string)
				result := groundResult{URL: in.URL, Goal: in.Goal, Grounding: text, Found: text != ""}
				if withPrompt {
					result.Prompt = agent.GraphPrompt(grounded)
				}
				if err := enc.Encode(result); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read observations: %w", err)
			}
			logger.Debug("observations grounded", zap.Int("lines", line))
			return nil
		},
	}
	cmd.Flags().Bool("prompt", false, "Include the rendered navigation-graph prompt section")
	return cmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				_ = json.NewEncoder(out).Encode(map[string]string{
					"version":    Version,
					"build_time": BuildTime,
					"git_commit": GitCommit,
				})
				return
			}
			fmt.Fprintf(out, "graphground %s\n", Version)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
