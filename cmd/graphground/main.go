// =============================================================================
// graphground 命令行入口
// =============================================================================
// 对单个或一批观测执行导航图 grounding，便于调试图数据与检索策略
//
// 使用方法:
//
//	graphground abstract --url <url> [--goal <goal>]   # 输出查询键
//	graphground retrieve --url <url> --goal <goal>     # 输出 grounding 文本
//	graphground ground < observations.jsonl            # 逐行处理 JSON 观测
//	graphground version                                # 显示版本信息
//
// 全局参数: --config <path>  --iteration <standard|advanced|...|1-4>
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground"
	"github.com/BaSui01/graphground/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// newRuntime 组装运行时，测试中替换为内存图。
var newRuntime = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*graphground.Runtime, error) {
	return graphground.New(ctx, cfg, logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphground",
		Short: "Navigation-graph grounding for web-browsing agents",
		Long: `graphground turns browser observations (URL and goal) into grounding text
drawn from a navigation graph of previously successful routes.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().String("iteration", "", "Grounding iteration: standard, advanced, llm-generated-graph, llm-augmented-graph (or 1-4)")

	rootCmd.AddCommand(
		newAbstractCmd(),
		newRetrieveCmd(),
		newGroundCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// =============================================================================
// 🔧 运行时加载
// =============================================================================

// loadRuntime 按 默认值 → 配置文件 → 环境变量 → --iteration 的顺序加载配置并组装运行时。
func loadRuntime(cmd *cobra.Command) (*graphground.Runtime, *zap.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	iteration, _ := cmd.Flags().GetString("iteration")

	cfg, err := config.NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if iteration != "" {
		cfg.Grounding.Iteration = iteration
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := initLogger(cfg.Log)
	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return rt, logger, nil
}

func closeRuntime(ctx context.Context, rt *graphground.Runtime, logger *zap.Logger) {
	if err := rt.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("runtime close failed", zap.Error(err))
	}
	_ = logger.Sync()
}
