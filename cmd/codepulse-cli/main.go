package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/yuqie6/codepulse/internal/bootstrap"
	"github.com/yuqie6/codepulse/internal/pkg/buildinfo"
)

const skipCoreAnnotation = "skip-core"

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "codepulse",
		Short:        "codepulse - 编码活动与在线状态",
		Long:         `codepulse 从 WakaTime 兼容的统计服务拉取今日编码活动，推导在线状态，并把语言用量同步到技能 CMS。`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipCoreAnnotation] == "true" {
				return nil
			}
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(skillsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
