package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yuqie6/codepulse/internal/cms"
	"github.com/yuqie6/codepulse/internal/pkg/config"
	"github.com/yuqie6/codepulse/internal/schema"
	"github.com/yuqie6/codepulse/internal/service"
)

// statusCmd 当前在线状态
func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "查看今日编码活动与在线状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := core.Services.Activity.GetSnapshot(ctx, time.Now())
			if err != nil {
				red.Printf("❌ 获取活动失败: %v\n", err)
				return err
			}

			header(fmt.Sprintf("📅 %s (%s)", snap.Range.Date, snap.Range.Timezone))
			fmt.Printf("状态: %s\n", statusColor(snap.Status).Sprint(string(snap.Status)))
			fmt.Printf("今日总计: %s\n", formatSeconds(snap.TotalSeconds))
			fmt.Printf("最近活动: %s\n", relTime(snap.LastActivityAt))

			printEntries("🧑‍💻 语言", snap.Languages, limit)
			printEntries("🛠  编辑器", snap.Editors, limit)
			printEntries("💻 系统", snap.OperatingSystems, limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 8, "每个分类最多显示条数")
	return cmd
}

// syncCmd 立即同步今日语言用量（前台执行并输出统计）
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "把今日语言用量同步到技能 CMS",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !core.Services.Sync.Enabled() {
				yellow.Println("⚠️  技能同步未启用")
				fmt.Println("   请配置 cms.api_token（或 CMS_API_TOKEN），或使用 cms.driver: sqlite")
				return nil
			}
			ctx := cmd.Context()
			loc := core.Clients.WakaTime.Location()
			now := time.Now()

			// 直接拉取上游，避免经过缓存编排再触发一次后台同步
			payload, err := core.Clients.WakaTime.FetchSummaries(ctx, service.DateIn(now, loc))
			if err != nil {
				red.Printf("❌ 获取活动失败: %v\n", err)
				return err
			}
			snap := service.MergeSnapshot(payload, nil, now, loc)

			report := core.Services.Sync.SyncAll(ctx, snap.Languages)
			green.Printf("✅ 同步完成 %s\n", report.Date)
			fmt.Printf("  • 已推送: %d\n", report.Pushed)
			fmt.Printf("  • 跳过: %d\n", report.Skipped)
			if report.Missing > 0 {
				yellow.Printf("  • CMS 缺少: %d（请在 CMS 中手动添加）\n", report.Missing)
			}
			if report.Failed > 0 {
				red.Printf("  • 失败: %d\n", report.Failed)
			}
			faint.Printf("  run_id=%s\n", report.RunID)
			return nil
		},
	}
}

// skillsCmd 本地技能库（cms.driver: sqlite）
func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "管理本地技能库",
	}

	var category string
	addCmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "新增技能",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if fs, ok := core.Clients.Catalog.(*cms.FirestoreCatalog); ok {
				for _, name := range args {
					id, err := fs.AddSkill(ctx, name)
					if err != nil {
						return err
					}
					green.Printf("✅ %s (%s)\n", strings.TrimSpace(name), id)
				}
				return nil
			}
			for _, name := range args {
				skill := schema.NewSkill(name, category)
				if err := core.Repos.Skill.Upsert(ctx, skill); err != nil {
					red.Printf("❌ %s: %v\n", name, err)
					return err
				}
				green.Printf("✅ %s\n", skill.Name)
			}
			return nil
		},
	}
	addCmd.Flags().StringVar(&category, "category", "language", "技能分类")

	var date string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出本地技能及用量",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if date == "" {
				date = service.DateIn(time.Now(), core.Clients.WakaTime.Location())
			}
			skills, err := core.Repos.Skill.GetAll(ctx)
			if err != nil {
				return err
			}
			if len(skills) == 0 {
				fmt.Println("📚 技能库为空")
				fmt.Println("   先使用 'codepulse skills add Go' 添加技能")
				return nil
			}
			usages, err := core.Repos.SkillUsage.ListByDate(ctx, date)
			if err != nil {
				return err
			}
			seconds := make(map[int64]int64, len(usages))
			for _, u := range usages {
				seconds[u.SkillID] = u.Seconds
			}

			header(fmt.Sprintf("🎯 技能库（%d）· %s", len(skills), date))
			for _, s := range skills {
				sec := seconds[s.ID]
				line := fmt.Sprintf("  • %-16s %-10s", s.Name, s.Category)
				if sec > 0 {
					line += " " + formatSeconds(float64(sec))
				} else {
					line += " " + faint.Sprint("-")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&date, "date", "", "日期 (YYYY-MM-DD)，默认今天")

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

// historyCmd 最近的同步记录
func historyCmd() *cobra.Command {
	var (
		limit int
		date  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "查看最近的技能同步记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				runs []schema.SyncRun
				err  error
			)
			if date != "" {
				runs, err = core.Repos.SyncRun.GetByDate(cmd.Context(), date, core.Clients.WakaTime.Location())
			} else {
				runs, err = core.Repos.SyncRun.GetRecent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("暂无同步记录")
				return nil
			}
			for _, r := range runs {
				started := time.UnixMilli(r.StartedAt)
				took := time.UnixMilli(r.FinishedAt).Sub(started)
				c := green
				if r.Failed > 0 {
					c = red
				}
				c.Printf("%-8s", r.Trigger)
				fmt.Printf(" %-14s pushed=%d skipped=%d missing=%d failed=%d  %s\n",
					humanize.Time(started), r.Pushed, r.Skipped, r.Missing, r.Failed,
					faint.Sprint(took.Round(time.Millisecond)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "显示条数")
	cmd.Flags().StringVar(&date, "date", "", "只看某天 (YYYY-MM-DD)")
	return cmd
}

// configCmd 配置文件
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "写入默认配置文件",
		Annotations: map[string]string{skipCoreAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				yellow.Printf("⚠️  配置文件已存在: %s（使用 --force 覆盖）\n", path)
				return nil
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			green.Printf("✅ 已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有配置")

	cmd.AddCommand(initCmd)
	return cmd
}
