package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"aura-go/internal/config"
	"aura-go/internal/events"
	"aura-go/internal/leaderboard"
	"aura-go/internal/logging"
	"aura-go/internal/models"
	appRedis "aura-go/internal/redis"
	"aura-go/internal/services"
	"aura-go/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin show-proposal <proposalID> - 显示提案及其投票")
	fmt.Println("  ./admin resolve <proposalID>       - 立即结算提案 (不检查法定票数)")
	fmt.Println("  ./admin sweep                      - 结算所有到期的待处理提案")
	fmt.Println("  ./admin leaderboard [limit]        - 显示全局排行榜")
}

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("AURA_CONFIG"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	logging.Setup(cfg.LogLevel, false)

	// 数据库连接
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logging.GormLogger(),
	})
	if err != nil {
		log.Fatalf("Failed to create GORM instance: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repos := storage.NewGormRepositories(db)

	// 执行指定的命令
	switch os.Args[1] {
	case "show-proposal":
		showProposal(ctx, repos, parseID(os.Args, "提案ID"))

	case "resolve":
		proposal, err := proposalService(ctx, cfg, db).ResolveProposal(ctx, parseID(os.Args, "提案ID"))
		if err != nil {
			log.Fatalf("结算提案失败: %v", err)
		}
		fmt.Printf("提案 %d 状态: %s\n", proposal.ID, proposal.Status)

	case "sweep":
		result, err := proposalService(ctx, cfg, db).SweepPending(ctx, time.Now())
		if err != nil {
			log.Fatalf("结算失败: %v", err)
		}
		fmt.Printf("检查 %d, 通过 %d, 拒绝 %d, 跳过 %d, 失败 %d\n",
			result.Examined, result.Approved, result.Rejected, result.Skipped, result.Failed)

	case "leaderboard":
		limit := cfg.Leaderboard.GlobalLimit
		if len(os.Args) > 2 {
			if limit, err = strconv.Atoi(os.Args[2]); err != nil || limit <= 0 {
				log.Fatalf("无效的数量: %s", os.Args[2])
			}
		}
		showLeaderboard(ctx, repos, limit)

	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func parseID(args []string, what string) uint {
	if len(args) < 3 {
		log.Fatalf("需要指定%s", what)
	}
	id, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		log.Fatalf("无效的%s: %v", what, err)
	}
	return uint(id)
}

// proposalService builds the workflow without event publishing. The leaderboard
// cache is invalidated when Redis is reachable.
func proposalService(ctx context.Context, cfg config.Config, db *gorm.DB) services.ProposalService {
	var cache services.LeaderboardInvalidator
	if client, err := appRedis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		fmt.Printf("警告: 无法连接 Redis，排行榜缓存将在 TTL 后自然过期: %v\n", err)
	} else {
		cache = appRedis.NewLeaderboardCache(client, cfg.Leaderboard.CacheTTL)
	}
	return services.NewProposalService(
		storage.NewGormRepositories(db),
		storage.NewGormTransactor(db),
		events.NopPublisher{},
		cache,
		cfg.Proposals,
	)
}

func showProposal(ctx context.Context, repos storage.Repositories, proposalID uint) {
	proposal, err := repos.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		log.Fatalf("查找提案失败: %v", err)
	}

	fmt.Printf("提案 %d 信息:\n", proposalID)
	fmt.Println("--------------------------------------")
	fmt.Printf("发起者: %d\n", proposal.ProposerID)
	fmt.Printf("接收者: %d (离线好友: %v)\n", proposal.RecipientID, proposal.IsRecipientOffline)
	fmt.Printf("分值: %d\n", proposal.Value)
	fmt.Printf("理由: %s\n", proposal.Reason)
	fmt.Printf("状态: %s\n", proposal.Status)
	fmt.Printf("创建时间: %s\n", proposal.CreatedAt.Format("2006-01-02 15:04:05"))
	if proposal.ResolvedAt != nil {
		fmt.Printf("结算时间: %s\n", proposal.ResolvedAt.Format("2006-01-02 15:04:05"))
	}

	votes, err := repos.Votes.ListByProposal(ctx, proposalID)
	if err != nil {
		fmt.Printf("获取投票失败: %v\n", err)
		return
	}
	for i, v := range votes {
		fmt.Printf("#%d 投票者: %d, 赞成: %v, 时间: %s\n", i+1, v.VoterID, v.Vote, v.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	tally := models.TallyVotes(votes)
	fmt.Printf("赞成 %d / 反对 %d, 预计结果: %s\n", tally.Approve, tally.Reject, tally.Outcome())
}

func showLeaderboard(ctx context.Context, repos storage.Repositories, limit int) {
	profiles, err := repos.Profiles.TopByAura(ctx, limit)
	if err != nil {
		log.Fatalf("获取排行榜失败: %v", err)
	}
	fmt.Printf("全局排行榜 (前 %d):\n", limit)
	fmt.Println("--------------------------------------")
	for i, e := range leaderboard.Rank(leaderboard.FromProfiles(profiles)) {
		fmt.Printf("#%d %s (ID: %d) %s\n", i+1, e.Name, e.ID, e.Display)
	}
}
