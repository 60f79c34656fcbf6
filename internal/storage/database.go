package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"aura-go/internal/config"
	"aura-go/internal/logging"
	"aura-go/internal/models"
)

// InitDB initializes the database connection using the provided configuration.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GormLogger(),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// pendingRequestPairIndex keeps at most one pending request per unordered pair.
const pendingRequestPairIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pending_pair
ON friend_requests (LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id))
WHERE status = 'pending' AND deleted_at IS NULL`

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
func AutoMigrateTables(db *gorm.DB) error {
	logrus.Info("开始数据库表结构迁移...")
	err := db.AutoMigrate(
		&models.Profile{},
		&models.OfflineFriend{},
		&models.FriendLink{},
		&models.FriendRequest{},
		&models.AuraProposal{},
		&models.ProposalVote{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if err := createPendingRequestIndex(db); err != nil {
		return err
	}
	logrus.Info("数据库迁移完成。")
	return nil
}

func createPendingRequestIndex(db *gorm.DB) error {
	if err := db.Exec(pendingRequestPairIndex).Error; err != nil {
		return fmt.Errorf("创建好友请求唯一索引失败: %w", err)
	}
	return nil
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Profiles       ProfileRepository
	OfflineFriends OfflineFriendRepository
	FriendLinks    FriendLinkRepository
	FriendRequests FriendRequestRepository
	Proposals      ProposalRepository
	Votes          VoteRepository
}

// NewGormRepositories builds all repositories on db.
func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Profiles:       NewGormProfileRepository(db),
		OfflineFriends: NewGormOfflineFriendRepository(db),
		FriendLinks:    NewGormFriendLinkRepository(db),
		FriendRequests: NewGormFriendRequestRepository(db),
		Proposals:      NewGormProposalRepository(db),
		Votes:          NewGormVoteRepository(db),
	}
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls the transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a Transactor backed by db.Transaction.
func NewGormTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}
