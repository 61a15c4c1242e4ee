package cms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/yuqie6/codepulse/internal/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	skillsCollection     = "skills"
	skillUsageCollection = "skill_usage"
)

// FirestoreConfig Firestore 后端配置
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreCatalog 以 Firestore 集合作为技能 CMS
type FirestoreCatalog struct {
	client *firestore.Client
}

// NewFirestoreCatalog 创建 Firestore 客户端；未指定凭据文件时使用 ADC
// 设置 FIRESTORE_EMULATOR_HOST 时 SDK 会自动连接模拟器
func NewFirestoreCatalog(ctx context.Context, cfg FirestoreConfig) (*FirestoreCatalog, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("firestore project_id 不能为空")
	}
	var opts []option.ClientOption
	if p := strings.TrimSpace(cfg.CredentialsFile); p != "" {
		opts = append(opts, option.WithCredentialsFile(p))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 Firestore 客户端失败: %w", err)
	}
	return NewFirestoreCatalogWithClient(client), nil
}

func NewFirestoreCatalogWithClient(client *firestore.Client) *FirestoreCatalog {
	return &FirestoreCatalog{client: client}
}

type firestoreSkill struct {
	Name      string `firestore:"name"`
	NameLower string `firestore:"name_lower"`
}

type firestoreUsage struct {
	Skill     string    `firestore:"skill"`
	Date      string    `firestore:"date"`
	Seconds   int64     `firestore:"seconds"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (c *FirestoreCatalog) FindSkillByName(ctx context.Context, name string) ([]model.SkillRef, error) {
	iter := c.client.Collection(skillsCollection).
		Where("name_lower", "==", strings.ToLower(strings.TrimSpace(name))).
		Documents(ctx)
	defer iter.Stop()

	var refs []model.SkillRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("查询 Firestore 技能失败: %w", err)
		}
		var s firestoreSkill
		if err := doc.DataTo(&s); err != nil {
			return nil, fmt.Errorf("解析 Firestore 技能失败: %w", err)
		}
		refs = append(refs, model.SkillRef{ID: doc.Ref.ID, Name: s.Name})
	}
	return refs, nil
}

// UpsertUsage 文档 id 为 {skillId}_{date}，按字段合并写入
func (c *FirestoreCatalog) UpsertUsage(ctx context.Context, usage model.SkillUsage) error {
	if strings.TrimSpace(usage.SkillID) == "" {
		return notFound(usage.SkillID)
	}
	if _, err := c.client.Collection(skillsCollection).Doc(usage.SkillID).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return notFound(usage.SkillID)
		}
		return fmt.Errorf("读取 Firestore 技能失败: %w", err)
	}

	doc := c.client.Collection(skillUsageCollection).Doc(usage.SkillID + "_" + usage.Date)
	_, err := doc.Set(ctx, map[string]any{
		"skill":      usage.SkillID,
		"date":       usage.Date,
		"seconds":    usage.Seconds,
		"updated_at": time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("写入 Firestore 技能用量失败: %w", err)
	}
	return nil
}

// AddSkill 新增技能文档（CLI 与测试用）
func (c *FirestoreCatalog) AddSkill(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("技能名不能为空")
	}
	ref, _, err := c.client.Collection(skillsCollection).Add(ctx, firestoreSkill{
		Name:      name,
		NameLower: strings.ToLower(name),
	})
	if err != nil {
		return "", fmt.Errorf("新增 Firestore 技能失败: %w", err)
	}
	return ref.ID, nil
}

// GetUsage 读取单日用量，不存在返回 nil, nil
func (c *FirestoreCatalog) GetUsage(ctx context.Context, skillID, date string) (*model.SkillUsage, error) {
	snap, err := c.client.Collection(skillUsageCollection).Doc(skillID + "_" + date).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 Firestore 技能用量失败: %w", err)
	}
	var u firestoreUsage
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("解析 Firestore 技能用量失败: %w", err)
	}
	return &model.SkillUsage{SkillID: u.Skill, Date: u.Date, Seconds: u.Seconds}, nil
}

func (c *FirestoreCatalog) Close() error {
	return c.client.Close()
}
