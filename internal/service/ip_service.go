package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/internal/officeip"
	"github.com/dlrntm-png/bangguy/internal/repository"
)

var (
	ErrInvalidCIDR    = errors.New("잘못된 IP/CIDR 형식입니다.")
	ErrDuplicateCIDR  = errors.New("이미 등록된 IP/CIDR입니다.")
	ErrAllowedIPEmpty = errors.New("IP/CIDR를 입력해주세요.")
)

// IPService 动态办公网白名单管理接口。增删后同步刷新分类器缓存，立即生效。
type IPService interface {
	List(ctx context.Context) ([]model.AllowedIP, error)
	Add(ctx context.Context, ipCIDR, description, createdBy string) (*model.AllowedIP, error)
	Remove(ctx context.Context, id int64) error
}

type ipService struct {
	repo       *repository.Repository
	classifier *officeip.Classifier
	logger     *zap.Logger
}

// NewIPService 创建 IPService 实例
func NewIPService(repo *repository.Repository, classifier *officeip.Classifier, logger *zap.Logger) IPService {
	return &ipService{repo: repo, classifier: classifier, logger: logger}
}

func (s *ipService) List(ctx context.Context) ([]model.AllowedIP, error) {
	return s.repo.AllowedIP.List(ctx)
}

func (s *ipService) Add(ctx context.Context, ipCIDR, description, createdBy string) (*model.AllowedIP, error) {
	ipCIDR = strings.TrimSpace(ipCIDR)
	if ipCIDR == "" {
		return nil, ErrAllowedIPEmpty
	}
	// 入库前先过一遍解析，拒绝写入垃圾数据
	if _, err := officeip.ParseCIDR(ipCIDR); err != nil {
		return nil, ErrInvalidCIDR
	}

	row := &model.AllowedIP{IPCIDR: ipCIDR}
	if description != "" {
		row.Description = &description
	}
	if createdBy != "" {
		row.CreatedBy = &createdBy
	}
	if err := s.repo.AllowedIP.Create(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate") {
			return nil, ErrDuplicateCIDR
		}
		s.logger.Error("白名单写入失败", zap.String("ip_cidr", ipCIDR), zap.Error(err))
		return nil, err
	}

	s.refreshClassifier(ctx)
	s.logger.Info("白名单已新增", zap.String("ip_cidr", ipCIDR))
	return row, nil
}

func (s *ipService) Remove(ctx context.Context, id int64) error {
	if err := s.repo.AllowedIP.Delete(ctx, id); err != nil {
		s.logger.Error("白名单删除失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	s.refreshClassifier(ctx)
	s.logger.Info("白名单已删除", zap.Int64("id", id))
	return nil
}

// refreshClassifier 增删后同步刷新分类器缓存；刷新失败就退回缓存失效，下次判定再回源
func (s *ipService) refreshClassifier(ctx context.Context) {
	if err := s.classifier.Refresh(ctx); err != nil {
		s.logger.Warn("分类器缓存刷新失败", zap.Error(err))
		s.classifier.Invalidate()
	}
}
