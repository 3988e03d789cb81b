// Package collecte は収集実績（collecte）の記録と参照を提供する。
package collecte

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// CreateRequest は収集実績の作成リクエスト。
type CreateRequest struct {
	ClientID  *int64  `json:"client"`
	Date      string  `json:"date"` // ISO-8601
	Status    string  `json:"status"`
	WasteType string  `json:"waste_type"`
	WeightKg  float64 `json:"weight_kg"`
}

// UpdateRequest は収集実績の更新リクエスト（部分更新）。
type UpdateRequest struct {
	Date      *string  `json:"date"`
	Status    *string  `json:"status"`
	WasteType *string  `json:"waste_type"`
	WeightKg  *float64 `json:"weight_kg"`
}

// ListQuery は収集実績一覧の絞り込みクエリパラメータ（未解釈の文字列）。
type ListQuery struct {
	Client    string
	Videur    string
	Status    string
	WasteType string
	DateFrom  string
	DateTo    string
}

// Service は収集実績に関するビジネスロジックを提供する。
type Service struct {
	collecteRepo repository.CollecteRepository
	userRepo     repository.UserRepository
	subRepo      repository.SubscriptionRepository
}

// NewService はServiceを生成する。
func NewService(
	collecteRepo repository.CollecteRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
) *Service {
	return &Service{
		collecteRepo: collecteRepo,
		userRepo:     userRepo,
		subRepo:      subRepo,
	}
}

// Create は収集実績を記録する。videurとして実行アクターを記録する。
// 実行できるのはBOUNCERのみ。対象クライアントはUSERロールで存在し、
// 購読を保持していなければならない。
func (s *Service) Create(ctx context.Context, actor *model.User, req CreateRequest) (*model.Collecte, error) {
	if actor.Role != model.RoleBouncer {
		return nil, model.NewForbiddenError()
	}
	if req.ClientID == nil {
		return nil, model.NewMissingFieldError("client")
	}

	client, err := s.userRepo.FindByID(ctx, *req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	if client == nil || client.Role != model.RoleUser {
		return nil, model.NewNotFoundError("client")
	}

	sub, err := s.subRepo.FindByClientID(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	if sub == nil {
		// 購読なしは記録リクエスト自体の不備（400）として扱う
		return nil, model.NewSubscriptionRequiredError()
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			return nil, model.NewInvalidFieldError("date", "expected ISO-8601 date")
		}
		date = parsed
	}

	status := model.CollecteCompleted
	if req.Status != "" {
		status = model.CollecteStatus(req.Status)
		if !status.IsValid() {
			return nil, model.NewInvalidFieldError("status", "unknown status")
		}
	}

	wasteType := model.WasteMixed
	if req.WasteType != "" {
		wasteType = model.WasteType(req.WasteType)
		if !wasteType.IsValid() {
			return nil, model.NewInvalidFieldError("waste_type", "unknown waste type")
		}
	}

	videurID := actor.ID
	c := &model.Collecte{
		ClientID:       client.ID,
		VideurID:       &videurID,
		SubscriptionID: sub.ID,
		Date:           date,
		Status:         status,
		WasteType:      wasteType,
		WeightKg:       req.WeightKg,
	}

	if err := s.collecteRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("収集実績の作成に失敗しました: %w", err)
	}

	slog.Info("collecte recorded",
		slog.Int64("collecte_id", c.ID),
		slog.Int64("client_id", client.ID),
		slog.Int64("videur_id", videurID),
	)
	return c, nil
}

// Get は収集実績を返す。対象クライアント本人、担当videur、管理者のみ参照できる。
func (s *Service) Get(ctx context.Context, actor *model.User, id int64) (*model.Collecte, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canRead(actor, c) {
		return nil, model.NewForbiddenError()
	}
	return c, nil
}

// Update は収集実績を部分更新する。担当videurまたは管理者のみ。
func (s *Service) Update(ctx context.Context, actor *model.User, id int64, req UpdateRequest) (*model.Collecte, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canMutate(actor, c) {
		return nil, model.NewForbiddenError()
	}

	if req.Date != nil {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			return nil, model.NewInvalidFieldError("date", "expected ISO-8601 date")
		}
		c.Date = parsed
	}
	if req.Status != nil {
		status := model.CollecteStatus(*req.Status)
		if !status.IsValid() {
			return nil, model.NewInvalidFieldError("status", "unknown status")
		}
		c.Status = status
	}
	if req.WasteType != nil {
		wasteType := model.WasteType(*req.WasteType)
		if !wasteType.IsValid() {
			return nil, model.NewInvalidFieldError("waste_type", "unknown waste type")
		}
		c.WasteType = wasteType
	}
	if req.WeightKg != nil {
		c.WeightKg = *req.WeightKg
	}

	if err := s.collecteRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("収集実績の更新に失敗しました: %w", err)
	}

	slog.Info("collecte updated", slog.Int64("collecte_id", c.ID))
	return c, nil
}

// Delete は収集実績を削除する。担当videurまたは管理者のみ。
func (s *Service) Delete(ctx context.Context, actor *model.User, id int64) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.canMutate(actor, c) {
		return model.NewForbiddenError()
	}

	if err := s.collecteRepo.DeleteByID(ctx, c.ID); err != nil {
		return fmt.Errorf("収集実績の削除に失敗しました: %w", err)
	}

	slog.Info("collecte deleted", slog.Int64("collecte_id", c.ID))
	return nil
}

// List は収集実績一覧をid降順で返す。
// 非特権アクター（USER）は自分の収集のみ参照でき、clientフィルタは使えない。
// BOUNCERは暗黙に自分が担当した収集に限定される。
func (s *Service) List(ctx context.Context, actor *model.User, query ListQuery) ([]*model.Collecte, error) {
	filter := repository.CollecteListFilter{}

	if query.Client != "" {
		if !actor.Role.IsPrivileged() {
			return nil, model.NewForbiddenError()
		}
		id, err := strconv.ParseInt(query.Client, 10, 64)
		if err != nil {
			return nil, model.NewInvalidFieldError("client", "must be an integer id")
		}
		filter.ClientID = &id
	}
	if query.Videur != "" {
		id, err := strconv.ParseInt(query.Videur, 10, 64)
		if err != nil {
			return nil, model.NewInvalidFieldError("videur", "must be an integer id")
		}
		filter.VideurID = &id
	}
	if query.Status != "" {
		status := model.CollecteStatus(query.Status)
		if !status.IsValid() {
			return nil, model.NewInvalidFieldError("status", "unknown status")
		}
		filter.Status = &status
	}
	if query.WasteType != "" {
		wasteType := model.WasteType(query.WasteType)
		if !wasteType.IsValid() {
			return nil, model.NewInvalidFieldError("waste_type", "unknown waste type")
		}
		filter.WasteType = &wasteType
	}
	if query.DateFrom != "" {
		t, err := parseDate(query.DateFrom)
		if err != nil {
			return nil, model.NewInvalidFieldError("date_from", "expected ISO-8601 date")
		}
		filter.DateFrom = &t
	}
	if query.DateTo != "" {
		t, err := parseDate(query.DateTo)
		if err != nil {
			return nil, model.NewInvalidFieldError("date_to", "expected ISO-8601 date")
		}
		filter.DateTo = &t
	}

	// ロールごとの一覧スコープ
	switch actor.Role {
	case model.RoleUser:
		id := actor.ID
		filter.ClientID = &id
	case model.RoleBouncer:
		id := actor.ID
		filter.VideurID = &id
	}

	collectes, err := s.collecteRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("収集実績一覧の取得に失敗しました: %w", err)
	}
	return collectes, nil
}

func (s *Service) find(ctx context.Context, id int64) (*model.Collecte, error) {
	c, err := s.collecteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("収集実績の取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("collecte")
	}
	return c, nil
}

func (s *Service) canRead(actor *model.User, c *model.Collecte) bool {
	if actor.Role.IsAdmin() || c.ClientID == actor.ID {
		return true
	}
	return c.VideurID != nil && *c.VideurID == actor.ID
}

func (s *Service) canMutate(actor *model.User, c *model.Collecte) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	return actor.Role == model.RoleBouncer && c.VideurID != nil && *c.VideurID == actor.ID
}

// parseDate はISO-8601の日付または日時を解釈する。
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
