package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// MutationRequest はスケジュールの作成・更新リクエストのボディ。
// 対象の購読は購読ID（subscription）または所有クライアントのID（user）で
// 指定する。どちらも省略された場合はアクター自身の購読を対象とする。
type MutationRequest struct {
	SubscriptionID *int64          `json:"subscription"`
	UserID         *int64          `json:"user"`
	VideurID       *int64          `json:"videur"`
	Slots          json.RawMessage `json:"slots"`
}

// ListQuery はスケジュール一覧の絞り込みクエリパラメータ（未解釈の文字列）。
type ListQuery struct {
	Videur   string
	User     string
	City     string
	Day      string
	TimeFrom string
	TimeTo   string
}

// Service はスケジュールのライフサイクル管理を提供する。
// バリデータとクエリエンジンを束ね、認可テーブルに基づいて操作を許可する。
type Service struct {
	scheduleRepo repository.ScheduleRepository
	subRepo      repository.SubscriptionRepository
	userRepo     repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(
	scheduleRepo repository.ScheduleRepository,
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		subRepo:      subRepo,
		userRepo:     userRepo,
	}
}

// Create は購読に対するスケジュールを新規作成する。
// 購読につき1件のみ（2件目の作成はSCHEDULE_ALREADY_EXISTS）。
// アクターがBOUNCERでvideurが未指定の場合は自分自身を担当に割り当てる。
func (s *Service) Create(ctx context.Context, actor *model.User, req MutationRequest) (*model.Schedule, error) {
	// 認可はバリデーションより先に判定する
	if !Allowed(ActionCreate, actor.Role, false, false) {
		return nil, model.NewForbiddenError()
	}

	sub, err := s.resolveSubscription(ctx, actor, req.SubscriptionID, req.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := s.scheduleRepo.FindBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewScheduleAlreadyExistsError()
	}

	if len(req.Slots) == 0 {
		return nil, model.NewMissingFieldError("slots")
	}
	slots, err := ValidateSlots(req.Slots, sub.CollectionFrequency)
	if err != nil {
		return nil, err
	}

	videurID := req.VideurID
	if videurID == nil && actor.Role == model.RoleBouncer {
		// BOUNCERによる作成は明示指定がない限り自己割り当て
		id := actor.ID
		videurID = &id
	}
	if videurID != nil {
		if err := s.checkVideur(ctx, *videurID); err != nil {
			return nil, err
		}
	}

	sched := &model.Schedule{
		SubscriptionID: sub.ID,
		VideurID:       videurID,
		Slots:          slots,
	}

	// 存在チェックと挿入の間の競合はsubscription_idのUNIQUE制約が検出し、
	// リポジトリがSCHEDULE_ALREADY_EXISTSとして返す。
	if err := s.scheduleRepo.Create(ctx, sched); err != nil {
		return nil, err
	}

	slog.Info("schedule created",
		slog.Int64("schedule_id", sched.ID),
		slog.Int64("subscription_id", sub.ID),
		slog.Int64("actor_id", actor.ID),
	)
	return sched, nil
}

// Get は対象購読のスケジュールを取得する。
// USERは自分の購読のスケジュールのみ参照できる。
func (s *Service) Get(ctx context.Context, actor *model.User, subscriptionID, userID *int64) (*model.Schedule, error) {
	sub, err := s.resolveSubscription(ctx, actor, subscriptionID, userID)
	if err != nil {
		return nil, err
	}

	if !Allowed(ActionRead, actor.Role, sub.ClientID == actor.ID, true) {
		return nil, model.NewForbiddenError()
	}

	sched, err := s.scheduleRepo.FindBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	if sched == nil {
		return nil, model.NewScheduleNotFoundError()
	}
	return sched, nil
}

// List はスケジュール一覧を返す。
// ストア側でvideur/city/clientの構造的な絞り込みとid降順の並びを確定した後、
// クエリエンジンで曜日・時刻範囲によるスロット単位の絞り込みと刈り込みを行う。
// USERは自分の購読、BOUNCERは担当中または未割り当てのスケジュールに限定される。
func (s *Service) List(ctx context.Context, actor *model.User, query ListQuery) ([]*model.Schedule, error) {
	if !Allowed(ActionList, actor.Role, true, true) {
		return nil, model.NewForbiddenError()
	}

	filter := repository.ScheduleListFilter{City: query.City}

	if query.Videur != "" {
		id, err := parseID(query.Videur)
		if err != nil {
			return nil, model.NewInvalidFieldError("videur", "must be an integer id")
		}
		filter.VideurID = &id
	}
	if query.User != "" {
		id, err := parseID(query.User)
		if err != nil {
			return nil, model.NewInvalidFieldError("user", "must be an integer id")
		}
		if actor.Role == model.RoleUser && id != actor.ID {
			return nil, model.NewForbiddenError()
		}
		filter.ClientID = &id
	}

	// ロールごとの一覧スコープ
	switch actor.Role {
	case model.RoleUser:
		id := actor.ID
		filter.ClientID = &id
	case model.RoleBouncer:
		id := actor.ID
		filter.AssignedToOrUnassigned = &id
	}

	slotFilter, err := ParseSlotFilter(query.Day, query.TimeFrom, query.TimeTo)
	if err != nil {
		return nil, err
	}

	schedules, err := s.scheduleRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("スケジュール一覧の取得に失敗しました: %w", err)
	}

	return slotFilter.Apply(schedules), nil
}

// Update は対象購読のスケジュールを更新する。
// slotsが指定された場合は全置換で、新しいリスト全体を頻度に対して再検証する
// （スロットの部分編集は提供しない）。videurの再割り当ても可能。
func (s *Service) Update(ctx context.Context, actor *model.User, req MutationRequest) (*model.Schedule, error) {
	sched, sub, err := s.resolveForMutation(ctx, actor, ActionUpdate, req)
	if err != nil {
		return nil, err
	}

	if len(req.Slots) > 0 {
		slots, err := ValidateSlots(req.Slots, sub.CollectionFrequency)
		if err != nil {
			return nil, err
		}
		sched.Slots = slots
	}

	if req.VideurID != nil {
		if err := s.checkVideur(ctx, *req.VideurID); err != nil {
			return nil, err
		}
		sched.VideurID = req.VideurID
	}

	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return nil, fmt.Errorf("スケジュールの更新に失敗しました: %w", err)
	}

	slog.Info("schedule updated",
		slog.Int64("schedule_id", sched.ID),
		slog.Int64("actor_id", actor.ID),
	)
	return sched, nil
}

// Delete は対象購読のスケジュールを削除する。
// 削除後は同じ購読に対して再度Createできる。
func (s *Service) Delete(ctx context.Context, actor *model.User, req MutationRequest) error {
	sched, _, err := s.resolveForMutation(ctx, actor, ActionDelete, req)
	if err != nil {
		return err
	}

	if err := s.scheduleRepo.DeleteByID(ctx, sched.ID); err != nil {
		return fmt.Errorf("スケジュールの削除に失敗しました: %w", err)
	}

	slog.Info("schedule deleted",
		slog.Int64("schedule_id", sched.ID),
		slog.Int64("actor_id", actor.ID),
	)
	return nil
}

// resolveForMutation は更新・削除対象のスケジュールを解決し、認可を判定する。
// 粗いロール判定 → 購読解決 → スケジュール解決 → 割り当て状態込みの判定の順。
func (s *Service) resolveForMutation(ctx context.Context, actor *model.User, action Action, req MutationRequest) (*model.Schedule, *model.Subscription, error) {
	if !Allowed(action, actor.Role, false, true) {
		return nil, nil, model.NewForbiddenError()
	}

	sub, err := s.resolveSubscription(ctx, actor, req.SubscriptionID, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	sched, err := s.scheduleRepo.FindBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	if sched == nil {
		return nil, nil, model.NewScheduleNotFoundError()
	}

	assignedOK := sched.VideurID == nil || *sched.VideurID == actor.ID
	if !Allowed(action, actor.Role, sub.ClientID == actor.ID, assignedOK) {
		return nil, nil, model.NewForbiddenError()
	}

	return sched, sub, nil
}

// resolveSubscription は対象の購読を解決する。
// 優先順位: 明示的な購読ID → 所有クライアントのID → アクター自身の購読。
// いずれでも見つからない場合はSUBSCRIPTION_NOT_FOUNDを返す。
func (s *Service) resolveSubscription(ctx context.Context, actor *model.User, subscriptionID, userID *int64) (*model.Subscription, error) {
	var (
		sub *model.Subscription
		err error
	)
	switch {
	case subscriptionID != nil:
		sub, err = s.subRepo.FindByID(ctx, *subscriptionID)
	case userID != nil:
		sub, err = s.subRepo.FindByClientID(ctx, *userID)
	default:
		sub, err = s.subRepo.FindByClientID(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriptionNotFoundError()
	}
	return sub, nil
}

// checkVideur は指定IDのユーザーがBOUNCERロールであることを検証する。
func (s *Service) checkVideur(ctx context.Context, id int64) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("videurの取得に失敗しました: %w", err)
	}
	if user == nil || user.Role != model.RoleBouncer {
		return model.NewInvalidFieldError("videur", "user is not a videur")
	}
	return nil
}

// parseID は10進の整数IDを解釈する。
func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
