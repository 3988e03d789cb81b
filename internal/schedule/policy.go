package schedule

import "github.com/photizon/photizon/internal/model"

// Action はスケジュールに対する操作種別を表す。
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// policyRule は(操作, ロール)の組に対する認可ルールを表す。
type policyRule struct {
	allow             bool
	requireOwnership  bool // 対象スケジュールの購読の所有者であること
	requireAssignment bool // 担当videurであるか、videurが未割り当てであること
}

// policy はスケジュール操作の認可テーブル。
// エンドポイントごとの場当たり的なロール判定は行わず、必ずここを参照する。
// スケジュールはクライアントのセルフサービスではなく割り当て制のため、
// USERによる作成・変更・削除は許可しない。
var policy = map[Action]map[model.Role]policyRule{
	ActionCreate: {
		model.RoleSAdmin:  {allow: true},
		model.RoleAdmin:   {allow: true},
		model.RoleBouncer: {allow: true},
	},
	ActionRead: {
		model.RoleSAdmin:  {allow: true},
		model.RoleAdmin:   {allow: true},
		model.RoleBouncer: {allow: true},
		model.RoleUser:    {allow: true, requireOwnership: true},
	},
	ActionList: {
		model.RoleSAdmin:  {allow: true},
		model.RoleAdmin:   {allow: true},
		model.RoleBouncer: {allow: true, requireAssignment: true},
		model.RoleUser:    {allow: true, requireOwnership: true},
	},
	ActionUpdate: {
		model.RoleSAdmin:  {allow: true},
		model.RoleAdmin:   {allow: true},
		model.RoleBouncer: {allow: true, requireAssignment: true},
	},
	ActionDelete: {
		model.RoleSAdmin:  {allow: true},
		model.RoleAdmin:   {allow: true},
		model.RoleBouncer: {allow: true, requireAssignment: true},
	},
}

// Allowed は操作が認可されるかをテーブルに基づいて判定する。
// ownsSubscriptionは対象スケジュールの購読をアクターが所有しているか、
// assignedOrUnassignedは対象のvideurがアクター自身か未割り当てかを表す。
// 対象リソースに依存しない操作（create等）では両引数は参照されない。
func Allowed(action Action, role model.Role, ownsSubscription, assignedOrUnassigned bool) bool {
	rule, ok := policy[action][role]
	if !ok || !rule.allow {
		return false
	}
	if rule.requireOwnership && !ownsSubscription {
		return false
	}
	if rule.requireAssignment && !assignedOrUnassigned {
		return false
	}
	return true
}
