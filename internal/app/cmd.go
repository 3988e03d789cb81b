package app

// Command はアプリケーションの起動モードを表す。
// 同一バイナリがAPIサーバー・通知ワーカー・マイグレーション・
// ヘルスチェックの4モードを提供する。
type Command string

const (
	// CommandServe はAPIサーバーモード。
	CommandServe Command = "serve"
	// CommandWorker は通知ディスパッチ・クリーンアップのワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションの適用モード。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックモード。
	// distroless環境のDocker HEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空またはサポート外の場合はserveにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}
