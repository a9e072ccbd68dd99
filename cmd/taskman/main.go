// Command taskman はタスク管理APIサーバーを起動する。
//
// サブコマンド:
//
//	serve                       APIサーバーを起動する（デフォルト）
//	migrate [up|down|status]    スキーマを適用、巻き戻し、または現在のバージョンを表示する
//	healthcheck                 稼働中サーバーの /health を確認する
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/taskman/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
