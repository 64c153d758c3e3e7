// Package server は、映像ソースのコントロール操作をHTTP APIとして公開します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - ソース一覧、コントロールの読み書き、一括リセットのエンドポイント
//   - リクエストIDの付与とアクセスログ
//   - Prometheus指標の公開 (/metrics)
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - ソースが見つからない場合は404、コントロール操作の失敗は422を返す
//   - 一括リセットの部分失敗は500で、失敗したコントロールを全て返す
package server
