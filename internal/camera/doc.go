// Package camera 映像ソースの共通モデルと能力インターフェースを定義する
//
// # 責務
// - フォーマット・コントロールの値型（スナップショット）の定義
// - 全バックエンドが満たす VideoSource インターフェースの定義
// - コントロール操作のエラー型の定義
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - バックエンド（local / pipeline / redirect）を実装したい
// - バックエンドの種類を意識せずにコントロールを読み書きしたい
//
// # 仕様
// - Control は列挙のたびに新しく作られるスナップショットで、バックエンドへの参照を持たない
// - ControlType は Bool / Slider / Menu の3種類に閉じている
// - 値の読み書きはバックエンドへの直接呼び出しで、キャッシュしない
//
// # 前提要件
//   - v4l-utils: local バックエンドの v4l2-ctl ドライバーで使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: pipeline バックエンドで使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
