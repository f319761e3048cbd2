// Package security はユーザー入力テキストの無害化とURL検証を提供する。
//
// プロフィールの自己紹介やプロジェクト説明はフロントエンドでそのまま描画されるため、
// 保存前にbluemondayでマークアップを取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses はエンティティ展開後の再サニタイズを繰り返す上限。
const maxSanitizePasses = 4

// TextSanitizer はプレーンテキスト項目の無害化を行うインターフェース。
type TextSanitizer interface {
	// Sanitize はHTMLタグを全て除去したプレーンテキストを返す。
	// 前後の空白は取り除かれる。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去し、HTMLエンティティを元の文字に戻したテキストを返す。
//
// "&lt;script&gt;" のようにエンティティで隠されたタグは展開後に再度除去する。
// 出力が安定しない入力はエスケープされたままの形で返す。
func (s *textSanitizer) Sanitize(raw string) string {
	cur := raw
	for i := 0; i < maxSanitizePasses; i++ {
		plain := html.UnescapeString(s.policy.Sanitize(cur))
		if plain == cur {
			return strings.TrimSpace(plain)
		}
		cur = plain
	}
	return strings.TrimSpace(s.policy.Sanitize(cur))
}
