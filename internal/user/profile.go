package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hitoshi/amisag/internal/model"
)

// fieldKind はプロフィール項目の入力形式。
type fieldKind int

const (
	// kindText はマークアップを除去して保存する自由記述。
	kindText fieldKind = iota
	// kindRawText はトリムのみ行う（画像の参照など）。
	kindRawText
	kindRequiredText
	kindList
	kindURL
)

// profileField はAPIのフィールド名と保存先カラムの対応。
type profileField struct {
	name   string
	column model.ProfileColumn
	kind   fieldKind
}

// profileFields は更新を受け付ける項目の許可リスト。
// 検証はこの順序で行うため、複数項目が不正な場合も返るエラーは一意に定まる。
var profileFields = []profileField{
	{"bio", model.ProfileColumnBio, kindText},
	{"location", model.ProfileColumnLocation, kindText},
	{"role", model.ProfileColumnRole, kindText},
	{"company", model.ProfileColumnCompany, kindText},
	{"skills", model.ProfileColumnSkills, kindList},
	{"goals", model.ProfileColumnGoals, kindList},
	{"industries", model.ProfileColumnIndustries, kindList},
	{"linkedinUrl", model.ProfileColumnLinkedinURL, kindURL},
	{"portfolioUrl", model.ProfileColumnPortfolioURL, kindURL},
	{"profileImage", model.ProfileColumnProfileImage, kindRawText},
	{"name", model.ProfileColumnName, kindRequiredText},
	{"image", model.ProfileColumnImage, kindRawText},
}

// URLChecker はURL項目の妥当性を判定する。
type URLChecker interface {
	IsValid(raw string) bool
}

// Sanitizer は自由記述テキストを無害化する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// BuildProfileChanges はリクエストボディから許可リストに含まれる項目だけを取り出し、
// 検証済みの更新内容に変換する。許可リスト外の項目は無視する。
// いずれかの項目が不正な場合は何も返さずエラーとする。
func BuildProfileChanges(body map[string]json.RawMessage, urls URLChecker, sanitizer Sanitizer) ([]model.ProfileChange, error) {
	changes := make([]model.ProfileChange, 0, len(profileFields))

	for _, f := range profileFields {
		raw, ok := body[f.name]
		if !ok {
			continue
		}

		var (
			value *string
			err   error
		)
		switch f.kind {
		case kindList:
			value, err = normalizeList(f.name, raw)
		case kindURL:
			value, err = normalizeURL(f.name, raw, urls)
		case kindRequiredText:
			value, err = normalizeRequiredText(f.name, raw, sanitizer)
		case kindRawText:
			value, err = normalizeText(f.name, raw)
		default:
			value, err = normalizeText(f.name, raw)
			if err == nil && value != nil && sanitizer != nil {
				s := sanitizer.Sanitize(*value)
				value = &s
			}
		}
		if err != nil {
			return nil, err
		}

		changes = append(changes, model.ProfileChange{Column: f.column, Value: value})
	}

	if len(changes) == 0 {
		return nil, model.NewValidationError(model.ErrCodeNoValidFields, "更新可能な項目が含まれていません")
	}
	return changes, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// normalizeText は文字列項目をトリムする。nullはNULLとして保存する。
func normalizeText(field string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidFieldType,
			fmt.Sprintf("%s は文字列で指定してください", field))
	}
	s = strings.TrimSpace(s)
	return &s, nil
}

// normalizeRequiredText はNOT NULLカラム向けに空文字列とnullを拒否する。
// マークアップ除去後に空になる値も拒否する。
func normalizeRequiredText(field string, raw json.RawMessage, sanitizer Sanitizer) (*string, error) {
	var s string
	if !isNull(raw) && json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSpace(s)
		if sanitizer != nil {
			s = sanitizer.Sanitize(s)
		}
	}
	if s == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidName,
			fmt.Sprintf("%s は空にできません", field))
	}
	return &s, nil
}

// normalizeList は配列、または配列を表すJSON文字列を受け付け、
// 保存用のコンパクトなJSON配列文字列に変換する。要素の順序は保持する。
func normalizeList(field string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}

	arrayErr := model.NewValidationError(model.ErrCodeInvalidJSONArray,
		fmt.Sprintf("%s はJSON配列で指定してください", field))

	payload := bytes.TrimSpace(raw)
	switch {
	case len(payload) > 0 && payload[0] == '[':
	case len(payload) > 0 && payload[0] == '"':
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, arrayErr
		}
		if !json.Valid([]byte(s)) {
			return nil, model.NewValidationError(model.ErrCodeInvalidJSON,
				fmt.Sprintf("%s のJSON形式が不正です", field))
		}
		payload = []byte(s)
	default:
		return nil, arrayErr
	}

	var items []string
	if err := json.Unmarshal(payload, &items); err != nil || items == nil {
		return nil, arrayErr
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", field, err)
	}
	s := string(encoded)
	return &s, nil
}

// normalizeURL は空文字列とnullをNULLとして扱い、それ以外は絶対URLであることを要求する。
func normalizeURL(field string, raw json.RawMessage, urls URLChecker) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, model.NewInvalidURLError(field)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if urls == nil || !urls.IsValid(s) {
		return nil, model.NewInvalidURLError(field)
	}
	return &s, nil
}
