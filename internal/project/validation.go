package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hitoshi/amisag/internal/model"
)

// URLChecker はリンク項目の妥当性を判定する。
type URLChecker interface {
	IsValid(raw string) bool
}

// Sanitizer は自由記述テキストを無害化する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// textField は必須テキスト項目とその検証エラーコード。
type textField struct {
	name   string
	column model.ProjectColumn
	code   string
}

// requiredTextFields は作成時に必須、更新時に空を許さない項目。検証はこの順序で行う。
var requiredTextFields = []textField{
	{"name", model.ProjectColumnName, model.ErrCodeInvalidName},
	{"role", model.ProjectColumnRole, model.ErrCodeInvalidRole},
	{"description", model.ProjectColumnDescription, model.ErrCodeInvalidDescription},
	{"category", model.ProjectColumnCategory, model.ErrCodeInvalidCategory},
}

// updatableTextFields は更新時に空を許さない項目。statusは作成時のみ省略可能。
var updatableTextFields = []textField{
	{"name", model.ProjectColumnName, model.ErrCodeInvalidName},
	{"role", model.ProjectColumnRole, model.ErrCodeInvalidRole},
	{"description", model.ProjectColumnDescription, model.ErrCodeInvalidDescription},
	{"category", model.ProjectColumnCategory, model.ErrCodeInvalidCategory},
	{"status", model.ProjectColumnStatus, model.ErrCodeInvalidStatus},
}

// bodyValidator は作成・更新ボディの検証に使う依存をまとめたもの。
type bodyValidator struct {
	urls      URLChecker
	sanitizer Sanitizer
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// isFalsy はJSONの偽値（null, false, 0, ""）かどうかを返す。
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", "0", `""`:
		return true
	}
	return false
}

// requiredText は空でない文字列であることを要求し、マークアップを除去した値を返す。
func (v *bodyValidator) requiredText(f textField, raw json.RawMessage) (string, error) {
	var s string
	if raw == nil || isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", model.NewValidationError(f.code, fmt.Sprintf("%s は空でない文字列で指定してください", f.name))
	}
	s = strings.TrimSpace(s)
	if v.sanitizer != nil {
		s = v.sanitizer.Sanitize(s)
	}
	if s == "" {
		return "", model.NewValidationError(f.code, fmt.Sprintf("%s は空にできません", f.name))
	}
	return s, nil
}

// link はリンク項目を検証する。偽値はNULLとして扱う。
func (v *bodyValidator) link(raw json.RawMessage, code string) (*string, error) {
	if isFalsy(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, model.NewValidationError(code, "link は文字列のURLで指定してください")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if v.urls == nil || !v.urls.IsValid(s) {
		return nil, model.NewValidationError(code, "link が有効なURLではありません")
	}
	return &s, nil
}

// BuildNewProject は作成リクエストのボディを検証し、保存前のプロジェクトを組み立てる。
// 所有者はボディではなく検証済みセッションのユーザーIDから設定する。
func BuildNewProject(userID string, body map[string]json.RawMessage, urls URLChecker, sanitizer Sanitizer) (*model.Project, error) {
	if _, ok := body["userId"]; ok {
		return nil, userIDNotAllowed()
	}
	if _, ok := body["user_id"]; ok {
		return nil, userIDNotAllowed()
	}

	v := &bodyValidator{urls: urls, sanitizer: sanitizer}
	values := make(map[model.ProjectColumn]string, len(requiredTextFields))
	for _, f := range requiredTextFields {
		s, err := v.requiredText(f, body[f.name])
		if err != nil {
			return nil, err
		}
		values[f.column] = s
	}

	p := &model.Project{
		UserID:      userID,
		Name:        values[model.ProjectColumnName],
		Role:        values[model.ProjectColumnRole],
		Description: values[model.ProjectColumnDescription],
		Category:    values[model.ProjectColumnCategory],
		Status:      model.DefaultProjectStatus,
	}

	if raw, ok := body["link"]; ok {
		link, err := v.link(raw, model.ErrCodeInvalidLink)
		if err != nil {
			return nil, err
		}
		p.Link = link
	}

	if raw, ok := body["status"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, model.NewValidationError(model.ErrCodeInvalidStatus, "status は文字列で指定してください")
		}
		s = strings.TrimSpace(s)
		if sanitizer != nil {
			s = sanitizer.Sanitize(s)
		}
		if s != "" {
			p.Status = s
		}
	}

	return p, nil
}

// BuildProjectChanges は更新リクエストのボディを検証し、更新内容に変換する。
// 許可されていない項目は無視し、1項目でも不正なら全体を拒否する。
func BuildProjectChanges(body map[string]json.RawMessage, urls URLChecker, sanitizer Sanitizer) ([]model.ProjectChange, error) {
	v := &bodyValidator{urls: urls, sanitizer: sanitizer}
	changes := make([]model.ProjectChange, 0, 6)

	for _, f := range updatableTextFields {
		raw, ok := body[f.name]
		if !ok {
			continue
		}
		s, err := v.requiredText(f, raw)
		if err != nil {
			return nil, err
		}
		changes = append(changes, model.ProjectChange{Column: f.column, Value: &s})
	}

	if raw, ok := body["link"]; ok {
		link, err := v.link(raw, model.ErrCodeInvalidURL)
		if err != nil {
			return nil, err
		}
		changes = append(changes, model.ProjectChange{Column: model.ProjectColumnLink, Value: link})
	}

	if len(changes) == 0 {
		return nil, model.NewValidationError(model.ErrCodeNoUpdates, "更新可能な項目が含まれていません")
	}
	return changes, nil
}

func userIDNotAllowed() error {
	return model.NewValidationError(model.ErrCodeUserIDNotAllowed, "userId はリクエストボディで指定できません")
}
