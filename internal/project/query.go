package project

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/amisag/internal/model"
)

// listParams は一覧クエリのうち値域検証が必要なパラメータ。
// フィールド順は厳格モードで報告するエラーの優先順位を兼ねる。
type listParams struct {
	Limit  int    `validate:"gte=1"`
	Offset int    `validate:"gte=0"`
	Order  string `validate:"oneof=asc desc"`
	Sort   string `validate:"oneof=id name role category status createdAt updatedAt"`
}

// listParamCodes はlistParamsの各フィールドに対応するエラーコード。
var listParamCodes = map[string]string{
	"Limit":  model.ErrCodeInvalidLimit,
	"Offset": model.ErrCodeInvalidOffset,
	"Order":  model.ErrCodeInvalidSortOrder,
	"Sort":   model.ErrCodeInvalidSortField,
}

var listParamMessages = map[string]string{
	"Limit":  "limit は1以上の整数で指定してください",
	"Offset": "offset は0以上の整数で指定してください",
	"Order":  "order は asc または desc で指定してください",
	"Sort":   "sort は id, name, role, category, status, createdAt, updatedAt のいずれかで指定してください",
}

func defaultListParams() listParams {
	return listParams{
		Limit:  model.DefaultProjectLimit,
		Offset: 0,
		Order:  string(model.SortDesc),
		Sort:   string(model.ProjectSortCreatedAt),
	}
}

// QueryParser はURLクエリを一覧検索条件に変換する。
type QueryParser struct {
	validate *validator.Validate
}

// NewQueryParser はQueryParserを生成する。
func NewQueryParser() *QueryParser {
	return &QueryParser{validate: validator.New()}
}

// ParseStrict は公開一覧向けに、不正なパラメータをエラーとして扱う。
// limitが上限を超える場合はエラーにせず上限に丸める。
func (p *QueryParser) ParseStrict(userID string, values url.Values) (model.ProjectQuery, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.ProjectQuery{}, model.NewValidationError(model.ErrCodeInvalidUserID, "有効なユーザーIDを指定してください")
	}

	params := defaultListParams()
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return model.ProjectQuery{}, p.paramError("Limit")
		}
		params.Limit = min(n, model.MaxProjectLimit)
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return model.ProjectQuery{}, p.paramError("Offset")
		}
		params.Offset = n
	}
	if raw := values.Get("order"); raw != "" {
		params.Order = raw
	}
	if raw := values.Get("sort"); raw != "" {
		params.Sort = raw
	}

	if err := p.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return model.ProjectQuery{}, p.paramError(fieldErrs[0].Field())
		}
		return model.ProjectQuery{}, err
	}

	return buildQuery(userID, values, params), nil
}

// ParseLenient は本人の一覧向けに、不正なパラメータを既定値に置き換えて扱う。
func (p *QueryParser) ParseLenient(userID string, values url.Values) model.ProjectQuery {
	defaults := defaultListParams()
	params := defaults

	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("limit"))); err == nil {
		params.Limit = min(n, model.MaxProjectLimit)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("offset"))); err == nil {
		params.Offset = n
	}
	if raw := values.Get("order"); raw != "" {
		params.Order = raw
	}
	if raw := values.Get("sort"); raw != "" {
		params.Sort = raw
	}

	if err := p.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "Limit":
					params.Limit = defaults.Limit
				case "Offset":
					params.Offset = defaults.Offset
				case "Order":
					params.Order = defaults.Order
				case "Sort":
					params.Sort = defaults.Sort
				}
			}
		} else {
			params = defaults
		}
	}

	return buildQuery(userID, values, params)
}

func (p *QueryParser) paramError(field string) error {
	return model.NewValidationError(listParamCodes[field], listParamMessages[field])
}

func buildQuery(userID string, values url.Values, params listParams) model.ProjectQuery {
	return model.ProjectQuery{
		UserID:   userID,
		Search:   strings.TrimSpace(values.Get("search")),
		Status:   strings.TrimSpace(values.Get("status")),
		Category: strings.TrimSpace(values.Get("category")),
		Sort:     model.ProjectSortField(params.Sort),
		Order:    model.SortOrder(params.Order),
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
}
