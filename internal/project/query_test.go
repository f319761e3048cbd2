package project

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/amisag/internal/model"
)

func TestQueryParser_ParseStrict(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		name    string
		userID  string
		query   string
		want    model.ProjectQuery
		wantErr string
	}{
		{
			name:   "defaults",
			userID: "u1",
			want:   model.ProjectQuery{UserID: "u1", Sort: model.ProjectSortCreatedAt, Order: model.SortDesc, Limit: 10},
		},
		{
			name:   "limit over max is clamped",
			userID: "u1",
			query:  "limit=500&offset=20&sort=name&order=asc&status=active&category=Tech&search=go",
			want: model.ProjectQuery{
				UserID: "u1", Search: "go", Status: "active", Category: "Tech",
				Sort: model.ProjectSortName, Order: model.SortAsc, Limit: 100, Offset: 20,
			},
		},
		{name: "blank user", userID: "  ", wantErr: model.ErrCodeInvalidUserID},
		{name: "non-numeric limit", userID: "u1", query: "limit=ten", wantErr: model.ErrCodeInvalidLimit},
		{name: "zero limit", userID: "u1", query: "limit=0", wantErr: model.ErrCodeInvalidLimit},
		{name: "negative offset", userID: "u1", query: "offset=-1", wantErr: model.ErrCodeInvalidOffset},
		{name: "non-numeric offset", userID: "u1", query: "offset=x", wantErr: model.ErrCodeInvalidOffset},
		{name: "bad order", userID: "u1", query: "order=up", wantErr: model.ErrCodeInvalidSortOrder},
		{name: "unknown sort", userID: "u1", query: "sort=link", wantErr: model.ErrCodeInvalidSortField},
		{name: "sql in sort", userID: "u1", query: "sort=name%3BDROP%20TABLE%20projects", wantErr: model.ErrCodeInvalidSortField},
		{name: "order reported before sort", userID: "u1", query: "order=up&sort=nope", wantErr: model.ErrCodeInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := p.ParseStrict(tt.userID, values)
			if tt.wantErr != "" {
				var apiErr *model.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantErr, apiErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryParser_ParseLenient(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		name  string
		query string
		want  model.ProjectQuery
	}{
		{
			name:  "garbage falls back to defaults",
			query: "limit=abc&offset=-5&sort=password&order=sideways",
			want:  model.ProjectQuery{UserID: "me", Sort: model.ProjectSortCreatedAt, Order: model.SortDesc, Limit: 10},
		},
		{
			name:  "zero limit falls back to default",
			query: "limit=0",
			want:  model.ProjectQuery{UserID: "me", Sort: model.ProjectSortCreatedAt, Order: model.SortDesc, Limit: 10},
		},
		{
			name:  "limit is capped",
			query: "limit=500&sort=updatedAt&order=asc",
			want:  model.ProjectQuery{UserID: "me", Sort: model.ProjectSortUpdatedAt, Order: model.SortAsc, Limit: 100},
		},
		{
			name:  "valid values survive alongside invalid ones",
			query: "limit=5&offset=10&sort=bogus&search=%20api%20",
			want: model.ProjectQuery{
				UserID: "me", Search: "api", Sort: model.ProjectSortCreatedAt, Order: model.SortDesc, Limit: 5, Offset: 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ParseLenient("me", values))
		})
	}
}
