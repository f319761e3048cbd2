package security

import "testing"

func TestURLValidator_IsValid(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "https", raw: "https://www.linkedin.com/in/someone", want: true},
		{name: "http with port and query", raw: "http://example.com:8080/path?q=1", want: true},
		{name: "ftp", raw: "ftp://files.example.com/cv.pdf", want: true},
		{name: "empty", raw: "", want: false},
		{name: "relative path", raw: "/portfolio", want: false},
		{name: "bare host", raw: "example.com", want: false},
		{name: "plain text", raw: "not a url", want: false},
		{name: "leading space", raw: " https://example.com", want: false},
		{name: "javascript scheme", raw: "javascript:alert(1)", want: false},
		{name: "data scheme", raw: "data:text/html;base64,PHNjcmlwdD4=", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsValid(tt.raw); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
