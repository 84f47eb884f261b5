package resolver

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"shorts", "https://www.youtube.com/shorts/abc123", "https://www.youtube.com/watch?v=abc123"},
		{"shorts trailing slash", "https://youtube.com/shorts/dQw4w9WgXcQ/", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"shorts with query", "https://m.youtube.com/shorts/dQw4w9WgXcQ?feature=share", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"watch unchanged", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"short link unchanged", "https://youtu.be/dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ"},
		{"other host unchanged", "https://example.com/shorts/abc123", "https://example.com/shorts/abc123"},
		{"nested shorts path unchanged", "https://www.youtube.com/shorts/abc/def", "https://www.youtube.com/shorts/abc/def"},
		{"garbage unchanged", "not a url", "not a url"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
