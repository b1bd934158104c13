package generator

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "  <p>hi</p>\n", "<p>hi</p>"},
		{"html fence", "```html\n<p>hi</p>\n```", "<p>hi</p>"},
		{"bare fence", "```\n<ul><li>a</li></ul>\n```", "<ul><li>a</li></ul>"},
		{"json fence", "```json\n{\"title\":\"x\"}\n```", `{"title":"x"}`},
		{"inner backticks kept", "<p>use `x`</p>", "<p>use `x`</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDocumentText(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantTitle string
		want      map[string]string
	}{
		{
			name: "all fields",
			in: `TITLE: Fractions on a Number Line
FIELD: "Date"
CONTENT: <p>Monday</p>

FIELD: "Materials"
CONTENT: <ul>
<li>Rulers</li>
</ul>`,
			wantTitle: "Fractions on a Number Line",
			want: map[string]string{
				"Date":      "<p>Monday</p>",
				"Materials": "<ul>\n<li>Rulers</li>\n</ul>",
			},
		},
		{
			name: "missing content and title",
			in: `FIELD: "Date"
FIELD: "Closure"
CONTENT: <p>Exit ticket</p>`,
			wantTitle: defaultTitle,
			want:      map[string]string{"Closure": "<p>Exit ticket</p>"},
		},
		{
			name:      "no fields",
			in:        "Sorry, I cannot help with that.",
			wantTitle: defaultTitle,
			want:      map[string]string{},
		},
		{
			name: "later block wins",
			in: `FIELD: "Date"
CONTENT: Monday
FIELD: "Date"
CONTENT: Tuesday`,
			wantTitle: defaultTitle,
			want:      map[string]string{"Date": "Tuesday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseDocumentText(tt.in)
			if res.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", res.Title, tt.wantTitle)
			}
			if len(res.Fields) != len(tt.want) {
				t.Fatalf("fields = %v, want %v", res.Fields, tt.want)
			}
			for k, v := range tt.want {
				if res.Fields[k] != v {
					t.Errorf("field %q = %q, want %q", k, res.Fields[k], v)
				}
			}
		})
	}
}
