package llm

import "testing"

func TestCleanJSONResponse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"topic": "Go"}`,
			want: `{"topic": "Go"}`,
		},
		{
			name: "fenced object",
			in:   "```json\n{\"topic\": \"Go\"}\n```",
			want: `{"topic": "Go"}`,
		},
		{
			name: "fence without language",
			in:   "```\n[1, 2]\n```",
			want: `[1, 2]`,
		},
		{
			name: "prose around object",
			in:   `Sure, here is the result: {"topic": "Go"} Hope that helps!`,
			want: `{"topic": "Go"}`,
		},
		{
			name: "prose around array",
			in:   `The topics are: [{"topic": "Go"}, {"topic": "Rust"}] as requested.`,
			want: `[{"topic": "Go"}, {"topic": "Rust"}]`,
		},
		{
			name: "array containing objects stays an array",
			in:   `[{"a": 1}]`,
			want: `[{"a": 1}]`,
		},
		{
			name: "no json at all",
			in:   "cannot comply",
			want: "cannot comply",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONResponse(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
