package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want config
	}{
		{
			name: "flat",
			doc:  "config:\n  log-level: debug\n  escape: false\n",
			want: config{"log-level": "debug", "escape": false},
		},
		{
			name: "underscores",
			doc:  "config:\n  log_level: warn\n",
			want: config{"log-level": "warn"},
		},
		{
			name: "nested",
			doc:  "config:\n  log:\n    level: error\n    caller: true\n",
			want: config{"log-level": "error", "log-caller": true},
		},
		{
			name: "numbers and lists",
			doc:  "config:\n  indent: 4\n  ratio: 1.5\n  path: [a, 'b,c']\n",
			want: config{"indent": "4", "ratio": "1.5", "path": `a,b\,c`},
		},
		{
			name: "other namespace",
			doc:  "other:\n  log-level: debug\n",
			want: config{},
		},
		{
			name: "not a mapping",
			doc:  "config: 3\n",
			want: config{},
		},
		{
			name: "invalid",
			doc:  "config: [\n",
			want: config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := resolve("config")(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, r); diff != "" {
				t.Errorf("resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	t.Parallel()

	c := config{"log-level": "debug"}

	got, err := c.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
	if err != nil || got != "debug" {
		t.Errorf("Resolve(log-level) = %v, %v; want debug, nil", got, err)
	}

	got, err = c.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "preset"}})
	if err != nil || got != nil {
		t.Errorf("Resolve(preset) = %v, %v; want nil, nil", got, err)
	}

	if err := c.Validate(nil); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
