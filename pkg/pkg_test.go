package pkg

import (
	"os"
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"name", Name, "artmpl"},
		{"description", Description, "Template compiler and renderer"},
		{"path_env", PathEnv, "ARTMPL_PATH"},
		{"extension", Extension, ".art"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if want := strings.TrimSpace(string(buf)); Version != want {
		t.Errorf("Version = %q, want %q", Version, want)
	}

	if strings.ContainsAny(Version, " \t\r\n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Author must have at least one entry")
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] must define Name or Email", i)
		}
	}
}
