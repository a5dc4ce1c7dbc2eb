package pkg

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("embedded version %q does not match VERSION file %q", Version, content)
	}

	if !regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`).MatchString(Version) {
		t.Errorf("version %q is not a semantic version", Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("no authors listed")
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}
