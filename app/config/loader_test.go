package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadValidWorklist(t *testing.T) {
	tempDir := t.TempDir()

	content := `
targets:
  - identifier: "alice"
    tags:
      - "Following"
      - "VIP"
  - identifier: "bob"
`

	path := filepath.Join(tempDir, "targets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	targets, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}

	if len(targets.Targets) != 2 {
		t.Errorf("Expected 2 targets, got %d", len(targets.Targets))
	}

	ids := targets.Identifiers()
	if !reflect.DeepEqual(ids, []string{"alice", "bob"}) {
		t.Errorf("Expected identifiers [alice bob], got %v", ids)
	}

	tags := targets.TagsFor("alice")
	if !reflect.DeepEqual(tags, []string{"Following", "VIP"}) {
		t.Errorf("Expected alice tags [Following VIP], got %v", tags)
	}

	if tags := targets.TagsFor("bob"); tags != nil {
		t.Errorf("Expected no tags for bob, got %v", tags)
	}
}

func TestLoadDeduplicatesIdentifiers(t *testing.T) {
	tempDir := t.TempDir()

	content := `
targets:
  - identifier: "alice"
    tags: ["First"]
  - identifier: "bob"
  - identifier: "alice"
    tags: ["Second"]
`

	path := filepath.Join(tempDir, "targets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	targets, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}

	ids := targets.Identifiers()
	if !reflect.DeepEqual(ids, []string{"alice", "bob"}) {
		t.Errorf("Expected first occurrence kept, got %v", ids)
	}

	if tags := targets.TagsFor("alice"); !reflect.DeepEqual(tags, []string{"First"}) {
		t.Errorf("Expected tags from first occurrence, got %v", tags)
	}
}

func TestLoadInvalidIdentifier(t *testing.T) {
	tempDir := t.TempDir()

	content := `
targets:
  - identifier: "has spaces"
`

	path := filepath.Join(tempDir, "targets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected error for identifier with spaces")
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	targets, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}

	if len(targets.Targets) != 0 {
		t.Errorf("Expected empty worklist for missing file, got %d targets", len(targets.Targets))
	}
}
