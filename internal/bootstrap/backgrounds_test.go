package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"ambient-reader/internal/domain"
)

// TestSeedBackgroundsOnce verifies bundled files are written once and the marker is honored.
func TestSeedBackgroundsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media", "backgrounds")
	seeder := newBackgroundSeeder()

	if err := seeder.Seed(dir); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, name := range []string{"fireplace.svg", "gradient.svg", "starry-night.svg", seedMarker} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s after seeding: %v", name, err)
		}
	}

	if err := os.Remove(filepath.Join(dir, "gradient.svg")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := seeder.Seed(dir); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gradient.svg")); !os.IsNotExist(err) {
		t.Fatalf("deleted background was restored, stat err = %v", err)
	}
}

// TestSeedBackgroundsEmptyDir verifies an unset directory is refused.
func TestSeedBackgroundsEmptyDir(t *testing.T) {
	if err := newBackgroundSeeder().Seed(" "); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

// TestListBackgroundsFiltersAndOrders verifies the catalog contents and order.
func TestListBackgroundsFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	if err := newBackgroundSeeder().Seed(dir); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, name := range []string{"rain.webp", "autumn.JPG", "notes.txt", "loop.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := listBackgrounds(dir)
	want := []string{"fireplace", "gradient", "starry-night", "autumn", "rain"}
	if len(got) != len(want) {
		t.Fatalf("got %d backgrounds %+v, want %d", len(got), got, len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("background %d = %s, want %s", i, got[i].Name, name)
		}
		if got[i].Kind != domain.MediaImage {
			t.Fatalf("background %s kind = %s, want image", name, got[i].Kind)
		}
	}
	if !got[0].Builtin || got[3].Builtin {
		t.Fatalf("builtin flags wrong: %+v", got)
	}
}

// TestListBackgroundsMissingDir verifies a missing directory is an empty catalog.
func TestListBackgroundsMissingDir(t *testing.T) {
	got := listBackgrounds(filepath.Join(t.TempDir(), "missing"))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty catalog, got %+v", got)
	}
}
