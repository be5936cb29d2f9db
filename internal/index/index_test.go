package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/hdrpkg/recipe"
)

func newPackageDir(t *testing.T, header string) string {
	t.Helper()
	dir := t.TempDir()
	inc := filepath.Join(dir, "include", "mylib")
	if err := os.MkdirAll(inc, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inc, "mylib.hpp"), []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testRecord(id string) *Record {
	return &Record{
		Name:        "mylib",
		Version:     "1.2.0",
		URL:         "https://example.com/mylib",
		Description: "A header-only library",
		PackageID:   id,
		Settings:    map[string]string{"build_type": "Release"},
		CppInfo: recipe.CppInfo{
			IncludeDirs: []string{"include"},
			LibDirs:     []string{},
			BinDirs:     []string{},
		},
	}
}

func TestPublishLookup(t *testing.T) {
	x, err := Open(filepath.Join(t.TempDir(), "index"))
	if err != nil {
		t.Fatal(err)
	}
	rec := testRecord("da39a3ee5e6b4b0d3255bfef95601890afd80709")
	dst, err := x.Publish(rec, newPackageDir(t, "v1"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if dst != x.Path("mylib", "1.2.0", rec.PackageID) {
		t.Errorf("published to %q", dst)
	}
	if _, err := os.Stat(filepath.Join(dst, "include", "mylib", "mylib.hpp")); err != nil {
		t.Errorf("header not published: %v", err)
	}

	recs, err := x.Lookup("mylib", "1.2.0")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	got := recs[0]
	if got.Ref() != "mylib/1.2.0" || got.PackageID != rec.PackageID || got.URL != rec.URL {
		t.Errorf("record = %+v", got)
	}
	if len(got.CppInfo.LibDirs) != 0 || len(got.CppInfo.BinDirs) != 0 {
		t.Errorf("lib/bin dirs = %v/%v, want empty", got.CppInfo.LibDirs, got.CppInfo.BinDirs)
	}
	if got.Settings["build_type"] != "Release" {
		t.Errorf("settings = %v", got.Settings)
	}
}

func TestPublishReplaces(t *testing.T) {
	x, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := testRecord("abc")
	if _, err := x.Publish(rec, newPackageDir(t, "v1")); err != nil {
		t.Fatal(err)
	}
	dst, err := x.Publish(rec, newPackageDir(t, "v2"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "include", "mylib", "mylib.hpp"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Errorf("header = %q, want v2", data)
	}
	// No temporary folders are left behind.
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("version dir has %d entries, want 1", len(entries))
	}
}

func TestLookupNotFound(t *testing.T) {
	x, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := x.Lookup("mylib", "9.9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	x, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	pkg := newPackageDir(t, "h")
	for _, r := range []*Record{
		{Name: "zlib", Version: "1.3.0", PackageID: "b"},
		{Name: "mylib", Version: "1.10.0", PackageID: "a"},
		{Name: "mylib", Version: "1.2.0", PackageID: "b"},
		{Name: "mylib", Version: "1.2.0", PackageID: "a"},
	} {
		if _, err := x.Publish(r, pkg); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := x.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, r.Ref()+"@"+r.PackageID)
	}
	want := []string{"mylib/1.2.0@a", "mylib/1.2.0@b", "mylib/1.10.0@a", "zlib/1.3.0@b"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPublishIncomplete(t *testing.T) {
	x, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := x.Publish(&Record{Name: "mylib"}, t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPublishRejectsPathSegments(t *testing.T) {
	root := t.TempDir()
	x, err := Open(filepath.Join(root, "index"))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range []*Record{
		{Name: "../escape", Version: "1.0.0", PackageID: "abc"},
		{Name: "mylib", Version: "1.0.0/..", PackageID: "abc"},
		{Name: "mylib", Version: "1.0.0", PackageID: "../../x"},
	} {
		if _, err := x.Publish(rec, t.TempDir()); err == nil {
			t.Errorf("Publish(%+v) succeeded", rec)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "escape")); !os.IsNotExist(err) {
		t.Errorf("publish wrote outside the index: %v", err)
	}
	if _, err := x.Lookup("..", "index"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(.., index) = %v", err)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.0", "1.10.0", -1},
		{"1.10.0", "v1.2.0", 1},
		{"1.2.0", "v1.2.0", -1},
		{"1.0.0", "main", -1},
		{"main", "dev", 1},
	}
	for _, tt := range tests {
		if got := compareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
