package blob

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.JPG", true},
		{"scan.pdf", true},
		{"report.xlsx", true},
		{"notes.docx", true},
		{"anim.gif", false},
		{"script.sh", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowedExtension(tt.name); got != tt.want {
				t.Fatalf("AllowedExtension(%q)=%v want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBuildRef(t *testing.T) {
	refPattern := regexp.MustCompile(`^project-messages/7/site-plan-[0-9a-f]{8}\.png$`)
	ref := BuildRef("project-messages/7", "Site Plan!.PNG")
	if !refPattern.MatchString(ref) {
		t.Fatalf("ref=%q", ref)
	}

	if a, b := BuildRef("x", "a.pdf"), BuildRef("x", "a.pdf"); a == b {
		t.Fatalf("refs collide: %q", a)
	}

	ref = BuildRef("x", "...")
	if !strings.HasPrefix(ref, "x/attachment-") || !strings.HasSuffix(ref, ".bin") {
		t.Fatalf("fallback ref=%q", ref)
	}
}

func TestIsImageAndDownloadName(t *testing.T) {
	if !IsImage("p/1/pic-abcd1234.webp") || IsImage("p/1/doc-abcd1234.pdf") {
		t.Fatal("image classification wrong")
	}
	if got := DownloadName("p/1/doc-abcd1234.pdf"); got != "doc-abcd1234.pdf" {
		t.Fatalf("downloadName=%q", got)
	}
}

func TestResolve(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := "p/1/doc-abcd1234.pdf"
	if err := store.Put(ctx, ref, "application/pdf", strings.NewReader("bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}

	att, err := Resolve(ctx, store, ref)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !att.Exists || att.IsImage || att.ContentType != "application/pdf" {
		t.Fatalf("att=%+v", att)
	}

	store.Delete(ref)
	if _, err := Resolve(ctx, store, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}
