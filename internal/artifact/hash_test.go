package artifact

import "testing"

func TestCanonicalSourceForVideoExtractsID(t *testing.T) {
	t.Parallel()
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, c := range cases {
		got, err := CanonicalSourceForVideo(c.url)
		if err != nil {
			t.Fatalf("CanonicalSourceForVideo(%q): %v", c.url, err)
		}
		if got != c.want {
			t.Fatalf("CanonicalSourceForVideo(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestCanonicalSourceForVideoStripsTrackingParams(t *testing.T) {
	t.Parallel()
	withTracking := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&si=abc123&feature=share"
	plain := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	got, err := CanonicalSourceForVideo(withTracking)
	if err != nil {
		t.Fatalf("CanonicalSourceForVideo: %v", err)
	}
	want, err := CanonicalSourceForVideo(plain)
	if err != nil {
		t.Fatalf("CanonicalSourceForVideo: %v", err)
	}
	if got != want {
		t.Fatalf("tracking params changed the extracted id: %q vs %q", got, want)
	}
}

func TestCanonicalSourceForVideoRejectsBadURL(t *testing.T) {
	t.Parallel()
	if _, err := CanonicalSourceForVideo("https://example.com/not-a-video"); err == nil {
		t.Fatal("expected an error for a URL with no extractable video id")
	}
}

func TestCanonicalSourceForFileDeterministic(t *testing.T) {
	t.Parallel()
	bytesA := []byte("same file contents")
	a := CanonicalSourceForFile(bytesA, "My Title")
	b := CanonicalSourceForFile(bytesA, "My Title")
	if a != b {
		t.Fatalf("CanonicalSourceForFile not deterministic: %q vs %q", a, b)
	}
}

func TestCanonicalSourceForFileTitleNormalized(t *testing.T) {
	t.Parallel()
	content := []byte("file contents")
	a := CanonicalSourceForFile(content, "My   Title")
	b := CanonicalSourceForFile(content, "my title")
	if a != b {
		t.Fatalf("expected whitespace/case-insensitive title normalization: %q vs %q", a, b)
	}
}

func TestCanonicalSourceForFileDiffersByContent(t *testing.T) {
	t.Parallel()
	a := CanonicalSourceForFile([]byte("content one"), "Title")
	b := CanonicalSourceForFile([]byte("content two"), "Title")
	if a == b {
		t.Fatal("expected different file bytes to produce different canonical sources")
	}
}
