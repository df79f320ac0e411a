package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// docHashLen is the number of hex characters kept from the SHA-256 digest:
// doc_hash is a 12-hex-char stable identifier.
const docHashLen = 12

var trackingParams = map[string]bool{
	"si": true, "feature": true, "ab_channel": true, "utm_source": true,
	"utm_medium": true, "utm_campaign": true, "pp": true,
}

var videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// CanonicalSourceForVideo extracts the normalized 11-character video id from
// a YouTube-style URL, stripping tracking query parameters first. The
// returned string (not yet hashed) is the canonical source key for subtitle-
// sourced jobs.
func CanonicalSourceForVideo(rawURL string) (string, error) {
	u, err := url.Parse(stripTrackingParams(strings.TrimSpace(rawURL)))
	if err != nil {
		return "", fmt.Errorf("parsing video url: %w", err)
	}

	if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
		return id, nil
	}

	// youtu.be/<id> carries the id as its only path segment; /embed/<id>,
	// /shorts/<id>, /v/<id> and /live/<id> carry it as the second.
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch {
	case host == "youtu.be" && len(segments) == 1:
		id = segments[0]
	case len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "v" || segments[0] == "live"):
		id = segments[1]
	}
	if videoIDPattern.MatchString(id) {
		return id, nil
	}

	return "", fmt.Errorf("could not extract an 11-character video id from %q", rawURL)
}

// stripTrackingParams removes known tracking query parameters from rawURL,
// used when a canonical source key must be insensitive to how a link was
// shared.
func stripTrackingParams(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k := range q {
		if trackingParams[k] {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// CanonicalSourceForFile builds the canonical source key for PDF/DOCX/text/
// Markdown sources: SHA-256(file_bytes) concatenated with the normalized
// title.
func CanonicalSourceForFile(fileBytes []byte, title string) string {
	sum := sha256.Sum256(fileBytes)
	return hex.EncodeToString(sum[:]) + normalizeTitle(title)
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// DocHash derives the stable doc_hash from a canonical source key: the first
// docHashLen hex characters of SHA-256(canonicalSource).
func DocHash(canonicalSource string) string {
	sum := sha256.Sum256([]byte(canonicalSource))
	return hex.EncodeToString(sum[:])[:docHashLen]
}
