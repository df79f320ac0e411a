package artifact

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata is an artifact's machine-readable header: source URL/file
// reference, upload date, and optional tagged-talk fields.
type Metadata struct {
	TitleEN     string
	TitleCN     string
	UploadDate  string // YYYYMMDD, or "19700101" for non-dated sources
	VideoURL    string // may be a synthetic identifier for non-URL sources
	IsReinvent  bool
	CourseCode  string
	Level       string
	ContentType string // "YouTube视频", "PDF文档", or "文档"
}

const headerDelimiter = "---"

// ParseHeader splits raw into its metadata header and body. Legacy records
// carrying a single "title" key are accepted with title_en := title_cn :=
// title, per the backward-compatibility requirement.
func ParseHeader(raw string) (Metadata, string, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != headerDelimiter {
		return Metadata{}, "", fmt.Errorf("artifact missing opening %q header delimiter", headerDelimiter)
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == headerDelimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return Metadata{}, "", fmt.Errorf("artifact missing closing %q header delimiter", headerDelimiter)
	}

	fields := map[string]string{}
	for _, line := range lines[1:end] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return Metadata{}, "", fmt.Errorf("malformed header line %q", line)
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	body := ""
	if end+1 < len(lines) {
		bodyLines := lines[end+1:]
		if len(bodyLines) > 0 && bodyLines[0] == "" {
			bodyLines = bodyLines[1:]
		}
		body = strings.Join(bodyLines, "\n")
	}

	md := Metadata{
		UploadDate:  fields["upload_date"],
		VideoURL:    fields["video_url"],
		IsReinvent:  fields["is_reinvent"] == "true",
		CourseCode:  fields["course_code"],
		Level:       fields["level"],
		ContentType: unquote(fields["content_type"]),
	}

	if legacy, ok := fields["title"]; ok {
		md.TitleEN = unquote(legacy)
		md.TitleCN = unquote(legacy)
	} else {
		md.TitleEN = unquote(fields["title_en"])
		md.TitleCN = unquote(fields["title_cn"])
	}

	return md, body, nil
}

// SerializeHeader renders md and body into the on-disk artifact format.
// Keys are always emitted in the same order, so re-parsing and
// re-serializing a valid header yields byte-identical bytes.
func SerializeHeader(md Metadata, body string) string {
	var b strings.Builder
	b.WriteString(headerDelimiter + "\n")
	fmt.Fprintf(&b, "title_en: %s\n", quote(md.TitleEN))
	fmt.Fprintf(&b, "title_cn: %s\n", quote(md.TitleCN))
	fmt.Fprintf(&b, "upload_date: %s\n", md.UploadDate)
	fmt.Fprintf(&b, "video_url: %s\n", md.VideoURL)
	fmt.Fprintf(&b, "is_reinvent: %s\n", strconv.FormatBool(md.IsReinvent))
	if md.CourseCode != "" {
		fmt.Fprintf(&b, "course_code: %s\n", md.CourseCode)
	}
	if md.Level != "" {
		fmt.Fprintf(&b, "level: %s\n", md.Level)
	}
	if md.ContentType != "" {
		fmt.Fprintf(&b, "content_type: %s\n", quote(md.ContentType))
	}
	b.WriteString(headerDelimiter + "\n\n")
	b.WriteString(body)
	return b.String()
}

func quote(s string) string {
	if strings.ContainsAny(s, ":\"") {
		return strconv.Quote(s)
	}
	return s
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
