package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/task"
)

// canonicalSourceAndMetadata derives both the canonical-source key Commit
// hashes into doc_hash, and the metadata header fields, from the task's
// payload: subtitle sources hash the normalized video id; file sources hash
// file bytes concatenated with the normalized title.
func canonicalSourceAndMetadata(t task.Task, title string) (canonicalSource string, md artifact.Metadata, err error) {
	md = artifact.Metadata{UploadDate: "19700101"}

	switch p := t.Payload.(type) {
	case task.SubtitlePayload:
		videoID, err := artifact.CanonicalSourceForVideo(p.URL)
		if err != nil {
			return "", artifact.Metadata{}, err
		}
		md.VideoURL = p.URL
		md.ContentType = "YouTube视频"
		return videoID, md, nil

	case task.FilePayload:
		canonical := artifact.CanonicalSourceForFile(p.Data, title)
		md.VideoURL = syntheticFileRef(p.Data)
		md.ContentType = contentTypeForTaskType(t.Type)
		return canonical, md, nil

	default:
		return "", artifact.Metadata{}, fmt.Errorf("payload type %T has no canonical source derivation", t.Payload)
	}
}

func contentTypeForTaskType(tt task.Type) string {
	switch tt {
	case task.TypePDF:
		return "PDF文档"
	default:
		return "文档"
	}
}

// syntheticFileRef builds the "video_url may be a synthetic identifier"
// field for non-URL sources: a stable reference derived from the file's own
// content fingerprint, independent of any title the uploader supplied.
func syntheticFileRef(fileBytes []byte) string {
	sum := sha256.Sum256(fileBytes)
	return "file:" + hex.EncodeToString(sum[:])[:12]
}
