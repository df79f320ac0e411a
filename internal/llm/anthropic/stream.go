package anthropic

import (
	"io"

	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
)

// singleChunkStream presents an already-completed DoGenerate result as a
// one-chunk provider.TextStream, since the Generation Workflow never
// consumes true incremental output from the model.
type singleChunkStream struct {
	result *types.GenerateResult
	done   bool
}

func newSingleChunkStream(result *types.GenerateResult) *singleChunkStream {
	return &singleChunkStream{result: result}
}

func (s *singleChunkStream) Next() (*provider.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return &provider.StreamChunk{
		Type:         provider.ChunkTypeFinish,
		Text:         s.result.Text,
		Usage:        &s.result.Usage,
		FinishReason: s.result.FinishReason,
	}, nil
}

func (s *singleChunkStream) Close() error { return nil }
