package derived

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/digitallysavvy/deepreader/internal/provider"
)

// CacheMeta is the TTS chunk cache's persisted progress record, read by
// GET /artifacts/{hash}/tts and written after every chunk so partial
// progress survives a client reconnect.
type CacheMeta struct {
	DocHash         string `json:"doc_hash"`
	Voice           string `json:"voice"`
	Language        string `json:"language"`
	Fingerprint     string `json:"fingerprint"`
	ChunksGenerated int    `json:"chunks_generated"`
	TotalChunks     int    `json:"total_chunks"`
	Completed       bool   `json:"completed"`
}

// TTSStreamKey is the events.Bus key a TTS request's chunk/complete/error
// events publish under, distinct per (doc_hash, voice, language) so two
// voices for the same document stream independently.
func TTSStreamKey(docHash, voice, language string) string {
	return fmt.Sprintf("tts:%s:%s:%s", docHash, voice, language)
}

func (p *Pipeline) ttsCacheDir(docHash, voice, language, fingerprint string) string {
	return filepath.Join(p.cfg.TTSCacheRoot, docHash, fmt.Sprintf("%s-%s-%s", voice, language, fingerprint))
}

func (p *Pipeline) chunkPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("chunk-%04d.mp3", index))
}

func (p *Pipeline) readMeta(dir string) (CacheMeta, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return CacheMeta{}, false
	}
	var m CacheMeta
	if json.Unmarshal(raw, &m) != nil {
		return CacheMeta{}, false
	}
	return m, true
}

func (p *Pipeline) writeMeta(dir string, m CacheMeta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dir, "meta.json"), data)
}

// TTSStatus reports the current cache state for (docHash, version, voice,
// language) without starting generation.
func (p *Pipeline) TTSStatus(docHash string, version int, voice, language string) (CacheMeta, error) {
	text, err := p.narrationTextFor(docHash, version)
	if err != nil {
		return CacheMeta{}, err
	}
	fp := textFingerprint(text)
	dir := p.ttsCacheDir(docHash, voice, language, fp)
	if meta, ok := p.readMeta(dir); ok {
		return meta, nil
	}
	return CacheMeta{DocHash: docHash, Voice: voice, Language: language, Fingerprint: fp}, nil
}

func (p *Pipeline) narrationTextFor(docHash string, version int) (string, error) {
	a, err := p.cfg.Store.GetVersion(docHash, version)
	if err != nil {
		return "", fmt.Errorf("loading artifact %s v%d: %w", docHash, version, err)
	}
	return extractNarrationText(a.Body, p.cfg.TTSTextMaxChars), nil
}

// RequestTTS generates (or resumes generating) the chunked audio cache for
// (docHash, version, voice, language), publishing chunk/complete/error
// events on TTSStreamKey(docHash, voice, language) as it goes. A cache that
// is already complete returns immediately without calling the TTS vendor
// again.
func (p *Pipeline) RequestTTS(ctx context.Context, docHash string, version int, voice, language string) (CacheMeta, error) {
	if voice == "" {
		voice = p.cfg.TTSDefaultVoice
	}
	if language == "" {
		language = p.cfg.TTSDefaultLanguage
	}

	text, err := p.narrationTextFor(docHash, version)
	if err != nil {
		return CacheMeta{}, err
	}
	fp := textFingerprint(text)
	dir := p.ttsCacheDir(docHash, voice, language, fp)
	streamKey := TTSStreamKey(docHash, voice, language)

	chunks := chunkNarration(text, p.cfg.TTSChunkMaxChars)
	meta, ok := p.readMeta(dir)
	if !ok {
		meta = CacheMeta{DocHash: docHash, Voice: voice, Language: language, Fingerprint: fp, TotalChunks: len(chunks)}
	}
	if meta.Completed {
		p.cfg.Bus.Publish(streamKey, "complete", meta)
		return meta, nil
	}
	meta.TotalChunks = len(chunks)

	for i := meta.ChunksGenerated; i < len(chunks); i++ {
		select {
		case <-ctx.Done():
			return meta, ctx.Err()
		default:
		}

		res, err := p.cfg.Speech.DoGenerate(ctx, &provider.SpeechGenerateOptions{Text: chunks[i], Voice: voice})
		if err != nil {
			p.cfg.Bus.Publish(streamKey, "error", err.Error())
			return meta, fmt.Errorf("synthesizing chunk %d: %w", i, err)
		}
		if err := atomicWrite(p.chunkPath(dir, i), res.Audio); err != nil {
			p.cfg.Bus.Publish(streamKey, "error", err.Error())
			return meta, fmt.Errorf("writing chunk %d: %w", i, err)
		}

		meta.ChunksGenerated = i + 1
		if err := p.writeMeta(dir, meta); err != nil {
			return meta, fmt.Errorf("persisting tts cache metadata: %w", err)
		}
		p.cfg.Bus.Publish(streamKey, "chunk", map[string]interface{}{"index": i, "total": len(chunks)})
	}

	meta.Completed = true
	if err := p.writeMeta(dir, meta); err != nil {
		return meta, fmt.Errorf("persisting tts cache metadata: %w", err)
	}
	p.cfg.Bus.Publish(streamKey, "complete", meta)
	return meta, nil
}

// ChunkPath exposes a completed (or in-progress) chunk's file path for the
// download route to serve.
func (p *Pipeline) ChunkPath(docHash string, version int, voice, language string, index int) (string, error) {
	text, err := p.narrationTextFor(docHash, version)
	if err != nil {
		return "", err
	}
	fp := textFingerprint(text)
	return p.chunkPath(p.ttsCacheDir(docHash, voice, language, fp), index), nil
}
