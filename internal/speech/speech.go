// Package speech speaks lesson text and plays lesson audio.
package speech

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "en-US"

// ErrUnavailable is returned when no audio can be produced.
var ErrUnavailable = errors.New("speech unavailable")

// Speaker turns text or a URL into sound.
type Speaker interface {
	Say(ctx context.Context, text, lang string) error
	Play(ctx context.Context, url string) error
}

// Nop is a Speaker that does nothing.
type Nop struct{}

func (Nop) Say(context.Context, string, string) error { return nil }
func (Nop) Play(context.Context, string) error        { return nil }

// Player plays an audio file or URL.
type Player interface {
	PlayFile(ctx context.Context, target string) error
}

// Command runs an external program with the file or URL appended to Args.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a command line such as "mpv --no-video".
func ParseCommand(line string) (Command, bool) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, false
	}
	return Command{Name: f[0], Args: f[1:]}, true
}

func (c Command) PlayFile(ctx context.Context, target string) error {
	args := append(append([]string{}, c.Args...), target)
	cmd := exec.CommandContext(ctx, c.Name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Google synthesizes speech with the Cloud Text-to-Speech REST API and
// caches the MP3s on disk.
type Google struct {
	apiKey     string
	endpoint   string
	cacheDir   string
	player     Player
	httpClient *http.Client

	mu sync.Mutex
}

// NewGoogle creates a Google speaker. cacheDir is created if needed.
func NewGoogle(apiKey, cacheDir string, player Player) (*Google, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tts cache: %w", err)
	}
	return &Google{
		apiKey:     apiKey,
		endpoint:   "https://texttospeech.googleapis.com/v1/text:synthesize",
		cacheDir:   cacheDir,
		player:     player,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func cacheKey(text, lang string) string {
	h := sha256.Sum256([]byte(lang + ":" + text))
	return hex.EncodeToString(h[:16])
}

// Audio returns the path of an MP3 for text, synthesizing it on a cache miss.
func (g *Google) Audio(ctx context.Context, text, lang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", ErrUnavailable)
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	path := filepath.Join(g.cacheDir, cacheKey(text, lang)+".mp3")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: no api key", ErrUnavailable)
	}

	audio, err := g.synthesize(ctx, text, lang)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write tts cache: %w", err)
	}
	return path, nil
}

func (g *Google) synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"input":       map[string]string{"text": text},
		"voice":       map[string]any{"languageCode": lang, "ssmlGender": "FEMALE"},
		"audioConfig": map[string]string{"audioEncoding": "MP3"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts api error %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return audio, nil
}

func (g *Google) Say(ctx context.Context, text, lang string) error {
	path, err := g.Audio(ctx, text, lang)
	if err != nil {
		return err
	}
	if g.player == nil {
		return nil
	}
	return g.player.PlayFile(ctx, path)
}

func (g *Google) Play(ctx context.Context, url string) error {
	if g.player == nil {
		return fmt.Errorf("%w: no player", ErrUnavailable)
	}
	return g.player.PlayFile(ctx, url)
}

// Background runs a Speaker off the caller's goroutine and logs failures.
type Background struct {
	Speaker Speaker
	Logger  *slog.Logger
	Timeout time.Duration
}

func (b Background) run(op, target string, fn func(context.Context) error) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("speech failed", "op", op, "target", target, "err", err)
		}
	}()
}

// Say speaks text without waiting.
func (b Background) Say(text, lang string) {
	b.run("speech.say", text, func(ctx context.Context) error { return b.Speaker.Say(ctx, text, lang) })
}

// Play plays url without waiting.
func (b Background) Play(url string) {
	b.run("speech.play", url, func(ctx context.Context) error { return b.Speaker.Play(ctx, url) })
}
