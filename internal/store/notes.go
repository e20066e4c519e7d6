package store

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// Annotations is the file-backed side of the store: notes and images
// attached to a task key. Both are append-only and never versioned; one
// markdown file with YAML frontmatter per entry.
type Annotations struct {
	Root string
}

type NoteMeta struct {
	ID        string    `yaml:"id"`
	ChatID    string    `yaml:"chat_id"`
	Key       string    `yaml:"key"`
	CreatedAt time.Time `yaml:"created_at"`
}

type Note struct {
	NoteMeta `yaml:",inline"`
	Text     string `yaml:"-"`
}

type ImageMeta struct {
	ID        string    `yaml:"id"`
	ChatID    string    `yaml:"chat_id"`
	Key       string    `yaml:"key"`
	FileID    string    `yaml:"file_id"`
	CreatedAt time.Time `yaml:"created_at"`
}

type Image struct {
	ImageMeta `yaml:",inline"`
	Caption   string `yaml:"-"`
}

func NewAnnotations(root string) *Annotations {
	return &Annotations{Root: root}
}

func (a *Annotations) AddNote(chatID, key, text string) (*Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("note text is required")
	}
	n := &Note{
		NoteMeta: NoteMeta{
			ID:        "note_" + newULID(),
			ChatID:    chatID,
			Key:       key,
			CreatedAt: timeNow(),
		},
		Text: text,
	}
	path := filepath.Join(a.notesDir(chatID, key), n.ID+".md")
	if err := writeFrontmatterFile(path, &n.NoteMeta, n.Text); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns the notes of a key ascending by createdAt, the order
// the history view interleaves them in.
func (a *Annotations) ListNotes(chatID, key string) ([]Note, error) {
	paths, err := listEntryFiles(a.notesDir(chatID, key))
	if err != nil {
		return nil, err
	}
	var out []Note
	for _, path := range paths {
		var meta NoteMeta
		body, err := readFrontmatterFile(path, &meta)
		if err != nil {
			continue
		}
		out = append(out, Note{NoteMeta: meta, Text: body})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (a *Annotations) AddImage(chatID, key, fileID, caption string) (*Image, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, errors.New("image file id is required")
	}
	img := &Image{
		ImageMeta: ImageMeta{
			ID:        "img_" + newULID(),
			ChatID:    chatID,
			Key:       key,
			FileID:    fileID,
			CreatedAt: timeNow(),
		},
		Caption: strings.TrimSpace(caption),
	}
	path := filepath.Join(a.imagesDir(chatID, key), img.ID+".md")
	if err := writeFrontmatterFile(path, &img.ImageMeta, img.Caption); err != nil {
		return nil, err
	}
	return img, nil
}

func (a *Annotations) ListImages(chatID, key string) ([]Image, error) {
	paths, err := listEntryFiles(a.imagesDir(chatID, key))
	if err != nil {
		return nil, err
	}
	var out []Image
	for _, path := range paths {
		var meta ImageMeta
		body, err := readFrontmatterFile(path, &meta)
		if err != nil {
			continue
		}
		out = append(out, Image{ImageMeta: meta, Caption: body})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (a *Annotations) notesDir(chatID, key string) string {
	return filepath.Join(a.Root, "notes", chatID, key)
}

func (a *Annotations) imagesDir(chatID, key string) string {
	return filepath.Join(a.Root, "images", chatID, key)
}

func listEntryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func writeFrontmatterFile(path string, meta any, body string) error {
	yamlBytes, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n\n")
	if strings.TrimSpace(body) != "" {
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return atomicWriteFile(path, buf.Bytes(), 0o644)
}

func readFrontmatterFile(path string, meta any) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return "", fmt.Errorf("missing frontmatter in %s", path)
	}
	parts := strings.SplitN(s, "\n---\n", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid frontmatter delimiters in %s", path)
	}
	yamlPart := strings.TrimPrefix(parts[0], "---\n")
	if err := yaml.Unmarshal([]byte(yamlPart), meta); err != nil {
		return "", err
	}
	return strings.TrimSpace(parts[1]), nil
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", timeNow().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func newULID() string {
	t := ulid.Timestamp(timeNow())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}
