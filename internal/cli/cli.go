package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akarpov/tasklog/internal/config"
	"github.com/akarpov/tasklog/internal/render"
	"github.com/akarpov/tasklog/internal/store"
	"github.com/akarpov/tasklog/internal/task"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitInternal = 10
)

type GlobalFlags struct {
	Root  string
	Chat  string
	JSON  bool
	Quiet bool
}

func Run(args []string) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}

	if len(rest) == 0 {
		printHelp()
		return ExitUsage
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return ExitOK
	case "init":
		return cmdInit(gf)
	}

	cfg, err := config.Load(gf.Root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tasklog:", err)
		return ExitInternal
	}
	if gf.Chat == "" {
		gf.Chat = cfg.DefaultChat
	}
	if err := config.EnsureDir(cfg.DBPath); err != nil {
		fmt.Fprintln(os.Stderr, "tasklog:", err)
		return ExitInternal
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tasklog:", err)
		return ExitInternal
	}
	defer st.Close()
	annex := store.NewAnnotations(cfg.NotesRoot)

	switch cmd {
	case "add":
		return cmdAdd(st, gf, cmdArgs)
	case "edit":
		return cmdEdit(st, gf, cmdArgs)
	case "done":
		return cmdSetStatus(st, gf, cmdArgs, task.StatusDone, "done")
	case "cancel":
		return cmdSetStatus(st, gf, cmdArgs, task.StatusCanceled, "cancel")
	case "ls", "list", "tasks":
		return cmdList(st, gf)
	case "history", "show":
		return cmdHistory(st, annex, gf, cmdArgs)
	case "find", "search":
		return cmdFind(st, gf, cmdArgs)
	case "note":
		return cmdNote(st, annex, gf, cmdArgs)
	case "img", "image":
		return cmdImage(st, annex, gf, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		return ExitUsage
	}
}

func printHelp() {
	fmt.Print(`tasklog — todo syntax over an append-only task history

Usage:
  tasklog [global flags] <command> [args]

Global flags:
  --root <path>   Store root (default: ~/.tasklog or TASKLOG_ROOT)
  --chat <id>     Chat/tenant id (default from config)
  --json          JSON output
  --quiet

Commands:
  init
  add "<todo syntax>"
  edit <key> "<todo syntax>"
  done <key>
  cancel <key>
  ls
  history <key>
  find "<filters>"
  note add <key> "<text>"
  img add <key> <file-id> ["caption"]

Todo syntax:
  (a)           priority
  @tag .context !project name
  :date [HH:MM] due date (2025.07.31, 2 января, tomorrow, пятница, ...)
  -done -canceled -new -snoozed[N]   status (leading token)
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	gf := GlobalFlags{}

	if env := os.Getenv("TASKLOG_ROOT"); env != "" {
		gf.Root = env
	} else {
		home, _ := os.UserHomeDir()
		if home != "" {
			gf.Root = filepath.Join(home, ".tasklog")
		} else {
			gf.Root = ".tasklog"
		}
	}

	out := make([]string, 0, len(args))
	skip := 0
	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch a {
		case "--root":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--root requires a value")
			}
			gf.Root = args[i+1]
			skip = 1
		case "--chat":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--chat requires a value")
			}
			gf.Chat = args[i+1]
			skip = 1
		case "--json":
			gf.JSON = true
		case "--quiet":
			gf.Quiet = true
		default:
			out = append(out, a)
		}
	}
	return gf, out, nil
}

func cmdInit(gf GlobalFlags) int {
	cfg := config.Default(gf.Root)
	if err := config.Save(gf.Root, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		return ExitInternal
	}
	if !gf.Quiet {
		fmt.Println("Initialized tasklog store at:", gf.Root)
	}
	return ExitOK
}

func cmdAdd(st *store.Store, gf GlobalFlags, args []string) int {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, `Usage: tasklog add "<todo syntax>"`)
		return ExitUsage
	}
	now := time.Now()
	fields := task.ParseTask(text, now)
	v, err := st.CreateTask(context.Background(), gf.Chat, fields, now)
	if err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		return ExitInternal
	}
	if gf.JSON {
		printJSON(map[string]any{"task": v})
		return ExitOK
	}
	if !gf.Quiet {
		fmt.Printf("Created %s — %s\n", v.Key, v.Content)
	}
	return ExitOK
}

func cmdEdit(st *store.Store, gf GlobalFlags, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, `Usage: tasklog edit <key> "<todo syntax>"`)
		return ExitUsage
	}
	key := args[0]
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	return appendEdit(st, gf, key, text, "edit")
}

func cmdSetStatus(st *store.Store, gf GlobalFlags, args []string, status task.Status, name string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tasklog %s <key>\n", name)
		return ExitUsage
	}
	return appendEdit(st, gf, args[0], "-"+string(status), name)
}

func appendEdit(st *store.Store, gf GlobalFlags, key, text, name string) int {
	ctx := context.Background()
	now := time.Now()
	fields := task.ParseTask(text, now)

	prev, err := st.FindLatest(ctx, gf.Chat, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, name+":", err)
		return ExitInternal
	}
	v, err := st.AppendEdit(ctx, gf.Chat, key, fields, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(os.Stderr, name+": not found:", key)
			return ExitNotFound
		}
		fmt.Fprintln(os.Stderr, name+":", err)
		return ExitInternal
	}
	if gf.JSON {
		printJSON(map[string]any{"task": v})
		return ExitOK
	}
	if !gf.Quiet {
		fmt.Printf("%s — %s\n", v.Key, render.HistoryLine(prev, v))
	}
	return ExitOK
}

func cmdList(st *store.Store, gf GlobalFlags) int {
	ctx := context.Background()
	histories, err := loadHistories(ctx, st, gf.Chat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ls:", err)
		return ExitInternal
	}
	buckets := task.BucketAndSort(histories)
	if gf.JSON {
		printJSON(map[string]any{"buckets": buckets})
		return ExitOK
	}
	fmt.Println(render.Summary(buckets))
	return ExitOK
}

func cmdHistory(st *store.Store, annex *store.Annotations, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tasklog history <key>")
		return ExitUsage
	}
	ctx := context.Background()
	key := args[0]
	versions, err := st.ListHistory(ctx, gf.Chat, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "history:", err)
		return ExitInternal
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "history: not found:", key)
		return ExitNotFound
	}

	annotations, err := loadAnnotations(annex, gf.Chat, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "history:", err)
		return ExitInternal
	}
	if gf.JSON {
		printJSON(map[string]any{"key": key, "versions": versions})
		return ExitOK
	}
	fmt.Println(render.HistoryPage(key, versions, annotations))
	return ExitOK
}

func cmdFind(st *store.Store, gf GlobalFlags, args []string) int {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, `Usage: tasklog find "<filters>"`)
		return ExitUsage
	}
	ctx := context.Background()
	filters := task.ParseFilters(query)
	histories, err := loadHistories(ctx, st, gf.Chat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "find:", err)
		return ExitInternal
	}

	var matched []task.Version
	for _, versions := range histories {
		if len(versions) == 0 {
			continue
		}
		latest := versions[len(versions)-1]
		if matchesFilters(latest, filters) {
			matched = append(matched, latest)
		}
	}
	if gf.JSON {
		printJSON(map[string]any{"tasks": matched})
		return ExitOK
	}
	if len(matched) == 0 {
		fmt.Println("No matching tasks.")
		return ExitOK
	}
	var b strings.Builder
	for _, v := range matched {
		b.WriteString(render.TaskLine(v.Key, v, ""))
	}
	fmt.Print(b.String())
	return ExitOK
}

func cmdNote(st *store.Store, annex *store.Annotations, gf GlobalFlags, args []string) int {
	if len(args) < 3 || args[0] != "add" {
		fmt.Fprintln(os.Stderr, `Usage: tasklog note add <key> "<text>"`)
		return ExitUsage
	}
	key := args[1]
	text := strings.Join(args[2:], " ")
	if code := requireKey(st, gf, key, "note"); code != ExitOK {
		return code
	}
	n, err := annex.AddNote(gf.Chat, key, text)
	if err != nil {
		fmt.Fprintln(os.Stderr, "note:", err)
		return ExitInternal
	}
	if !gf.Quiet {
		fmt.Printf("Noted %s (%s)\n", key, n.ID)
	}
	return ExitOK
}

func cmdImage(st *store.Store, annex *store.Annotations, gf GlobalFlags, args []string) int {
	if len(args) < 3 || args[0] != "add" {
		fmt.Fprintln(os.Stderr, `Usage: tasklog img add <key> <file-id> ["caption"]`)
		return ExitUsage
	}
	key := args[1]
	fileID := args[2]
	caption := strings.Join(args[3:], " ")
	if code := requireKey(st, gf, key, "img"); code != ExitOK {
		return code
	}
	img, err := annex.AddImage(gf.Chat, key, fileID, caption)
	if err != nil {
		fmt.Fprintln(os.Stderr, "img:", err)
		return ExitInternal
	}
	if !gf.Quiet {
		fmt.Printf("Attached %s (%s)\n", key, img.ID)
	}
	return ExitOK
}

func requireKey(st *store.Store, gf GlobalFlags, key, name string) int {
	latest, err := st.FindLatest(context.Background(), gf.Chat, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, name+":", err)
		return ExitInternal
	}
	if latest == nil {
		fmt.Fprintln(os.Stderr, name+": not found:", key)
		return ExitNotFound
	}
	return ExitOK
}

func loadHistories(ctx context.Context, st *store.Store, chatID string) (map[string][]task.Version, error) {
	keys, err := st.ListKeys(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return st.ListHistoryForKeys(ctx, chatID, keys)
}

func loadAnnotations(annex *store.Annotations, chatID, key string) ([]render.Annotation, error) {
	notes, err := annex.ListNotes(chatID, key)
	if err != nil {
		return nil, err
	}
	images, err := annex.ListImages(chatID, key)
	if err != nil {
		return nil, err
	}
	out := make([]render.Annotation, 0, len(notes)+len(images))
	for _, n := range notes {
		out = append(out, render.NoteAnnotation(n.Text, n.CreatedAt))
	}
	for _, img := range images {
		out = append(out, render.ImageAnnotation(img.Caption, img.CreatedAt))
	}
	return out, nil
}

// matchesFilters applies a parsed filter query to a task's latest version:
// tags/contexts/projects must all be present, remaining words substring-match
// the content case-insensitively.
func matchesFilters(v task.Version, f task.Filters) bool {
	for _, tag := range f.Tags {
		if !containsFold(v.Tags, tag) {
			return false
		}
	}
	for _, c := range f.Contexts {
		if !containsFold(v.Contexts, c) {
			return false
		}
	}
	for _, p := range f.Projects {
		if !containsFold(v.Projects, p) {
			return false
		}
	}
	content := strings.ToLower(v.Content)
	for _, word := range f.Remaining {
		if !strings.Contains(content, strings.ToLower(word)) {
			return false
		}
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func printJSON(payload any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
