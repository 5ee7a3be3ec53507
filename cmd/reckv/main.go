// Command reckv is an interactive shell over a recstore file, in the
// same spirit as the sister CLIs that ship with this ecosystem's other
// storage engines: readline-style editing via peterh/liner, tab
// completion over the command set, and persistent history.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"

	"github.com/jlah/recstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "reckv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("reckv", flag.ContinueOnError)
	create := fs.Bool("create", false, "create the file if it does not exist")
	readOnly := fs.Bool("ro", false, "open read-only")
	maxKeyLen := fs.Uint8("max-key-len", 64, "maximum key length (only used on create)")
	slots := fs.Int("preallocated-slots", 16, "preallocated index slots (only used on create)")
	noCrc := fs.Bool("no-payload-crc", false, "write records without a payload CRC (applies to every write this session; records that already carry a CRC are still checked)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: reckv [options] <store-file>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing store file path")
	}
	path := fs.Arg(0)

	mode := recstore.OpenRW
	if *readOnly {
		mode = recstore.OpenRO
	} else if *create {
		mode = recstore.CreateOrOpenRW
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist (use --create to create it)", path)
	}

	store, err := recstore.Open(path, mode, recstore.Options{
		MaxKeyLen:         *maxKeyLen,
		PreallocatedSlots: *slots,
		PayloadCrcEnabled: !*noCrc,
		Logger:            recstore.NewDevelopmentLogger(),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer store.Close()

	repl := &REPL{store: store, path: path, readOnly: *readOnly}
	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	store    *recstore.Store
	path     string
	readOnly bool
	liner    *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".reckv_history")
}

func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("reckv - %s (read-only=%v)\n", r.path, r.readOnly)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("reckv> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "put", "set":
			r.cmdPut(args)

		case "get":
			r.cmdGet(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "exists":
			r.cmdExists(args)

		case "keys", "ls":
			r.cmdKeys(args)

		case "len", "count":
			r.cmdLen()

		case "snapshot":
			r.cmdSnapshot(args)

		case "fsync":
			r.cmdFsync()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"put", "set", "get", "del", "delete", "exists",
		"keys", "ls", "len", "count", "snapshot", "fsync",
		"clear", "cls", "help", "exit", "quit", "q",
	}
	var completions []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			completions = append(completions, c)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>     Insert, or update if key already exists")
	fmt.Println("  get <key>             Read a value")
	fmt.Println("  del <key>             Delete a key")
	fmt.Println("  exists <key>          Report whether a key is present")
	fmt.Println("  keys [limit]          List live keys")
	fmt.Println("  len                   Count live records")
	fmt.Println("  snapshot [limit]      Show index-level state per record")
	fmt.Println("  fsync                 Flush writes to storage")
	fmt.Println("  help                  Show this help")
	fmt.Println("  exit / quit / q       Exit")
	fmt.Println()
	fmt.Println("Keys and values: hex (e.g. 'deadbeef') or plain text, tried in that order.")
}

// parseBytes parses hex first, falling back to the literal text.
func parseBytes(s string) []byte {
	if raw, err := hex.DecodeString(s); err == nil && len(s)%2 == 0 && len(s) > 0 {
		return raw
	}
	return []byte(s)
}

func formatBytes(b []byte) string {
	printable := true
	for _, c := range b {
		if c < 32 || c > 126 {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf("%q", string(b))
	}
	return hex.EncodeToString(b)
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: put <key> <value>")
		return
	}
	key := parseBytes(args[0])
	value := parseBytes(strings.Join(args[1:], " "))

	var err error
	if r.store.Exists(key) {
		err = r.store.Update(key, value)
	} else {
		err = r.store.Insert(key, value)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: put %s\n", formatBytes(key))
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")
		return
	}
	key := parseBytes(args[0])
	value, err := r.store.Read(key)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Value: %s\n", formatBytes(value))
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")
		return
	}
	key := parseBytes(args[0])
	if err := r.store.Delete(key); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: deleted %s\n", formatBytes(key))
}

func (r *REPL) cmdExists(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: exists <key>")
		return
	}
	fmt.Println(r.store.Exists(parseBytes(args[0])))
}

func (r *REPL) cmdKeys(args []string) {
	limit := 20
	if len(args) >= 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}
	keys := r.store.Keys()
	if len(keys) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, k := range keys {
		if i >= limit {
			fmt.Printf("... (showing first %d, use 'keys <limit>' for more)\n", limit)
			break
		}
		fmt.Printf("%3d. %s\n", i+1, formatBytes(k))
	}
}

func (r *REPL) cmdLen() {
	fmt.Printf("Live records: %d\n", r.store.Len())
}

func (r *REPL) cmdSnapshot(args []string) {
	limit := 20
	if len(args) >= 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}
	entries := r.store.Snapshot()
	if len(entries) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, e := range entries {
		if i >= limit {
			fmt.Printf("... (showing first %d, use 'snapshot <limit>' for more)\n", limit)
			break
		}
		fmt.Printf("%3d. %-20s slot=%-4d ptr=%-8d cap=%-6d len=%d\n",
			i+1, formatBytes(e.Key), e.SlotPos, e.DataPointer, e.DataCapacity, e.DataCount)
	}
}

func (r *REPL) cmdFsync() {
	if err := r.store.Fsync(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK: synced")
}
