package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/internal/config"
	"github.com/arloliu/limg/player"
)

func cmdPlay(ctx context.Context, env Env, cfg config.Config, args []string) error {
	fs := newFlagSet(env, "play", "[options] <container>")
	codecName := fs.String("codec", cfg.Codec, "payload codec: none, zstd, s2, lz4")
	interval := fs.Duration("interval", cfg.FrameInterval, "delay between frames during playback")
	history := fs.String("history", cfg.HistoryFile, "REPL history file (empty disables history)")

	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: play needs exactly one container", errUsage)
	}

	codec, err := resolveCodec(cfg, *codecName, fs.Changed("codec"))
	if err != nil {
		return err
	}

	r, err := container.NewReader(fs.Arg(0))
	if err != nil {
		return err
	}

	sh := &shell{out: env.Out}

	p, err := player.New(r,
		player.WithInterval(*interval),
		player.WithDecompressor(codec),
		player.WithFrameHandler(sh.showFrame),
		player.WithErrorHandler(sh.showError),
	)
	if err != nil {
		return err
	}
	sh.player = p

	if _, err := p.Start(ctx); err != nil {
		return err
	}
	defer func() {
		p.Stop()
		_ = p.Wait(context.Background())
		_ = p.Close()
	}()

	return sh.run(ctx, *history)
}

// shell is the interactive playback loop.
type shell struct {
	player *player.Player

	mu  sync.Mutex // serializes writes to out; frames arrive asynchronously
	out io.Writer
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) showFrame(f player.Frame) {
	repeat := ""
	if f.Duplicate {
		repeat = " (repeat)"
	}

	s.printf("[%d/%d] %d bytes digest=%016x%s\n", f.Position, f.Total, len(f.Payload), f.Digest, repeat)
}

func (s *shell) showError(err error) {
	s.printf("error: %v\n", err)
}

func (s *shell) run(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil { //nolint: gosec
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
		defer saveHistory(line, historyPath)
	}

	s.printf("limg - %s (type 'help' for commands)\n", s.player.Reader().Filename())

	for {
		input, err := line.Prompt("limg> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if s.exec(ctx, input) {
			return nil
		}
	}
}

func saveHistory(line *liner.State, path string) {
	f, err := os.Create(path) //nolint: gosec
	if err != nil {
		plog.Warningf("save history %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := line.WriteHistory(f); err != nil {
		plog.Warningf("save history %s: %v", path, err)
	}
}

var shellCommands = []string{
	"next", "prev", "seek", "play", "stop", "reset", "pos", "refresh", "info", "dups", "help", "quit",
}

func completeCommand(line string) []string {
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}

	return out
}

// exec runs one shell command and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	p := s.player
	r := p.Reader()

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp()
	case "next", "n":
		s.step(ctx, p.Next(ctx))
	case "prev", "previous", "p":
		s.step(ctx, p.Previous(ctx))
	case "seek", "goto", "g":
		if len(args) != 1 {
			s.printf("usage: seek <position>\n")
			break
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			s.printf("invalid position %q\n", args[0])
			break
		}
		s.step(ctx, p.Seek(ctx, n))
	case "play":
		if err := p.Play(ctx); err != nil {
			s.showError(err)
		}
	case "stop", "s":
		p.Stop()
	case "reset":
		if err := p.Reset(); err != nil {
			s.showError(err)
			break
		}
		s.printf("rewound to the start\n")
	case "pos", "position":
		s.printf("position %d of %d\n", r.CurrentPosition(), r.TotalCount())
	case "refresh":
		if err := r.Refresh(ctx); err != nil {
			s.showError(err)
			break
		}
		s.printf("size %d bytes, total %d\n", r.FileSize(), r.TotalCount())
	case "info":
		s.printInfo(r)
	case "dups", "duplicates":
		dups := p.Duplicates()
		if len(dups) == 0 {
			s.printf("no repeated frames seen\n")
		}
		for _, d := range dups {
			s.printf("frame %d repeats frame %d\n", d.Position, d.Original)
		}
	default:
		s.printf("unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

// step reports a rejected navigation request or waits for the accepted
// one so its frame is printed before the next prompt.
func (s *shell) step(ctx context.Context, err error) {
	if err != nil {
		s.showError(err)
		return
	}

	if err := s.player.Wait(ctx); err != nil {
		s.showError(err)
	}
}

func (s *shell) printInfo(r *container.Reader) {
	declared := "unknown"
	if n := r.DeclaredCount(); n != 0 {
		declared = strconv.FormatUint(uint64(n), 10)
	}

	s.printf("file:     %s\n", r.Filename())
	s.printf("size:     %d bytes\n", r.FileSize())
	s.printf("declared: %s\n", declared)
	s.printf("position: %d of %d\n", r.CurrentPosition(), r.TotalCount())
	s.printf("playing:  %v\n", s.player.Playing())
}

func (s *shell) printHelp() {
	s.printf(`Commands:
  next, n            show the next frame
  prev, p            show the previous frame
  seek, g <n>        jump to frame n
  play               play to the end
  stop, s            stop playback
  reset              rewind before the first frame
  pos                show the current position
  refresh            pick up frames appended since opening
  info               show container details
  dups               list repeated frames seen so far
  help, ?            show this help
  quit, q            exit
`)
}
