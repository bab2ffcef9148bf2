package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/arloliu/limg/compress"
	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/internal/config"
	"github.com/arloliu/limg/section"
)

// resolveCodec picks the --codec flag when given, else the configured codec.
func resolveCodec(cfg config.Config, flagValue string, changed bool) (compress.Codec, error) {
	name := cfg.Codec
	if changed {
		name = flagValue
	}

	return compress.CodecByName(name)
}

func cmdPack(_ context.Context, env Env, cfg config.Config, args []string) error {
	fs := newFlagSet(env, "pack", "[options] <out> <frame files...>")
	codecName := fs.String("codec", cfg.Codec, "payload codec: none, zstd, s2, lz4")
	declare := fs.Bool("declare-count", true, "write the record count into the prefix")

	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("%w: pack needs an output path and at least one frame", errUsage)
	}

	codec, err := resolveCodec(cfg, *codecName, fs.Changed("codec"))
	if err != nil {
		return err
	}

	frames, err := readFrames(fs.Args()[1:])
	if err != nil {
		return err
	}

	data, err := container.Encode(frames, container.WithCompressor(codec))
	if err != nil {
		return err
	}

	if !*declare {
		copy(data, section.EncodeCount(0))
	}

	out := fs.Arg(0)
	if err := atomic.WriteFile(out, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(env.Out, "packed %d frames into %s (%d bytes)\n", len(frames), out, len(data))

	return nil
}

func cmdAppend(_ context.Context, env Env, cfg config.Config, args []string) error {
	fs := newFlagSet(env, "append", "[options] <container> <frame files...>")
	codecName := fs.String("codec", cfg.Codec, "payload codec: none, zstd, s2, lz4")
	finalize := fs.Bool("finalize", false, "write the final record count on close")
	syncEach := fs.Bool("sync", false, "fsync after every record")

	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("%w: append needs a container and at least one frame", errUsage)
	}

	codec, err := resolveCodec(cfg, *codecName, fs.Changed("codec"))
	if err != nil {
		return err
	}

	frames, err := readFrames(fs.Args()[1:])
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	opts := []container.WriterOption{
		container.WithCompressor(codec),
		container.WithFinalizeCount(*finalize),
		container.WithSyncEachRecord(*syncEach),
	}

	var w *container.Writer
	if _, statErr := os.Stat(path); statErr == nil {
		w, err = container.OpenAppend(path, opts...)
	} else {
		w, err = container.Create(path, opts...)
	}
	if err != nil {
		return err
	}

	for _, frame := range frames {
		if _, err := w.Append(frame); err != nil {
			_ = w.Close()
			return err
		}
	}

	count, size := w.Count(), w.Size()
	if err := w.Close(); err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "appended %d frames to %s: %d records, %d bytes\n", len(frames), path, count, size)

	return nil
}
