package cli

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/natefinch/atomic"

	"github.com/arloliu/limg/internal/config"
)

func cmdExtract(ctx context.Context, env Env, cfg config.Config, args []string) error {
	fs := newFlagSet(env, "extract", "[options] <container> <position>")
	codecName := fs.String("codec", cfg.Codec, "payload codec: none, zstd, s2, lz4")
	output := fs.StringP("output", "o", "", "output file (default: stdout)")

	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: extract needs a container and a position", errUsage)
	}

	position, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("%w: invalid position %q", errUsage, fs.Arg(1))
	}

	codec, err := resolveCodec(cfg, *codecName, fs.Changed("codec"))
	if err != nil {
		return err
	}

	r, err := openReader(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	ev, err := r.Await(ctx, func(ctx context.Context) error {
		return r.SeekTo(ctx, position)
	})
	if err != nil {
		return fmt.Errorf("seek to %d: %w", position, err)
	}

	payload, err := codec.Decompress(ev.Payload)
	if err != nil {
		return fmt.Errorf("decode frame %d: %w", position, err)
	}

	if *output == "" {
		_, err = env.Out.Write(payload)
		return err
	}

	if err := atomic.WriteFile(*output, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}

	fmt.Fprintf(env.ErrOut, "frame %d: %d bytes written to %s\n", position, len(payload), *output)

	return nil
}
