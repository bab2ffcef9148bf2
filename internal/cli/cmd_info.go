package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/arloliu/limg/container"
	"github.com/arloliu/limg/internal/collision"
	"github.com/arloliu/limg/internal/config"
	"github.com/arloliu/limg/internal/hash"
	"github.com/arloliu/limg/section"
)

func openReader(ctx context.Context, path string) (*container.Reader, error) {
	r, err := container.NewReader(path)
	if err != nil {
		return nil, err
	}

	if _, err := r.Await(ctx, r.Open); err != nil {
		return nil, err
	}

	return r, nil
}

func cmdInfo(ctx context.Context, env Env, _ config.Config, args []string) error {
	fs := newFlagSet(env, "info", "[options] <container>")
	records := fs.BoolP("records", "r", false, "list every record")

	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: info needs exactly one container", errUsage)
	}

	r, err := openReader(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(env.Out, "file:      %s\n", r.Filename())
	fmt.Fprintf(env.Out, "size:      %d bytes\n", r.FileSize())
	if r.DeclaredCount() == 0 {
		fmt.Fprintln(env.Out, "declared:  unknown")
	} else {
		fmt.Fprintf(env.Out, "declared:  %d\n", r.DeclaredCount())
	}

	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	if *records {
		fmt.Fprintln(tw, "POS\tOFFSET\tLENGTH\tDIGEST")
	}

	tracker := collision.NewTracker()
	offset := int64(section.FirstRecordOffset)
	var payloadBytes int64

	// a partial header at the tail is reported as trailing bytes
	for r.HasNext() && offset+section.HeaderSize <= r.FileSize() {
		ev, err := r.Await(ctx, r.Advance)
		if err != nil {
			_ = tw.Flush()
			return fmt.Errorf("record %d at offset %d: %w", r.CurrentPosition()+1, offset, err)
		}

		digest := hash.Digest(ev.Payload)
		tracker.Track(ev.Position, digest)

		if *records {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%016x\n", ev.Position, offset, len(ev.Payload), digest)
		}

		offset += section.HeaderSize + int64(len(ev.Payload))
		payloadBytes += int64(len(ev.Payload))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	count := r.CurrentPosition()
	fmt.Fprintf(env.Out, "records:   %d\n", count)
	fmt.Fprintf(env.Out, "payload:   %d bytes\n", payloadBytes)

	if offset < r.FileSize() {
		fmt.Fprintf(env.Out, "trailing:  %d bytes after the last record\n", r.FileSize()-offset)
	}
	if declared := int(r.DeclaredCount()); declared != 0 && declared != count {
		fmt.Fprintf(env.Out, "warning:   declared count %d, found %d\n", declared, count)
	}

	dups := tracker.Duplicates()
	fmt.Fprintf(env.Out, "unique:    %d\n", tracker.Unique())
	fmt.Fprintf(env.Out, "repeated:  %d\n", len(dups))
	for _, d := range dups {
		fmt.Fprintf(env.Out, "  frame %d repeats frame %d\n", d.Position, d.Original)
	}

	return nil
}
