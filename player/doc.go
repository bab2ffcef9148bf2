// Package player turns a container.Reader into a frame viewer backend.
//
// A Player subscribes to its reader, decodes each delivered payload into a
// Frame and can play frames back at a fixed interval:
//
//	r, _ := container.NewReader("clip.limg")
//	p, _ := player.New(r,
//	    player.WithInterval(40*time.Millisecond),
//	    player.WithFrameHandler(func(f player.Frame) { show(f.Payload) }),
//	)
//	first, err := p.Start(ctx) // open and show the first frame
//	err = p.Play(ctx)          // keep advancing until the last frame
//
// Navigation (Next, Previous, Seek) is forwarded to the reader, so the
// reader's busy rules apply: a step in the other direction is rejected
// while one is in flight.
package player
