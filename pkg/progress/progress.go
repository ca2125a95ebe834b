package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

type barKey struct{}

// Open attaches w to ctx so that long running loops further down can draw
// a bar on it. Without Open, Count returns a Progress that draws nothing.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, barKey{}, w)
}

type Progress struct {
	bar    *pb.ProgressBar
	prefix string
}

// Step advances the bar by one and shows what is being worked on.
func (t *Progress) Step(item string) {
	if t.bar == nil {
		return
	}

	t.bar.Describe(t.prefix + ": " + item)
	t.bar.Add(1)
}

func (t *Progress) Close() {
	if t.bar == nil {
		return
	}

	t.bar.Finish()
}

func Count(ctx context.Context, total int, desc string) *Progress {
	w, ok := ctx.Value(barKey{}).(io.Writer)
	if !ok || total == 0 {
		return &Progress{}
	}

	bar := pb.NewOptions(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		pb.OptionClearOnFinish(),
	)
	bar.RenderBlank()

	return &Progress{prefix: desc, bar: bar}
}
