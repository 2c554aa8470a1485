package source

import (
	"io"

	"gopkg.in/cheggaaa/pb.v1"
)

// newBar starts a progress bar over total items. Without a writer the bar
// counts silently.
func newBar(total int, out io.Writer, prefix string) *pb.ProgressBar {
	bar := pb.New(total).Prefix(prefix)
	bar.ShowTimeLeft = false
	bar.ShowSpeed = false
	if out == nil {
		bar.NotPrint = true
	} else {
		bar.Output = out
	}
	return bar.Start()
}
