// Command watermark places a text watermark on batches of photos.
//
// Usage:
//
//	watermark export photos/ --out marked/ --text "© {date}" --anchor bottom-right
//	watermark preview photo.jpg --preview-out preview.png --mode manual --drag 300,200:120,80
//	watermark template save my.ini --text "Draft" --opacity 0.3
//	watermark watch incoming/ --out marked/ --template my.ini
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
