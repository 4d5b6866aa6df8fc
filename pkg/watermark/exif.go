package watermark

import (
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// DateToken in the watermark text is replaced by the capture date of each
// exported image.
const DateToken = "{date}"

// DateLayout is the format substituted for DateToken.
const DateLayout = "2006-01-02"

// CaptureDate returns the EXIF capture time of the file at path. Files
// without a readable EXIF date get the current time.
func CaptureDate(path string) time.Time {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if x, err := exif.Decode(f); err == nil {
			if t, err := x.DateTime(); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

// ExpandText substitutes DateToken in text for the image at path.
func ExpandText(text, path string) string {
	if !strings.Contains(text, DateToken) {
		return text
	}
	return strings.ReplaceAll(text, DateToken, CaptureDate(path).Format(DateLayout))
}
