package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
)

// consoleNotifier prints session notifications to the command writer
type consoleNotifier struct {
	w io.Writer
}

func (n *consoleNotifier) Success(msg string) {
	fmt.Fprintln(n.w, msg)
}

func (n *consoleNotifier) Error(msg string) {
	fmt.Fprintln(n.w, "Error: "+msg)
}

// newSpinner returns a stderr spinner shown while a generation is in flight
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	return s
}

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// loadReference reads an image file into its transport encoding
func loadReference(path string) (model.ReferenceImage, error) {
	mimeType, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return model.ReferenceImage{}, goerr.New("unsupported reference image format",
			goerr.V("path", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.ReferenceImage{}, goerr.Wrap(err, "failed to read reference image",
			goerr.V("path", path))
	}

	return model.ReferenceImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}

// saveImage decodes the image payload and writes it to the given path
func saveImage(img *model.GeneratedImage, path string) error {
	data, err := base64.StdEncoding.DecodeString(img.ImageData)
	if err != nil {
		return goerr.Wrap(err, "failed to decode image payload", goerr.V("id", img.ID))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write image file", goerr.V("path", path))
	}

	return nil
}

// printItem writes one history entry summary line
func printItem(w io.Writer, img *model.GeneratedImage) {
	name := ""
	if img.TemplateName != "" {
		name = "  (" + img.TemplateName + ")"
	}
	fmt.Fprintf(w, "%s  %s  %-5s  %s  %q%s\n",
		img.ID,
		img.CreatedAt.Format("2006-01-02 15:04"),
		img.AspectRatio,
		img.Model,
		img.Prompt,
		name)
}
