package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Runner executes an external tool. Split out so tests can fake process runs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// rasterize renders every page of the PDF to a PNG under outDir using
// pdftoppm. pdftoppm zero-pads page numbers, so sorting the produced file
// names lexicographically yields page order.
func rasterize(ctx context.Context, r Runner, bin, pdfPath, outDir string, dpi int) ([]string, error) {
	prefix := filepath.Join(outDir, "page")
	_, errb, err := r.Run(ctx, bin, "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	if err != nil {
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", bin, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", bin, err, msg)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(ent.Name()), ".png") {
			images = append(images, filepath.Join(outDir, ent.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}
