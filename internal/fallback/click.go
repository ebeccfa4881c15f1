package fallback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/rs/zerolog"

	"cgcookie-dl/internal/browser"
)

// Page is the slice of the browser session the click strategy needs.
type Page interface {
	ClickXY(x, y float64) error
	Evaluate(expr string, res interface{}) error
}

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type pendingMove struct {
	src  string
	dest string
}

// calibration steps, in click order
var calibrationSteps = []string{
	"the lesson's download button",
	"the download option in the menu that opens",
}

// pickListener installs a one-shot click capture on the current page. The
// captured viewport coordinates are read back through window.__cgcPick.
const pickListener = `(() => {
	window.__cgcPick = null;
	document.addEventListener('click', (e) => {
		window.__cgcPick = {x: e.clientX, y: e.clientY};
	}, {once: true, capture: true});
	return true;
})()`

// ClickStrategy recovers lessons by replaying operator-recorded clicks on the
// lesson page and claiming whatever new file lands in the browser's download
// directory. Calibration happens once per run, on the first lesson that
// needs it.
type ClickStrategy struct {
	page         Page
	ctx          context.Context
	downloadsDir string
	waitTimeout  time.Duration
	in           io.Reader
	out          io.Writer
	log          zerolog.Logger

	positions []position
	moves     []pendingMove
}

func NewClickStrategy(ctx context.Context, page Page, downloadsDir string, waitTimeout time.Duration, log zerolog.Logger) *ClickStrategy {
	return &ClickStrategy{
		page:         page,
		ctx:          ctx,
		downloadsDir: downloadsDir,
		waitTimeout:  waitTimeout,
		in:           os.Stdin,
		out:          os.Stdout,
		log:          log,
	}
}

func (s *ClickStrategy) Fetch(dest string) error {
	if len(s.positions) == 0 {
		if err := s.calibrate(); err != nil {
			return fmt.Errorf("calibration failed: %w", err)
		}
	}

	before, err := snapshotDir(s.downloadsDir)
	if err != nil {
		return fmt.Errorf("failed to read downloads directory: %w", err)
	}

	for i, pos := range s.positions {
		if i > 0 {
			time.Sleep(time.Second)
		}
		if err := s.page.ClickXY(pos.X, pos.Y); err != nil {
			return fmt.Errorf("replaying click %d: %w", i+1, err)
		}
	}

	name, err := s.waitForNewFile(before)
	if err != nil {
		return err
	}

	s.moves = append(s.moves, pendingMove{
		src:  filepath.Join(s.downloadsDir, name),
		dest: dest,
	})
	s.log.Info().Str("file", name).Str("dest", dest).Msg("Queued manual download")
	return nil
}

// Finalize moves every claimed download into place. Called after the last
// lesson so slow browser writes have had time to finish.
func (s *ClickStrategy) Finalize() error {
	var errs []error
	for _, m := range s.moves {
		if err := moveFile(m.src, m.dest); err != nil {
			s.log.Error().Err(err).Str("src", m.src).Msg("Failed to place manual download")
			errs = append(errs, err)
		}
	}
	s.moves = nil
	return errors.Join(errs...)
}

func (s *ClickStrategy) calibrate() error {
	fmt.Fprintln(s.out, colorstring.Color("[yellow]Manual download calibration"))
	fmt.Fprintln(s.out, "The recorded clicks will be replayed for every lesson that needs manual recovery.")

	scanner := bufio.NewScanner(s.in)
	for _, step := range calibrationSteps {
		fmt.Fprintln(s.out, colorstring.Color("[cyan]In the browser window, click "+step+"..."))

		var installed bool
		if err := s.page.Evaluate(pickListener, &installed); err != nil {
			return fmt.Errorf("failed to install click listener: %w", err)
		}

		var pick *position
		err := browser.Poll(s.ctx, 500*time.Millisecond, 5*time.Minute, func() (bool, error) {
			pick = nil
			if err := s.page.Evaluate(`window.__cgcPick`, &pick); err != nil {
				return false, err
			}
			return pick != nil, nil
		})
		if err != nil {
			return fmt.Errorf("no click captured for %s: %w", step, err)
		}

		s.positions = append(s.positions, *pick)
		s.log.Info().Float64("x", pick.X).Float64("y", pick.Y).Msgf("Recorded position for %s", step)
	}

	fmt.Fprintln(s.out, colorstring.Color("[green]Calibration complete. Press Enter to continue."))
	scanner.Scan()
	return nil
}

// waitForNewFile polls the downloads directory for a completed file that was
// not present in before. In-progress browser files are ignored until the
// browser renames them into place.
func (s *ClickStrategy) waitForNewFile(before map[string]struct{}) (string, error) {
	var found string
	err := browser.Poll(s.ctx, time.Second, s.waitTimeout, func() (bool, error) {
		name, err := diffDir(s.downloadsDir, before)
		if err != nil {
			return false, err
		}
		found = name
		return name != "", nil
	})
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, browser.ErrPollTimeout) {
		return "", err
	}

	// Give the operator a chance to finish the download by hand.
	fmt.Fprintln(s.out, colorstring.Color("[yellow]Download not detected. Press Enter once it has finished, or type 'skip':"))
	scanner := bufio.NewScanner(s.in)
	if scanner.Scan() && strings.EqualFold(strings.TrimSpace(scanner.Text()), "skip") {
		return "", fmt.Errorf("operator skipped manual download")
	}

	name, derr := diffDir(s.downloadsDir, before)
	if derr != nil {
		return "", derr
	}
	if name == "" {
		return "", fmt.Errorf("no new file appeared in %s", s.downloadsDir)
	}
	return name, nil
}

func isPartialDownload(name string) bool {
	return strings.HasSuffix(name, ".crdownload") ||
		strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".tmp")
}

func snapshotDir(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Name()] = struct{}{}
	}
	return seen, nil
}

// diffDir returns the first completed file in dir that is absent from before,
// or "" when nothing new has landed yet.
func diffDir(dir string, before map[string]struct{}) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, ok := before[name]; ok {
			continue
		}
		if isPartialDownload(name) {
			continue
		}
		return name, nil
	}
	return "", nil
}

// moveFile renames src to dest, falling back to copy and remove when the two
// paths are on different filesystems.
func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
