package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"cgcookie-dl/internal/browser"
	"cgcookie-dl/internal/cache"
	"cgcookie-dl/internal/config"
	"cgcookie-dl/internal/download"
	"cgcookie-dl/internal/fallback"
	"cgcookie-dl/internal/report"
	"cgcookie-dl/internal/scrape"
	"cgcookie-dl/internal/wistia"
)

// courseMetaMaxAge is how long a cached course structure is trusted before
// the course page is scraped again.
const courseMetaMaxAge = 7 * 24 * time.Hour

// Summary is what a run accomplished, printed at the end.
type Summary struct {
	Courses        int
	Lessons        int
	Downloaded     int
	AlreadyPresent int
	TextFallbacks  int
	Manual         int
	Failed         int
	CourseFiles    int
}

// Pipeline drives one run: a single browser session walked course by course,
// lesson by lesson. Everything is sequential; the site is scraped through
// one logged-in browser and there is nothing to parallelize against.
type Pipeline struct {
	cfg     *config.Config
	log     zerolog.Logger
	sess    *browser.Session
	scraper *scrape.Scraper
	videos  *wistia.Client
	files   *download.Downloader
	manual  fallback.Strategy
	rec     *report.Recorder
	store   *cache.Cache
	bar     *progressbar.ProgressBar
	summary Summary
}

// Run executes the whole download session described by cfg.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := cache.NewCache(cfg.SaveRoot)
	if err != nil {
		return err
	}

	printBox("Opening browser session")
	sess, err := browser.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer sess.Close()

	p := &Pipeline{
		cfg:     cfg,
		log:     log,
		sess:    sess,
		scraper: scrape.New(sess, cfg.Timeouts, log),
		videos:  wistia.NewClient(&http.Client{Timeout: 30 * time.Second}, log),
		files:   download.New(&http.Client{}, cfg.ChunkSize, log),
		rec:     report.NewRecorder(filepath.Join(cfg.SaveRoot, "skipped_data.json"), log),
		store:   store,
	}

	// Replaying recorded clicks needs a visible browser window, so headless
	// runs get the refusing strategy.
	if cfg.Headless {
		p.manual = fallback.Noop{}
	} else {
		p.manual = fallback.NewClickStrategy(sess.Ctx(), sess, cfg.DownloadsDir, cfg.Timeouts.Manual, log)
	}

	if err := p.login(); err != nil {
		return err
	}

	courses := p.enumerateAll()
	if len(courses) == 0 {
		return fmt.Errorf("no courses could be enumerated")
	}

	total := 0
	for _, c := range courses {
		total += len(c.Lessons)
	}
	p.summary.Courses = len(courses)
	p.summary.Lessons = total
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("lessons"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	for _, course := range courses {
		p.runCourse(course)
		if err := p.rec.Flush(); err != nil {
			p.log.Error().Err(err).Msg("Failed to flush skipped-lesson report")
		}
	}

	if err := p.manual.Finalize(); err != nil {
		p.log.Error().Err(err).Msg("Some manual downloads could not be placed")
	}
	if err := p.rec.Flush(); err != nil {
		return fmt.Errorf("failed to write skipped-lesson report: %w", err)
	}

	p.printSummary()
	return nil
}

func (p *Pipeline) login() error {
	printBox("Authenticating")

	if p.cfg.ManualLogin {
		if err := p.sess.Navigate(config.CGCookieBaseUrl + config.CGCookieLoginPath); err != nil {
			return err
		}
		fmt.Println("Sign in using the browser window, then wait here.")
		if err := p.sess.WaitSignedIn(p.cfg.Timeouts.ManualLogin); err != nil {
			return err
		}
	} else {
		if err := p.sess.Authenticate(p.cfg.Email, p.cfg.Password, p.cfg.Timeouts.Login); err != nil {
			return err
		}
	}

	p.log.Info().Msg("Signed in")
	return nil
}

// enumerateAll resolves every configured course URL to its lesson list,
// consulting the metadata cache first. Courses that cannot be enumerated are
// logged and dropped from the run.
func (p *Pipeline) enumerateAll() []*scrape.Course {
	printBox("Enumerating courses")

	var courses []*scrape.Course
	for _, courseURL := range p.cfg.Courses {
		course, err := p.loadCourse(courseURL)
		if err != nil {
			p.log.Error().Err(err).Str("course", courseURL).Msg("Failed to enumerate course")
			p.summary.Failed++
			continue
		}
		courses = append(courses, course)
	}
	return courses
}

func (p *Pipeline) loadCourse(courseURL string) (*scrape.Course, error) {
	key := "course_" + courseSlug(courseURL)

	if !p.store.IsStale(key, courseMetaMaxAge) {
		var cached scrape.Course
		if found, err := p.store.Get(key, &cached); err == nil && found && len(cached.Lessons) > 0 {
			p.log.Debug().Str("course", cached.Title).Msg("Using cached course structure")
			return &cached, nil
		}
	}

	course, err := p.scraper.Enumerate(courseURL)
	if err != nil {
		return nil, err
	}
	if err := p.store.Set(key, course); err != nil {
		p.log.Warn().Err(err).Msg("Failed to cache course structure")
	}
	return course, nil
}

func (p *Pipeline) runCourse(course *scrape.Course) {
	printBox("Downloading course: " + course.Title)

	courseDir := filepath.Join(p.cfg.SaveRoot, download.SanitizeFilename(course.Title))
	completed := p.loadCompleted(course)

	for _, lesson := range course.Lessons {
		p.handleLesson(course, courseDir, lesson, completed)
		p.bar.Add(1)

		if lesson.Index == 1 {
			p.downloadCourseFiles(course, courseDir, lesson)
		}
	}

	p.saveCompleted(course, completed)
}

func (p *Pipeline) handleLesson(course *scrape.Course, courseDir string, lesson scrape.Lesson, completed map[string]bool) {
	videoDest := filepath.Join(courseDir, download.BuildFilename(lesson.Index, lesson.Title, ".mp4", p.cfg.PrefixFilenames))

	if p.cfg.SkipIfExists && completed[lesson.Link] && p.files.Exists(videoDest) {
		p.recordSkip(course, lesson, report.ReasonAlreadyExists)
		p.summary.AlreadyPresent++
		return
	}

	outcome, err := p.scraper.ResolveLesson(lesson)
	if err != nil {
		p.log.Error().Err(err).Str("lesson", lesson.Title).Msg("Failed to resolve lesson")
		p.recordSkip(course, lesson, report.ReasonResolveFailed)
		p.summary.Failed++
		return
	}

	switch outcome.Kind {
	case scrape.OutcomeVideo:
		p.handleVideo(course, lesson, outcome.VideoID, videoDest, completed)

	case scrape.OutcomeTextFallback:
		htmlDest := filepath.Join(courseDir, download.BuildFilename(lesson.Index, lesson.Title, ".html", p.cfg.PrefixFilenames))
		if err := writeFileAtomic(htmlDest, []byte(outcome.PageHTML)); err != nil {
			p.log.Error().Err(err).Str("lesson", lesson.Title).Msg("Failed to save lesson page")
			p.summary.Failed++
			return
		}
		p.recordSkip(course, lesson, report.ReasonTextFallback)
		p.summary.TextFallbacks++
		completed[lesson.Link] = true

	case scrape.OutcomeNotFound:
		p.recordSkip(course, lesson, report.ReasonNoContent)
	}
}

func (p *Pipeline) handleVideo(course *scrape.Course, lesson scrape.Lesson, videoID, videoDest string, completed map[string]bool) {
	asset, err := p.videos.ResolveVideoURL(videoID)
	if err != nil {
		p.log.Warn().Err(err).Str("lesson", lesson.Title).Msg("Video resolution failed, trying manual fallback")
		p.tryManual(course, lesson, videoDest, report.ReasonResolveFailed, completed)
		return
	}

	outcome, err := p.files.Download(asset.URL, videoDest, p.cfg.SkipIfExists)
	if err != nil {
		p.log.Warn().Err(err).Str("lesson", lesson.Title).Msg("Download failed, trying manual fallback")
		p.tryManual(course, lesson, videoDest, report.ReasonResolveFailed, completed)
		return
	}

	completed[lesson.Link] = true
	if outcome == download.Skipped {
		p.recordSkip(course, lesson, report.ReasonAlreadyExists)
		p.summary.AlreadyPresent++
		return
	}
	p.summary.Downloaded++
}

func (p *Pipeline) tryManual(course *scrape.Course, lesson scrape.Lesson, videoDest string, reason report.Reason, completed map[string]bool) {
	err := p.manual.Fetch(videoDest)
	if err == nil {
		p.summary.Manual++
		completed[lesson.Link] = true
		return
	}

	if !errors.Is(err, fallback.ErrDisabled) {
		p.log.Error().Err(err).Str("lesson", lesson.Title).Msg("Manual fallback failed")
		reason = report.ReasonManualFailed
	}
	p.recordSkip(course, lesson, reason)
	p.summary.Failed++
}

// downloadCourseFiles grabs the attachments behind the Course Files button
// on the first lesson's page. A failure here is recorded like a skipped
// lesson and the run moves on. Navigates explicitly because the lesson may
// have been skipped without ever loading its page.
func (p *Pipeline) downloadCourseFiles(course *scrape.Course, courseDir string, first scrape.Lesson) {
	var files []scrape.CourseFile
	err := p.sess.Navigate(scrape.AbsoluteLink(first.Link))
	if err == nil {
		files, err = p.scraper.CourseFiles()
	}
	if err != nil {
		p.log.Warn().Err(err).Str("course", course.Title).Msg("Course files unavailable")
		p.rec.Add(report.SkippedRecord{
			CourseTitle: course.Title,
			LessonTitle: "Course Files",
			Reason:      report.ReasonCourseFiles,
		})
		return
	}

	filesDir := filepath.Join(courseDir, "course_files")
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			p.log.Warn().Str("url", f.URL).Msg("Skipping course file with empty name")
			continue
		}
		dest := filepath.Join(filesDir, download.SanitizeFilename(f.Name))
		if _, err := p.files.Download(f.URL, dest, p.cfg.SkipIfExists); err != nil {
			p.log.Error().Err(err).Str("file", f.Name).Msg("Failed to download course file")
			continue
		}
		p.summary.CourseFiles++
	}
}

func (p *Pipeline) recordSkip(course *scrape.Course, lesson scrape.Lesson, reason report.Reason) {
	p.rec.Add(report.SkippedRecord{
		CourseTitle: course.Title,
		LessonTitle: lesson.Title,
		LessonLink:  scrape.AbsoluteLink(lesson.Link),
		Reason:      reason,
	})
}

func (p *Pipeline) loadCompleted(course *scrape.Course) map[string]bool {
	var links []string
	if _, err := p.store.Get("completed_"+courseSlug(course.URL), &links); err != nil {
		p.log.Warn().Err(err).Msg("Failed to load completed-lesson state")
	}
	completed := make(map[string]bool, len(links))
	for _, l := range links {
		completed[l] = true
	}
	return completed
}

func (p *Pipeline) saveCompleted(course *scrape.Course, completed map[string]bool) {
	links := make([]string, 0, len(completed))
	for _, lesson := range course.Lessons {
		if completed[lesson.Link] {
			links = append(links, lesson.Link)
		}
	}
	if err := p.store.Set("completed_"+courseSlug(course.URL), links); err != nil {
		p.log.Warn().Err(err).Msg("Failed to save completed-lesson state")
	}
}

func (p *Pipeline) printSummary() {
	fmt.Printf("\n🎉 Download Summary:\n")
	fmt.Printf("Courses Processed: %d\n", p.summary.Courses)
	fmt.Printf("Lessons Found: %d\n", p.summary.Lessons)
	fmt.Printf("Videos Downloaded: %d\n", p.summary.Downloaded)
	fmt.Printf("Already Present: %d\n", p.summary.AlreadyPresent)
	fmt.Printf("Saved As Text: %d\n", p.summary.TextFallbacks)
	fmt.Printf("Recovered Manually: %d\n", p.summary.Manual)
	fmt.Printf("Course Files: %d\n", p.summary.CourseFiles)
	fmt.Printf("Failed: %d\n", p.summary.Failed)
	fmt.Printf("Skipped Lessons Recorded: %d\n", p.rec.Len())
}

// courseSlug derives a cache key fragment from a course URL. Falls back to a
// sanitized form of the whole URL when it does not parse.
func courseSlug(courseURL string) string {
	u, err := url.Parse(courseURL)
	if err != nil || path.Base(u.Path) == "." || path.Base(u.Path) == "/" {
		return download.SanitizeFilename(courseURL)
	}
	return path.Base(u.Path)
}

func writeFileAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func printBox(text string) {
	fmt.Println("====================================")
	fmt.Println(text)
	fmt.Println("====================================")
}
