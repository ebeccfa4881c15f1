package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"cgcookie-dl/internal/browser"
	"cgcookie-dl/internal/config"
)

// courseFilesButton has no id or class on the page; it is only findable by
// its visible text.
const courseFilesButton = `//button[normalize-space()='Course Files']`

// How long the lesson page gets to render its video embed before the lesson
// is treated as video-less.
const embedWait = 5 * time.Second

// Scraper drives the browser session through the site's pages and parses
// what comes back through a PageAdapter.
type Scraper struct {
	sess     *browser.Session
	adapter  PageAdapter
	timeouts config.Timeouts
	log      zerolog.Logger
}

// New builds a Scraper on the canonical accordion layout.
func New(sess *browser.Session, timeouts config.Timeouts, log zerolog.Logger) *Scraper {
	return &Scraper{
		sess:     sess,
		adapter:  AccordionAdapter{},
		timeouts: timeouts,
		log:      log,
	}
}

// AbsoluteLink joins a possibly relative lesson link onto the site base URL.
func AbsoluteLink(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return config.CGCookieBaseUrl + link
}

// Enumerate navigates to a course page and parses its lesson list. The
// lesson-list container not rendering within the scrape timeout is fatal for
// the course.
func (s *Scraper) Enumerate(courseURL string) (*Course, error) {
	if err := s.sess.Navigate(courseURL); err != nil {
		return nil, err
	}
	if err := s.sess.WaitVisible(config.SelectorCourseList, s.timeouts.Scrape); err != nil {
		return nil, err
	}

	source, err := s.sess.PageSource()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse course page: %w", err)
	}

	course := &Course{
		Title:   s.adapter.CourseTitle(doc),
		URL:     courseURL,
		Lessons: s.adapter.Lessons(doc),
	}

	s.log.Info().Str("course", course.Title).Int("lessons", len(course.Lessons)).
		Msg("Enumerated course")
	if len(course.Lessons) == 0 {
		s.log.Warn().Str("url", courseURL).Msg("Course page parsed but no lessons found")
	}

	return course, nil
}

// ResolveLesson navigates to a lesson and works out what it is: a video
// embed, a text-only page worth saving, or nothing usable.
func (s *Scraper) ResolveLesson(lesson Lesson) (LessonOutcome, error) {
	if err := s.sess.Navigate(AbsoluteLink(lesson.Link)); err != nil {
		return LessonOutcome{}, err
	}

	videoID, ok, err := s.sess.Attribute(config.SelectorWistiaEmbed, "data-video-id", embedWait)
	if err != nil {
		return LessonOutcome{}, err
	}
	if ok && videoID != "" {
		return LessonOutcome{Kind: OutcomeVideo, VideoID: videoID}, nil
	}

	s.log.Warn().Str("lesson", lesson.Title).Msg("No video embed found, checking for text content")

	source, err := s.sess.PageSource()
	if err != nil {
		return LessonOutcome{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return LessonOutcome{}, fmt.Errorf("failed to parse lesson page: %w", err)
	}

	if _, found := s.adapter.LessonContent(doc); found {
		return LessonOutcome{Kind: OutcomeTextFallback, PageHTML: source}, nil
	}

	return LessonOutcome{Kind: OutcomeNotFound}, nil
}

// CourseFiles opens the course-files modal on the current lesson page and
// returns every attachment link inside it, including ones with empty visible
// text; the caller decides what is downloadable.
func (s *Scraper) CourseFiles() ([]CourseFile, error) {
	if err := s.sess.ClickXPath(courseFilesButton, s.timeouts.CourseFiles); err != nil {
		return nil, err
	}
	if err := s.sess.WaitVisible(".modal-body", s.timeouts.Scrape); err != nil {
		return nil, err
	}

	source, err := s.sess.PageSource()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse course-files modal: %w", err)
	}

	return s.adapter.CourseFiles(doc), nil
}
