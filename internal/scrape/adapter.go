package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageAdapter is the single DOM contract the pipeline parses against. The
// site has shipped more than one course-page layout over time; markup drift
// is handled by writing another adapter, never by branching inside callers.
type PageAdapter interface {
	// CourseTitle extracts the page title of a course page.
	CourseTitle(doc *goquery.Document) string
	// Lessons extracts (title, link) pairs in document order: chapter order,
	// then lesson order within each chapter.
	Lessons(doc *goquery.Document) []Lesson
	// LessonContent returns the trimmed text of the lesson content block, if
	// the page has one.
	LessonContent(doc *goquery.Document) (string, bool)
	// CourseFiles extracts every anchor inside the course-files modal body,
	// paired with its trimmed visible text.
	CourseFiles(doc *goquery.Document) []CourseFile
}

// AccordionAdapter parses the current course layout: an accordion whose
// chapter headings each have a sibling collapsible container holding the
// chapter's lesson list.
type AccordionAdapter struct{}

// CourseTitle implements PageAdapter.
func (AccordionAdapter) CourseTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Lessons implements PageAdapter.
func (AccordionAdapter) Lessons(doc *goquery.Document) []Lesson {
	var lessons []Lesson

	doc.Find("div.chapter-heading").Each(func(_ int, chapter *goquery.Selection) {
		collapse := chapter.NextAllFiltered("div.accordion-collapse").First()
		collapse.Find("li.lesson a.lesson-link").Each(func(_ int, link *goquery.Selection) {
			title, hasTitle := link.Attr("title")
			href, hasHref := link.Attr("href")
			if !hasTitle || !hasHref {
				return
			}
			lessons = append(lessons, Lesson{
				Title: strings.TrimSpace(title),
				Link:  strings.TrimSpace(href),
			})
		})
	})

	for i := range lessons {
		lessons[i].Index = i + 1
	}
	return lessons
}

// LessonContent implements PageAdapter.
func (AccordionAdapter) LessonContent(doc *goquery.Document) (string, bool) {
	content := doc.Find("div.lesson-content-inner").First()
	if content.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(content.Text()), true
}

// CourseFiles implements PageAdapter.
func (AccordionAdapter) CourseFiles(doc *goquery.Document) []CourseFile {
	var files []CourseFile

	doc.Find(".modal-body .text-truncate a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		files = append(files, CourseFile{
			URL:  href,
			Name: strings.TrimSpace(link.Text()),
		})
	})

	return files
}
