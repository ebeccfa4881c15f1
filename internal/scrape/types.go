package scrape

// Course is the parsed lesson list of one course page. Immutable once
// enumerated; identity is the source URL.
type Course struct {
	Title   string
	URL     string
	Lessons []Lesson
}

// Lesson is one playable/readable unit within a course. Index is 1-based and
// drives filename prefixing.
type Lesson struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Index int    `json:"index"`
}

// OutcomeKind says which branch resolving a lesson took.
type OutcomeKind int

const (
	// OutcomeVideo means the page carries an embedded-video identifier.
	OutcomeVideo OutcomeKind = iota
	// OutcomeTextFallback means no video was found but the page has a lesson
	// content block worth saving as HTML.
	OutcomeTextFallback
	// OutcomeNotFound means the page has neither a video nor content.
	OutcomeNotFound
)

// LessonOutcome is the result of resolving a single lesson page.
type LessonOutcome struct {
	Kind     OutcomeKind
	VideoID  string
	PageHTML string
}

// CourseFile is one downloadable attachment from the course-files modal.
type CourseFile struct {
	URL  string
	Name string
}
