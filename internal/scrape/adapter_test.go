package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

const coursePage = `<html><head><title>Fundamentals of Blender</title></head><body>
<div id="course-list-accordion">
  <div class="chapter-heading"><h3>Chapter One</h3></div>
  <div class="accordion-collapse">
    <ul>
      <li class="lesson"><a class="lesson-link" title="Intro" href="/lessons/intro">Intro</a></li>
      <li class="lesson"><a class="lesson-link" title="Setup" href="/lessons/setup">Setup</a></li>
    </ul>
  </div>
  <div class="chapter-heading"><h3>Chapter Two</h3></div>
  <div class="accordion-collapse">
    <ul>
      <li class="lesson"><a class="lesson-link" title="Modeling" href="/lessons/modeling">Modeling</a></li>
      <li class="lesson"><a class="lesson-link" title="Shading" href="/lessons/shading">Shading</a></li>
      <li class="lesson"><a class="lesson-link" title="Render" href="/lessons/render">Render</a></li>
    </ul>
  </div>
</div>
</body></html>`

func TestAccordionAdapterLessons(t *testing.T) {
	lessons := AccordionAdapter{}.Lessons(doc(t, coursePage))

	// 2 chapters x (2, 3) lessons, chapter order then intra-chapter order.
	require.Len(t, lessons, 5)

	wantTitles := []string{"Intro", "Setup", "Modeling", "Shading", "Render"}
	for i, lesson := range lessons {
		require.Equal(t, wantTitles[i], lesson.Title)
		require.Equal(t, i+1, lesson.Index)
	}
	require.Equal(t, "/lessons/modeling", lessons[2].Link)
}

func TestAccordionAdapterLessonsEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "no accordion at all",
			html: `<html><body><p>maintenance page</p></body></html>`,
			want: 0,
		},
		{
			name: "chapter without collapse sibling",
			html: `<html><body><div class="chapter-heading"></div></body></html>`,
			want: 0,
		},
		{
			name: "anchor missing title attribute is skipped",
			html: `<html><body>
				<div class="chapter-heading"></div>
				<div class="accordion-collapse">
					<li class="lesson"><a class="lesson-link" href="/lessons/a">A</a></li>
					<li class="lesson"><a class="lesson-link" title="B" href="/lessons/b">B</a></li>
				</div>
			</body></html>`,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, AccordionAdapter{}.Lessons(doc(t, tt.html)), tt.want)
		})
	}
}

func TestAccordionAdapterCourseTitle(t *testing.T) {
	require.Equal(t, "Fundamentals of Blender", AccordionAdapter{}.CourseTitle(doc(t, coursePage)))
}

func TestAccordionAdapterLessonContent(t *testing.T) {
	withContent := `<html><body><div class="lesson-content-inner">  Read this instead of watching.  </div></body></html>`
	text, ok := AccordionAdapter{}.LessonContent(doc(t, withContent))
	require.True(t, ok)
	require.Equal(t, "Read this instead of watching.", text)

	_, ok = AccordionAdapter{}.LessonContent(doc(t, `<html><body></body></html>`))
	require.False(t, ok)
}

func TestAccordionAdapterCourseFiles(t *testing.T) {
	modal := `<html><body><div class="modal-body">
		<div class="text-truncate"><a href="https://cdn.example.com/scene.blend">scene.blend</a></div>
		<div class="text-truncate"><a href="https://cdn.example.com/ref.zip">  ref.zip  </a></div>
		<div class="text-truncate"><a href="https://cdn.example.com/unnamed">   </a></div>
	</div></body></html>`

	files := AccordionAdapter{}.CourseFiles(doc(t, modal))
	require.Len(t, files, 3)
	require.Equal(t, "scene.blend", files[0].Name)
	require.Equal(t, "ref.zip", files[1].Name)
	require.Equal(t, "", files[2].Name)
	require.Equal(t, "https://cdn.example.com/unnamed", files[2].URL)
}

func TestAbsoluteLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/lessons/intro", "https://cgcookie.com/lessons/intro"},
		{"lessons/intro", "https://cgcookie.com/lessons/intro"},
		{"https://cgcookie.com/lessons/intro", "https://cgcookie.com/lessons/intro"},
		{"http://example.com/other", "http://example.com/other"},
	}

	for _, tt := range tests {
		if got := AbsoluteLink(tt.in); got != tt.want {
			t.Errorf("AbsoluteLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
