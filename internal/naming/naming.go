// Package naming derives human-readable, collision-free entry filenames.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/dayvault/internal/dayone"
	"github.com/starford/dayvault/internal/normalize"
)

// MaxTitleRunes caps the title part of a filename.
const MaxTitleRunes = 50

const undated = "undated"

var (
	reservedRe = regexp.MustCompile(`[/\\:*?"<>|]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	headingRe  = regexp.MustCompile(`^#+\s*`)
	imageRe    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// Registry records the filenames allocated during one conversion run.
type Registry struct {
	taken map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{taken: make(map[string]struct{})}
}

// Taken reports whether name was already allocated.
func (r *Registry) Taken(name string) bool {
	_, ok := r.taken[name]
	return ok
}

// Len returns the number of allocated names.
func (r *Registry) Len() int { return len(r.taken) }

func (r *Registry) claim(name string) string {
	r.taken[name] = struct{}{}
	return name
}

// Derive allocates the filename for e and records it in r.
//
// The name is "<date> <title>.md". A clash appends the first eight
// characters of the identifier, and further clashes append a counter after
// that fragment.
func Derive(e *dayone.Entry, r *Registry) string {
	base := DatePrefix(e) + " " + Title(e.Body(), e.UUID)

	name := base + ".md"
	if !r.Taken(name) {
		return r.claim(name)
	}

	frag := Sanitize(idFragment(e.UUID))
	if frag == "" {
		frag = "dup"
	}
	name = fmt.Sprintf("%s (%s).md", base, frag)
	for n := 2; r.Taken(name); n++ {
		name = fmt.Sprintf("%s (%s %d).md", base, frag, n)
	}
	return r.claim(name)
}

// DatePrefix returns YYYY-MM-DD of the creation instant, in the offset the
// timestamp was written with. Unparseable creation dates fall back to the
// modification date, then to "undated".
func DatePrefix(e *dayone.Entry) string {
	for _, raw := range []string{e.CreationDate, e.ModifiedDate} {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.Format(time.DateOnly)
		}
	}
	return undated
}

// Title picks the title for a body: a leading level-one heading, else the
// first line that still has text once image markers are removed, else the
// identifier fragment.
func Title(body, id string) string {
	if t := Sanitize(titleLine(body)); t != "" {
		return t
	}
	if t := Sanitize(idFragment(id)); t != "" {
		return t
	}
	return "untitled"
}

func titleLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\u200b", ""))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return normalize.Unescape(strings.TrimSpace(line[2:]))
		}
		line = imageRe.ReplaceAllString(normalize.Unescape(line), "")
		line = headingRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Sanitize makes a title safe for use in a filename.
func Sanitize(title string) string {
	t := reservedRe.ReplaceAllString(title, "-")
	t = strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
	if utf8.RuneCountInString(t) > MaxTitleRunes {
		t = strings.TrimSpace(string([]rune(t)[:MaxTitleRunes]))
	}
	return t
}

func idFragment(id string) string {
	if utf8.RuneCountInString(id) <= 8 {
		return id
	}
	return string([]rune(id)[:8])
}
