package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// MomentScheme is the URL scheme the journal uses for inline attachments.
const MomentScheme = "dayone-moment"

type rule struct {
	from, to string
}

// unescapeRules undoes the backslash escaping the journal editor applies to
// Markdown punctuation. Applied in order.
var unescapeRules = []rule{
	{`\.`, `.`},
	{`\-`, `-`},
	{`\(`, `(`},
	{`\)`, `)`},
	{`\[`, `[`},
	{`\]`, `]`},
	{`\#`, `#`},
	{`\>`, `>`},
	{`\_`, `_`},
	{`\*`, `*`},
	{"\\`", "`"},
	{`\~`, `~`},
	{`\!`, `!`},
}

// Unescape removes the journal's backslash escapes from text.
func Unescape(text string) string {
	for _, r := range unescapeRules {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}

const zeroWidthSpace = "\u200b"

// momentRe matches ![](dayone-moment://ID) photo markers and the
// ![](dayone-moment:/video/ID) style markers of other media kinds.
var momentRe = regexp.MustCompile(`!\[\]\(` + MomentScheme + `:(?://|/(video|audio|pdfAttachment)/)([0-9A-Fa-f]+)\)`)

// Media kinds, as named in moment markers.
const (
	KindPhoto = "photo"
	KindVideo = "video"
	KindAudio = "audio"
	KindPDF   = "pdfAttachment"
)

// Body is the result of normalizing entry text.
type Body struct {
	Text string
	// Missing lists identifiers whose markers could not be resolved.
	Missing []string
}

// NormalizeBody unescapes text, rewrites moment markers into wiki embeds
// using idx, and strips zero-width spaces, in that order.
func NormalizeBody(text string, idx MediaIndex) Body {
	var missing []string
	out := Unescape(text)
	out = momentRe.ReplaceAllStringFunc(out, func(marker string) string {
		m := momentRe.FindStringSubmatch(marker)
		kind, id := m[1], m[2]
		if kind == "" {
			kind = KindPhoto
		}
		if ref, ok := idx.Lookup(kind, id); ok {
			return "![[" + ref.Filename() + "]]"
		}
		missing = append(missing, id)
		return fmt.Sprintf("<!-- missing %s: %s -->", kindLabel(kind), id)
	})
	out = strings.ReplaceAll(out, zeroWidthSpace, "")
	return Body{Text: out, Missing: missing}
}

func kindLabel(kind string) string {
	if kind == KindPDF {
		return "pdf"
	}
	return kind
}
