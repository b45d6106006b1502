// Package normalize maps raw journal entries to vault frontmatter and Markdown.
package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/starford/dayvault/internal/dayone"
)

// Converted is the vault form of one journal entry.
type Converted struct {
	Frontmatter *Frontmatter
	Body        string
	// Missing holds identifiers of embeds that could not be resolved.
	Missing []string
}

// MediaRef points at an attachment file in the vault.
type MediaRef struct {
	Hash string
	Ext  string
}

// Filename is the attachment basename, hash.ext.
func (r MediaRef) Filename() string {
	return r.Hash + "." + r.Ext
}

// MediaIndex maps media kind → identifier → attachment. Identifiers are
// only unique inside one entry, so an index never outlives its entry.
type MediaIndex map[string]map[string]MediaRef

var defaultExt = map[string]string{
	KindPhoto: "jpeg",
	KindVideo: "mov",
	KindAudio: "m4a",
	KindPDF:   "pdf",
}

// NewMediaIndex indexes the attachments listed on e.
func NewMediaIndex(e *dayone.Entry) MediaIndex {
	idx := make(MediaIndex)
	for _, p := range e.Photos {
		idx.add(KindPhoto, p.Identifier, p.MD5, p.Type)
	}
	for _, m := range e.Videos {
		idx.add(KindVideo, m.Identifier, m.MD5, m.Type)
	}
	for _, m := range e.Audios {
		idx.add(KindAudio, m.Identifier, m.MD5, m.Type)
	}
	for _, m := range e.PDFAttachments {
		idx.add(KindPDF, m.Identifier, m.MD5, m.Type)
	}
	return idx
}

func (idx MediaIndex) add(kind, id, hash, ext string) {
	if id == "" || hash == "" {
		return
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = defaultExt[kind]
	}
	if idx[kind] == nil {
		idx[kind] = make(map[string]MediaRef)
	}
	idx[kind][id] = MediaRef{Hash: hash, Ext: ext}
}

// Lookup resolves an identifier of the given kind.
func (idx MediaIndex) Lookup(kind, id string) (MediaRef, bool) {
	ref, ok := idx[kind][id]
	return ref, ok
}

// Normalize converts one entry. It never fails: absent fields are simply
// left out of the frontmatter.
func Normalize(e *dayone.Entry) *Converted {
	body := NormalizeBody(e.Body(), NewMediaIndex(e))
	return &Converted{
		Frontmatter: buildFrontmatter(e),
		Body:        body.Text,
		Missing:     body.Missing,
	}
}

func buildFrontmatter(e *dayone.Entry) *Frontmatter {
	fm := NewFrontmatter().
		Set("uuid", e.UUID).
		Set("created", Timestamp(e.CreationDate)).
		Set("modified", Timestamp(e.ModifiedDate)).
		Set("timezone", e.TimeZone).
		Set("tags", NormalizeTags(e.Tags)).
		Set("starred", e.Starred).
		Set("pinned", e.IsPinned).
		Set("all_day", e.IsAllDay)

	if secs, ok := editingSeconds(e.EditingTime); ok {
		fm.Set("editing_time", secs)
	}

	if l := e.Location; l != nil {
		fm.Set("location", NewFrontmatter().
			Set("place_name", l.PlaceName).
			Set("locality", l.LocalityName).
			Set("administrative_area", l.AdministrativeArea).
			Set("country", l.Country).
			Set("latitude", l.Latitude).
			Set("longitude", l.Longitude))
	}

	if w := e.Weather; w != nil {
		fm.Set("weather", NewFrontmatter().
			Set("conditions", w.ConditionsDescription).
			Set("temperature_c", w.TemperatureCelsius).
			Set("weather_code", w.WeatherCode).
			Set("wind_speed_kph", w.WindSpeedKPH).
			Set("relative_humidity", w.RelativeHumidity).
			Set("pressure_mb", w.PressureMB).
			Set("visibility_km", w.VisibilityKM).
			Set("moon_phase", w.MoonPhase).
			Set("sunrise", Timestamp(w.SunriseDate)).
			Set("sunset", Timestamp(w.SunsetDate)).
			Set("service", w.WeatherServiceName))
	}

	fm.Set("device", NewFrontmatter().
		Set("name", e.CreationDevice).
		Set("type", e.CreationDeviceType).
		Set("model", e.CreationDeviceModel).
		Set("os_name", e.CreationOSName).
		Set("os_version", e.CreationOSVersion))

	if a := e.UserActivity; a != nil {
		fm.Set("activity", NewFrontmatter().
			Set("name", a.ActivityName).
			Set("step_count", a.StepCount))
	}

	photos := make([]*Frontmatter, 0, len(e.Photos))
	for _, p := range e.Photos {
		photos = append(photos, NewFrontmatter().
			Set("identifier", p.Identifier).
			Set("md5", p.MD5).
			Set("type", p.Type).
			Set("camera_make", p.CameraMake).
			Set("camera_model", p.CameraModel).
			Set("lens_make", p.LensMake).
			Set("lens_model", p.LensModel).
			Set("date", Timestamp(p.Date)).
			Set("width", p.Width).
			Set("height", p.Height).
			Set("fnumber", number(p.FNumber)).
			Set("focal_length", number(p.FocalLength)).
			Set("iso", number(p.ISOSpeed)).
			Set("exposure_bias", number(p.ExposureBiasValue)))
	}
	fm.Set("photos", photos)

	return fm
}

func number(n dayone.Number) *float64 {
	f, ok := n.Float64()
	if !ok {
		return nil
	}
	return &f
}

// editingSeconds rounds the editing duration to whole seconds. Zero and
// negative durations carry no information and are dropped.
func editingSeconds(d *float64) (int, bool) {
	if d == nil {
		return 0, false
	}
	secs := math.Round(*d)
	if secs <= 0 || math.IsNaN(secs) {
		return 0, false
	}
	return int(secs), true
}

var (
	tagSpaceRe   = regexp.MustCompile(`\s+`)
	tagInvalidRe = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
)

// NormalizeTag lower-cases a tag, turns whitespace runs into a hyphen and
// strips every character that is not a word character or a hyphen.
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = tagSpaceRe.ReplaceAllString(t, "-")
	return tagInvalidRe.ReplaceAllString(t, "")
}

// NormalizeTags normalizes every tag, dropping empty results and repeats.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, raw := range tags {
		t := NormalizeTag(raw)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
