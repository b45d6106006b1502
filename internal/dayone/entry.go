// Package dayone decodes journal export bundles into raw entry records.
package dayone

import (
	"strconv"
	"strings"
)

// Document is the top level of a journal JSON export.
type Document struct {
	Entries *[]Entry `json:"entries"`
}

// Entry is one journal record exactly as exported. Optional numbers are
// pointers so that an absent field can be told apart from zero.
type Entry struct {
	UUID         string   `json:"uuid"`
	CreationDate string   `json:"creationDate"`
	ModifiedDate string   `json:"modifiedDate"`
	Text         *string  `json:"text"`
	TimeZone     string   `json:"timeZone"`
	Tags         []string `json:"tags"`
	Starred      bool     `json:"starred"`
	IsPinned     bool     `json:"isPinned"`
	IsAllDay     bool     `json:"isAllDay"`
	EditingTime  *float64 `json:"editingTime"`

	CreationDevice      string `json:"creationDevice"`
	CreationDeviceType  string `json:"creationDeviceType"`
	CreationDeviceModel string `json:"creationDeviceModel"`
	CreationOSName      string `json:"creationOSName"`
	CreationOSVersion   string `json:"creationOSVersion"`

	Location     *Location     `json:"location"`
	Weather      *Weather      `json:"weather"`
	UserActivity *UserActivity `json:"userActivity"`

	Photos         []Photo `json:"photos"`
	Videos         []Media `json:"videos"`
	Audios         []Media `json:"audios"`
	PDFAttachments []Media `json:"pdfAttachments"`
}

// Body returns the entry text, or "" when the export omitted it.
func (e *Entry) Body() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}

// Location is where the entry was written.
type Location struct {
	PlaceName          string   `json:"placeName"`
	LocalityName       string   `json:"localityName"`
	AdministrativeArea string   `json:"administrativeArea"`
	Country            string   `json:"country"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

// Weather is the conditions recorded alongside the entry.
type Weather struct {
	ConditionsDescription string   `json:"conditionsDescription"`
	TemperatureCelsius    *float64 `json:"temperatureCelsius"`
	WeatherCode           string   `json:"weatherCode"`
	WindSpeedKPH          *float64 `json:"windSpeedKPH"`
	RelativeHumidity      *float64 `json:"relativeHumidity"`
	PressureMB            *float64 `json:"pressureMB"`
	VisibilityKM          *float64 `json:"visibilityKM"`
	MoonPhase             *float64 `json:"moonPhase"`
	SunriseDate           string   `json:"sunriseDate"`
	SunsetDate            string   `json:"sunsetDate"`
	WeatherServiceName    string   `json:"weatherServiceName"`
}

// UserActivity is the motion activity captured by the device.
type UserActivity struct {
	ActivityName string `json:"activityName"`
	StepCount    *int   `json:"stepCount"`
}

// Photo is an image attached to an entry. Exposure values show up as
// numbers or numeric strings depending on the exporting client.
type Photo struct {
	Identifier        string `json:"identifier"`
	MD5               string `json:"md5"`
	Type              string `json:"type"`
	CameraMake        string `json:"cameraMake"`
	CameraModel       string `json:"cameraModel"`
	LensMake          string `json:"lensMake"`
	LensModel         string `json:"lensModel"`
	Date              string `json:"date"`
	Width             *int   `json:"width"`
	Height            *int   `json:"height"`
	FNumber           Number `json:"fnumber"`
	FocalLength       Number `json:"focalLength"`
	ISOSpeed          Number `json:"isoSpeed"`
	ExposureBiasValue Number `json:"exposureBiasValue"`
}

// Media is a video, audio recording or PDF attached to an entry.
type Media struct {
	Identifier string   `json:"identifier"`
	MD5        string   `json:"md5"`
	Type       string   `json:"type"`
	Date       string   `json:"date"`
	Duration   *float64 `json:"duration"`
}

// Number is a numeric metadata value. Clients export these either as JSON
// numbers or as numeric strings; anything non-numeric decodes as empty.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		*n = ""
		return nil
	}
	*n = Number(s)
	return nil
}

// Float64 returns the value and whether one was present.
func (n Number) Float64() (float64, bool) {
	if n == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
