package dayone

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/testutil"
)

func load(t *testing.T, p string) (*Journal, error) {
	t.Helper()
	b, err := Open(p)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = b.Close() })
	return b.Load()
}

func TestLoad_DirectoryTopLevel(t *testing.T) {
	dir := testutil.ExportDir(t, map[string]string{
		"Journal.json": testutil.Journal(t,
			map[string]any{"uuid": "A1", "creationDate": "2024-01-15T10:00:00Z", "text": "one"},
			map[string]any{"uuid": "A2", "creationDate": "2024-01-16T10:00:00Z"},
		),
		"nested/Other.json": testutil.Journal(t, map[string]any{"uuid": "IGNORED"}),
	})

	j, err := load(t, dir)
	require.NoError(t, err)
	require.Len(t, j.Entries, 2)
	assert.Equal(t, "A1", j.Entries[0].UUID)
	assert.Equal(t, "one", j.Entries[0].Body())
	assert.Equal(t, "", j.Entries[1].Body())
	assert.Equal(t, []string{"Journal.json"}, j.Documents)
	assert.Equal(t, []string{"."}, j.Roots)
	assert.Empty(t, j.Problems)
}

func TestLoad_RecursiveFallbackConcatenates(t *testing.T) {
	dir := testutil.ExportDir(t, map[string]string{
		"b/Travel.json":   testutil.Journal(t, map[string]any{"uuid": "B1"}),
		"a/Journal.json":  testutil.Journal(t, map[string]any{"uuid": "A1"}, map[string]any{"uuid": "A2"}),
		"a/photos/x.jpeg": "jpeg",
		".hidden/x.json":  testutil.Journal(t, map[string]any{"uuid": "H"}),
	})

	j, err := load(t, dir)
	require.NoError(t, err)
	ids := make([]string, 0, len(j.Entries))
	for _, e := range j.Entries {
		ids = append(ids, e.UUID)
	}
	assert.Equal(t, []string{"A1", "A2", "B1"}, ids)
	assert.Equal(t, []string{"a", "b"}, j.Roots)
}

func TestLoad_Zip(t *testing.T) {
	zipPath := testutil.ExportZip(t, map[string]string{
		"Journal.json":            testutil.Journal(t, map[string]any{"uuid": "Z1", "text": "zipped"}),
		"photos/abc.jpeg":         "img",
		"__MACOSX/._Journal.json": "garbage",
	})

	b, err := Open(zipPath)
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.IsArchive())

	j, err := b.Load()
	require.NoError(t, err)
	require.Len(t, j.Entries, 1)
	assert.Equal(t, "zipped", j.Entries[0].Body())
}

func TestLoad_NoDocumentIsMalformed(t *testing.T) {
	dir := testutil.ExportDir(t, map[string]string{"photos/a.jpeg": "x"})
	_, err := load(t, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMalformedInput))
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
	assert.ErrorIs(t, err, apperr.ErrMalformedInput)
}

func TestOpen_NotAZip(t *testing.T) {
	dir := testutil.ExportDir(t, map[string]string{"export.zip": "not really a zip"})
	_, err := Open(filepath.Join(dir, "export.zip"))
	assert.ErrorIs(t, err, apperr.ErrMalformedInput)
}

func TestLoad_BrokenDocumentIsNotFatal(t *testing.T) {
	dir := testutil.ExportDir(t, map[string]string{
		"a/Broken.json":  "{not json",
		"b/NoList.json":  `{"metadata": {}}`,
		"c/Empty.json":   `{"entries": []}`,
		"d/Journal.json": testutil.Journal(t, map[string]any{"uuid": "D1"}),
	})

	j, err := load(t, dir)
	require.NoError(t, err)
	require.Len(t, j.Entries, 1)
	assert.Equal(t, "D1", j.Entries[0].UUID)
	require.Len(t, j.Problems, 2)

	var pe *ParseError
	require.True(t, errors.As(j.Problems[0], &pe))
	assert.Equal(t, "a/Broken.json", pe.Document)
	assert.ErrorIs(t, j.Problems[1], apperr.ErrParse)
	assert.ErrorIs(t, j.Problems[1], errNoEntries)
}

func TestEntry_DecodesOptionalFields(t *testing.T) {
	raw := `{
		"uuid": "U",
		"editingTime": 12.6,
		"location": {"placeName": "Home", "latitude": 0},
		"weather": {"temperatureCelsius": -3.5},
		"userActivity": {"activityName": "Walking", "stepCount": 1200},
		"photos": [{"identifier": "P", "md5": "h", "fnumber": "1.8", "isoSpeed": 50, "focalLength": ""}]
	}`
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	require.NotNil(t, e.EditingTime)
	assert.InDelta(t, 12.6, *e.EditingTime, 1e-9)
	require.NotNil(t, e.Location.Latitude)
	assert.Zero(t, *e.Location.Latitude)
	assert.Nil(t, e.Location.Longitude)
	assert.Equal(t, 1200, *e.UserActivity.StepCount)

	f, ok := e.Photos[0].FNumber.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 1.8, f, 1e-9)
	iso, ok := e.Photos[0].ISOSpeed.Float64()
	assert.True(t, ok)
	assert.Equal(t, 50.0, iso)
	_, ok = e.Photos[0].FocalLength.Float64()
	assert.False(t, ok)
	_, ok = e.Photos[0].ExposureBiasValue.Float64()
	assert.False(t, ok)
}
