package locale

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pointbattle/internal/prefs"
)

// memPrefs is an in-memory Preferences with an optional write failure.
type memPrefs struct {
	values  map[string]string
	failSet bool
}

func newMemPrefs(kv ...string) *memPrefs {
	p := &memPrefs{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		p.values[kv[i]] = kv[i+1]
	}
	return p
}

func (p *memPrefs) Get(key, def string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

func (p *memPrefs) Set(key, value string) error {
	if p.failSet {
		return errors.New("read-only")
	}
	p.values[key] = value
	return nil
}

func TestCatalogsLoad(t *testing.T) {
	cats, err := loadCatalogs()
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "en", cats[0].lang.Code)

	codes := map[string]bool{}
	for _, c := range cats {
		codes[c.lang.Code] = c.lang.RightToLeft
		assert.NotEmpty(t, c.messages["app.title"], c.lang.Code)
	}
	assert.Equal(t, map[string]bool{"en": false, "ckb-iq": true, "ar": true}, codes)
}

func TestParseCatalogRejectsMismatchedLocale(t *testing.T) {
	_, err := parseCatalog("locales/en.yaml", []byte("locale: ar\nmessages:\n  a: b\n"))
	assert.Error(t, err)

	_, err = parseCatalog("locales/en.yaml", []byte("locale: en\n"))
	assert.Error(t, err)
}

func TestNewUsesStoredLanguage(t *testing.T) {
	s, err := New(newMemPrefs(prefs.KeyAppLanguage, "ckb-iq"))
	require.NoError(t, err)
	assert.Equal(t, "ckb-iq", s.Current().Code)
	assert.True(t, s.IsRightToLeft())
	assert.Equal(t, "rtl", s.Direction())
}

func TestDefaultsToEnglish(t *testing.T) {
	s, err := New(newMemPrefs())
	require.NoError(t, err)
	assert.Equal(t, "en", s.Current().Code)
	assert.Equal(t, "ltr", s.Direction())
	assert.Equal(t, "New game", s.T("game.new"))
}

func TestResolveFallsBackToEnglish(t *testing.T) {
	s, err := New(newMemPrefs())
	require.NoError(t, err)

	cases := map[string]string{
		"AR":          "ar",
		"ar-EG":       "ar",
		"fr":          "en",
		"not a tag!!": "en",
		"":            "en",
		"  ckb-IQ  ":  "ckb-iq",
	}
	for in, want := range cases {
		assert.Equal(t, want, s.resolve(in).lang.Code, "input %q", in)
	}
}

func TestTranslationFallbacks(t *testing.T) {
	p := newMemPrefs(prefs.KeyAppLanguage, "ar")
	s, err := New(p)
	require.NoError(t, err)

	assert.NotEqual(t, "Resume", s.T("recovery.resume"))
	assert.Equal(t, "The game could not be saved", s.T("error.save_failed"), "missing key uses English")
	assert.Equal(t, "[no.such.key]", s.T("no.such.key"))

	msgs := s.Messages()
	assert.Equal(t, s.T("recovery.resume"), msgs["recovery.resume"])
	assert.Equal(t, "The maximum number of rounds has been reached", msgs["error.round_limit"])
}

func TestFormat(t *testing.T) {
	s, err := New(newMemPrefs())
	require.NoError(t, err)
	assert.Equal(t, "Round 3/8 - 450:300", s.Format("recovery.progress", 3, 8, 450, 300))
	assert.Equal(t, "[missing]", s.Format("missing"))
}

func TestSetLanguagePersistsAndNotifies(t *testing.T) {
	p := newMemPrefs()
	s, err := New(p)
	require.NoError(t, err)

	var got []Language
	unsubscribe := s.Subscribe(func(l Language) { got = append(got, l) })

	lang := s.SetLanguage("ar")
	assert.Equal(t, "ar", lang.Code)
	assert.Equal(t, "ar", p.values[prefs.KeyAppLanguage])
	assert.Equal(t, "rtl", s.Direction())
	require.Len(t, got, 1)
	assert.True(t, got[0].RightToLeft)

	// Same language again is a no-op.
	s.SetLanguage("ar")
	assert.Len(t, got, 1)

	unsubscribe()
	unsubscribe()
	s.SetLanguage("en")
	assert.Len(t, got, 1)
	assert.Equal(t, "ltr", s.Direction())
}

func TestSetLanguagePersistFailureStillApplies(t *testing.T) {
	p := newMemPrefs()
	p.failSet = true
	s, err := New(p)
	require.NoError(t, err)

	assert.Equal(t, "ckb-iq", s.SetLanguage("ckb-iq").Code)
	assert.Equal(t, "ckb-iq", s.Current().Code)
	assert.Empty(t, p.values)
}

func TestWithFilePreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s, err := New(prefs.Open(path))
	require.NoError(t, err)
	s.SetLanguage("ar")

	again, err := New(prefs.Open(path))
	require.NoError(t, err)
	assert.Equal(t, "ar", again.Current().Code)
}

func TestSupportedLanguagesEnglishFirst(t *testing.T) {
	s, err := New(newMemPrefs())
	require.NoError(t, err)
	langs := s.SupportedLanguages()
	require.Len(t, langs, 3)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "English", langs[0].Name)
}
