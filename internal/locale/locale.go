// internal/locale/locale.go
//
// Localization service for the UI.
// Responsibilities:
//   - Resolve language codes against the supported set (x/text matcher);
//     anything unknown or unparsable falls back to English.
//   - Translate keys for the current language with English fallback.
//   - Persist the chosen language and notify subscribers on change.
//   - Report text direction (rtl for Arabic and Central Kurdish).

package locale

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	msgcatalog "golang.org/x/text/message/catalog"

	"github.com/robalobadob/pointbattle/internal/prefs"
)

// BaseLanguage is the fallback for unknown codes and missing keys.
const BaseLanguage = "en"

// Language describes one supported UI language.
type Language struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	NativeName  string `json:"nativeName"`
	Flag        string `json:"flag"`
	RightToLeft bool   `json:"rightToLeft"`
}

// Preferences is the subset of the preference store the service needs.
type Preferences interface {
	Get(key, def string) string
	Set(key, value string) error
}

// Service holds the current language and its subscribers.
type Service struct {
	prefs    Preferences
	catalogs []*catalog
	byCode   map[string]*catalog
	matcher  language.Matcher
	builder  *msgcatalog.Builder

	mu      sync.RWMutex
	current *catalog
	printer *message.Printer
	subs    map[int]func(Language)
	nextSub int
}

// New loads the catalogs and applies the language stored in p.
func New(p Preferences) (*Service, error) {
	cats, err := loadCatalogs()
	if err != nil {
		return nil, err
	}

	s := &Service{
		prefs:    p,
		catalogs: cats,
		byCode:   make(map[string]*catalog, len(cats)),
		builder:  msgcatalog.NewBuilder(msgcatalog.Fallback(cats[0].tag)),
		subs:     map[int]func(Language){},
	}
	tags := make([]language.Tag, 0, len(cats))
	for _, c := range cats {
		s.byCode[c.lang.Code] = c
		tags = append(tags, c.tag)
		if err := s.register(c); err != nil {
			return nil, err
		}
	}
	s.matcher = language.NewMatcher(tags)

	s.apply(s.resolve(p.Get(prefs.KeyAppLanguage, BaseLanguage)))
	log.Info().Str("language", s.current.lang.Code).Msg("localization initialized")
	return s, nil
}

// register adds a catalog's messages to the printer catalog.
func (s *Service) register(c *catalog) error {
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.builder.SetString(c.tag, k, c.messages[k]); err != nil {
			return fmt.Errorf("register %s/%s: %w", c.lang.Code, k, err)
		}
	}
	return nil
}

// resolve maps a code to the closest supported catalog, falling back to English.
func (s *Service) resolve(code string) *catalog {
	code = strings.ToLower(strings.TrimSpace(code))
	if c, ok := s.byCode[code]; ok {
		return c
	}
	tag, err := language.Parse(code)
	if err != nil {
		log.Warn().Str("language", code).Msg("unparsable language code, using English")
		return s.catalogs[0]
	}
	_, idx, conf := s.matcher.Match(tag)
	if conf == language.No {
		log.Warn().Str("language", code).Msg("unsupported language, using English")
		return s.catalogs[0]
	}
	return s.catalogs[idx]
}

func (s *Service) apply(c *catalog) {
	s.mu.Lock()
	s.current = c
	s.printer = message.NewPrinter(c.tag, message.Catalog(s.builder))
	s.mu.Unlock()
}

// Current returns the active language.
func (s *Service) Current() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.lang
}

// IsRightToLeft reports whether the active language is written right to left.
func (s *Service) IsRightToLeft() bool { return s.Current().RightToLeft }

// Direction returns "rtl" or "ltr" for the active language.
func (s *Service) Direction() string {
	if s.IsRightToLeft() {
		return "rtl"
	}
	return "ltr"
}

// SupportedLanguages lists every language with a catalog, English first.
func (s *Service) SupportedLanguages() []Language {
	out := make([]Language, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		out = append(out, c.lang)
	}
	return out
}

// SetLanguage persists, applies and announces a new language.
// Unknown codes resolve to English. Setting the active language again is a
// no-op. A persistence failure is logged; the language still changes for
// this launch.
func (s *Service) SetLanguage(code string) Language {
	next := s.resolve(code)

	s.mu.RLock()
	same := s.current == next
	s.mu.RUnlock()
	if same {
		return next.lang
	}

	if err := s.prefs.Set(prefs.KeyAppLanguage, next.lang.Code); err != nil {
		log.Error().Err(err).Str("language", next.lang.Code).Msg("persist language failed")
	}
	s.apply(next)
	log.Info().Str("language", next.lang.Code).Str("direction", s.Direction()).Msg("language changed")
	s.notify(next.lang)
	return next.lang
}

// T returns the message for key in the active language, then English,
// then "[key]".
func (s *Service) T(key string) string {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if v, ok := cur.messages[key]; ok {
		return v
	}
	if v, ok := s.catalogs[0].messages[key]; ok {
		return v
	}
	return "[" + key + "]"
}

// Format renders a message with arguments, e.g. Format("recovery.progress", 3, 8, 450, 300).
// Missing keys render as "[key]".
func (s *Service) Format(key string, args ...any) string {
	if _, ok := s.catalogs[0].messages[key]; !ok {
		s.mu.RLock()
		_, ok = s.current.messages[key]
		s.mu.RUnlock()
		if !ok {
			return "[" + key + "]"
		}
	}
	s.mu.RLock()
	p := s.printer
	s.mu.RUnlock()
	return p.Sprintf(key, args...)
}

// Messages returns the full message map for the active language with
// English filling any gaps.
func (s *Service) Messages() map[string]string {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	out := make(map[string]string, len(s.catalogs[0].messages))
	for k, v := range s.catalogs[0].messages {
		out[k] = v
	}
	for k, v := range cur.messages {
		out[k] = v
	}
	return out
}

// Subscribe registers fn to run after every language change.
// The returned func removes the subscription.
func (s *Service) Subscribe(fn func(Language)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// notify calls subscribers outside the lock in subscription order.
func (s *Service) notify(lang Language) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Language), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(lang)
	}
}
