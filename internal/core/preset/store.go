package preset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ocfkit/ocf/internal/core/binding"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/tween"
	"github.com/ocfkit/ocf/internal/core/value"
)

// saveAsLayout names presets saved without an explicit name.
const saveAsLayout = "02-01-2006_15-04-05"

// Target is the controllable a store reads from and writes to.
type Target interface {
	ID() string
	// PresetAttributes returns the attributes to persist, in declaration order.
	PresetAttributes() []*binding.Attribute
	Attribute(name string) (*binding.Attribute, bool)
	// Write applies raw values through the normal dispatch write path.
	Write(a *binding.Attribute, raw []value.Value)
}

// Dir returns the preset directory of a controllable: <root>/<folder|scene>/<id>.
func Dir(root, folder, scene, id string) string {
	group := folder
	if group == "" {
		group = scene
	}
	return filepath.Join(root, group, id)
}

type Store struct {
	dir       string
	target    Target
	scheduler *tween.Scheduler
	logger    log.Log
	clock     func() time.Time

	current string
	list    []string

	onLoaded      func(name string)
	onListChanged func(list []string)
}

type Option func(*Store)

// WithScheduler enables tweened loads.
func WithScheduler(s *tween.Scheduler) Option {
	return func(st *Store) { st.scheduler = s }
}

func WithLogger(l log.Log) Option {
	return func(st *Store) { st.logger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(st *Store) { st.clock = clock }
}

// WithOnLoaded registers the hook fired once a load, tweens included, has
// completed.
func WithOnLoaded(fn func(name string)) Option {
	return func(st *Store) { st.onLoaded = fn }
}

// WithOnListChanged registers the hook fired after every Refresh.
func WithOnListChanged(fn func(list []string)) Option {
	return func(st *Store) { st.onListChanged = fn }
}

func NewStore(dir string, target Target, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		target: target,
		logger: log.Nop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.String("component", "preset"), log.String("id", target.ID()))
	return s
}

func (s *Store) Dir() string { return s.dir }

// Current returns the selected preset name, empty when none is selected.
func (s *Store) Current() string { return s.current }

// SetCurrent selects a preset without loading it.
func (s *Store) SetCurrent(name string) { s.current = name }

// List returns the presets found by the last Refresh.
func (s *Store) List() []string {
	return slices.Clone(s.list)
}

// Refresh re-reads the preset directory, creating it when missing. Names are
// kept in directory enumeration order.
func (s *Store) Refresh() ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("Failed to create preset directory", log.String("dir", s.dir), log.Error(err))
		return nil, err
	}
	list, err := ListDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to list preset directory", log.String("dir", s.dir), log.Error(err))
		return nil, err
	}
	s.list = list

	if s.onListChanged != nil {
		s.onListChanged(s.List())
	}
	return s.List(), nil
}

// ListDir returns the preset files in dir, in enumeration order, without
// creating it. A missing directory holds no presets.
func ListDir(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer d.Close()

	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == MarkerName || filepath.Ext(e.Name()) != Extension {
			continue
		}
		list = append(list, e.Name())
	}
	return list, nil
}

// Save writes the preset-enabled attributes to name and selects it.
func (s *Store) Save(name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}

	f := File{DataID: s.target.ID()}
	for _, a := range s.target.PresetAttributes() {
		f.Add(a.Name, a.Value().String())
	}
	data, err := Encode(f)
	if err != nil {
		return fmt.Errorf("encode preset %q: %w", name, err)
	}

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("Failed to create preset directory", log.String("dir", s.dir), log.Error(err))
		return err
	}
	path := filepath.Join(s.dir, name)
	if err = os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("Failed to write preset", log.String("path", path), log.Error(err))
		return fmt.Errorf("write preset %q: %w", name, err)
	}
	s.logger.Debug("Preset saved", log.String("path", path), log.Int("attributes", len(f.NameList)))

	s.current = name
	_, _ = s.Refresh()
	return nil
}

// SaveAs saves under a name derived from the current local time.
func (s *Store) SaveAs() (string, error) {
	name := s.clock().Format(saveAsLayout) + Extension
	return name, s.Save(name)
}

// Load applies the preset name. With a positive duration and a tween style,
// interpolable attributes are eased from their current value; everything else
// is written immediately. A failed read leaves the current preset unchanged.
func (s *Store) Load(name string, duration time.Duration, style string) error {
	name, err := normalize(name)
	if err != nil {
		s.logger.Error("Failed to load preset", log.String("preset", name), log.Error(err))
		return err
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrPresetNotFound, path)
		}
		s.logger.Error("Failed to load preset", log.String("path", path), log.Error(err))
		return err
	}
	f, err := Decode(data)
	if err != nil {
		s.logger.Error("Failed to load preset", log.String("path", path), log.Error(err))
		return err
	}

	st, err := tween.ParseStyle(style)
	if err != nil {
		s.logger.Warn("Unknown tween style, applying immediately", log.String("style", style))
	}

	s.logger.Debug("Loading preset",
		log.String("preset", name),
		log.Float64("seconds", duration.Seconds()),
		log.String("style", st.String()))

	s.apply(f, duration, st)
	s.current = name
	s.complete(name, duration)
	return nil
}

// LoadLastUsed loads the preset recorded in the marker file. It reports
// whether a marker was found.
func (s *Store) LoadLastUsed() (bool, error) {
	name, ok := s.ReadMarker()
	if !ok {
		return false, nil
	}
	s.logger.Debug("Last used preset", log.String("preset", name))
	return true, s.Load(name, 0, "")
}

// WriteMarker records the current preset. Nothing is written when no preset
// is selected.
func (s *Store) WriteMarker() error {
	if s.current == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, MarkerName), []byte(s.current), 0o644); err != nil {
		s.logger.Warn("Failed to write last used preset", log.Error(err))
		return err
	}
	return nil
}

// ReadMarker returns the preset recorded in the marker file. A missing or
// empty marker means there is no last preset.
func (s *Store) ReadMarker() (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, MarkerName))
	if err != nil {
		return "", false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return "", false
	}
	name := strings.TrimSpace(sc.Text())
	return name, name != ""
}

func (s *Store) apply(f File, duration time.Duration, st tween.Style) {
	if len(f.NameList) != len(f.ValueList) {
		s.logger.Warn("Preset name and value lists differ in length",
			log.Int("names", len(f.NameList)),
			log.Int("values", len(f.ValueList)))
	}

	tweened := duration > 0 && st != tween.None && s.scheduler != nil
	for i, name := range f.NameList {
		if i >= len(f.ValueList) {
			break
		}
		a, ok := s.target.Attribute(name)
		if !ok {
			s.logger.Debug("Preset attribute not exposed, skipping", log.String("attribute", name))
			continue
		}

		end := value.Parse(f.ValueList[i], a.Kind)
		if !tweened || !a.Kind.Interpolable() {
			s.target.Write(a, []value.Value{end})
			continue
		}

		attr := a
		s.scheduler.Start(tween.NewValueTask(s.target.ID(), a.Value(), end, duration, st, func(v value.Value) {
			s.target.Write(attr, []value.Value{v})
		}))
	}
}

func (s *Store) complete(name string, duration time.Duration) {
	done := func() {
		s.logger.Debug("Preset loaded", log.String("preset", name))
		if s.onLoaded != nil {
			s.onLoaded(name)
		}
	}
	if duration <= 0 || s.scheduler == nil {
		done()
		return
	}
	s.scheduler.Start(tween.NewWait(s.target.ID(), duration, done))
}

func normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return name, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	if name == MarkerName {
		return name, fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return name, nil
}
