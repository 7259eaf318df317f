// Package classify decides which relations describe administrative areas
// and turns them into model.Area values.
package classify

import (
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/admin-areas/internal/idset"
	"github.com/sells-group/admin-areas/internal/model"
)

// Member roles that carry ring segments.
const (
	RoleInner = "inner"
	RoleOuter = "outer"
)

// Classifier is the pluggable area strategy used by the importer.
type Classifier interface {
	// IsValid reports whether the relation tags describe an area of interest.
	IsValid(tags osm.Tags) bool
	// ToArea builds the area for a relation accepted by IsValid, pushing
	// every inner and outer segment id onto the matching sink. It returns
	// false when the relation cannot be turned into an area.
	ToArea(rel *osm.Relation, inner, outer idset.Sink[osm.WayID]) (*model.Area, bool)
}

// Policy configures an Admin classifier.
type Policy struct {
	NameKeys []string // Tried in order; the first present key wins.
	MaxLevel uint8    // Highest admin_level kept; 0 keeps every level.
}

// Admin classifies boundary=administrative relations.
type Admin struct {
	policy Policy
	log    *zap.Logger
}

var _ Classifier = (*Admin)(nil)

// New returns a classifier for the given policy. An empty NameKeys list
// falls back to the plain name tag.
func New(p Policy) *Admin {
	if len(p.NameKeys) == 0 {
		p.NameKeys = []string{"name"}
	}
	return &Admin{
		policy: p,
		log:    zap.L().With(zap.String("component", "classify")),
	}
}

// Generic keeps every level and uses the plain name tag.
func Generic() *Admin {
	return New(Policy{NameKeys: []string{"name"}})
}

// Localized prefers name:<lang> over name and drops areas above maxLevel.
func Localized(lang string, maxLevel uint8) (*Admin, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: invalid language %q", lang)
	}
	base, _ := tag.Base()
	return New(Policy{
		NameKeys: []string{"name:" + base.String(), "name"},
		MaxLevel: maxLevel,
	}), nil
}

// Policy returns the configured policy.
func (a *Admin) Policy() Policy { return a.policy }

// IsValid implements Classifier.
func (a *Admin) IsValid(tags osm.Tags) bool {
	if tags.Find("boundary") != "administrative" {
		return false
	}
	if !tags.HasTag("admin_level") {
		return false
	}
	if _, ok := a.name(tags); !ok {
		return false
	}
	if a.policy.MaxLevel > 0 {
		if lvl, err := parseLevel(tags.Find("admin_level")); err == nil && lvl > a.policy.MaxLevel {
			return false
		}
	}
	return true
}

// ToArea implements Classifier.
func (a *Admin) ToArea(rel *osm.Relation, inner, outer idset.Sink[osm.WayID]) (*model.Area, bool) {
	log := a.log.With(zap.Int64("relation", int64(rel.ID)))

	raw := rel.Tags.Find("admin_level")
	if raw == "" {
		log.Debug("admin_level tag missing")
		return nil, false
	}
	level, err := parseLevel(raw)
	if err != nil {
		log.Debug("admin_level not parseable", zap.String("admin_level", raw), zap.Error(err))
		return nil, false
	}

	name, ok := a.name(rel.Tags)
	if !ok {
		log.Debug("name missing", zap.Strings("keys", a.policy.NameKeys))
		return nil, false
	}

	area := &model.Area{
		ID:    rel.ID,
		Level: level,
		Name:  norm.NFC.String(name),
	}

	for _, m := range rel.Members {
		var sink idset.Sink[osm.WayID]
		switch m.Role {
		case RoleInner:
			sink = inner
		case RoleOuter:
			sink = outer
		default:
			continue
		}

		if m.Type != osm.TypeWay {
			log.Debug("ignoring non-way ring member",
				zap.String("role", m.Role),
				zap.String("type", string(m.Type)),
				zap.Int64("ref", m.Ref),
			)
			continue
		}

		id := osm.WayID(m.Ref)
		sink.Push(id)
		if m.Role == RoleInner {
			area.Inner = append(area.Inner, id)
		} else {
			area.Outer = append(area.Outer, id)
		}
	}

	return area, true
}

func (a *Admin) name(tags osm.Tags) (string, bool) {
	for _, key := range a.policy.NameKeys {
		if v := strings.TrimSpace(tags.Find(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

func parseLevel(raw string) (uint8, error) {
	lvl, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(lvl), nil
}
