// internal/domain/exercise.go
package domain

import "strings"

// CustomIDPrefix marks the provenance of user-authored exercise ids.
const CustomIDPrefix = "custom_"

// EquipmentBucket is the closed set of equipment categories used for filtering.
type EquipmentBucket string

const (
	EquipmentAll        EquipmentBucket = "all"
	EquipmentBarbell    EquipmentBucket = "barbell"
	EquipmentDumbbell   EquipmentBucket = "dumbbell"
	EquipmentKettlebell EquipmentBucket = "kettlebell"
	EquipmentCable      EquipmentBucket = "cable"
	EquipmentMachine    EquipmentBucket = "machine"
	EquipmentBodyweight EquipmentBucket = "bodyweight"
	EquipmentBands      EquipmentBucket = "bands"
	EquipmentOther      EquipmentBucket = "other"
)

// MovementBucket is the closed set of movement patterns used for filtering.
type MovementBucket string

const (
	MovementAll    MovementBucket = "all"
	MovementPush   MovementBucket = "push"
	MovementPull   MovementBucket = "pull"
	MovementHinge  MovementBucket = "hinge"
	MovementSquat  MovementBucket = "squat"
	MovementLunge  MovementBucket = "lunge"
	MovementCarry  MovementBucket = "carry"
	MovementCore   MovementBucket = "core"
	MovementCardio MovementBucket = "cardio"
	MovementOther  MovementBucket = "other"
)

var equipmentBuckets = map[EquipmentBucket]bool{
	EquipmentAll: true, EquipmentBarbell: true, EquipmentDumbbell: true, EquipmentKettlebell: true,
	EquipmentCable: true, EquipmentMachine: true, EquipmentBodyweight: true, EquipmentBands: true,
	EquipmentOther: true,
}

var movementBuckets = map[MovementBucket]bool{
	MovementAll: true, MovementPush: true, MovementPull: true, MovementHinge: true,
	MovementSquat: true, MovementLunge: true, MovementCarry: true, MovementCore: true,
	MovementCardio: true, MovementOther: true,
}

// Valid reports whether b is a known equipment bucket.
func (b EquipmentBucket) Valid() bool { return equipmentBuckets[b] }

// Valid reports whether b is a known movement bucket.
func (b MovementBucket) Valid() bool { return movementBuckets[b] }

// Mechanic is an optional compound/isolation tag.
type Mechanic string

const (
	MechanicNone      Mechanic = ""
	MechanicCompound  Mechanic = "compound"
	MechanicIsolation Mechanic = "isolation"
)

// Media links an exercise to its demo video.
type Media struct {
	YouTubeID string `json:"youtubeId,omitempty" bson:"youtubeId,omitempty"`
	URL       string `json:"url,omitempty" bson:"url,omitempty"`
}

// Exercise is a single catalog record. Values are never edited in place;
// a change is always a full replacement keyed by ID.
type Exercise struct {
	ID               string          `json:"id" bson:"id"`
	Name             string          `json:"name" bson:"name"`
	PrimaryMuscles   []string        `json:"primaryMuscles" bson:"primaryMuscles"`
	SecondaryMuscles []string        `json:"secondaryMuscles,omitempty" bson:"secondaryMuscles,omitempty"`
	TertiaryMuscles  []string        `json:"tertiaryMuscles,omitempty" bson:"tertiaryMuscles,omitempty"`
	Equipment        EquipmentBucket `json:"equipment" bson:"equipment"`
	Movement         MovementBucket  `json:"movement" bson:"movement"`
	Mechanic         Mechanic        `json:"mechanic,omitempty" bson:"mechanic,omitempty"`
	Level            *int            `json:"level,omitempty" bson:"level,omitempty"` // 1 beginner .. 3 expert
	Force            string          `json:"force,omitempty" bson:"force,omitempty"`
	Category         string          `json:"category,omitempty" bson:"category,omitempty"`
	SubregionTags    []Subregion     `json:"subregionTags,omitempty" bson:"subregionTags,omitempty"`
	IsCustom         bool            `json:"isCustom" bson:"isCustom"`
	Media            *Media          `json:"media,omitempty" bson:"media,omitempty"`
}

// MuscleLabels returns primary, secondary and tertiary labels in that order.
func (e Exercise) MuscleLabels() []string {
	out := make([]string, 0, len(e.PrimaryMuscles)+len(e.SecondaryMuscles)+len(e.TertiaryMuscles))
	out = append(out, e.PrimaryMuscles...)
	out = append(out, e.SecondaryMuscles...)
	return append(out, e.TertiaryMuscles...)
}

// Clone returns a deep copy so callers can never alias slices held by an index.
func (e Exercise) Clone() Exercise {
	c := e
	c.PrimaryMuscles = cloneStrings(e.PrimaryMuscles)
	c.SecondaryMuscles = cloneStrings(e.SecondaryMuscles)
	c.TertiaryMuscles = cloneStrings(e.TertiaryMuscles)
	if e.SubregionTags != nil {
		c.SubregionTags = append([]Subregion(nil), e.SubregionTags...)
	}
	if e.Level != nil {
		lvl := *e.Level
		c.Level = &lvl
	}
	if e.Media != nil {
		m := *e.Media
		c.Media = &m
	}
	return c
}

// HasTag reports whether the record carries subregion tag s.
func (e Exercise) HasTag(s Subregion) bool {
	for _, t := range e.SubregionTags {
		if t == s {
			return true
		}
	}
	return false
}

// LessByName orders records by case-insensitive name, then id.
func LessByName(a, b Exercise) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
