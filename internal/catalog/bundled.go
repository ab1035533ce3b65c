package catalog

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

//go:embed data/exercises.json
var embeddedBundled []byte

// EmbeddedBundled returns the dataset compiled into the binary.
func EmbeddedBundled() io.Reader {
	return bytes.NewReader(embeddedBundled)
}

// exerciseDTO is the bundled corpus entry format.
type exerciseDTO struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Force            string   `json:"force"`
	Mechanic         string   `json:"mechanic"`
	Level            string   `json:"level"`
	Equipment        string   `json:"equipment"`
	Movement         string   `json:"movement"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	TertiaryMuscles  []string `json:"tertiaryMuscles"`
	Category         string   `json:"category"`
}

// LoadResult reports how a bundled document decoded.
type LoadResult struct {
	Exercises []domain.Exercise
	Dropped   int
}

// LoadBundled decodes the bundled corpus. Entries that are not objects or
// lack an id or name are dropped and counted. A document that is not a JSON
// array at all yields a *repository.DecodeError.
func LoadBundled(r io.Reader) (LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read bundled corpus: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return LoadResult{}, &repository.DecodeError{Source: "bundled", Err: err}
	}

	res := LoadResult{Exercises: make([]domain.Exercise, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for _, msg := range raw {
		var dto exerciseDTO
		if err := json.Unmarshal(msg, &dto); err != nil {
			res.Dropped++
			continue
		}
		ex, ok := dto.toDomain()
		if !ok || seen[ex.ID] {
			res.Dropped++
			continue
		}
		seen[ex.ID] = true
		res.Exercises = append(res.Exercises, ex)
	}
	return res, nil
}

func (d exerciseDTO) toDomain() (domain.Exercise, bool) {
	id := strings.TrimSpace(d.ID)
	name := strings.TrimSpace(d.Name)
	if id == "" || name == "" {
		return domain.Exercise{}, false
	}

	movement := domain.MovementBucket(strings.ToLower(strings.TrimSpace(d.Movement)))
	if movement == "" || movement == domain.MovementAll || !movement.Valid() {
		movement = MapMovement(d.Force, name, d.Category)
	}

	return domain.Exercise{
		ID:               id,
		Name:             name,
		PrimaryMuscles:   trimAll(d.PrimaryMuscles),
		SecondaryMuscles: trimAll(d.SecondaryMuscles),
		TertiaryMuscles:  trimAll(d.TertiaryMuscles),
		Equipment:        MapEquipment(d.Equipment),
		Movement:         movement,
		Mechanic:         mapMechanic(d.Mechanic),
		Level:            mapLevel(d.Level),
		Force:            strings.ToLower(strings.TrimSpace(d.Force)),
		Category:         strings.TrimSpace(d.Category),
	}, true
}

// MapEquipment folds free-text equipment names into a bucket.
func MapEquipment(s string) domain.EquipmentBucket {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "body only" || s == "bodyweight" || s == "none":
		return domain.EquipmentBodyweight
	case strings.Contains(s, "barbell") || strings.Contains(s, "curl bar") || s == "ez bar":
		return domain.EquipmentBarbell
	case strings.Contains(s, "dumbbell"):
		return domain.EquipmentDumbbell
	case strings.Contains(s, "kettlebell"):
		return domain.EquipmentKettlebell
	case strings.Contains(s, "cable"):
		return domain.EquipmentCable
	case strings.Contains(s, "machine"):
		return domain.EquipmentMachine
	case strings.Contains(s, "band"):
		return domain.EquipmentBands
	default:
		return domain.EquipmentOther
	}
}

// MapMovement derives a movement bucket from force, name and category.
// Name patterns win over force so that a squat is a squat even though the
// dataset calls it a push.
func MapMovement(force, name, category string) domain.MovementBucket {
	n := strings.ToLower(name)
	c := strings.ToLower(category)
	switch {
	case c == "cardio":
		return domain.MovementCardio
	case containsAny(n, "lunge", "split squat", "step-up", "step up"):
		return domain.MovementLunge
	case strings.Contains(n, "squat") || strings.Contains(n, "leg press"):
		return domain.MovementSquat
	case containsAny(n, "deadlift", "good morning", "hip thrust", "swing", "hyperextension"):
		return domain.MovementHinge
	case containsAny(n, "carry", "farmer", "walk"):
		return domain.MovementCarry
	case containsAny(n, "plank", "crunch", "sit-up", "leg raise", "twist", "rollout"):
		return domain.MovementCore
	}
	switch strings.ToLower(strings.TrimSpace(force)) {
	case "push":
		return domain.MovementPush
	case "pull":
		return domain.MovementPull
	default:
		return domain.MovementOther
	}
}

func mapMechanic(s string) domain.Mechanic {
	switch domain.Mechanic(strings.ToLower(strings.TrimSpace(s))) {
	case domain.MechanicCompound:
		return domain.MechanicCompound
	case domain.MechanicIsolation:
		return domain.MechanicIsolation
	default:
		return domain.MechanicNone
	}
}

func mapLevel(s string) *int {
	var lvl int
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		lvl = 1
	case "intermediate":
		lvl = 2
	case "expert", "advanced":
		lvl = 3
	default:
		return nil
	}
	return &lvl
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
