package mealplan

import (
	"fmt"
	"time"
)

// SlotClock is a local time of day
type SlotClock struct {
	Hour   int
	Minute int
}

// SlotSchedule maps slots to their canonical local time of day
type SlotSchedule map[MealSlot]SlotClock

var fallbackClock = SlotClock{Hour: 12}

// DefaultSlotSchedule returns the built-in slot times
func DefaultSlotSchedule() SlotSchedule {
	return SlotSchedule{
		SlotBreakfast: {Hour: 7},
		SlotBrunch:    {Hour: 10},
		SlotLunch:     {Hour: 12},
		SlotSnack:     {Hour: 15},
		SlotTeatime:   {Hour: 16},
		SlotDinner:    {Hour: 18},
	}
}

// ParseSlotSchedule overlays "HH:MM" overrides on the default schedule
func ParseSlotSchedule(overrides map[string]string) (SlotSchedule, error) {
	schedule := DefaultSlotSchedule()
	for key, clock := range overrides {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", key, err)
		}
		schedule[NewMealSlot(key)] = SlotClock{Hour: t.Hour(), Minute: t.Minute()}
	}
	return schedule, nil
}

// ClockFor returns the time of day for a slot; unknown slots land at noon
func (s SlotSchedule) ClockFor(slot MealSlot) SlotClock {
	if clock, ok := s[NewMealSlot(string(slot))]; ok {
		return clock
	}
	return fallbackClock
}

// ScheduledRecipeInstance is a recipe placed on a concrete day and slot.
// ScheduledAtUTC is always stored in UTC; use LocalTime for display.
type ScheduledRecipeInstance struct {
	Recipe         ResolvedRecipe `json:"recipe"`
	MealSlot       MealSlot       `json:"meal_slot"`
	DayIndex       int            `json:"day_index"`
	ScheduledAtUTC time.Time      `json:"scheduled_at_utc"`
	OriginalRef    RecipeRef      `json:"original_ref"`
	// GridPosition is the selection-grid cell the recipe was fetched for
	GridPosition *GridPosition `json:"grid_position,omitempty"`
	Substituted  bool          `json:"substituted"`
	Committed    bool          `json:"committed"`
}

// LocalTime converts the stored instant into the client's timezone
func (i ScheduledRecipeInstance) LocalTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return i.ScheduledAtUTC.In(loc)
}

// ResolveInput carries everything the resolver needs for one plan
type ResolveInput struct {
	// Slots in priority order, usually WeeklySelectionGrid.SlotKeys
	Slots []MealSlot
	// Recipes in fetch-issuance order; failed lookups are simply absent
	Recipes []ResolvedRecipe
	// Positions, when set, holds the grid cell of each recipe in Recipes
	Positions []GridPosition
	StartDate time.Time
	Location  *time.Location
}

// Resolver maps resolved recipes onto day/slot positions and timestamps
type Resolver struct {
	schedule SlotSchedule
}

// NewResolver creates a resolver using the given slot times
func NewResolver(schedule SlotSchedule) *Resolver {
	if schedule == nil {
		schedule = DefaultSlotSchedule()
	}
	return &Resolver{schedule: schedule}
}

// Resolve emits one scheduled instance per recipe. The day index advances
// every len(Slots) recipes. Within a day a recipe takes the open slot its
// tags qualify it for; when several qualify, consecutive ambiguous recipes
// alternate between the earliest and the latest candidate; when none
// qualify it takes the first open slot so nothing is dropped.
func (r *Resolver) Resolve(in ResolveInput) ([]ScheduledRecipeInstance, error) {
	if len(in.Recipes) == 0 {
		return nil, nil
	}
	if len(in.Slots) == 0 {
		return nil, ErrNoSlots
	}
	if in.Positions != nil && len(in.Positions) != len(in.Recipes) {
		return nil, fmt.Errorf("%d positions for %d recipes", len(in.Positions), len(in.Recipes))
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	slots := make([]MealSlot, len(in.Slots))
	for i, slot := range in.Slots {
		slots[i] = NewMealSlot(string(slot))
	}
	slotsPerDay := len(slots)
	year, month, day := in.StartDate.Date()

	instances := make([]ScheduledRecipeInstance, 0, len(in.Recipes))
	currentDay := -1
	var filled map[MealSlot]bool
	var takeLater bool

	for position, recipe := range in.Recipes {
		dayIndex := position / slotsPerDay
		if dayIndex != currentDay {
			currentDay = dayIndex
			filled = make(map[MealSlot]bool, slotsPerDay)
			takeLater = false
		}

		var open, candidates []MealSlot
		for _, slot := range slots {
			if filled[slot] {
				continue
			}
			open = append(open, slot)
			if recipe.HasTag(slot) {
				candidates = append(candidates, slot)
			}
		}

		var chosen MealSlot
		switch len(candidates) {
		case 0:
			chosen = open[0]
		case 1:
			chosen = candidates[0]
		default:
			if takeLater {
				chosen = candidates[len(candidates)-1]
			} else {
				chosen = candidates[0]
			}
			takeLater = !takeLater
		}
		filled[chosen] = true

		clock := r.schedule.ClockFor(chosen)
		local := time.Date(year, month, day+dayIndex, clock.Hour, clock.Minute, 0, 0, loc)

		instance := ScheduledRecipeInstance{
			Recipe:         recipe,
			MealSlot:       chosen,
			DayIndex:       dayIndex,
			ScheduledAtUTC: local.UTC(),
			OriginalRef:    recipe.Ref,
		}
		if in.Positions != nil {
			pos := in.Positions[position]
			instance.GridPosition = &pos
		}
		instances = append(instances, instance)
	}

	return instances, nil
}
