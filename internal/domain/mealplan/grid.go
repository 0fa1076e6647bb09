package mealplan

// SectionAssignment is one day/slot cell of the selection grid. A substitution
// is recorded in AssignedOverrideRef without losing the original RecipeRef.
type SectionAssignment struct {
	RecipeRef           RecipeRef `json:"recipe_ref"`
	AssignedOverrideRef RecipeRef `json:"assigned_override_ref,omitempty"`
}

// Visible returns the reference shown to clients: the override when set
func (a SectionAssignment) Visible() RecipeRef {
	if a.AssignedOverrideRef != "" {
		return a.AssignedOverrideRef
	}
	return a.RecipeRef
}

// IsOverridden reports whether a substitution has been patched into the cell
func (a SectionAssignment) IsOverridden() bool {
	return a.AssignedOverrideRef != ""
}

// Section binds a slot to its assignment. Key keeps the provider's spelling.
type Section struct {
	Key        string            `json:"key"`
	Slot       MealSlot          `json:"slot"`
	Assignment SectionAssignment `json:"assignment"`
}

// DaySelection holds one day's sections in provider order
type DaySelection struct {
	Sections []Section `json:"sections"`
}

// Get returns the assignment for a slot
func (d DaySelection) Get(slot MealSlot) (SectionAssignment, bool) {
	slot = NewMealSlot(string(slot))
	for _, section := range d.Sections {
		if section.Slot == slot {
			return section.Assignment, true
		}
	}
	return SectionAssignment{}, false
}

// WeeklySelectionGrid is the day × slot structure returned by the plan generator
type WeeklySelectionGrid struct {
	Days []DaySelection `json:"days"`
}

// GridPosition addresses one section of the grid: the day and the section's
// index within that day
type GridPosition struct {
	Day     int `json:"day"`
	Section int `json:"section"`
}

// GridCell locates a recipe reference inside the grid
type GridCell struct {
	Day     int
	Section int
	Slot    MealSlot
	Ref     RecipeRef
}

// Position returns the cell's address in the grid
func (c GridCell) Position() GridPosition {
	return GridPosition{Day: c.Day, Section: c.Section}
}

// SlotKeys returns the distinct slots across the grid in first-seen order.
// The order defines slot priority for resolution.
func (g WeeklySelectionGrid) SlotKeys() []MealSlot {
	seen := make(map[MealSlot]struct{})
	var slots []MealSlot
	for _, day := range g.Days {
		for _, section := range day.Sections {
			if _, ok := seen[section.Slot]; ok {
				continue
			}
			seen[section.Slot] = struct{}{}
			slots = append(slots, section.Slot)
		}
	}
	return slots
}

// Flatten lists every assigned reference in grid order, one per day per slot.
// Empty cells are skipped.
func (g WeeklySelectionGrid) Flatten() []GridCell {
	var cells []GridCell
	for dayIndex, day := range g.Days {
		for sectionIndex, section := range day.Sections {
			if section.Assignment.RecipeRef.IsZero() {
				continue
			}
			cells = append(cells, GridCell{
				Day:     dayIndex,
				Section: sectionIndex,
				Slot:    section.Slot,
				Ref:     section.Assignment.RecipeRef,
			})
		}
	}
	return cells
}

// Refs returns the flattened references in grid order
func (g WeeklySelectionGrid) Refs() []RecipeRef {
	cells := g.Flatten()
	refs := make([]RecipeRef, len(cells))
	for i, cell := range cells {
		refs[i] = cell.Ref
	}
	return refs
}

// Clone returns a deep copy of the grid
func (g WeeklySelectionGrid) Clone() WeeklySelectionGrid {
	clone := WeeklySelectionGrid{Days: make([]DaySelection, len(g.Days))}
	for i, day := range g.Days {
		clone.Days[i] = DaySelection{Sections: append([]Section(nil), day.Sections...)}
	}
	return clone
}

// Patch returns a copy of the grid with every substitution applied.
//
// A record carrying a Position patches exactly that cell, which must hold the
// record's original reference. A record without one consumes the first cell,
// in grid order, that matches its original and is not claimed by another
// record. The patched cell keeps RecipeRef and gets the substitute as
// AssignedOverrideRef. A record that matches no cell fails the whole patch
// with ErrUnknownOriginalRef.
func (g WeeklySelectionGrid) Patch(records []SubstitutionRecord) (WeeklySelectionGrid, error) {
	patched := g.Clone()
	used := make(map[GridPosition]bool)

	for _, record := range records {
		if record.Position == nil {
			continue
		}
		pos := *record.Position
		if pos.Day < 0 || pos.Day >= len(patched.Days) ||
			pos.Section < 0 || pos.Section >= len(patched.Days[pos.Day].Sections) || used[pos] {
			return WeeklySelectionGrid{}, &UnknownRefError{Ref: record.OriginalRef}
		}
		assignment := &patched.Days[pos.Day].Sections[pos.Section].Assignment
		if !assignment.RecipeRef.Equal(record.OriginalRef) {
			return WeeklySelectionGrid{}, &UnknownRefError{Ref: record.OriginalRef}
		}
		assignment.AssignedOverrideRef = record.SubstituteRef
		used[pos] = true
	}

	for _, record := range records {
		if record.Position != nil {
			continue
		}
		original := record.OriginalRef.Normalize()
		found := false

	search:
		for d := range patched.Days {
			for s := range patched.Days[d].Sections {
				pos := GridPosition{Day: d, Section: s}
				assignment := &patched.Days[d].Sections[s].Assignment
				if used[pos] || assignment.RecipeRef.Normalize() != original {
					continue
				}
				assignment.AssignedOverrideRef = record.SubstituteRef
				used[pos] = true
				found = true
				break search
			}
		}

		if !found {
			return WeeklySelectionGrid{}, &UnknownRefError{Ref: record.OriginalRef}
		}
	}

	return patched, nil
}
