package service

import (
	"fmt"
	"slices"
	"strings"

	"vetslots/pkg/calendar"
	"vetslots/pkg/model"
	"vetslots/pkg/validation"

	"github.com/google/uuid"
)

// normalizeSlots canonicalizes labels so "09:00 am" and "9:00 AM" are one
// slot. Active defaults to true.
func normalizeSlots(inputs []model.SlotInput) ([]model.Slot, error) {
	slots := make([]model.Slot, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))

	for i, in := range inputs {
		time24, err := calendar.ParseLabel(in.Time)
		if err != nil {
			return nil, validation.ValidationErrors{{Field: fmt.Sprintf("slots[%d].time", i), Message: err.Error()}}
		}
		if seen[time24] {
			return nil, validation.ValidationErrors{{Field: fmt.Sprintf("slots[%d].time", i), Message: "duplicate slot " + in.Time}}
		}
		seen[time24] = true

		label, _ := calendar.FormatLabel(time24)
		active := true
		if in.Active != nil {
			active = *in.Active
		}
		slots = append(slots, model.Slot{Time: label, Time24: time24, Active: active})
	}
	return slots, nil
}

func normalizeLabels(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		label, err := calendar.NormalizeLabel(l)
		if err != nil {
			return nil, validation.ValidationErrors{{Field: fmt.Sprintf("unavailable_slots[%d]", i), Message: err.Error()}}
		}
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out, nil
}

// assignSlotIDs keeps the id of every slot whose time24 already existed and
// mints a fresh one otherwise.
func assignSlotIDs(slots []model.Slot, previous []model.Slot) {
	ids := make(map[string]string, len(previous))
	for _, p := range previous {
		if p.ID != "" {
			ids[p.Time24] = p.ID
		}
	}
	for i := range slots {
		if id, ok := ids[slots[i].Time24]; ok {
			slots[i].ID = id
			continue
		}
		slots[i].ID = uuid.NewString()
	}
}

func slotKey(s model.Slot) string {
	return fmt.Sprintf("%s|%s|%t", s.Time, s.Time24, s.Active)
}

// sameSlots compares the {time, time24, active} multisets, ignoring order and ids.
func sameSlots(a, b []model.Slot) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[slotKey(s)]++
	}
	for _, s := range b {
		key := slotKey(s)
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}

func sortByWeekday(templates []*model.SlotTemplate) {
	order := make(map[calendar.Weekday]int, len(calendar.Weekdays))
	for i, d := range calendar.Weekdays {
		order[d] = i
	}
	slices.SortFunc(templates, func(a, b *model.SlotTemplate) int {
		return order[a.Weekday] - order[b.Weekday]
	})
}

// matchesRef prefers the stable slot id and falls back to the 24-hour time.
func matchesRef(slot model.AvailableSlot, id, time24 string) bool {
	if id != "" {
		return strings.EqualFold(slot.ID, id) && slot.Time24 == time24
	}
	return slot.Time24 == time24
}

func templateHas(template *model.SlotTemplate, id, time24 string) bool {
	for _, s := range template.Slots {
		if id != "" && strings.EqualFold(s.ID, id) {
			return true
		}
		if s.Time24 == time24 {
			return true
		}
	}
	return false
}
