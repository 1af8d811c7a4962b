package mongo

import (
	"testing"

	appointmentrepo "vetslots/internal/appointments/repository"
	slotrepo "vetslots/internal/slots/repository"
	tokenrepo "vetslots/internal/tokens/repository"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_MatchRepositories(t *testing.T) {
	defs := Collections()

	for _, name := range []string{
		slotrepo.SlotTemplatesCollection,
		slotrepo.UnavailabilityCollection,
		appointmentrepo.AppointmentsCollection,
		tokenrepo.AppointmentTokensCollection,
	} {
		def, ok := defs[name]
		if !ok {
			t.Errorf("no migration for collection %s", name)
			continue
		}
		if len(def.Indexes) == 0 {
			t.Errorf("collection %s has no indexes", name)
		}
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("collection %s has no $jsonSchema validator", name)
		}
	}
}

func TestAppointmentsIndexes_LiveSlotIsPartialUnique(t *testing.T) {
	var found bool
	for _, idx := range AppointmentsIndexes {
		if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != "live_slot_unique" {
			continue
		}
		found = true

		if idx.Options.Unique == nil || !*idx.Options.Unique {
			t.Error("live slot index must be unique")
		}
		filter, ok := idx.Options.PartialFilterExpression.(bson.M)
		if !ok || filter["is_canceled"] != 0 {
			t.Errorf("partial filter = %v, want is_canceled: 0", idx.Options.PartialFilterExpression)
		}
		keys := idx.Keys.(bson.D)
		want := []string{"doctor_id", "appointment_date", "appointment_time24"}
		if len(keys) != len(want) {
			t.Fatalf("keys = %v", keys)
		}
		for i, k := range keys {
			if k.Key != want[i] {
				t.Errorf("key %d = %s, want %s", i, k.Key, want[i])
			}
		}
	}
	if !found {
		t.Fatal("live slot index not defined")
	}
}

func TestAppointmentTokensIndexes_TTL(t *testing.T) {
	idx := AppointmentTokensIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Fatal("expire_at index must expire documents at the stored instant")
	}
}
