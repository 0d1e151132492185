package domain

import (
	"testing"
)

// FuzzParseEntityID checks that parsing never panics and that any accepted
// value survives a String round-trip.
func FuzzParseEntityID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE work_orders;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseEntityID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseEntityID(id.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseAllIDs checks the ID types against each other: they share one
// validation path, so acceptance must be identical.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errEntity := ParseEntityID(input)
		_, errActor := ParseActorID(input)
		_, errNotification := ParseNotificationID(input)

		if (errEntity == nil) != (errActor == nil) || (errEntity == nil) != (errNotification == nil) {
			t.Error("inconsistent acceptance across ID types")
		}
	})
}
