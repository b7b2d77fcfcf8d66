package scheduler

import "testing"

func sampleRooms() []Room {
	return []Room{
		{ID: "alpine", Name: "Alpine", Capacity: 10, Type: RoomTypeLarge, IsActive: true},
		{ID: "birch", Name: "Birch", Capacity: 4, Type: RoomTypeSmall, IsActive: true},
		{ID: "cedar", Name: "Cedar", Capacity: 20, Type: RoomTypeLarge, IsActive: false},
		{ID: "dune", Name: "Dune", Capacity: 6, Type: RoomTypeSmall, IsActive: true},
	}
}

func roomIDs(rooms []Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	return ids
}

func TestFilterRooms(t *testing.T) {
	t.Run("keeps active rooms with enough capacity in input order", func(t *testing.T) {
		got := roomIDs(FilterRooms(sampleRooms(), 5))
		want := []string{"alpine", "dune"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("zero attendees skips capacity but not activity", func(t *testing.T) {
		got := roomIDs(FilterRooms(sampleRooms(), 0))
		if len(got) != 3 {
			t.Fatalf("expected the three active rooms, got %v", got)
		}
		for _, id := range got {
			if id == "cedar" {
				t.Fatalf("inactive room offered: %v", got)
			}
		}
	})

	t.Run("empty result is valid", func(t *testing.T) {
		if got := FilterRooms(sampleRooms(), 50); len(got) != 0 {
			t.Fatalf("expected no rooms, got %v", roomIDs(got))
		}
	})

	t.Run("larger attendee counts never grow the set", func(t *testing.T) {
		rooms := sampleRooms()
		previous := map[string]bool{}
		for _, room := range FilterRooms(rooms, 1) {
			previous[room.ID] = true
		}
		for attendees := 2; attendees <= 12; attendees++ {
			current := FilterRooms(rooms, attendees)
			for _, room := range current {
				if !previous[room.ID] {
					t.Fatalf("room %s appeared at %d attendees", room.ID, attendees)
				}
			}
			previous = map[string]bool{}
			for _, room := range current {
				previous[room.ID] = true
			}
		}
	})
}
