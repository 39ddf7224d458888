package command

import (
	"encoding/json"
	"testing"

	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/mockapi"
)

func TestPropertyList(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all",
			args: []string{"property", "list"},
			want: []string{"ROOM TYPE", "Casa Verde Boarding House", "Sampaguita Dormitory", "Bayview Bedspace", "3500.00"},
		},
		{
			name:    "query",
			args:    []string{"property", "ls", "-q", "casa"},
			want:    []string{"Casa Verde Boarding House"},
			notWant: []string{"Sampaguita", "Bayview"},
		},
		{
			name:    "room type",
			args:    []string{"property", "list", "--room-type", "Shared"},
			want:    []string{"Sampaguita Dormitory"},
			notWant: []string{"Casa Verde", "Bayview"},
		},
		{
			name:    "available only",
			args:    []string{"property", "list", "-a"},
			want:    []string{"Casa Verde", "Sampaguita"},
			notWant: []string{"Bayview"},
		},
		{
			name: "wide",
			args: []string{"-w", "property", "list"},
			want: []string{"AMENITIES", "WiFi, Aircon", "09171234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.mustRun(tt.args...)
			for _, w := range tt.want {
				assertContains(t, r.stdout, w)
			}
			for _, w := range tt.notWant {
				assertNotContains(t, r.stdout, w)
			}
		})
	}
}

func TestPropertyList_JSON(t *testing.T) {
	e := newTestEnv(t)

	r := e.mustRun("-o", "json", "property", "list")
	var props []domain.Property
	if err := json.Unmarshal([]byte(r.stdout), &props); err != nil {
		t.Fatalf("stdout is not a JSON list: %v\n%s", err, r.stdout)
	}
	if len(props) != 3 {
		t.Fatalf("got %d properties, want 3", len(props))
	}
	if props[2].Price != "1200.50" {
		t.Errorf("Price = %q, want 1200.50", props[2].Price)
	}
}

func TestPropertyShowAndMap(t *testing.T) {
	e := newTestEnv(t)

	r := e.mustRun("property", "show", "1")
	assertContains(t, r.stdout, "Casa Verde Boarding House")
	assertContains(t, r.stdout, "5.0 / 5 (1 reviews)")

	r = e.mustRun("property", "show", "2")
	assertContains(t, r.stdout, "No reviews yet")

	r = e.run("", "property", "show", "42")
	if r.code != 1 {
		t.Fatalf("unknown property exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "not found")

	r = e.mustRun("property", "map", "1")
	assertContains(t, r.stdout, "7.073100")
	assertContains(t, r.stdout, "125.612800")

	r = e.run("", "property", "map")
	if r.code != 1 {
		t.Fatalf("missing id exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "PROPERTY_ID")
}

func TestReservationFlow(t *testing.T) {
	e := newTestEnv(t)

	r := e.run("", "reservation", "list")
	if r.code != 1 {
		t.Fatalf("anonymous list exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "not logged in")

	e.login()

	r = e.mustRun("reservation", "create", "1", "-d", "Two weeks", "--date", "2026-11-02")
	assertContains(t, r.stderr, "Reservation requested for 2026-11-02")
	assertContains(t, r.stdout, "Casa Verde Boarding House")

	e.mustRun("reservation", "create", "2", "-d", "Confirmed stay", "--date", "2026-12-01")
	e.server.Store().SetReservationStatus("2", domain.ReservationReserved)

	r = e.mustRun("-w", "reservation", "list")
	assertContains(t, r.stdout, "CANCELLABLE")
	assertContains(t, r.stdout, "Two weeks")
	assertContains(t, r.stdout, domain.ReservationReserved)

	r = e.run("", "reservation", "cancel", "2")
	if r.code != 1 {
		t.Fatalf("cancel confirmed exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "already confirmed")

	r = e.mustRun("reservation", "cancel", "1")
	assertContains(t, r.stderr, "Reservation 1 cancelled")

	r = e.run("", "reservation", "rm", "1")
	if r.code != 1 {
		t.Fatalf("cancel twice exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "not found")

	r = e.run("", "reservation", "create", "1", "--date", "2026-11-02")
	if r.code != 1 {
		t.Fatalf("missing description exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "description: Please enter a description.")

	r = e.run("", "reservation", "create", "1", "-d", "x", "--date", "next week")
	if r.code != 1 {
		t.Fatalf("bad date exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "date_reserved")
}

func TestReviewFlow(t *testing.T) {
	e := newTestEnv(t)

	r := e.mustRun("review", "list", "1")
	assertContains(t, r.stderr, "5.0 / 5 (1 reviews)")
	assertContains(t, r.stdout, "Clean rooms")

	r = e.run("", "review", "add", "1", "-r", "4")
	if r.code != 1 {
		t.Fatalf("anonymous add exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "not logged in")

	e.login()

	r = e.run("", "review", "add", "1", "-r", "9")
	if r.code != 1 {
		t.Fatalf("out of range exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "rating: The rating must be between 1 and 5.")

	r = e.mustRun("review", "add", "1", "-r", "4", "-m", "Quiet at night")
	assertContains(t, r.stderr, "Review submitted")

	r = e.mustRun("review", "list", "1")
	assertContains(t, r.stderr, "4.5 / 5 (2 reviews)")
	assertContains(t, r.stdout, "Quiet at night")

	r = e.mustRun("-o", "json", "review", "list", "1")
	var summary struct {
		AverageRating float64         `json:"average_rating"`
		Reviews       []domain.Review `json:"reviews"`
	}
	if err := json.Unmarshal([]byte(r.stdout), &summary); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, r.stdout)
	}
	if summary.AverageRating != 4.5 || len(summary.Reviews) != 2 {
		t.Errorf("summary = %+v", summary)
	}
	assertNotContains(t, r.stderr, "reviews)")
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	r := e.mustRun("profile", "show")
	assertContains(t, r.stdout, mockapi.DemoName)

	r = e.mustRun("profile", "update", "--name", "Renamed User")
	assertContains(t, r.stderr, "Profile updated")
	assertContains(t, r.stdout, "Renamed User")
	assertContains(t, r.stdout, mockapi.DemoEmail)

	r = e.run("", "profile", "password", "--current", "nope", "--new", "newpass123")
	if r.code != 1 {
		t.Fatalf("wrong current password exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "current_password: The password is incorrect.")

	r = e.run("", "profile", "password", "--current", mockapi.DemoPassword, "--new", "newpass123", "--confirm", "other")
	if r.code != 1 {
		t.Fatalf("mismatch exit = %d, want 1", r.code)
	}
	assertContains(t, r.stderr, "New passwords do not match")

	r = e.mustRun("profile", "password", "--current", mockapi.DemoPassword, "--new", "newpass123")
	assertContains(t, r.stderr, "Password updated successfully")

	e.mustRun("logout")
	r = e.run("", "login", "-e", mockapi.DemoEmail, "-p", mockapi.DemoPassword)
	if r.code != 1 {
		t.Fatalf("login with old password exit = %d, want 1", r.code)
	}
	e.mustRun("login", "-e", mockapi.DemoEmail, "-p", "newpass123")
}
