package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// ReservationCommand returns the reservation subcommand group.
func ReservationCommand() *cli.Command {
	return &cli.Command{
		Name:    "reservation",
		Aliases: []string{"reservations", "res"},
		Usage:   "Manage your reservations",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List your reservations",
				Action:  reservationList,
			},
			{
				Name:      "create",
				Usage:     "Request a reservation",
				ArgsUsage: "PROPERTY_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Message for the owner",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Date to reserve, YYYY-MM-DD (default: today)",
					},
				},
				Action: reservationCreate,
			},
			{
				Name:      "cancel",
				Aliases:   []string{"delete", "rm"},
				Usage:     "Cancel a pending reservation",
				ArgsUsage: "RESERVATION_ID",
				Action:    reservationCancel,
			},
		},
	}
}

func reservationList(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	if _, _, err := env.Authenticated(c.Context); err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	list, err := client.Reservations.List(c.Context)
	if err != nil {
		return err
	}
	return env.Printer.Print(reservationTable(list))
}

func reservationCreate(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	id, err := idArg(c, "PROPERTY_ID")
	if err != nil {
		return err
	}
	if _, _, err := env.Authenticated(c.Context); err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	r := domain.NewReservationFor(id, c.String("description"), time.Now())
	if c.IsSet("date") {
		r.DateReserved = c.String("date")
	}
	created, err := client.Reservations.Create(c.Context, r)
	if err != nil {
		return err
	}
	env.Printer.Success("Reservation requested for %s", created.DateReserved)
	return env.Printer.Print(reservationTable{*created})
}

func reservationCancel(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	id, err := idArg(c, "RESERVATION_ID")
	if err != nil {
		return err
	}
	if _, _, err := env.Authenticated(c.Context); err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	list, err := client.Reservations.List(c.Context)
	if err != nil {
		return err
	}
	found := false
	for _, r := range list {
		if r.ID != id {
			continue
		}
		found = true
		if !r.Cancellable() {
			return fmt.Errorf("reservation %s is already confirmed and cannot be cancelled", id)
		}
	}
	if !found {
		return domain.ErrNotFound.WithDetails("reservation " + id.String())
	}

	if err := client.Reservations.Cancel(c.Context, id); err != nil {
		return err
	}
	env.Printer.Success("Reservation %s cancelled", id)
	return nil
}
