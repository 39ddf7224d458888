package command

import (
	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/client/api"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// PropertyCommand returns the property subcommand group.
func PropertyCommand() *cli.Command {
	return &cli.Command{
		Name:    "property",
		Aliases: []string{"properties", "prop"},
		Usage:   "Browse boarding-house listings",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List properties",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Filter by name (case-insensitive substring)",
					},
					&cli.StringFlag{
						Name:    "room-type",
						Aliases: []string{"t"},
						Usage:   "Filter by exact room type",
					},
					&cli.BoolFlag{
						Name:    "available",
						Aliases: []string{"a"},
						Usage:   "Only show available properties",
					},
				},
				Action: propertyList,
			},
			{
				Name:      "show",
				Aliases:   []string{"get"},
				Usage:     "Show a property with its rating",
				ArgsUsage: "PROPERTY_ID",
				Action:    propertyShow,
			},
			{
				Name:      "map",
				Aliases:   []string{"location"},
				Usage:     "Show the map position of a property",
				ArgsUsage: "PROPERTY_ID",
				Action:    propertyMap,
			},
		},
	}
}

func propertyList(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	props, err := client.Properties.List(c.Context)
	if err != nil {
		return err
	}
	props = api.Filter(props, domain.PropertyFilter{
		Query:    c.String("query"),
		RoomType: c.String("room-type"),
	})
	if c.Bool("available") {
		avail := props[:0]
		for _, p := range props {
			if p.Available() {
				avail = append(avail, p)
			}
		}
		props = avail
	}
	return env.Printer.Print(propertyTable(props))
}

func propertyShow(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	id, err := idArg(c, "PROPERTY_ID")
	if err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	prop, err := client.Properties.Find(c.Context, id)
	if err != nil {
		return err
	}
	reviews, err := client.Reviews.List(c.Context, id)
	if err != nil {
		return err
	}
	return env.Printer.Print(propertyDetail{
		Property:      *prop,
		AverageRating: api.AverageRating(reviews),
		ReviewCount:   len(reviews),
	})
}

func propertyMap(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	id, err := idArg(c, "PROPERTY_ID")
	if err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	loc, err := client.Properties.Location(c.Context, id)
	if err != nil {
		return err
	}
	return env.Printer.Print(locationView{PropertyID: id, Location: loc})
}

// idArg returns the first positional argument as an ID.
func idArg(c *cli.Context, name string) (domain.ID, error) {
	if c.NArg() < 1 || c.Args().First() == "" {
		return "", domain.ErrMissingArgument.WithDetails(name)
	}
	return domain.ID(c.Args().First()), nil
}
