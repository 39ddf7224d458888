package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dayon-app/dayon-go/internal/cli/output"
	"github.com/dayon-app/dayon-go/internal/client/api"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// ReviewCommand returns the review subcommand group.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"reviews"},
		Usage:   "Read and write property reviews",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List the reviews of a property",
				ArgsUsage: "PROPERTY_ID",
				Action:    reviewList,
			},
			{
				Name:      "add",
				Usage:     "Rate a property",
				ArgsUsage: "PROPERTY_ID",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "rating",
						Aliases: []string{"r"},
						Usage:   "Rating from 1 to 5",
					},
					&cli.StringFlag{
						Name:    "comment",
						Aliases: []string{"m"},
						Usage:   "Optional comment",
					},
				},
				Action: reviewAdd,
			},
		},
	}
}

func reviewList(c *cli.Context) error {
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

	reviews, err := client.Reviews.List(c.Context, id)
	if err != nil {
		return err
	}
	if env.Printer.Format == output.FormatTable {
		env.Printer.Success("%s", ratingSummary(api.AverageRating(reviews), len(reviews)))
	}
	return env.Printer.Print(reviewSummary{
		PropertyID:    id,
		AverageRating: api.AverageRating(reviews),
		Reviews:       reviews,
	})
}

func reviewAdd(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	id, err := idArg(c, "PROPERTY_ID")
	if err != nil {
		return err
	}
	_, user, err := env.Authenticated(c.Context)
	if err != nil {
		return err
	}
	client, err := env.API(c.Context)
	if err != nil {
		return err
	}

	err = client.Reviews.Create(c.Context, id, domain.NewReview{
		Rating:  c.Int("rating"),
		Comment: strings.TrimSpace(c.String("comment")),
		UserID:  user.ID,
	})
	if err != nil {
		return err
	}
	env.Printer.Success("Review submitted")
	return nil
}
