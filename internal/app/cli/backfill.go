package cli

import (
	"fmt"
	"strings"

	inquirystore "github.com/dalemusser/dispatchhub/internal/app/store/inquiries"
	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/geocode"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

// NewBackfillGeocodeCommand creates the backfill-geocode command.
func NewBackfillGeocodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill-geocode",
		Short: "Resolve coordinates for inquiries that have none",
		Long: `Geocode every inquiry that has an address and city but no location, and
store the result in its location field. Requests share one rate limiter
(one per --geocode-interval) that slows down when the service answers 429.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfillGeocode(rootOpts, cmd)
		},
	}

	fl := cmd.Flags()
	fl.String("geocode-endpoint", geocode.DefaultEndpoint, "Nominatim-compatible search endpoint")
	fl.String("geocode-country", "", "country appended to every query (required; or DISPATCHHUB_GEOCODE_COUNTRY)")
	fl.Duration("geocode-interval", geocode.DefaultInterval, "minimum spacing between requests")
	fl.String("geocode-user-agent", geocode.DefaultUserAgent, "User-Agent sent to the service")
	for _, name := range []string{"geocode_endpoint", "geocode_country", "geocode_interval", "geocode_user_agent"} {
		_ = rootOpts.v.BindPFlag(name, fl.Lookup(flagName(name)))
	}
	return cmd
}

func runBackfillGeocode(rootOpts *RootOptions, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)
	v := rootOpts.v

	country := strings.TrimSpace(v.GetString("geocode_country"))
	if country == "" {
		return f.Fail(NewExitError(ExitCommandError,
			"a geocode country is required (--geocode-country or DISPATCHHUB_GEOCODE_COUNTRY)"))
	}

	client := geocode.NewClient(geocode.Options{
		Endpoint:   v.GetString("geocode_endpoint"),
		UserAgent:  v.GetString("geocode_user_agent"),
		Interval:   v.GetDuration("geocode_interval"),
		HTTPClient: rootOpts.deps.HTTPClient,
		Logger:     rootOpts.log,
	})

	ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Routine(), rootOpts.log, "geocode backfill")
	defer cancel()

	return rootOpts.withBackends(ctx, func(b *backends.Backends) error {
		bf := geocode.NewBackfiller(inquirystore.New(b.Docs), client, country, rootOpts.log)
		sum, err := bf.Run(ctx)
		if err != nil {
			return f.Fail(WrapExitError(ExitFailure, "geocode backfill", err))
		}
		return f.Success(sum,
			fmt.Sprintf("Inquiries processed: %d", sum.Processed),
			fmt.Sprintf("Updated:             %d", sum.Updated),
			fmt.Sprintf("Skipped:             %d", sum.Skipped),
			fmt.Sprintf("Failed:              %d", sum.Failed))
	})
}
