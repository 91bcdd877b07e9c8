package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/travellistings/internal/handler"
)

func listingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"listing"},
		Short:   "Browse and manage listings",
	}
	cmd.AddCommand(listListingsCmd("list", "List active listings"), listListingsCmd("search", "Search listings"),
		showListingCmd(), createListingCmd(), availabilityCmd(), deactivateListingCmd())
	return cmd
}

func listListingsCmd(use, short string) *cobra.Command {
	var (
		location, city, country, propertyType, amenities, minPrice, maxPrice string
		minGuests, limit, offset                                             int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIf(q, "location", location)
			setIf(q, "city", city)
			setIf(q, "country", country)
			setIf(q, "property_type", propertyType)
			setIf(q, "amenities", amenities)
			setIf(q, "min_price", minPrice)
			setIf(q, "max_price", maxPrice)
			if minGuests > 0 {
				q.Set("min_guests", strconv.Itoa(minGuests))
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			path := "/listings"
			if use == "search" {
				path = "/search"
			}
			var res handler.ListResponse[handler.ListingResponse]
			raw, err := client().do(http.MethodGet, path+"?"+q.Encode(), nil, &res)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tCITY\tTYPE\tPRICE\tGUESTS")
				for _, l := range res.Results {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", l.ID, l.Title, l.City, l.PropertyType, l.PricePerNight, l.MaxGuests)
				}
				w.Flush()
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&location, "location", "", "matches city, country or address")
	f.StringVar(&city, "city", "", "exact city")
	f.StringVar(&country, "country", "", "exact country")
	f.StringVar(&propertyType, "type", "", "house, apartment, villa, cabin, hotel or resort")
	f.StringVar(&amenities, "amenities", "", "comma-separated amenities that must all be present")
	f.StringVar(&minPrice, "min-price", "", "minimum nightly price")
	f.StringVar(&maxPrice, "max-price", "", "maximum nightly price")
	f.IntVar(&minGuests, "guests", 0, "minimum guest capacity")
	f.IntVar(&limit, "limit", 20, "page size")
	f.IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func showListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <listing-id>",
		Short: "Show a listing with its rating and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l handler.ListingResponse
			raw, err := client().do(http.MethodGet, "/listings/"+args[0], nil, &l)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", l.Title, l.ID)
				fmt.Fprintf(out, "  %s, %s, %s\n", l.Location, l.City, l.Country)
				fmt.Fprintf(out, "  %s · %d guests · %s/night\n", l.PropertyType, l.MaxGuests, l.PricePerNight)
				if len(l.Amenities) > 0 {
					fmt.Fprintf(out, "  amenities: %s\n", strings.Join(l.Amenities, ", "))
				}
				if l.AverageRating != nil && l.ReviewCount != nil {
					fmt.Fprintf(out, "  rating: %s (%d reviews)\n", *l.AverageRating, *l.ReviewCount)
				}
				for _, r := range l.Reviews {
					fmt.Fprintf(out, "    %d★ %s\n", r.Rating, r.Comment)
				}
			})
		},
	}
}

func createListingCmd() *cobra.Command {
	var (
		req       handler.CreateListingRequest
		amenities string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing hosted by the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Amenities = splitCSV(amenities)
			var l handler.ListingResponse
			raw, err := client().do(http.MethodPost, "/listings", req, &l)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ created listing %s\n", l.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "title")
	f.StringVar(&req.Description, "description", "", "description")
	f.StringVar(&req.PropertyType, "type", "", "house, apartment, villa, cabin, hotel or resort")
	f.StringVar(&req.Location, "location", "", "street address")
	f.StringVar(&req.City, "city", "", "city")
	f.StringVar(&req.Country, "country", "", "country")
	f.StringVar(&req.PricePerNight, "price", "", "nightly price")
	f.IntVar(&req.MaxGuests, "max-guests", 1, "guest capacity")
	f.IntVar(&req.Bedrooms, "bedrooms", 0, "bedrooms")
	f.IntVar(&req.Bathrooms, "bathrooms", 0, "bathrooms")
	f.StringVar(&amenities, "amenities", "", "comma-separated amenities")
	markRequired(cmd, "title", "type", "location", "price")
	return cmd
}

func availabilityCmd() *cobra.Command {
	var checkIn, checkOut string
	cmd := &cobra.Command{
		Use:   "availability <listing-id>",
		Short: "Check whether a listing is free for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"check_in": {checkIn}, "check_out": {checkOut}}
			var res handler.AvailabilityResponse
			raw, err := client().do(http.MethodGet, "/listings/"+args[0]+"/availability?"+q.Encode(), nil, &res)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				state := "available"
				if !res.Available {
					state = "unavailable"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s → %s: %s\n", res.CheckIn, res.CheckOut, state)
			})
		},
	}
	cmd.Flags().StringVar(&checkIn, "check-in", "", "YYYY-MM-DD")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "YYYY-MM-DD")
	markRequired(cmd, "check-in", "check-out")
	return cmd
}

func deactivateListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <listing-id>",
		Short: "Deactivate one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client().do(http.MethodDelete, "/listings/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ deactivated listing %s\n", args[0])
			return nil
		},
	}
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
