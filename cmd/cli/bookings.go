package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/travellistings/internal/handler"
)

func bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "Create bookings and move them through their lifecycle",
	}
	cmd.AddCommand(listBookingsCmd(), createBookingCmd(), showBookingCmd(),
		transitionCmd("confirm", "Confirm a pending booking (host)"),
		transitionCmd("cancel", "Cancel a pending or confirmed booking"),
		transitionCmd("complete", "Complete a confirmed booking after check-out"),
	)
	return cmd
}

func listBookingsCmd() *cobra.Command {
	var (
		status, listing string
		limit, offset   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings where you are the guest or the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIf(q, "status", status)
			setIf(q, "listing", listing)
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var res handler.ListResponse[handler.BookingResponse]
			raw, err := client().do(http.MethodGet, "/bookings?"+q.Encode(), nil, &res)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				printBookings(cmd, res.Results)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, confirmed, cancelled or completed")
	cmd.Flags().StringVar(&listing, "listing", "", "only bookings of this listing")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func createBookingCmd() *cobra.Command {
	var (
		req   handler.CreateBookingRequest
		total string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Request a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			if total != "" {
				req.TotalPrice = &total
			}
			var b handler.BookingResponse
			raw, err := client().do(http.MethodPost, "/bookings", req, &b)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ booking %s %s (%d nights, total %s)\n", b.ID, b.Status, b.DurationDays, b.TotalPrice)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ListingID, "listing", "", "listing ID")
	f.StringVar(&req.CheckIn, "check-in", "", "YYYY-MM-DD")
	f.StringVar(&req.CheckOut, "check-out", "", "YYYY-MM-DD")
	f.IntVar(&req.NumGuests, "guests", 1, "number of guests")
	f.StringVar(&total, "total", "", "expected total price; rejected if it differs")
	f.StringVar(&req.SpecialRequests, "note", "", "special requests")
	markRequired(cmd, "listing", "check-in", "check-out")
	return cmd
}

func showBookingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <booking-id>",
		Short: "Show a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var b handler.BookingResponse
			raw, err := client().do(http.MethodGet, "/bookings/"+args[0], nil, &b)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				printBookings(cmd, []handler.BookingResponse{b})
			})
		},
	}
}

// transitionCmd applies action to one booking, or to several through the
// bulk endpoint
func transitionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <booking-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var b handler.BookingResponse
				raw, err := client().do(http.MethodPost, "/bookings/"+args[0]+"/"+action, nil, &b)
				if err != nil {
					return err
				}
				return printResult(cmd, raw, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ booking %s is now %s\n", b.ID, b.Status)
				})
			}

			var res handler.BulkTransitionResponse
			raw, err := client().do(http.MethodPost, "/bookings/bulk", handler.BulkTransitionRequest{BookingIDs: args, Action: action}, &res)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				out := cmd.OutOrStdout()
				for _, item := range res.Results {
					if item.OK {
						fmt.Fprintf(out, "✓ %s %s\n", item.BookingID, item.Booking.Status)
					} else {
						fmt.Fprintf(out, "✗ %s %s: %s\n", item.BookingID, item.Kind, item.Error)
					}
				}
				fmt.Fprintf(out, "%d succeeded, %d failed\n", res.Succeeded, res.Failed)
			})
		},
	}
}

func printBookings(cmd *cobra.Command, bookings []handler.BookingResponse) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tCHECK-IN\tCHECK-OUT\tGUESTS\tTOTAL\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", b.ID, b.ListingID, b.CheckIn, b.CheckOut, b.NumGuests, b.TotalPrice, b.Status)
	}
	w.Flush()
}
