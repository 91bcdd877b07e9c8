package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/travellistings/internal/handler"
)

func reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review"},
		Short:   "Write and read listing reviews",
	}
	cmd.AddCommand(createReviewCmd(), ratingCmd(), deactivateReviewCmd())
	return cmd
}

func createReviewCmd() *cobra.Command {
	var req handler.CreateReviewRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Review a listing (one review per listing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r handler.ReviewResponse
			raw, err := client().do(http.MethodPost, "/reviews", req, &r)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ review %s saved\n", r.ID)
			})
		},
	}
	cmd.Flags().StringVar(&req.ListingID, "listing", "", "listing ID")
	cmd.Flags().IntVar(&req.Rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "comment")
	markRequired(cmd, "listing", "rating")
	return cmd
}

func ratingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rating <listing-id>",
		Short: "Show a listing's average rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r handler.RatingResponse
			raw, err := client().do(http.MethodGet, "/listings/"+args[0]+"/rating", nil, &r)
			if err != nil {
				return err
			}
			return printResult(cmd, raw, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d reviews)\n", r.AverageRating, r.ReviewCount)
			})
		},
	}
}

func deactivateReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <review-id>",
		Short: "Hide a review you wrote or one on your listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client().do(http.MethodDelete, "/reviews/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ deactivated review %s\n", args[0])
			return nil
		},
	}
}
