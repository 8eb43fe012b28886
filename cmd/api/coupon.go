package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/config"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/persistence"
	"github.com/spec-kit/support-accounts/internal/repository"
	"github.com/spec-kit/support-accounts/internal/service"
)

var (
	couponTitle    string
	couponDiscount int
	couponEndAt    string
)

func newCouponCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Administer promotional coupons",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an inactive coupon",
		RunE: couponRunner(func(cmd *cobra.Command, _ []string, svc *service.CouponService) error {
			endAt, err := time.Parse(time.RFC3339, couponEndAt)
			if err != nil {
				return fmt.Errorf("--end-at must be RFC3339: %w", err)
			}
			coupon, err := svc.AdminCreate(cmd.Context(), dto.CouponInput{
				Title:         couponTitle,
				DiscountPrice: couponDiscount,
				EndAt:         endAt,
			})
			if err != nil {
				return err
			}
			printCoupons(cmd.OutOrStdout(), []domain.Coupon{*coupon})
			return nil
		}),
	}
	create.Flags().StringVar(&couponTitle, "title", "", "Coupon title")
	create.Flags().IntVar(&couponDiscount, "discount", 0, "Discount price")
	create.Flags().StringVar(&couponEndAt, "end-at", "", "End of the validity window (RFC3339)")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("discount")
	_ = create.MarkFlagRequired("end-at")

	cmd.AddCommand(
		create,
		newCouponToggleCommand("activate", true),
		newCouponToggleCommand("deactivate", false),
		&cobra.Command{
			Use:   "list",
			Short: "List coupons",
			RunE: couponRunner(func(cmd *cobra.Command, _ []string, svc *service.CouponService) error {
				coupons, err := svc.AdminList(cmd.Context())
				if err != nil {
					return err
				}
				printCoupons(cmd.OutOrStdout(), coupons)
				return nil
			}),
		},
	)
	return cmd
}

func newCouponToggleCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Set a coupon's active flag to %t", active),
		Args:  cobra.ExactArgs(1),
		RunE: couponRunner(func(cmd *cobra.Command, args []string, svc *service.CouponService) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid coupon id %q", args[0])
			}
			coupon, err := svc.AdminSetActive(cmd.Context(), id, active)
			if err != nil {
				return err
			}
			printCoupons(cmd.OutOrStdout(), []domain.Coupon{*coupon})
			return nil
		}),
	}
}

func couponRunner(fn func(*cobra.Command, []string, *service.CouponService) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd.Context(), func(_ *config.Config, logger *zap.Logger, pg *persistence.Postgres) error {
			pool, err := pg.Require()
			if err != nil {
				return err
			}
			svc := service.NewCouponService(repository.NewCouponRepository(pool), logger)
			return fn(cmd, args, svc)
		})
	}
}

func printCoupons(w io.Writer, coupons []domain.Coupon) {
	fmt.Fprintf(w, "%-6s %-36s %-8s %-8s %-25s %s\n", "ID", "CODE", "DISCOUNT", "ACTIVE", "END_AT", "TITLE")
	for _, c := range coupons {
		fmt.Fprintf(w, "%-6d %-36s %-8d %-8t %-25s %s\n",
			c.ID, c.Code, c.DiscountPrice, c.IsActive, c.EndAt.Format(time.RFC3339), c.Title)
	}
}
