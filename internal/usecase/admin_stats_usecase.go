package usecase

import (
	"context"

	repo "powerchip/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recentOrdersLimit = 10

type AdminStatsUsecase struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	users    repo.UserRepository
}

func NewAdminStatsUsecase(products repo.ProductRepository, orders repo.OrderRepository, users repo.UserRepository) *AdminStatsUsecase {
	return &AdminStatsUsecase{products: products, orders: orders, users: users}
}

type DashboardOutput struct {
	TotalProducts int64           `json:"total_products"`
	TotalOrders   int64           `json:"total_orders"`
	TotalUsers    int64           `json:"total_users"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	RecentOrders  []OrderOutput   `json:"recent_orders"`
}

// 集計は互いに独立なので並列に読む
func (u *AdminStatsUsecase) Dashboard(ctx context.Context) (DashboardOutput, error) {
	var out DashboardOutput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := u.products.Count(gctx)
		out.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := u.orders.Count(gctx)
		out.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := u.users.Count(gctx)
		out.TotalUsers = n
		return err
	})
	g.Go(func() error {
		sum, err := u.orders.SumPaidRevenue(gctx)
		out.TotalRevenue = sum
		return err
	})
	g.Go(func() error {
		recent, err := u.orders.ListRecent(gctx, recentOrdersLimit)
		if err != nil {
			return err
		}
		out.RecentOrders = make([]OrderOutput, 0, len(recent))
		for _, o := range recent {
			out.RecentOrders = append(out.RecentOrders, toOrderOutput(o, nil))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardOutput{}, errDB
	}
	return out, nil
}
